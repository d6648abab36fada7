package repositories

import "context"

// OrderRowRepository reads raw order lifecycle rows from a store that holds
// the export upstream of this service.
type OrderRowRepository interface {
	// Rows returns the column names and every row rendered as text.
	Rows(ctx context.Context) ([]string, [][]string, error)
}
