// Package sources fetches the raw order export behind an opaque data-source
// identifier.
package sources

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/chrisdamba/darkstoremetrics/internal/cloudwriter"
	"github.com/chrisdamba/darkstoremetrics/internal/repositories"
)

var (
	ErrEmptyPayload = errors.New("source returned an empty payload")
	ErrUnsupported  = errors.New("unsupported data source")
)

//go:embed sample_orders.csv
var fallbackCSV []byte

// Fallback returns the built-in sample export used when a fetch fails.
func Fallback() []byte {
	out := make([]byte, len(fallbackCSV))
	copy(out, fallbackCSV)
	return out
}

type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
	// Name identifies the source in logs and dataset metadata.
	Name() string
}

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %s", e.URL, e.Status)
}

// Deps carries the optional clients needed by non-HTTP sources.
type Deps struct {
	HTTPClient *http.Client
	S3         cloudwriter.ObjectReader
	Rows       repositories.OrderRowRepository
}

const sheetExportURL = "https://docs.google.com/spreadsheets/d/%s/export?format=csv"

// New resolves id into a Source:
//   - http(s)://    HTTP GET
//   - s3://b/key    S3 object
//   - postgres://   rows from deps.Rows
//   - file://path or an existing local path
//   - anything else is taken as a Google Sheets document id
func New(id string, deps Deps) (Source, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: empty identifier", ErrUnsupported)
	}

	u, err := url.Parse(id)
	if err == nil && u.Scheme != "" {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return NewHTTPSource(id, deps.HTTPClient), nil
		case "s3":
			if deps.S3 == nil {
				return nil, fmt.Errorf("%w: s3 source without an s3 client", ErrUnsupported)
			}
			return NewS3Source(deps.S3, u.Host, strings.TrimPrefix(u.Path, "/")), nil
		case "postgres", "postgresql":
			if deps.Rows == nil {
				return nil, fmt.Errorf("%w: postgres source without a row reader", ErrUnsupported)
			}
			return NewRowSource(redact(u), deps.Rows), nil
		case "file":
			return NewFileSource(u.Path), nil
		}
	}

	if _, err := os.Stat(id); err == nil {
		return NewFileSource(id), nil
	}
	return NewHTTPSource(fmt.Sprintf(sheetExportURL, url.PathEscape(id)), deps.HTTPClient), nil
}

func redact(u *url.URL) string {
	c := *u
	c.User = nil
	c.RawQuery = ""
	return c.String()
}
