package ingest

import (
	"strings"

	"golang.org/x/text/cases"
)

// Field is a canonical order column.
type Field int

const (
	FieldID Field = iota
	FieldStore
	FieldBrand
	FieldCreated
	FieldImported
	FieldAssigned
	FieldConfirmed
	FieldPrinted
	FieldManifested
	FieldDelivered
	fieldCount
)

// Aliases lists the accepted header names per field, in lookup order.
var Aliases = map[Field][]string{
	FieldID:         {"Order ID", "ID", "Order Id", "Order"},
	FieldStore:      {"Darkstore Name", "Darkstore", "Store Name", "Store"},
	FieldBrand:      {"Brand Name", "Brand"},
	FieldCreated:    {"Created At", "Created Date", "Order Created At"},
	FieldImported:   {"Import At", "Imported At", "Import Date"},
	FieldAssigned:   {"Assigned At", "Assigned Date"},
	FieldConfirmed:  {"Confirmed At", "Confirmed Date"},
	FieldPrinted:    {"Printed At", "Printed Date", "Label Printed At"},
	FieldManifested: {"Manifest At", "Manifested At", "Manifest Date"},
	FieldDelivered:  {"Delivered At", "Delivery At", "Delivered Date"},
}

// HeaderMap records which source header serves each field for one batch.
type HeaderMap struct {
	columns [fieldCount]string
	present [fieldCount]bool
}

// ResolveHeaders picks, for each field, the first alias present among
// headers. Exact matches win; a case-folded pass then covers casing drift.
func ResolveHeaders(headers []string) HeaderMap {
	exact := make(map[string]string, len(headers))
	folded := make(map[string]string, len(headers))
	fold := cases.Fold()
	for _, h := range headers {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if _, ok := exact[h]; !ok {
			exact[h] = h
		}
		key := fold.String(h)
		if _, ok := folded[key]; !ok {
			folded[key] = h
		}
	}

	var hm HeaderMap
	for f := Field(0); f < fieldCount; f++ {
		if col, ok := lookup(Aliases[f], exact, func(s string) string { return s }); ok {
			hm.set(f, col)
			continue
		}
		if col, ok := lookup(Aliases[f], folded, fold.String); ok {
			hm.set(f, col)
		}
	}
	return hm
}

func lookup(aliases []string, index map[string]string, key func(string) string) (string, bool) {
	for _, alias := range aliases {
		if col, ok := index[key(alias)]; ok {
			return col, true
		}
	}
	return "", false
}

func (hm *HeaderMap) set(f Field, column string) {
	hm.columns[f] = column
	hm.present[f] = true
}

// Column returns the source header resolved for f.
func (hm HeaderMap) Column(f Field) (string, bool) {
	if f < 0 || f >= fieldCount {
		return "", false
	}
	return hm.columns[f], hm.present[f]
}

func (hm HeaderMap) Has(f Field) bool {
	_, ok := hm.Column(f)
	return ok
}

// Value reads f from rec, trimmed; missing columns read as "".
func (hm HeaderMap) Value(rec Record, f Field) string {
	col, ok := hm.Column(f)
	if !ok {
		return ""
	}
	return strings.TrimSpace(rec[col])
}
