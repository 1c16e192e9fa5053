package export

import (
	"bytes"
	"encoding/json"

	"github.com/use-agent/harvest/models"
)

// Table is a flat, column-ordered view of extraction results.
type Table struct {
	Columns []string
	Rows    []map[string]json.RawMessage
}

func (t *Table) add(cols []string, row map[string]json.RawMessage) {
	seen := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		seen[c] = struct{}{}
	}
	for _, c := range cols {
		if _, ok := seen[c]; !ok {
			t.Columns = append(t.Columns, c)
			seen[c] = struct{}{}
		}
	}
	t.Rows = append(t.Rows, row)
}

// Records returns the rows as string cells in column order. Strings are
// unquoted, null becomes "", anything else stays JSON text.
func (t Table) Records() [][]string {
	out := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rec := make([]string, len(t.Columns))
		for j, c := range t.Columns {
			rec[j] = cellText(row[c])
		}
		out[i] = rec
	}
	return out
}

// Objects returns the rows as generic JSON objects.
func (t Table) Objects() []map[string]json.RawMessage {
	if t.Rows == nil {
		return []map[string]json.RawMessage{}
	}
	return t.Rows
}

// ListingRows flattens scrape results: each listing becomes a row. A
// result without a listings array becomes one row holding its key and
// raw output.
func ListingRows(results []models.ScrapeResult) Table {
	var t Table
	for _, r := range results {
		if listings, ok := arrayField(r.StructuredFields, "listings"); ok {
			added := false
			for _, item := range listings {
				cols, obj, ok := orderedObject(item)
				if !ok {
					continue
				}
				t.add(cols, obj)
				added = true
			}
			if added || len(listings) == 0 {
				continue
			}
		}
		t.add([]string{"unique_name", "structured_fields"}, map[string]json.RawMessage{
			"unique_name":       quote(r.Key),
			"structured_fields": r.StructuredFields,
		})
	}
	return t
}

// PageRows flattens pagination results into one row per page URL.
func PageRows(results []models.PaginationResult) Table {
	var t Table
	for _, r := range results {
		if urls, ok := arrayField(r.PaginationResult, "page_urls"); ok {
			for _, u := range urls {
				t.add([]string{"page_url"}, map[string]json.RawMessage{"page_url": u})
			}
			continue
		}
		t.add([]string{"unique_name", "pagination_result"}, map[string]json.RawMessage{
			"unique_name":       quote(r.Key),
			"pagination_result": r.PaginationResult,
		})
	}
	return t
}

func arrayField(raw json.RawMessage, name string) ([]json.RawMessage, bool) {
	_, obj, ok := orderedObject(raw)
	if !ok {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(obj[name], &items); err != nil || obj[name] == nil {
		return nil, false
	}
	return items, true
}

// orderedObject decodes a JSON object keeping its key order.
func orderedObject(raw json.RawMessage) ([]string, map[string]json.RawMessage, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil || tok != json.Delim('{') {
		return nil, nil, false
	}

	var keys []string
	obj := make(map[string]json.RawMessage)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, false
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, false
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, nil, false
		}
		if _, dup := obj[key]; !dup {
			keys = append(keys, key)
		}
		obj[key] = v
	}
	return keys, obj, true
}

func cellText(v json.RawMessage) string {
	if len(v) == 0 || string(v) == "null" {
		return ""
	}
	if v[0] == '"' {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return s
		}
	}
	return string(v)
}

func quote(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}

// Entry is the per-URL view of a run.
type Entry struct {
	Key              string          `json:"unique_name"`
	URL              string          `json:"url"`
	StructuredFields json.RawMessage `json:"structured_fields,omitempty"`
	PaginationResult json.RawMessage `json:"pagination_result,omitempty"`
}

// Entries joins a run's listing and pagination results by key, in URL
// order. Duplicate URLs share a key and appear once.
func Entries(r *models.RunResult) []Entry {
	if r == nil {
		return []Entry{}
	}
	listing := make(map[string]json.RawMessage)
	if r.Scrape != nil {
		for _, res := range r.Scrape.Results {
			listing[res.Key] = res.StructuredFields
		}
	}
	pages := make(map[string]json.RawMessage)
	if r.Pagination != nil {
		for _, res := range r.Pagination.Results {
			pages[res.Key] = res.PaginationResult
		}
	}

	out := make([]Entry, 0, len(r.Keys))
	seen := make(map[string]struct{}, len(r.Keys))
	for i, key := range r.Keys {
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		e := Entry{Key: key, StructuredFields: listing[key], PaginationResult: pages[key]}
		if i < len(r.URLs) {
			e.URL = r.URLs[i]
		}
		out = append(out, e)
	}
	return out
}
