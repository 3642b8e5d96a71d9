package sheets

import (
	"fmt"
	"strings"
)

// records turns a header row plus data rows into one map per row, keyed by
// trimmed header. Short rows leave the missing columns empty; blank rows are
// skipped.
func records(rows [][]interface{}) []map[string]string {
	if len(rows) < 2 {
		return nil
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(cell(h))
	}

	out := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(map[string]string, len(header))
		blank := true
		for i, name := range header {
			if name == "" {
				continue
			}
			var v string
			if i < len(row) {
				v = strings.TrimSpace(cell(row[i]))
			}
			if v != "" {
				blank = false
			}
			rec[name] = v
		}
		if !blank {
			out = append(out, rec)
		}
	}
	return out
}

func cell(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
