package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jszwec/csvutil"
	"gopkg.in/yaml.v3"
)

type outputFormat string

const (
	formatTable outputFormat = "table"
	formatJSON  outputFormat = "json"
	formatYAML  outputFormat = "yaml"
	formatCSV   outputFormat = "csv"
)

var errCSVNeedsList = errors.New("csv output needs a struct or a list of structs")

func parseOutputFormat(raw string) (outputFormat, error) {
	switch f := outputFormat(strings.ToLower(strings.TrimSpace(raw))); f {
	case formatTable, formatJSON, formatYAML, formatCSV:
		return f, nil
	case "":
		return formatTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q (valid: table, json, yaml, csv)", raw)
	}
}

// table is the human-readable rendering of a result.
type table struct {
	header []string
	rows   [][]string
}

// render writes v in format. tbl builds the table view lazily.
func render(w io.Writer, format outputFormat, v any, tbl func() table) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case formatCSV:
		return writeCSV(w, v)
	default:
		return writeTable(w, tbl())
	}
}

func writeCSV(w io.Writer, v any) error {
	rv := reflect.ValueOf(v)
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)

	switch {
	case rv.Kind() == reflect.Slice:
		for i := range rv.Len() {
			if err := enc.Encode(rv.Index(i).Interface()); err != nil {
				return fmt.Errorf("encode csv row %d: %w", i, err)
			}
		}
	case reflect.Indirect(rv).Kind() == reflect.Struct:
		// A single result is one row.
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode csv row: %w", err)
		}
	default:
		return errCSVNeedsList
	}
	cw.Flush()
	return cw.Error()
}

func writeTable(w io.Writer, t table) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if len(t.header) > 0 {
		if _, err := fmt.Fprintln(tw, strings.Join(t.header, "\t")); err != nil {
			return err
		}
	}
	for _, row := range t.rows {
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// keyValues renders a two-column table.
func keyValues(pairs ...string) table {
	t := table{header: []string{"FIELD", "VALUE"}}
	for i := 0; i+1 < len(pairs); i += 2 {
		t.rows = append(t.rows, []string{pairs[i], pairs[i+1]})
	}
	return t
}

func fmtTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

func fmtString(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

// truncate shortens s to n runes for table cells.
func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
