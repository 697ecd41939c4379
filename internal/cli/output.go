package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

// Printer renders command results as an aligned table or as JSON.
type Printer struct {
	w      io.Writer
	format string
}

func newPrinter(w io.Writer, format string) (*Printer, error) {
	switch format {
	case formatTable, formatJSON:
		return &Printer{w: w, format: format}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want table or json)", format)
	}
}

func (p *Printer) JSON() bool { return p.format == formatJSON }

// Result prints v as JSON, or the rows built by table otherwise.
func (p *Printer) Result(v any, headers []string, table func() [][]string) error {
	if p.JSON() {
		return p.encode(v)
	}
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	if len(headers) > 0 {
		fmt.Fprintln(tw, strings.Join(headers, "\t"))
	}
	for _, row := range table() {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// Fields prints label/value pairs, one per line.
func (p *Printer) Fields(v any, fields [][2]string) error {
	if p.JSON() {
		return p.encode(v)
	}
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	for _, f := range fields {
		fmt.Fprintf(tw, "%s:\t%s\n", f[0], f[1])
	}
	return tw.Flush()
}

// Message prints a confirmation line, or {"message": ...} in JSON mode.
func (p *Printer) Message(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if p.JSON() {
		return p.encode(map[string]string{"message": msg})
	}
	_, err := fmt.Fprintln(p.w, msg)
	return err
}

func (p *Printer) encode(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func idOrDash(id *int64) string {
	if id == nil {
		return "-"
	}
	return fmt.Sprint(*id)
}
