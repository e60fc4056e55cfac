package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"sigs.k8s.io/yaml"
)

// Format is an output format.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses a format string.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "table", "":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("invalid output format: %s (valid: table, json, yaml)", s)
	}
}

// Formatter writes command results.
type Formatter struct {
	Format    Format
	Writer    io.Writer
	ErrWriter io.Writer
}

// Print writes data as JSON or YAML. Table mode falls back to JSON.
func (f *Formatter) Print(data interface{}) error {
	if f.Format == FormatYAML {
		out, err := yaml.Marshal(data)
		if err != nil {
			return err
		}
		_, err = f.Writer.Write(out)
		return err
	}
	encoder := json.NewEncoder(f.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// TableData represents tabular data for table output.
type TableData struct {
	Headers []string
	Rows    [][]string
}

func (f *Formatter) PrintTable(data TableData) {
	table := tablewriter.NewWriter(f.Writer)
	if len(data.Headers) > 0 {
		table.SetHeader(data.Headers)
	}

	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)

	table.AppendBulk(data.Rows)
	table.Render()
}

func (f *Formatter) PrintSuccess(message string) {
	_, _ = fmt.Fprintln(f.Writer, message)
}

func (f *Formatter) PrintWarning(message string) {
	_, _ = fmt.Fprintln(f.ErrWriter, "Warning:", message)
}

func (f *Formatter) PrintError(message string) {
	_, _ = fmt.Fprintln(f.ErrWriter, "Error:", message)
}
