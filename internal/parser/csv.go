package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// CSVParser handles CSV files. Each data row is rendered as
// "header: value" lines, which feeds the key-value heuristic directly.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (string, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return "", fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return "", nil
	}

	headers := records[0]
	var sb strings.Builder
	for i, row := range records[1:] {
		if i > 0 {
			sb.WriteString("\n")
		}
		for j, cell := range row {
			if j < len(headers) {
				sb.WriteString(headers[j] + ": " + cell)
			} else {
				sb.WriteString(cell)
			}
			sb.WriteString("\n")
		}
	}
	if len(records) == 1 {
		// Header-only file: keep the headers as content.
		sb.WriteString(strings.Join(headers, ", "))
	}

	return strings.TrimRight(sb.String(), "\n"), nil
}
