package csv

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/graphview/backend/pkg/loader"
)

// ParseRecords parses a snapshot into records keyed by header name.
//
// The first line is the header. Fields are separated by commas; a double
// quote toggles quoted mode in which commas are literal. Quotes are not
// escaped and fields never span lines. Headers and values are trimmed.
// Missing trailing values become empty strings and surplus values are
// dropped. Content with fewer than two lines yields no records.
func ParseRecords(content []byte) []loader.Record {
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) < 2 {
		return []loader.Record{}
	}

	headers := strings.Split(lines[0], ",")
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	records := make([]loader.Record, 0, len(lines)-1)
	for _, line := range lines[1:] {
		values := splitLine(line)

		record := make(loader.Record, len(headers))
		for i, h := range headers {
			if i < len(values) {
				record[h] = values[i]
			} else {
				record[h] = ""
			}
		}
		records = append(records, record)
	}

	return records
}

func splitLine(line string) []string {
	var (
		values  []string
		current strings.Builder
		quoted  bool
	)

	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
		case r == ',' && !quoted:
			values = append(values, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	values = append(values, strings.TrimSpace(current.String()))

	return values
}

// ReadRecords parses RFC 4180 CSV content into records keyed by header
// name. Quotes are handled leniently, rows may have any number of fields
// and rows with only empty fields are skipped. Unparseable rows are
// dropped.
func ReadRecords(content []byte) ([]loader.Record, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var headers []string
	records := []loader.Record{}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				continue
			}
			return nil, err
		}

		if isEmptyRow(row) {
			continue
		}

		if headers == nil {
			headers = make([]string, len(row))
			for i, h := range row {
				headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
			}
			continue
		}

		record := make(loader.Record, len(headers))
		for i, h := range headers {
			if i < len(row) {
				record[h] = row[i]
			} else {
				record[h] = ""
			}
		}
		records = append(records, record)
	}

	return records, nil
}

func isEmptyRow(row []string) bool {
	for _, field := range row {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
