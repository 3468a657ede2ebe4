// Implements the CSV codec for ledger files.

package ledger

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Parse decodes a ledger CSV blob. The first non-empty line is the header and
// defines the column order; every following line becomes one Record. Empty
// lines are skipped, ragged rows are filled best-effort, and a header-only or
// empty blob yields no records.
func Parse(data []byte) ([]Record, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = false

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var records []Record
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		var rec Record
		for i, cell := range row {
			if i >= len(header) {
				break
			}
			rec.setField(header[i], cell)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Serialize encodes records as CSV in the canonical column order: header line
// first, one line per record, standard quoting, single newline terminators and
// no trailing blank line.
func Serialize(records []Record) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(Columns); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	for _, rec := range records {
		if err := w.Write(rec.fields()); err != nil {
			return nil, fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
