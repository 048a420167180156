package table

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/aqeda/internal/utils"
	"github.com/xuri/excelize/v2"
)

// ExportOptions controls the flat-file export.
type ExportOptions struct {
	// Delimiter for delimited output. If 0, '\t' for .tsv and ',' otherwise.
	Delimiter rune
	// SheetName for xlsx output; defaults to "data".
	SheetName string
}

// ExportError reports that the export destination could not be written.
// Results computed in memory remain valid.
type ExportError struct {
	Path string
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %s: %v", e.Path, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// Export writes t to path. The format follows the extension: .xlsx writes a
// workbook, anything else delimited text. The header row holds the column
// names and no row index is written.
func Export(path string, t *Table, opt ExportOptions) error {
	var (
		data []byte
		err  error
	)
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		data, err = encodeXLSX(t, opt.SheetName)
	} else {
		delim := opt.Delimiter
		if delim == 0 {
			delim = sniffDelimiter(path)
		}
		var buf bytes.Buffer
		err = WriteDelimited(&buf, t, delim)
		data = buf.Bytes()
	}
	if err != nil {
		return &ExportError{Path: path, Err: err}
	}
	if err := utils.SafeWriteFile(path, data); err != nil {
		return &ExportError{Path: path, Err: err}
	}
	return nil
}

// WriteDelimited writes the header and every row of t to w.
func WriteDelimited(w io.Writer, t *Table, delim rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = delim
	if err := cw.Write(t.Names()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(t.Records()); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

func encodeXLSX(t *Table, sheet string) ([]byte, error) {
	if sheet == "" {
		sheet = "data"
	}
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}
	header := make([]interface{}, t.NumCols())
	for j, n := range t.Names() {
		header[j] = n
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < t.NumRows(); i++ {
		row := make([]interface{}, t.NumCols())
		for j, v := range t.Row(i) {
			if num, ok := v.Float(); ok {
				row[j] = num
			} else if v.IsMissing() {
				row[j] = nil
			} else {
				row[j] = v.String()
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// DefaultExportName derives "cleaned_<base>" next to the input.
func DefaultExportName(input string) string {
	return filepath.Join(filepath.Dir(input), "cleaned_"+filepath.Base(input))
}
