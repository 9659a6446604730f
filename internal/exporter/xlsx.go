package exporter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"flowcli/internal/errors"
)

const (
	defaultSheet  = "Sheet1"
	maxSheetName  = 31
	minColumnWide = 12.0
)

// writeWorkbook saves sheets, in order, as one workbook at path
func writeWorkbook(path string, sheets []sheet) error {
	if len(sheets) == 0 {
		return errors.NewValidationError("workbook needs at least one sheet")
	}

	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.NewStorageError("failed to create header style", err)
	}

	for i, s := range sheets {
		name := sheetName(s.name)
		idx, err := f.NewSheet(name)
		if err != nil {
			return errors.NewStorageError(fmt.Sprintf("failed to create sheet %s", name), err)
		}
		if i == 0 {
			f.SetActiveSheet(idx)
		}
		if err := fillSheet(f, name, s, header); err != nil {
			return err
		}
	}

	if err := f.DeleteSheet(defaultSheet); err != nil {
		return errors.NewStorageError("failed to remove default sheet", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewStorageError("failed to create exports directory", err)
	}
	if err := f.SaveAs(path); err != nil {
		return errors.NewStorageError(fmt.Sprintf("failed to save %s", path), err)
	}
	return nil
}

func fillSheet(f *excelize.File, name string, s sheet, headerStyle int) error {
	header := make([]interface{}, len(s.header))
	for i, h := range s.header {
		header[i] = h
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return errors.NewStorageError(fmt.Sprintf("failed to write header of %s", name), err)
	}
	if err := f.SetRowStyle(name, 1, 1, headerStyle); err != nil {
		return errors.NewStorageError(fmt.Sprintf("failed to style header of %s", name), err)
	}

	for i, row := range s.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.NewStorageError("invalid cell", err)
		}
		values := make([]interface{}, len(row))
		copy(values, row)
		if err := f.SetSheetRow(name, cell, &values); err != nil {
			return errors.NewStorageError(fmt.Sprintf("failed to write row %d of %s", i+1, name), err)
		}
	}

	if len(s.header) > 0 {
		last, err := excelize.ColumnNumberToName(len(s.header))
		if err != nil {
			return errors.NewStorageError("invalid column", err)
		}
		if err := f.SetColWidth(name, "A", last, minColumnWide); err != nil {
			return errors.NewStorageError(fmt.Sprintf("failed to size columns of %s", name), err)
		}
	}
	return nil
}

// sheetName truncates name to the XLSX sheet name limit
func sheetName(name string) string {
	if len(name) > maxSheetName {
		return name[:maxSheetName]
	}
	return name
}
