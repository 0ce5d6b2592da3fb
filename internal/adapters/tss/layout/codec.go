package layout

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"
)

// WriteText writes the period line, the header line and one line per row.
func WriteText(w io.Writer, period string, sep Separator, rows []Row) error {
	if _, err := io.WriteString(w, PeriodPrefix+period+"\n"); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	cw.Comma = rune(sep)
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(cw)); err != nil {
		return errors.Wrap(err, "write rows")
	}
	return nil
}

// ReadText parses a file produced by WriteText.
func ReadText(r io.Reader, sep Separator) (string, []Row, error) {
	br := bufio.NewReader(r)
	first, err := br.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", nil, errors.Wrap(err, "read period line")
	}
	period, err := parsePeriodLine(first)
	if err != nil {
		return "", nil, err
	}

	cr := csv.NewReader(br)
	cr.Comma = rune(sep)
	var rows []Row
	if err := gocsv.UnmarshalCSV(cr, &rows); err != nil {
		return "", nil, errors.Wrap(err, "read rows")
	}
	return period, rows, nil
}

// WriteWorkbook lays the same cells out on a single sheet: A1 holds the
// period line, row 2 the header and data starts on row 3.
func WriteWorkbook(period string, rows []Row) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(SheetName, "A1", PeriodPrefix+period); err != nil {
		return nil, err
	}
	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A2", &header); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(SheetName, 1, 2, bold); err != nil {
		return nil, err
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+3)
		if err != nil {
			return nil, err
		}
		cells := r.cells()
		if err := f.SetSheetRow(SheetName, cell, &cells); err != nil {
			return nil, errors.Wrapf(err, "row %d", i+1)
		}
	}
	if err := f.SetColWidth(SheetName, "A", "L", 18); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "write workbook")
	}
	return buf.Bytes(), nil
}

// ReadWorkbook parses a workbook produced by WriteWorkbook.
func ReadWorkbook(data []byte) (string, []Row, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", nil, errors.Wrap(err, "open workbook")
	}
	defer f.Close()

	grid, err := f.GetRows(SheetName)
	if err != nil {
		return "", nil, errors.Wrapf(err, "read sheet %s", SheetName)
	}
	if len(grid) < 2 || len(grid[0]) == 0 {
		return "", nil, errors.New("workbook is missing the period or header row")
	}
	period, err := parsePeriodLine(grid[0][0])
	if err != nil {
		return "", nil, err
	}

	rows := make([]Row, 0, len(grid)-2)
	for i, cells := range grid[2:] {
		for len(cells) < len(Columns) {
			cells = append(cells, "")
		}
		days, err := strconv.Atoi(cells[4])
		if err != nil {
			return "", nil, errors.Wrapf(err, "row %d: worked days", i+1)
		}
		rows = append(rows, Row{
			RNC:              cells[0],
			NationalID:       cells[1],
			Name:             cells[2],
			Salary:           cells[3],
			WorkedDays:       days,
			PensionCotizable: cells[5],
			HealthCotizable:  cells[6],
			Bonuses:          cells[7],
			ContractCode:     cells[8],
			HireDate:         cells[9],
			TerminationDate:  cells[10],
			PayrollType:      cells[11],
		})
	}
	return period, rows, nil
}

func parsePeriodLine(line string) (string, error) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, PeriodPrefix) {
		return "", errors.Errorf("first line %q is not a period line", line)
	}
	return strings.TrimPrefix(line, PeriodPrefix), nil
}
