package tabular

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

type excelReader struct{}

func NewExcelReader() Reader {
	return &excelReader{}
}

func (r *excelReader) Read(path string, opts Options) ([]Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open workbook")
	}
	defer func() {
		_ = f.Close()
	}()

	sheet := opts.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if sheet == "" {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}

	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sheet %q", sheet)
	}
	return buildRows(records, opts.HeaderRow), nil
}
