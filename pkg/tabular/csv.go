package tabular

import (
	"bufio"
	"encoding/csv"
	"os"
	"strings"

	"github.com/pkg/errors"
)

type csvReader struct{}

func NewCSVReader() Reader {
	return &csvReader{}
}

func (r *csvReader) Read(path string, opts Options) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open csv")
	}
	defer func() {
		_ = f.Close()
	}()

	br := bufio.NewReader(f)
	prefix, _ := br.Peek(4096)
	line := string(prefix)
	// Sniff the header line only; comma-decimal cells in the data must not
	// defeat semicolon detection.
	if i := strings.IndexAny(line, "\r\n"); i >= 0 {
		line = line[:i]
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	// Partner exports from European TMSes commonly use semicolons.
	if !strings.Contains(line, ",") && strings.Contains(line, ";") {
		reader.Comma = ';'
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse csv")
	}
	return buildRows(records, opts.HeaderRow), nil
}
