package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/erazemk/stockroom/internal/model"
)

// CSVFile keeps the inventory and the restock log in two flat CSV files.
type CSVFile struct {
	path    string
	logPath string
	schema  model.Schema
}

// NewCSVFile returns a store backed by the files at path and logPath.
// Neither file needs to exist yet.
func NewCSVFile(path, logPath string, schema model.Schema) *CSVFile {
	return &CSVFile{path: path, logPath: logPath, schema: schema}
}

// Load reads the inventory file. A missing file is created with the
// schema's header.
func (s *CSVFile) Load(ctx context.Context) (model.Table, error) {
	rows, err := s.readOrCreate(s.path, s.schema.Columns())
	if err != nil {
		return nil, storeErr("load inventory", err)
	}

	table := model.Table{}
	if len(rows) < 2 {
		return table, nil
	}

	idx := headerIndex(rows[0])
	if _, ok := idx[model.ColItem]; !ok {
		return nil, storeErr("load inventory", fmt.Errorf("%s: header has no %s column", s.path, model.ColItem))
	}

	for i, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		r, err := decodeRecord(rowCell(idx, row))
		if err != nil {
			return nil, storeErr("load inventory", fmt.Errorf("%s row %d: %w", s.path, i+2, err))
		}
		if r.Item == "" {
			continue
		}
		table = append(table, s.schema.Apply(r))
	}
	return table, nil
}

// Save rewrites the inventory file with t.
func (s *CSVFile) Save(ctx context.Context, t model.Table) error {
	cols := s.schema.Columns()
	rows := make([][]string, 0, len(t)+1)
	rows = append(rows, cols)
	for _, r := range t {
		rows = append(rows, encodeRecord(r, cols))
	}
	return storeErr("save inventory", writeFileAtomic(s.path, rows))
}

// LoadLog reads the restock log, creating it on first use.
func (s *CSVFile) LoadLog(ctx context.Context) ([]model.RestockEntry, error) {
	rows, err := s.readOrCreate(s.logPath, model.RestockColumns)
	if err != nil {
		return nil, storeErr("load restock log", err)
	}

	var log []model.RestockEntry
	if len(rows) < 2 {
		return log, nil
	}

	idx := headerIndex(rows[0])
	for i, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		e, err := decodeEntry(rowCell(idx, row))
		if err != nil {
			return nil, storeErr("load restock log", fmt.Errorf("%s row %d: %w", s.logPath, i+2, err))
		}
		log = append(log, e)
	}
	return log, nil
}

// SaveLog rewrites the restock log file.
func (s *CSVFile) SaveLog(ctx context.Context, log []model.RestockEntry) error {
	rows := make([][]string, 0, len(log)+1)
	rows = append(rows, model.RestockColumns)
	for _, e := range log {
		rows = append(rows, encodeEntry(e))
	}
	return storeErr("save restock log", writeFileAtomic(s.logPath, rows))
}

// Close is a no-op; files are opened per call.
func (s *CSVFile) Close() error {
	return nil
}

func (s *CSVFile) readOrCreate(path string, header []string) ([][]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		if err := writeFileAtomic(path, [][]string{header}); err != nil {
			return nil, err
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return rows, nil
}

// writeFileAtomic writes rows to a temporary file next to path and renames
// it into place, so readers never see a half-written table.
func writeFileAtomic(path string, rows [][]string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

func rowCell(idx map[string]int, row []string) func(string) string {
	return func(col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}
