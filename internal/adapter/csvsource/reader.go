// Package csvsource streams the monthly violation CSV extracts as batches
// of raw records, reconciling header drift into the unified schema.
package csvsource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/couchcryptid/parking-violations-etl/internal/domain"
)

// Source reads the monthly CSV files sequentially and implements
// pipeline.BatchExtractor. Files are streamed row by row; nothing larger
// than one batch is held in memory.
type Source struct {
	files   []string
	logger  *slog.Logger
	fileIdx int
	cur     *fileReader
	badRows int
}

type fileReader struct {
	f      *os.File
	r      *csv.Reader
	name   string
	header []string
	line   int
}

// New discovers input files matching glob under dir, sorted by name.
// Returns an error when no file matches: an empty input set is a
// structural failure, not an empty result.
func New(dir, glob string, logger *slog.Logger) (*Source, error) {
	files, err := filepath.Glob(filepath.Join(dir, glob))
	if err != nil {
		return nil, fmt.Errorf("bad input glob %q: %w", glob, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matching %q in %s", glob, dir)
	}
	sort.Strings(files)
	return &Source{files: files, logger: logger}, nil
}

// Files returns the discovered input paths in read order.
func (s *Source) Files() []string {
	return s.files
}

// BadRows returns the number of rows skipped due to CSV syntax errors
// since the last Reset. The pipeline folds this into the run report as
// bad_row drops once the source is drained.
func (s *Source) BadRows() int {
	return s.badRows
}

// ExtractBatch reads up to batchSize rows, crossing file boundaries as
// needed. An empty batch signals end of input.
func (s *Source) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawRecord, error) {
	batch := make([]domain.RawRecord, 0, batchSize)

	for len(batch) < batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if s.cur == nil {
			if s.fileIdx >= len(s.files) {
				return batch, nil
			}
			fr, err := openFile(s.files[s.fileIdx])
			if err != nil {
				return nil, err
			}
			s.logger.Info("reading input file", "file", fr.name, "columns", len(fr.header))
			s.cur = fr
			s.fileIdx++
		}

		rec, err := s.cur.next()
		if errors.Is(err, io.EOF) {
			if cerr := s.cur.close(); cerr != nil {
				return nil, cerr
			}
			s.cur = nil
			continue
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				// Malformed row, not a malformed file: skip and count.
				s.badRows++
				s.logger.Warn("skipping malformed csv row",
					"file", s.cur.name, "line", parseErr.Line, "error", err)
				continue
			}
			return nil, fmt.Errorf("read %s: %w", s.cur.name, err)
		}

		batch = append(batch, rec)
	}

	return batch, nil
}

// Reset rewinds the source to the first file so the input can be
// streamed a second time (pass one builds the fill index, pass two
// transforms).
func (s *Source) Reset() error {
	if err := s.Close(); err != nil {
		return err
	}
	s.fileIdx = 0
	s.badRows = 0
	return nil
}

// Close releases the currently open file, if any.
func (s *Source) Close() error {
	if s.cur == nil {
		return nil
	}
	err := s.cur.close()
	s.cur = nil
	return err
}

func openFile(path string) (*fileReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}

	r := csv.NewReader(f)
	// Monthly extracts occasionally carry ragged rows; tolerate those and
	// let the transform stage judge field content. Broken quoting stays a
	// parse error so the row is skipped and counted.
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read header of %s: %w", filepath.Base(path), err)
	}

	return &fileReader{
		f:      f,
		r:      r,
		name:   filepath.Base(path),
		header: normalizeHeader(header),
		line:   1,
	}, nil
}

func (fr *fileReader) next() (domain.RawRecord, error) {
	row, err := fr.r.Read()
	if err != nil {
		return domain.RawRecord{}, err
	}
	fr.line++

	fields := make(map[string]string, len(fr.header))
	for i, col := range fr.header {
		if i < len(row) {
			fields[col] = row[i]
		}
	}

	return domain.RawRecord{
		SourceFile: fr.name,
		Line:       fr.line,
		Fields:     fields,
	}, nil
}

func (fr *fileReader) close() error {
	return fr.f.Close()
}
