package resultlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/abdidvp/policyeval/internal/domain"
)

// Writer appends outcome records as newline-delimited JSON. Each record is
// flushed as soon as it is written so a crash loses at most the case in
// flight.
type Writer struct {
	w      io.Writer
	closer io.Closer
}

// NewWriter wraps an arbitrary stream.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Create truncates or creates the log at path.
func Create(path string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrapf(err, "creating directory for %s", path)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "creating %s", path)
	}
	return &Writer{w: f, closer: f}, nil
}

// Write implements domain.OutcomeWriter.
func (w *Writer) Write(rec domain.OutcomeRecord) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		return errors.Wrap(err, "encoding outcome record")
	}
	if _, err := w.w.Write(buf.Bytes()); err != nil {
		return errors.Wrap(err, "writing outcome record")
	}
	return nil
}

// Close closes the underlying file, if any.
func (w *Writer) Close() error {
	if w.closer == nil {
		return nil
	}
	return w.closer.Close()
}

// Reader loads run logs. It implements domain.OutcomeReader.
type Reader struct{}

func NewReader() *Reader { return &Reader{} }

// Read parses every non-blank line of the log at path.
func (r *Reader) Read(path string) ([]domain.OutcomeRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses newline-delimited outcome records.
func Decode(in io.Reader) ([]domain.OutcomeRecord, error) {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var records []domain.OutcomeRecord
	line := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		var rec domain.OutcomeRecord
		if err := json.Unmarshal(text, &rec); err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "reading run log")
	}
	return records, nil
}
