// Package ledger keeps the complaint log: a single indented json array
// that is read, extended by one record and rewritten on every complaint.
//
// A crash between the read and the rewrite loses the record in flight.
// That gap is known and accepted; the file is not written through a
// temporary copy.
package ledger

import (
	"errors"
	"io/fs"
	"os"
	"sync"

	"post-assist-bot/internal/errs"
	"post-assist-bot/internal/logger"

	"github.com/goccy/go-json"
)

type Record struct {
	// unix time in seconds
	Timestamp   float64 `json:"timestamp"`
	ImageID     int64   `json:"image_id"`
	Description string  `json:"description"`
	// link built from a filename pattern, not checked against the stored file
	FileReference string `json:"file_path_link_base"`
}

type Ledger struct {
	path string

	// serializes the read-modify-write cycle
	mu sync.Mutex
}

func New(path string) *Ledger {
	return &Ledger{path: path}
}

func (l *Ledger) Path() string {
	return l.path
}

func (l *Ledger) Append(rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.load()
	if err != nil {
		return err
	}
	records = append(records, rec)

	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return &errs.StorageError{Op: "encode", Err: err}
	}

	if err := os.WriteFile(l.path, data, 0644); err != nil {
		logger.Warning("Error saving complaint to file:", l.path, err)
		return &errs.StorageError{Op: "write", Err: err}
	}

	logger.Event("Complaint", rec.ImageID, "appended to", l.path)
	return nil
}

// Records returns every stored complaint.
func (l *Ledger) Records() ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.load()
}

// a missing, empty or corrupt file reads as an empty log
func (l *Ledger) load() ([]Record, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Record{}, nil
		}
		return nil, &errs.StorageError{Op: "read", Err: err}
	}

	if len(data) == 0 {
		return []Record{}, nil
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		logger.Warning(l.path, "is empty or invalid. Starting a new log.", err)
		return []Record{}, nil
	}

	return records, nil
}
