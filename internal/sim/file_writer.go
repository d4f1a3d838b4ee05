package sim

import (
	"encoding/json"
	"errors"
	"os"
	"sync"

	"netenergy-sim/internal/agents"
	"netenergy-sim/internal/telemetry"
)

// FileWriter writes snapshots and agent messages to JSONL files.
type FileWriter struct {
	mu       sync.Mutex
	snapFile *os.File
	msgFile  *os.File
	snapEnc  *json.Encoder
	msgEnc   *json.Encoder
}

// NewFileWriter creates a FileWriter. messagePath may be empty to skip the
// message log.
func NewFileWriter(snapshotPath, messagePath string) (*FileWriter, error) {
	sf, err := os.Create(snapshotPath)
	if err != nil {
		return nil, err
	}
	fw := &FileWriter{snapFile: sf, snapEnc: json.NewEncoder(sf)}
	if messagePath != "" {
		mf, err := os.Create(messagePath)
		if err != nil {
			sf.Close()
			return nil, err
		}
		fw.msgFile = mf
		fw.msgEnc = json.NewEncoder(mf)
	}
	return fw, nil
}

// WriteSnapshot appends a snapshot line.
func (f *FileWriter) WriteSnapshot(s telemetry.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapEnc.Encode(s)
}

// WriteMessage appends a message line, if enabled.
func (f *FileWriter) WriteMessage(m agents.Message) error {
	if f.msgEnc == nil {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.msgEnc.Encode(m)
}

// Close closes any underlying files.
func (f *FileWriter) Close() error {
	var errs []error
	if f.snapFile != nil {
		errs = append(errs, f.snapFile.Close())
	}
	if f.msgFile != nil {
		errs = append(errs, f.msgFile.Close())
	}
	return errors.Join(errs...)
}
