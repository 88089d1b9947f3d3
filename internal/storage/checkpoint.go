package storage

import (
	"encoding/gob"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/san-kum/fractal/internal/escape"
)

// SaveCheckpoint persists engine state for runID as a zstd-compressed gob
// stream, replacing any earlier checkpoint atomically.
func (s *Store) SaveCheckpoint(runID string, snap *escape.Snapshot) error {
	runDir := s.RunDir(runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(runDir, checkpointFile+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	enc, err := zstd.NewWriter(tmp)
	if err != nil {
		tmp.Close()
		return err
	}
	if err := gob.NewEncoder(enc).Encode(snap); err != nil {
		_ = enc.Close()
		tmp.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(runDir, checkpointFile))
}

func (s *Store) LoadCheckpoint(runID string) (*escape.Snapshot, error) {
	file, err := os.Open(filepath.Join(s.RunDir(runID), checkpointFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	dec, err := zstd.NewReader(file)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var snap escape.Snapshot
	if err := gob.NewDecoder(dec).Decode(&snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// HasCheckpoint reports whether runID has a saved checkpoint.
func (s *Store) HasCheckpoint(runID string) bool {
	_, err := os.Stat(filepath.Join(s.RunDir(runID), checkpointFile))
	return err == nil
}
