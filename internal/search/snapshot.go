package search

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

const snapshotVersion = 1

type snapshot struct {
	Version   int        `json:"version"`
	Seq       int64      `json:"seq"`
	Documents []Document `json:"documents"`
}

// WriteSnapshot writes every document plus the feed sequence they reflect, zstd-compressed.
func (idx *MemoryIndex) WriteSnapshot(w io.Writer, seq int64) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("create snapshot encoder: %w", err)
	}
	snap := snapshot{Version: snapshotVersion, Seq: seq, Documents: idx.Documents()}
	if err := json.NewEncoder(enc).Encode(&snap); err != nil {
		_ = enc.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("flush snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot replaces the index contents with a snapshot and returns its feed sequence.
// The index is left untouched when the snapshot cannot be read.
func (idx *MemoryIndex) ReadSnapshot(r io.Reader) (int64, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return 0, fmt.Errorf("create snapshot decoder: %w", err)
	}
	defer dec.Close()

	var snap snapshot
	if err := json.NewDecoder(dec).Decode(&snap); err != nil {
		return 0, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return 0, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	if snap.Seq < 0 {
		return 0, fmt.Errorf("invalid snapshot seq %d", snap.Seq)
	}
	if uint64(len(snap.Documents)) > maxSlots {
		return 0, ErrIndexFull
	}
	for _, d := range snap.Documents {
		if !d.valid() {
			return 0, fmt.Errorf("invalid snapshot document key=%q", d.Key)
		}
	}

	idx.mu.Lock()
	idx.resetLocked()
	for _, d := range snap.Documents {
		idx.deleteLocked(d.Key)
		_ = idx.addLocked(d)
	}
	n := len(idx.docs)
	idx.mu.Unlock()

	idx.log.Info("search snapshot restored", "seq", snap.Seq, "documents", n)
	return snap.Seq, nil
}

// SaveSnapshotFile writes the snapshot next to path and renames it into place.
func (idx *MemoryIndex) SaveSnapshotFile(path string, seq int64) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := idx.WriteSnapshot(tmp, seq); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("install snapshot file: %w", err)
	}
	return nil
}

// LoadSnapshotFile restores from path. ok is false when no snapshot exists.
func (idx *MemoryIndex) LoadSnapshotFile(path string) (seq int64, ok bool, err error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	seq, err = idx.ReadSnapshot(f)
	if err != nil {
		return 0, false, err
	}
	return seq, true, nil
}
