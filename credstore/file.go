// Package credstore persists the opaque session credential blob.
// Two interchangeable backends: a local directory of files, or a single
// document in mongo. The blob's contents are never inspected here.
package credstore

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
)

const credsFilename = "creds.json"

// FileStore keeps credentials in a directory on the local filesystem,
// the layout used by multi-file auth state.
type FileStore struct {
	dir string
	log *slog.Logger
}

func NewFileStore(dir string, log *slog.Logger) *FileStore {
	return &FileStore{dir: dir, log: log}
}

// Load returns (nil, nil) when the directory holds no credentials yet;
// the transport then starts a fresh pairing flow.
func (s *FileStore) Load(_ context.Context) ([]byte, error) {
	blob, err := os.ReadFile(filepath.Join(s.dir, credsFilename))
	if os.IsNotExist(err) {
		s.log.Info("No stored credentials, a fresh pairing will be required", "dir", s.dir)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return blob, nil
}

// Save writes the blob atomically: a rename is the commit point, so a
// crash mid-write never leaves a truncated credential file behind.
func (s *FileStore) Save(_ context.Context, blob []byte) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}

	tmp := filepath.Join(s.dir, credsFilename+".tmp")
	if err := os.WriteFile(tmp, blob, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(s.dir, credsFilename))
}
