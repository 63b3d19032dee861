// Package storage keeps rendered audio files on the local disk.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
)

// ErrNotFound is returned when no audio is stored for the key
var ErrNotFound = errors.New("audio not found")

var validKey = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// FileStore saves audio bytes to a local directory
type FileStore struct {
	Dir string
}

// NewFileStore creates a store in dir, "audio" by default
func NewFileStore(dir string) *FileStore {
	if dir == "" {
		dir = "audio"
	}
	return &FileStore{Dir: dir}
}

// Path returns the file path for the key
func (s *FileStore) Path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("invalid audio key %q", key)
	}
	return filepath.Join(s.Dir, key+".mp3"), nil
}

// Save writes data to {dir}/{key}.mp3 and returns the path. The file is written
// to a temp name first and renamed, so readers never see a partial file.
func (s *FileStore) Save(key string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty audio data")
	}
	path, err := s.Path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.Dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create audio directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.Dir, key+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("failed to write audio: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close audio file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to store audio: %w", err)
	}
	return path, nil
}

// Load reads the audio stored for the key
func (s *FileStore) Load(key string) ([]byte, error) {
	path, err := s.Path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path) // #nosec G304 -- key is validated
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	return data, nil
}

// Exists reports whether audio is stored for the key
func (s *FileStore) Exists(key string) bool {
	path, err := s.Path(key)
	if err != nil {
		return false
	}
	st, err := os.Stat(path)
	return err == nil && st.Size() > 0
}

// Delete removes the audio for the key, missing files are ignored
func (s *FileStore) Delete(key string) error {
	path, err := s.Path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete audio: %w", err)
	}
	return nil
}
