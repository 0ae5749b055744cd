package draft

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// fileEntry is the on-disk envelope for one key. The key is kept inside the
// file because the filename is a hash of it.
type fileEntry struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FileStorage stores each key as a JSON file inside a directory.
//
// The filename is a SHA-256 hash of the key, giving a stable 1:1 mapping
// between keys and files regardless of the characters a ranking identifier
// contains. Writes go to a temporary file first and are renamed into place
// so a crash mid-write never leaves a truncated draft behind.
type FileStorage struct {
	dir string
}

// NewFileStorage returns a storage rooted at dir. The directory is created
// lazily on the first write.
func NewFileStorage(dir string) *FileStorage {
	return &FileStorage{dir: dir}
}

// Dir returns the storage directory.
func (s *FileStorage) Dir() string {
	return s.dir
}

func (s *FileStorage) pathFor(key string) string {
	hash := sha256.Sum256([]byte(key))
	return filepath.Join(s.dir, hex.EncodeToString(hash[:])+".json")
}

// Get implements Storage. A file that is not a valid envelope yields
// ErrCorrupt.
func (s *FileStorage) Get(key string) (string, bool, error) {
	data, err := os.ReadFile(s.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read draft %q: %w", key, err)
	}
	var entry fileEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return "", false, fmt.Errorf("parse draft %q: %w: %v", key, ErrCorrupt, err)
	}
	if entry.Key != key {
		return "", false, nil
	}
	return entry.Value, true, nil
}

// Set implements Storage.
func (s *FileStorage) Set(key, value string) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create drafts dir: %w", err)
	}
	data, err := json.Marshal(fileEntry{Key: key, Value: value, UpdatedAt: time.Now().UTC()})
	if err != nil {
		return err
	}

	path := s.pathFor(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write draft %q: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename draft %q: %w", key, err)
	}
	return nil
}

// Remove implements Storage. Removing a missing key is not an error.
func (s *FileStorage) Remove(key string) error {
	if err := os.Remove(s.pathFor(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove draft %q: %w", key, err)
	}
	return nil
}

// Keys implements Lister. Unreadable files are skipped.
func (s *FileStorage) Keys(prefix string) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list drafts: %w", err)
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			log.Warn("read draft file", "name", entry.Name(), "error", err)
			continue
		}
		var fe fileEntry
		if err := json.Unmarshal(data, &fe); err != nil {
			log.Warn("parse draft file", "name", entry.Name(), "error", err)
			continue
		}
		if strings.HasPrefix(fe.Key, prefix) {
			keys = append(keys, fe.Key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
