// Package store manages the upload directory: saving incoming files
// under generated ids and serving their metadata back to the API.
package store

import (
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	// ErrNotFound marks an unknown file id.
	ErrNotFound = errors.New("file not found")

	// ErrTypeNotAllowed marks a rejected file extension.
	ErrTypeNotAllowed = errors.New("file type not allowed")
)

// Metadata describes one stored file.
type Metadata struct {
	FileID           string    `json:"file_id"`
	OriginalFilename string    `json:"original_filename"`
	StoredPath       string    `json:"stored_path"`
	FileSize         int64     `json:"file_size"`
	FileType         string    `json:"file_type"`
	UploadTime       time.Time `json:"upload_time"`
}

// FileStore persists uploads on disk with an in-memory metadata index.
// The index is rebuilt from the directory contents on startup.
type FileStore struct {
	dir     string
	allowed map[string]bool

	mu    sync.RWMutex
	files map[string]Metadata
}

// NewFileStore opens (or creates) the upload directory at dir. When no
// extensions are given, only .pdf uploads are accepted.
func NewFileStore(dir string, allowedExts ...string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	if len(allowedExts) == 0 {
		allowedExts = []string{".pdf"}
	}
	allowed := make(map[string]bool, len(allowedExts))
	for _, ext := range allowedExts {
		allowed[strings.ToLower(ext)] = true
	}

	s := &FileStore{
		dir:     dir,
		allowed: allowed,
		files:   make(map[string]Metadata),
	}
	if err := s.rescan(); err != nil {
		return nil, err
	}
	return s, nil
}

// Save stores data under a fresh file id and returns its metadata.
func (s *FileStore) Save(data []byte, originalName string) (Metadata, error) {
	name := filepath.Base(originalName)
	ext := strings.ToLower(filepath.Ext(name))
	if !s.allowed[ext] {
		return Metadata{}, fmt.Errorf("%w: %s", ErrTypeNotAllowed, ext)
	}

	id, err := newFileID()
	if err != nil {
		return Metadata{}, err
	}

	path := filepath.Join(s.dir, id+"_"+sanitizeName(name))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return Metadata{}, fmt.Errorf("failed to save upload: %w", err)
	}

	meta := Metadata{
		FileID:           id,
		OriginalFilename: name,
		StoredPath:       path,
		FileSize:         int64(len(data)),
		FileType:         strings.TrimPrefix(ext, "."),
		UploadTime:       time.Now(),
	}

	s.mu.Lock()
	s.files[id] = meta
	s.mu.Unlock()
	return meta, nil
}

// Info returns the metadata for id.
func (s *FileStore) Info(id string) (Metadata, error) {
	s.mu.RLock()
	meta, ok := s.files[id]
	s.mu.RUnlock()
	if !ok {
		return Metadata{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return meta, nil
}

// Delete removes the stored file and its index entry.
func (s *FileStore) Delete(id string) error {
	s.mu.Lock()
	meta, ok := s.files[id]
	if ok {
		delete(s.files, id)
	}
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if err := os.Remove(meta.StoredPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete stored file: %w", err)
	}
	return nil
}

// List returns all stored files, newest first.
func (s *FileStore) List() []Metadata {
	s.mu.RLock()
	out := make([]Metadata, 0, len(s.files))
	for _, meta := range s.files {
		out = append(out, meta)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].UploadTime.Equal(out[j].UploadTime) {
			return out[i].FileID < out[j].FileID
		}
		return out[i].UploadTime.After(out[j].UploadTime)
	})
	return out
}

// rescan rebuilds the metadata index from files already present in the
// upload directory, recovering id and original name from the stored
// filename pattern {id}_{original}.
func (s *FileStore) rescan() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to scan upload directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, "file-") {
			continue
		}
		sep := strings.Index(name, "_")
		if sep < 0 {
			continue
		}
		id, original := name[:sep], name[sep+1:]

		info, err := entry.Info()
		if err != nil {
			continue
		}
		s.files[id] = Metadata{
			FileID:           id,
			OriginalFilename: original,
			StoredPath:       filepath.Join(s.dir, name),
			FileSize:         info.Size(),
			FileType:         strings.TrimPrefix(strings.ToLower(filepath.Ext(original)), "."),
			UploadTime:       info.ModTime(),
		}
	}
	return nil
}

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// newFileID generates ids like file-20240312153045-a1b2c3d4.
func newFileID() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate file id: %w", err)
	}
	for i, b := range buf {
		buf[i] = idAlphabet[int(b)%len(idAlphabet)]
	}
	return fmt.Sprintf("file-%s-%s", time.Now().Format("20060102150405"), buf), nil
}

// sanitizeName strips characters that would break the stored filename
// pattern or escape the upload directory.
func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', '_':
			return '-'
		}
		return r
	}, name)
}
