package fileutils

import (
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Blob storage subdirectories.
const (
	CoversDir  = "book_covers"
	ContentDir = "book_content"
)

// Store persists uploaded blobs (cover images and book content files) under a
// root directory. Books reference blobs by their path relative to the root.
type Store struct {
	root string
}

func NewStore(root string) *Store {
	return &Store{root: root}
}

// Init creates the blob subdirectories and verifies write permissions by
// creating and removing a temp file.
func (s *Store) Init() error {
	for _, subdir := range []string{CoversDir, ContentDir} {
		if err := os.MkdirAll(filepath.Join(s.root, subdir), 0755); err != nil {
			return errors.Wrapf(err, "failed to create uploads directory: %s", subdir)
		}
	}

	testFile := filepath.Join(s.root, ".write_test")
	f, err := os.Create(testFile)
	if err != nil {
		return errors.Wrapf(err, "uploads directory is not writable: %s", s.root)
	}
	f.Close()

	if err := os.Remove(testFile); err != nil {
		return errors.Wrapf(err, "failed to clean up write test file: %s", testFile)
	}

	return nil
}

// SaveCover stores a cover image blob and returns its key.
func (s *Store) SaveCover(filename string, r io.Reader) (string, error) {
	return s.save(CoversDir, filename, r)
}

// SaveContent stores a book content blob and returns its key.
func (s *Store) SaveContent(filename string, r io.Reader) (string, error) {
	return s.save(ContentDir, filename, r)
}

// save writes the blob under dir, keeping the uploaded base name readable but
// suffixed with a short random ID so repeated uploads never collide.
func (s *Store) save(dir, filename string, r io.Reader) (string, error) {
	ext := filepath.Ext(filename)
	base := SanitizeFilename(filename[:len(filename)-len(ext)])
	if base == "" {
		base = "upload"
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return "", errors.WithStack(err)
	}
	key := filepath.Join(dir, base+"-"+id.String()[:8]+ext)

	f, err := os.Create(filepath.Join(s.root, key))
	if err != nil {
		return "", errors.WithStack(err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(filepath.Join(s.root, key))
		return "", errors.WithStack(err)
	}

	return key, nil
}

// Exists reports whether the blob for the given key is present on disk.
func (s *Store) Exists(key string) bool {
	info, err := os.Stat(filepath.Join(s.root, key))
	return err == nil && !info.IsDir()
}

// Open opens the blob for the given key for reading.
func (s *Store) Open(key string) (*os.File, error) {
	f, err := os.Open(filepath.Join(s.root, key))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return f, nil
}

// Remove deletes the blob for the given key. Missing blobs are not an error.
func (s *Store) Remove(key string) error {
	err := os.Remove(filepath.Join(s.root, key))
	if err != nil && !os.IsNotExist(err) {
		return errors.WithStack(err)
	}
	return nil
}

// AbsPath returns the absolute filesystem path for a blob key.
func (s *Store) AbsPath(key string) string {
	return filepath.Join(s.root, key)
}
