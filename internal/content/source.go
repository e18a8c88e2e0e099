package content

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Reference data files at the root of the content directory.
const (
	AccountsFile   = "accounts.yaml"
	CategoriesFile = "categories.yaml"
)

// Entry describes one post file on disk.
type Entry struct {
	Path     string // slash-separated, relative to the content root
	Checksum string
	ModTime  time.Time
}

// Source reads post and reference files from a content directory.
type Source struct {
	root string
}

// NewSource creates a Source rooted at dir, which must already exist.
func NewSource(dir string) (*Source, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("content: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("content: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("content: root is not a directory: %s", abs)
	}
	return &Source{root: abs}, nil
}

// Root returns the absolute content directory.
func (s *Source) Root() string { return s.root }

// safePath resolves rel against the root and rejects results outside it.
func (s *Source) safePath(rel string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("content: absolute paths not allowed: %s", rel)
	}
	abs := filepath.Join(s.root, cleaned)
	if !strings.HasPrefix(abs, s.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("content: path escapes content root: %s", rel)
	}
	return abs, nil
}

// Rel converts an absolute path under the root into the slash-separated
// form used as Entry.Path.
func (s *Source) Rel(abs string) (string, error) {
	rel, err := filepath.Rel(s.root, abs)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("content: path outside content root: %s", abs)
	}
	return filepath.ToSlash(rel), nil
}

// List walks the root and returns every .md file.
func (s *Source) List() ([]Entry, error) {
	var out []Entry
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !isPostFile(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, err := s.Rel(p)
		if err != nil {
			return err
		}
		out = append(out, Entry{Path: rel, Checksum: checksum(data), ModTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("content: list: %w", err)
	}
	return out, nil
}

// Read returns the raw bytes of the file at rel.
func (s *Source) Read(rel string) ([]byte, error) {
	abs, err := s.safePath(rel)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("content: read %s: %w", rel, err)
	}
	return data, nil
}

// Stat returns file info for rel.
func (s *Source) Stat(rel string) (fs.FileInfo, error) {
	abs, err := s.safePath(rel)
	if err != nil {
		return nil, err
	}
	return os.Stat(abs)
}

func isPostFile(name string) bool {
	return strings.HasSuffix(name, ".md") && !strings.HasPrefix(name, ".")
}

func checksum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
