// Package localfs manages the local mirror of the photo library.
package localfs

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// mediaExts are the file extensions the push pass considers.
var mediaExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".heic": true,
	".heif": true,
	".raw":  true,
	".mp4":  true,
	".mov":  true,
}

// IsMediaFile reports whether the filename has a recognized media extension.
func IsMediaFile(name string) bool {
	return mediaExts[strings.ToLower(filepath.Ext(name))]
}

// LocalFile is one media file found under the library root.
type LocalFile struct {
	Folder string // first path segment under the root, "" for the root itself
	Name   string // base name
	Rel    string // slash-separated path relative to the root
}

// Store reads and writes files under the library root directory.
type Store struct {
	root string
}

// New creates a store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create library dir: %w", err)
	}
	return &Store{root: dir}, nil
}

// Root returns the library root directory.
func (s *Store) Root() string {
	return s.root
}

// Path returns the absolute path for a folder/filename pair.
// An empty folder means the library root.
func (s *Store) Path(folder, name string) string {
	if folder == "" {
		return filepath.Join(s.root, name)
	}
	return filepath.Join(s.root, folder, name)
}

// Exists reports whether the file is present.
func (s *Store) Exists(folder, name string) bool {
	_, err := os.Stat(s.Path(folder, name))
	return err == nil
}

// Write stores content at folder/name, creating the folder if needed.
// A name collision is resolved with a numeric disambiguator; the final
// base name is returned. The write is atomic (temp file then rename).
func (s *Store) Write(folder, name string, r io.Reader) (string, error) {
	dir := filepath.Dir(s.Path(folder, name))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create folder: %w", err)
	}

	dst := uniquePath(s.Path(folder, name))
	tmp := dst + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("write content: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("rename temp file: %w", err)
	}

	return filepath.Base(dst), nil
}

// ReadRel returns the content of a file named by its slash-separated
// path relative to the root, as produced by Walk.
func (s *Store) ReadRel(rel string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.root, filepath.FromSlash(rel)))
}

// Move relocates folder/name into dstFolder, resolving name collisions
// with a numeric disambiguator. A missing source is not an error: the
// move reports moved=false and the caller keeps its bookkeeping. The
// returned base name is the one now on disk (or the original when
// nothing moved).
func (s *Store) Move(folder, name, dstFolder string) (string, bool, error) {
	src := s.Path(folder, name)
	if _, err := os.Stat(src); err != nil {
		return name, false, nil
	}

	dir := filepath.Dir(s.Path(dstFolder, name))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return name, false, fmt.Errorf("create folder: %w", err)
	}

	dst := uniquePath(s.Path(dstFolder, name))
	if err := os.Rename(src, dst); err != nil {
		return name, false, fmt.Errorf("move: %w", err)
	}
	return filepath.Base(dst), true, nil
}

// Remove deletes the file if present.
func (s *Store) Remove(folder, name string) error {
	err := os.Remove(s.Path(folder, name))
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// SetModTime sets the file's modification time.
func (s *Store) SetModTime(folder, name string, t time.Time) error {
	return os.Chtimes(s.Path(folder, name), t, t)
}

// Walk returns every media file under the root, recursively. The Folder
// of a file nested more than one level deep is its first path segment.
func (s *Store) Walk() ([]LocalFile, error) {
	var files []LocalFile

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != s.root {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsMediaFile(d.Name()) {
			return nil
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		folder := ""
		if i := strings.Index(rel, "/"); i >= 0 {
			folder = rel[:i]
		}

		files = append(files, LocalFile{Folder: folder, Name: d.Name(), Rel: rel})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// uniquePath appends (1), (2), ... before the extension until the path
// does not exist.
func uniquePath(path string) string {
	if _, err := os.Stat(path); err != nil {
		return path
	}

	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s(%d)%s", base, i, ext)
		if _, err := os.Stat(candidate); err != nil {
			return candidate
		}
	}
}
