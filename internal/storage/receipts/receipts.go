// Package receipts stores uploaded payment receipts on the local
// filesystem, one directory per member.
package receipts

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Allowed receipt file extensions.
var allowedExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".pdf":  true,
}

// Store writes receipt files under a base directory and maps them to
// public URLs served as static files.
type Store struct {
	baseDir string
	baseURL string
}

// NewStore creates the base directory if needed.
func NewStore(baseDir, baseURL string) (*Store, error) {
	const op = "receipts.NewStore"
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Store{baseDir: baseDir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Save stores the receipt as {userUID}/{recordID}{ext} and returns its
// public URL. The extension comes from the uploaded file name.
func (s *Store) Save(userUID, recordID, filename string, r io.Reader) (string, error) {
	const op = "receipts.Save"

	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExts[ext] {
		return "", fmt.Errorf("%s: unsupported file extension %q", op, ext)
	}

	dir := filepath.Join(s.baseDir, userUID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	path := filepath.Join(dir, recordID+ext)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return fmt.Sprintf("%s/%s/%s%s", s.baseURL, userUID, recordID, ext), nil
}

// Dir returns the base directory for the static file server.
func (s *Store) Dir() string {
	return s.baseDir
}
