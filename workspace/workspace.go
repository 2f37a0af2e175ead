// CLAUDE:SUMMARY Workspace sandbox — resolves tool paths under a root, bounded reads, BOM-aware text decoding.
// Package workspace confines tool file access to a single root directory.
package workspace

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultMaxFileSize caps ReadFile when no limit is configured (50 MiB).
const DefaultMaxFileSize int64 = 50 << 20

var (
	// ErrPathTraversal is returned when a path escapes the workspace root.
	ErrPathTraversal = errors.New("workspace: path escapes workspace root")

	// ErrTooLarge is returned when a file exceeds the size cap.
	ErrTooLarge = errors.New("workspace: file too large")

	// ErrNotText is returned when a file does not decode as UTF-8 or UTF-16.
	ErrNotText = errors.New("workspace: file is not text")
)

// Workspace resolves and reads files under Root.
type Workspace struct {
	root    string
	maxSize int64
}

// New creates a Workspace rooted at root. maxSize <= 0 uses DefaultMaxFileSize.
func New(root string, maxSize int64) (*Workspace, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("workspace: resolve root: %w", err)
	}
	// Symlinked roots (macOS /tmp, bind mounts) compare by their real path.
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		abs = real
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("workspace: root: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("workspace: root %s is not a directory", abs)
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &Workspace{root: abs, maxSize: maxSize}, nil
}

// Root returns the absolute workspace root.
func (w *Workspace) Root() string { return w.root }

// Resolve maps a user path to an absolute path inside the root. Relative
// paths are joined to the root; absolute paths are accepted only when they
// already lie inside it. Symlinks pointing outside are rejected.
func (w *Workspace) Resolve(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", fmt.Errorf("workspace: empty path")
	}
	if strings.ContainsRune(p, 0) {
		return "", ErrPathTraversal
	}
	var abs string
	if filepath.IsAbs(p) {
		abs = filepath.Clean(p)
	} else {
		abs = filepath.Join(w.root, p)
	}
	if !w.within(abs) {
		return "", fmt.Errorf("%w: %s", ErrPathTraversal, p)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil && !w.within(real) {
		return "", fmt.Errorf("%w: %s links outside", ErrPathTraversal, p)
	}
	return abs, nil
}

func (w *Workspace) within(abs string) bool {
	rel, err := filepath.Rel(w.root, abs)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// ReadFile returns the bytes of a workspace file, refusing files larger than
// the configured cap.
func (w *Workspace) ReadFile(p string) ([]byte, error) {
	abs, err := w.Resolve(p)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("workspace: %s is a directory", p)
	}
	if fi.Size() > w.maxSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrTooLarge, p, fi.Size(), w.maxSize)
	}
	data, err := io.ReadAll(io.LimitReader(f, w.maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > w.maxSize {
		return nil, fmt.Errorf("%w: %s grew past %d bytes", ErrTooLarge, p, w.maxSize)
	}
	return data, nil
}

// ReadText reads a file as text. A UTF-16 byte order mark switches decoding;
// otherwise the content must be valid UTF-8. A UTF-8 BOM is stripped.
func (w *Workspace) ReadText(p string) (string, error) {
	data, err := w.ReadFile(p)
	if err != nil {
		return "", err
	}
	return DecodeText(data)
}

// DecodeText converts file bytes to a UTF-8 string. NUL bytes mark binary
// content.
func DecodeText(data []byte) (string, error) {
	if bytes.HasPrefix(data, []byte{0xFF, 0xFE}) || bytes.HasPrefix(data, []byte{0xFE, 0xFF}) {
		dec := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
		out, _, err := transform.Bytes(dec, data)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrNotText, err)
		}
		return string(out), nil
	}
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if !utf8.Valid(data) || bytes.IndexByte(data, 0) >= 0 {
		return "", ErrNotText
	}
	return string(data), nil
}
