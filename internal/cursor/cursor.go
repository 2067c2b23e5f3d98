package cursor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Token is a position in the remote change feed. Tokens are comparable for
// ordering only; zero means "start of feed".
type Token int64

func (t Token) IsZero() bool { return t == 0 }

func (t Token) String() string { return strconv.FormatInt(int64(t), 10) }

func Parse(s string) (Token, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse cursor token %q: %w", s, err)
	}
	return Token(n), nil
}

// File persists a single token between runs as a small text file.
type File struct {
	path string
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Path() string { return f.path }

// Load reads the persisted token. A missing or unparsable file reads as the
// start of the feed rather than an error, so a fresh install and a corrupted
// file both fall back to a full scan.
func (f *File) Load() (Token, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read cursor file: %w", err)
	}
	t, err := Parse(string(data))
	if err != nil {
		return 0, nil
	}
	return t, nil
}

// Save writes the token atomically: a partial write must never be observable,
// since an interrupted run resumes from whatever this file says.
func (f *File) Save(t Token) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("prepare cursor directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp")
	if err != nil {
		return fmt.Errorf("create cursor temp file: %w", err)
	}
	tmpName := tmp.Name()

	_, werr := tmp.WriteString(t.String())
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		_ = os.Remove(tmpName)
		if werr != nil {
			return fmt.Errorf("write cursor: %w", werr)
		}
		return fmt.Errorf("write cursor: %w", cerr)
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("commit cursor: %w", err)
	}
	return nil
}
