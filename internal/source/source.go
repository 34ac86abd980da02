// Package source reads uploaded reference scripts.
package source

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

// MaxFiles is the most reference files one submission may carry.
const MaxFiles = 3

// MaxFileSize caps a single reference file.
const MaxFileSize = 1 << 20

var (
	ErrTooManyFiles    = fmt.Errorf("at most %d reference files are allowed", MaxFiles)
	ErrUnsupportedType = errors.New("only .txt and .md files are supported")
	ErrDecode          = errors.New("file is not valid UTF-8 text")
	ErrEmpty           = errors.New("file is empty")
	ErrTooLarge        = fmt.Errorf("file exceeds %d bytes", MaxFileSize)
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// File is one decoded reference script.
type File struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// Supported reports whether name has an accepted extension.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md":
		return true
	}
	return false
}

// Read decodes one reference file. A UTF-8 BOM is stripped; UTF-16 files
// with a BOM are transcoded.
func Read(name string, r io.Reader) (File, error) {
	if !Supported(name) {
		return File{}, fmt.Errorf("%s: %w", name, ErrUnsupportedType)
	}
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return File{}, fmt.Errorf("%s: read: %w", name, err)
	}
	if len(data) > MaxFileSize {
		return File{}, fmt.Errorf("%s: %w", name, ErrTooLarge)
	}
	if !hasUTF16BOM(data) && !utf8.Valid(bytes.TrimPrefix(data, utf8BOM)) {
		return File{}, fmt.Errorf("%s: %w", name, ErrDecode)
	}
	decoded, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
	if err != nil {
		return File{}, fmt.Errorf("%s: %w: %v", name, ErrDecode, err)
	}
	text := strings.TrimSpace(string(decoded))
	if text == "" {
		return File{}, fmt.Errorf("%s: %w", name, ErrEmpty)
	}
	return File{Name: filepath.Base(name), Text: text}, nil
}

// ReadPaths reads up to MaxFiles files from disk. The count is checked
// before any file is opened.
func ReadPaths(paths []string) ([]File, error) {
	if len(paths) > MaxFiles {
		return nil, ErrTooManyFiles
	}
	files := make([]File, 0, len(paths))
	for _, p := range paths {
		f, err := readPath(p)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func readPath(path string) (File, error) {
	if !Supported(path) {
		return File{}, fmt.Errorf("%s: %w", path, ErrUnsupportedType)
	}
	fh, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer fh.Close()
	return Read(path, fh)
}

// Texts returns the decoded contents in order.
func Texts(files []File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Text
	}
	return out
}

// Placeholder is the raw-input text recorded for a multi-file submission.
func Placeholder(n int) string {
	return fmt.Sprintf("[%d files analyzed]", n)
}

func hasUTF16BOM(data []byte) bool {
	return len(data) >= 2 &&
		((data[0] == 0xFE && data[1] == 0xFF) || (data[0] == 0xFF && data[1] == 0xFE))
}
