package epub

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
)

// maxEntrySize caps the decompressed size of a single entry (zip bomb guard).
const maxEntrySize int64 = 256 * 1024 * 1024

// Archive provides named-entry access to an EPUB container.
type Archive interface {
	Entries() []string
	HasEntry(path string) bool
	ReadBytes(path string) ([]byte, error)
	ReadText(path string) (string, error)
}

// ZipArchive is an Archive backed by an in-memory ZIP buffer.
type ZipArchive struct {
	files map[string]*zip.File
	lower map[string]*zip.File
	names []string
	limit int64
}

// OpenBytes opens an EPUB held in memory.
func OpenBytes(data []byte) (*ZipArchive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open EPUB: %w", err)
	}

	a := &ZipArchive{
		files: make(map[string]*zip.File, len(zr.File)),
		lower: make(map[string]*zip.File, len(zr.File)),
		limit: maxEntrySize,
	}

	// Build file map with normalized paths
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		name := normalizePath(f.Name)
		if _, dup := a.files[name]; dup {
			continue
		}
		a.files[name] = f
		a.names = append(a.names, name)
		if _, ok := a.lower[strings.ToLower(name)]; !ok {
			a.lower[strings.ToLower(name)] = f
		}
	}
	sort.Strings(a.names)

	return a, nil
}

// Entries returns every entry path in the archive, sorted.
func (a *ZipArchive) Entries() []string {
	out := make([]string, len(a.names))
	copy(out, a.names)
	return out
}

// HasEntry reports whether the archive contains path.
func (a *ZipArchive) HasEntry(path string) bool {
	return a.lookup(path) != nil
}

// ReadBytes reads the contents of a file from the EPUB
func (a *ZipArchive) ReadBytes(path string) ([]byte, error) {
	f := a.lookup(path)
	if f == nil {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, path)
	}
	if f.UncompressedSize64 > uint64(a.limit) {
		return nil, fmt.Errorf("%w: %s", ErrEntryTooLarge, path)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer rc.Close()

	// The declared size may be forged; read one byte past the limit to detect it.
	data, err := io.ReadAll(io.LimitReader(rc, a.limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	if int64(len(data)) > a.limit {
		return nil, fmt.Errorf("%w: %s", ErrEntryTooLarge, path)
	}
	return data, nil
}

// ReadText reads an entry as UTF-8 text with any leading BOM removed.
func (a *ZipArchive) ReadText(path string) (string, error) {
	data, err := a.ReadBytes(path)
	if err != nil {
		return "", err
	}
	return string(stripBOM(data)), nil
}

// lookup tries an exact match first, then a case-insensitive one.
func (a *ZipArchive) lookup(path string) *zip.File {
	path = normalizePath(path)
	if f, ok := a.files[path]; ok {
		return f
	}
	return a.lower[strings.ToLower(path)]
}

// normalizePath normalizes file paths (removes ./ and leading / prefixes)
func normalizePath(path string) string {
	path = strings.TrimPrefix(path, "./")
	path = strings.TrimLeft(path, "/")
	return path
}

func stripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
}
