// Package files lists the data files stored on the device and renders them
// as the body of the file page.
package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/gabriel-vasile/mimetype"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Extra-Chill/astra-web/internal/page"
)

const (
	defaultMIME = "application/octet-stream"

	// mimeCacheSize bounds the number of files whose type is remembered.
	mimeCacheSize = 1024
)

// detect sniffs a file's content type. Replaced in tests.
var detect = mimetype.DetectFile

type mimeKey struct {
	path    string
	size    int64
	modTime time.Time
}

// mimeCache holds detected types per file version, so an unchanged file is
// read once rather than on every listing.
var mimeCache = mustCache(mimeCacheSize)

func mustCache(size int) *lru.Cache[mimeKey, string] {
	c, err := lru.New[mimeKey, string](size)
	if err != nil {
		panic(err)
	}
	return c
}

// Entry describes one file in the data directory.
type Entry struct {
	Name    string
	Size    int64
	ModTime time.Time
	MIME    string
}

// List returns the regular files in dir, sorted by name.
// Hidden files and subdirectories are skipped.
func List(dir string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if !de.Type().IsRegular() || strings.HasPrefix(de.Name(), ".") {
			continue
		}
		info, err := de.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}

		entries = append(entries, Entry{
			Name:    de.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
			MIME:    detectMIME(filepath.Join(dir, de.Name()), info),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

func detectMIME(path string, info os.FileInfo) string {
	key := mimeKey{path: path, size: info.Size(), modTime: info.ModTime()}
	if t, ok := mimeCache.Get(key); ok {
		return t
	}

	mt, err := detect(path)
	if err != nil || mt == nil {
		return defaultMIME
	}
	mimeCache.Add(key, mt.String())
	return mt.String()
}

// Table renders entries as an HTML table. File names come from the file
// system and are escaped.
func Table(entries []Entry) string {
	if len(entries) == 0 {
		return "<p>No files found.</p>"
	}

	var b strings.Builder
	b.WriteString("<table><tr><th>Name</th><th>Size</th><th>Type</th><th>Modified</th></tr>")
	for _, e := range entries {
		b.WriteString("<tr><td>")
		b.WriteString(page.Escape(e.Name))
		b.WriteString("</td><td>")
		b.WriteString(units.HumanSize(float64(e.Size)))
		b.WriteString("</td><td>")
		b.WriteString(page.Escape(e.MIME))
		b.WriteString("</td><td>")
		b.WriteString(e.ModTime.UTC().Format("2006-01-02 15:04:05"))
		b.WriteString("</td></tr>")
	}
	b.WriteString("</table>")
	return b.String()
}

// Summary renders the heading above the table: file count and total size.
func Summary(entries []Entry) string {
	var total int64
	for _, e := range entries {
		total += e.Size
	}
	return fmt.Sprintf("<h2>Files</h2><p>%d files, %s</p>", len(entries), units.HumanSize(float64(total)))
}
