// Package source discovers class units on disk: loose .class files in
// directory trees and entries of .jar and .zip archives.
package source

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"classgraph/internal/session"

	"github.com/go-logr/logr"
)

// ArchiveSeparator joins an archive path and an entry name in unit names,
// e.g. "lib/app.jar!com/example/App.class".
const ArchiveSeparator = "!"

// Crawler scans paths for class units.
type Crawler struct {
	ignored []string
	log     logr.Logger
}

// NewCrawler creates a new crawler instance.
func NewCrawler(log logr.Logger) *Crawler {
	return &Crawler{
		ignored: []string{".git", ".gradle", ".idea", "node_modules"},
		log:     log,
	}
}

// Collect gathers the units under every path. A path may be a directory, a
// single .class file or an archive.
func (c *Crawler) Collect(paths ...string) ([]session.Unit, error) {
	var units []session.Unit
	for _, p := range paths {
		if err := c.Scan(p, func(u session.Unit) { units = append(units, u) }); err != nil {
			return nil, err
		}
	}
	return units, nil
}

// Scan walks root and streams every unit it finds to onUnit. Unreadable
// archives are logged and skipped; unreadable directories abort the scan.
func (c *Crawler) Scan(root string, onUnit func(session.Unit)) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return c.scanFile(root, onUnit)
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Skip ignored directories
		if d.IsDir() {
			for _, ign := range c.ignored {
				if d.Name() == ign {
					return filepath.SkipDir
				}
			}
			return nil
		}
		return c.scanFile(path, onUnit)
	})
}

func (c *Crawler) scanFile(path string, onUnit func(session.Unit)) error {
	switch {
	case isClassFile(path):
		onUnit(fileUnit(path))
	case isArchive(path):
		if err := c.scanArchive(path, onUnit); err != nil {
			// Log and continue instead of failing the whole scan
			c.log.Error(err, "skipping archive", "path", path)
		}
	}
	return nil
}

// scanArchive reads every class entry of a jar or zip into memory.
func (c *Crawler) scanArchive(path string, onUnit func(session.Unit)) error {
	r, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("failed to open archive %s: %w", path, err)
	}
	defer r.Close()

	count := 0
	for _, f := range r.File {
		if f.FileInfo().IsDir() || !isClassFile(f.Name) {
			continue
		}
		data, err := readEntry(f)
		if err != nil {
			return fmt.Errorf("failed to read %s from %s: %w", f.Name, path, err)
		}
		onUnit(session.BytesUnit(path+ArchiveSeparator+f.Name, data))
		count++
	}
	c.log.V(1).Info("scanned archive", "path", path, "units", count)
	return nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func fileUnit(path string) session.Unit {
	return session.Unit{
		Name: path,
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// isClassFile accepts *.class except module descriptors, which declare no type.
func isClassFile(name string) bool {
	base := filepath.Base(name)
	if base == "module-info.class" {
		return false
	}
	return strings.HasSuffix(base, ".class")
}

func isArchive(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".jar" || ext == ".zip"
}
