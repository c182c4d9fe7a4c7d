// Package registry records which extensions have been installed into a site.
package registry

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/conn-castle/extinstall/internal/fsutil"
	"github.com/conn-castle/extinstall/internal/messages"
)

// Dir is the site-relative directory holding registry state.
const Dir = ".extinstall"

// FileName is the registry file inside Dir.
const FileName = "installed.toml"

// Record describes one installed extension.
type Record struct {
	Name        string    `toml:"name"`
	Type        string    `toml:"type"`
	Version     string    `toml:"version"`
	Title       string    `toml:"title,omitempty"`
	Path        string    `toml:"path"`
	InstalledAt time.Time `toml:"installed_at"`
}

type document struct {
	Extensions []Record `toml:"extension"`
}

// Store is a file-backed registry.
type Store struct {
	path string
}

// Open returns the Store for the site rooted at siteRoot.
func Open(siteRoot string) *Store {
	return New(filepath.Join(siteRoot, Dir, FileName))
}

// New returns a Store backed by the file at path.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the registry file path.
func (s *Store) Path() string {
	return s.path
}

// Records returns every record sorted by type then name. A missing file holds no records.
func (s *Store) Records() ([]Record, error) {
	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	return doc.Extensions, nil
}

// Lookup finds the record for an extension.
func (s *Store) Lookup(kind string, name string) (Record, bool, error) {
	records, err := s.Records()
	if err != nil {
		return Record{}, false, err
	}
	for _, rec := range records {
		if rec.Type == kind && rec.Name == name {
			return rec, true, nil
		}
	}
	return Record{}, false, nil
}

// Put inserts or replaces the record for rec.Type/rec.Name under the registry lock.
func (s *Store) Put(rec Record) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf(messages.RegistryCreateDirFmt, dir, err)
	}
	return withFileLock(s.path+".lock", func() error {
		doc, err := s.read()
		if err != nil {
			return err
		}
		replaced := false
		for i := range doc.Extensions {
			if doc.Extensions[i].Type == rec.Type && doc.Extensions[i].Name == rec.Name {
				doc.Extensions[i] = rec
				replaced = true
				break
			}
		}
		if !replaced {
			doc.Extensions = append(doc.Extensions, rec)
		}
		return s.write(doc)
	})
}

func (s *Store) read() (document, error) {
	var doc document
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf(messages.RegistryReadFmt, s.path, err)
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf(messages.RegistryDecodeFmt, s.path, err)
	}
	sortRecords(doc.Extensions)
	return doc, nil
}

func (s *Store) write(doc document) error {
	sortRecords(doc.Extensions)
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf(messages.RegistryEncodeFmt, err)
	}
	if err := fsutil.WriteFileAtomic(s.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf(messages.RegistryWriteFmt, s.path, err)
	}
	return nil
}

func sortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Type != records[j].Type {
			return records[i].Type < records[j].Type
		}
		return records[i].Name < records[j].Name
	})
}
