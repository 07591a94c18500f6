package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formsync/internal/log"
)

// Store holds rule documents keyed by name.
type Store struct {
	docs map[string]Document
}

// Load parses one JSON or YAML document. source names the input in errors
// and supplies the document name when the payload omits one.
func Load(data []byte, source string) (Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Document{}, fmt.Errorf("%w: %s", ErrEmptyDocument, source)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		doc = Document{}
		if yerr := yaml.Unmarshal(data, &doc); yerr != nil {
			return Document{}, fmt.Errorf("rules: parse %s: invalid JSON or YAML: %w", source, yerr)
		}
	}

	doc.Name = strings.TrimSpace(doc.Name)
	if doc.Name == "" {
		base := path.Base(source)
		doc.Name = strings.TrimSuffix(base, path.Ext(base))
	}
	if err := doc.Validate(); err != nil {
		return Document{}, fmt.Errorf("rules: %s: %w", source, err)
	}
	return doc, nil
}

// LoadFS walks fsys and loads every .json, .yaml and .yml file. Two files
// defining the same document name are an error. A nil fsys yields an empty
// store.
func LoadFS(fsys fs.FS) (*Store, error) {
	store := &Store{docs: make(map[string]Document)}
	if fsys == nil {
		return store, nil
	}

	err := fs.WalkDir(fsys, ".", func(p string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isRulesFile(p) {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("rules: read %s: %w", p, err)
		}
		doc, err := Load(data, p)
		if err != nil {
			return err
		}
		if _, exists := store.docs[doc.Name]; exists {
			return fmt.Errorf("rules: duplicate document %q (file %s)", doc.Name, p)
		}
		store.docs[doc.Name] = doc
		log.Debug(log.CatRules, "loaded rules", "name", doc.Name, "file", p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// Document returns a document by name.
func (s *Store) Document(name string) (Document, bool) {
	if s == nil {
		return Document{}, false
	}
	doc, ok := s.docs[name]
	return doc, ok
}

// Names returns the document names in sorted order.
func (s *Store) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.docs))
	for name := range s.docs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Empty reports whether the store holds any documents.
func (s *Store) Empty() bool {
	return s == nil || len(s.docs) == 0
}

// Marshal renders a document as YAML.
func Marshal(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("rules: encode %s: %w", doc.Name, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("rules: encode %s: %w", doc.Name, err)
	}
	return buf.Bytes(), nil
}

func isRulesFile(p string) bool {
	switch strings.ToLower(path.Ext(p)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
