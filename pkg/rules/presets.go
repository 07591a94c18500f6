package rules

import (
	"embed"
	"fmt"
	"io/fs"
	"sync"
)

//go:embed presets/*.yaml
var embeddedPresets embed.FS

var (
	presetsOnce  sync.Once
	presetsStore *Store
	presetsErr   error
)

// PresetsFS returns the bundled rule documents.
func PresetsFS() fs.FS {
	sub, err := fs.Sub(embeddedPresets, "presets")
	if err != nil {
		// The embed directive guarantees the directory exists.
		panic(err)
	}
	return sub
}

// Presets loads the bundled documents once.
func Presets() (*Store, error) {
	presetsOnce.Do(func() {
		presetsStore, presetsErr = LoadFS(PresetsFS())
	})
	return presetsStore, presetsErr
}

// Preset returns one bundled document by name.
func Preset(name string) (Document, error) {
	store, err := Presets()
	if err != nil {
		return Document{}, err
	}
	doc, ok := store.Document(name)
	if !ok {
		return Document{}, fmt.Errorf("rules: unknown preset %q (have %v)", name, store.Names())
	}
	return doc, nil
}
