// Package settings owns the key-value configuration store: a TOML file of
// section -> key -> value, the typed getters over it, and the versioned
// config migration chain that upgrades legacy layouts in place.
package settings

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
)

// File is an open configuration store. Values are strings, ints, bools,
// floats, or lists, as TOML represents them.
type File struct {
	path     string
	sections map[string]map[string]any

	// encryptionVersion is the version password values in this file were
	// written under. Read once at open; bumped by the encryption migration.
	encryptionVersion int
}

// OpenFile loads the config store at path. A missing file yields an empty
// store (fresh install): sections materialize on first write.
func OpenFile(path string) (*File, error) {
	f := &File{path: path, sections: make(map[string]map[string]any)}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return f, nil
	}

	var raw map[string]any
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	for name, v := range raw {
		section, ok := v.(map[string]any)
		if !ok {
			log.Printf("[settings] ignoring top-level key %q outside any section", name)
			continue
		}
		f.sections[name] = section
	}

	f.encryptionVersion = f.rawInt("General", "encryption_version", 0)
	return f, nil
}

// Path returns the config file path, used for versioned backups.
func (f *File) Path() string { return f.path }

// EncryptionVersion reports the version passwords in this file are
// encrypted under.
func (f *File) EncryptionVersion() int { return f.encryptionVersion }

// Save writes the store back to disk atomically (temp file + rename).
func (f *File) Save() error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".tmp*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	enc := toml.NewEncoder(tmp)
	if err := enc.Encode(f.ordered()); err != nil {
		tmp.Close()
		return fmt.Errorf("encode config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), f.path)
}

// ordered returns the sections in a stable order so saved files diff cleanly
// between runs.
func (f *File) ordered() map[string]map[string]any {
	names := make([]string, 0, len(f.sections))
	for name := range f.sections {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]map[string]any, len(names))
	for _, name := range names {
		out[name] = f.sections[name]
	}
	return out
}

// HasSection reports whether a section exists. Sections may be absent on a
// fresh install; getters treat that as "use the default".
func (f *File) HasSection(name string) bool {
	_, ok := f.sections[name]
	return ok
}

// Section returns the named section, creating it when absent.
func (f *File) Section(name string) map[string]any {
	s, ok := f.sections[name]
	if !ok {
		s = make(map[string]any)
		f.sections[name] = s
	}
	return s
}

// SectionNames returns all section names, sorted.
func (f *File) SectionNames() []string {
	names := make([]string, 0, len(f.sections))
	for name := range f.sections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Set writes a value, creating the section when needed.
func (f *File) Set(section, key string, value any) {
	f.Section(section)[key] = value
}

// Delete removes a key. Removing the last key keeps the empty section; the
// TOML encoder renders it as a bare header, which is harmless.
func (f *File) Delete(section, key string) {
	if s, ok := f.sections[section]; ok {
		delete(s, key)
	}
}
