package dataset

import (
	"fmt"
	"os"
	"path/filepath"
)

// Options controls how raw files are turned into typed tables.
type Options struct {
	// MaxRows limits rows loaded; 0 means unlimited.
	MaxRows int
	// Delimiter for CSV. If 0, chosen by extension (tab for .tsv, comma otherwise).
	Delimiter rune
	// Numeric parsing locale. If DecimalSeparator is 0, '.' is assumed.
	DecimalSeparator   rune
	ThousandsSeparator rune
	// ParseDates turns date-looking text cells into time values.
	ParseDates bool
	// Sheet selection for XLSX. SheetIndex is 1-based and used when SheetName is empty.
	SheetName  string
	SheetIndex int
}

// DefaultOptions returns the loader defaults.
func DefaultOptions() Options {
	return Options{
		ParseDates: true,
		SheetIndex: 1,
	}
}

// Loader turns file bytes into a Dataset.
type Loader interface {
	CanLoad(filename string) bool
	Load(name string, data []byte, opt Options) (*Dataset, error)
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

// LoadFile reads path and loads it with the first loader that accepts its name.
func LoadFile(path string, opt Options) (*Dataset, error) {
	if loaderFor(path) == nil {
		return nil, &SourceError{Name: filepath.Base(path)}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return LoadBytes(filepath.Base(path), data, opt)
}

// LoadBytes loads already-read content; name selects the loader by extension.
func LoadBytes(name string, data []byte, opt Options) (*Dataset, error) {
	l := loaderFor(name)
	if l == nil {
		return nil, &SourceError{Name: name}
	}
	ds, err := l.Load(name, data, opt)
	if err != nil {
		return nil, err
	}
	return ds, nil
}

// Supported reports whether some registered loader accepts name.
func Supported(name string) bool { return loaderFor(name) != nil }

func loaderFor(name string) Loader {
	for _, l := range registry {
		if l.CanLoad(name) {
			return l
		}
	}
	return nil
}

func init() {
	Register(csvLoader{})
	Register(xlsxLoader{})
}
