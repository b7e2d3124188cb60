package filer

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
)

// JsonFiler is the file persistence interface store.Archive uses to
// snapshot and reload archived Records across process restarts.
type JsonFiler interface {
	Save(name string, i any) error
	Load(name string, in any) error
}

type jsonFiler struct{}

// NewJsonLoader returns the JSON-backed JsonFiler implementation.
func NewJsonLoader() JsonFiler {
	return &jsonFiler{}
}

// Save marshals i to JSON and writes it to name, truncating any
// existing file. Large archives should prefer a streaming writer
// instead.
func (e jsonFiler) Save(name string, i any) error {
	b, err := json.Marshal(i)
	if err != nil {
		return errors.Errorf("failed to json marshal: %w", err)
	}

	if err := os.WriteFile(name, b, 0o644); err != nil {
		return fmt.Errorf("failed to write file %q: %w", name, err)
	}

	return nil
}

// Load reads name and unmarshals its JSON contents into in.
func (e jsonFiler) Load(name string, in any) error {
	b, err := os.ReadFile(name)
	if err != nil {
		return errors.Errorf("failed to read file: %w", err)
	}

	if err := json.Unmarshal(b, in); err != nil {
		return errors.Errorf("failed to json unmarshal: %w", err)
	}

	return nil
}
