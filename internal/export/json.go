package export

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "https://classgraph.local/snapshot.schema.json"

//go:embed snapshot.schema.json
var schemaJSON []byte

var (
	schemaMu       sync.Mutex
	compiledSchema *jsonschema.Schema
)

func loadCompiledSchema() (*jsonschema.Schema, error) {
	schemaMu.Lock()
	defer schemaMu.Unlock()
	if compiledSchema != nil {
		return compiledSchema, nil
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		return nil, err
	}
	compiled, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, err
	}
	compiledSchema = compiled
	return compiled, nil
}

// Validate checks snap against the embedded snapshot schema.
func Validate(snap Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return validateRaw(raw)
}

func validateRaw(raw []byte) error {
	schema, err := loadCompiledSchema()
	if err != nil {
		return fmt.Errorf("failed to load snapshot schema: %w", err)
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("failed to decode snapshot json: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("snapshot schema validation failed: %w", err)
	}
	return nil
}

// Write validates snap and writes it to w as indented JSON.
func Write(w io.Writer, snap Snapshot) error {
	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := validateRaw(raw); err != nil {
		return err
	}
	raw = append(raw, '\n')
	_, err = w.Write(raw)
	return err
}

// Read decodes and validates a snapshot written by Write.
func Read(r io.Reader) (Snapshot, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Snapshot{}, err
	}
	if err := validateRaw(raw); err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snap, nil
}
