// Package artifact validates generation requests and finished artifacts
// against versioned JSON schemas.
package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrValidation can be used with errors.Is to detect schema failures.
var ErrValidation = errors.New("validation failed")

type Validator struct {
	requestSchemas  map[string]*jsonschema.Schema
	artifactSchemas map[string]*jsonschema.Schema
}

// NewValidator loads all *.json schema files from schemaDir and compiles the
// request_schema and artifact_schema for each kind. File names follow
// <kind>.v1.json.
func NewValidator(schemaDir string) (*Validator, error) {
	entries, err := os.ReadDir(schemaDir)
	if err != nil {
		return nil, fmt.Errorf("read schema dir %q: %w", schemaDir, err)
	}
	requestSchemas := make(map[string]*jsonschema.Schema)
	artifactSchemas := make(map[string]*jsonschema.Schema)

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		kind := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		kind = strings.TrimSuffix(kind, ".v1")
		path := filepath.Join(schemaDir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", path, err)
		}
		var file struct {
			RequestSchema  json.RawMessage `json:"request_schema"`
			ArtifactSchema json.RawMessage `json:"artifact_schema"`
		}
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse %q: %w", path, err)
		}
		if len(file.RequestSchema) == 0 || len(file.ArtifactSchema) == 0 {
			return nil, fmt.Errorf("%q: missing request_schema or artifact_schema", path)
		}
		requestID := "https://courseloom.dev/schemas/" + kind + ".request"
		artifactID := "https://courseloom.dev/schemas/" + kind + ".artifact"
		requestSchemas[kind], err = jsonschema.CompileString(requestID, string(file.RequestSchema))
		if err != nil {
			return nil, fmt.Errorf("compile request schema %q: %w", kind, err)
		}
		artifactSchemas[kind], err = jsonschema.CompileString(artifactID, string(file.ArtifactSchema))
		if err != nil {
			return nil, fmt.Errorf("compile artifact schema %q: %w", kind, err)
		}
	}

	return &Validator{
		requestSchemas:  requestSchemas,
		artifactSchemas: artifactSchemas,
	}, nil
}

// ValidateRequest performs hard reject: an error means the request must not
// be accepted.
func (v *Validator) ValidateRequest(kind string, request json.RawMessage) error {
	schema, ok := v.requestSchemas[kind]
	if !ok {
		return fmt.Errorf("unknown artifact kind %q", kind)
	}
	return validate(schema, request)
}

// ValidateArtifact performs soft flag: callers log and flag the artifact
// rather than discarding paid work.
func (v *Validator) ValidateArtifact(kind string, artifact json.RawMessage) error {
	schema, ok := v.artifactSchemas[kind]
	if !ok {
		return fmt.Errorf("unknown artifact kind %q", kind)
	}
	return validate(schema, artifact)
}

func validate(schema *jsonschema.Schema, raw json.RawMessage) error {
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}
