package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed runconfig.schema.json
var runConfigSchema string

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("runconfig.schema.json", strings.NewReader(runConfigSchema)); err != nil {
			compileErr = fmt.Errorf("invalid schema: %w", err)
			return
		}
		compiledSchema, compileErr = compiler.Compile("runconfig.schema.json")
	})
	return compiledSchema, compileErr
}

// ValidateDocument checks a decoded configuration document against the
// run configuration JSON Schema. doc is the generic value produced by a
// YAML or JSON decoder.
func ValidateDocument(doc any) error {
	s, err := schema()
	if err != nil {
		return err
	}

	// Round-trip through JSON so YAML-specific types become plain JSON values.
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}

	if err := s.Validate(v); err != nil {
		verr, ok := err.(*jsonschema.ValidationError)
		if !ok {
			return err
		}
		errs := &ValidationErrors{}
		collectSchemaErrors(verr, errs)
		if !errs.HasErrors() {
			errs.Add("", verr.Error())
		}
		return errs
	}
	return nil
}

func collectSchemaErrors(err *jsonschema.ValidationError, errs *ValidationErrors) {
	if len(err.Causes) == 0 {
		errs.Add(instanceField(err.InstanceLocation), err.Message)
		return
	}
	for _, cause := range err.Causes {
		collectSchemaErrors(cause, errs)
	}
}

// instanceField converts a JSON pointer like /report/json to report.json.
func instanceField(location string) string {
	return strings.ReplaceAll(strings.TrimPrefix(location, "/"), "/", ".")
}
