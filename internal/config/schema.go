package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed config.schema.json
var rawSchema string

var schema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("config.schema.json", strings.NewReader(rawSchema)); err != nil {
		panic(fmt.Sprintf("config: embedded schema: %v", err))
	}
	s, err := compiler.Compile("config.schema.json")
	if err != nil {
		panic(fmt.Sprintf("config: embedded schema: %v", err))
	}
	return s
}

// validateSchema checks the merged file+env keys against the embedded
// schema. The map is round-tripped through JSON so the validator sees the
// types json.Unmarshal would produce.
func validateSchema(raw map[string]any) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := schema.Validate(payload); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
