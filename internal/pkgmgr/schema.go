package pkgmgr

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// packageSchemaJSON is the JSON Schema an eiko.toml's [eiko.package]
// table must satisfy, grounded on PackageData's required/optional split
// (name and source_dir are mandatory, everything else optional).
const packageSchemaJSON = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"properties": {
		"name": {"type": "string", "minLength": 1},
		"source_dir": {"type": "string", "minLength": 1},
		"version": {"type": "string"},
		"description": {"type": "string"},
		"author": {"type": "string"},
		"author_email": {"type": "string"},
		"license": {"type": "string"},
		"requires": {"type": "array", "items": {"type": "string"}}
	},
	"required": ["name", "source_dir"]
}`

func compilePackageSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("package.json", bytes.NewReader([]byte(packageSchemaJSON))); err != nil {
		return nil, err
	}
	return compiler.Compile("package.json")
}

// validatePackageSection schema-validates the raw eiko.package table
// decoded from TOML before it's unmarshalled into PackageData.
func validatePackageSection(raw map[string]interface{}) error {
	eiko, ok := raw["eiko"].(map[string]interface{})
	if !ok {
		return fmt.Errorf("missing 'eiko' table")
	}
	pkg, ok := eiko["package"].(map[string]interface{})
	if !ok {
		return fmt.Errorf("missing 'eiko.package' table")
	}

	schema, err := compilePackageSchema()
	if err != nil {
		return fmt.Errorf("internal: failed to compile package schema: %w", err)
	}

	data, err := rawToJSON(pkg)
	if err != nil {
		return err
	}
	var decoded interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	return schema.Validate(decoded)
}
