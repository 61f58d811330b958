package mcq

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// recordsSchema describes an edited table as sent by clients. question_number is
// accepted but ignored; NewTable renumbers.
const recordsSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["question", "options"],
    "properties": {
      "question_number": {"type": "integer", "minimum": 1},
      "question": {"type": "string", "minLength": 1, "pattern": "\\S"},
      "options": {
        "type": "array",
        "minItems": 4,
        "maxItems": 4,
        "items": {"type": "string"}
      }
    },
    "additionalProperties": false
  }
}`

var compiledRecordsSchema = mustCompileSchema("records.json", recordsSchema)

func mustCompileSchema(name, src string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(src)); err != nil {
		panic(fmt.Sprintf("add schema %s: %v", name, err))
	}
	return compiler.MustCompile(name)
}

// ValidateRecordsJSON checks a client-supplied table against the record schema
// and decodes it.
func ValidateRecordsJSON(data []byte) ([]Record, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("unmarshal records: %w", err)
	}
	if err := compiledRecordsSchema.Validate(v); err != nil {
		return nil, fmt.Errorf("records do not match schema: %w", err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return records, nil
}

// DecodeTable validates an edited table and returns it as a replacement Table.
func DecodeTable(data []byte) (Table, error) {
	records, err := ValidateRecordsJSON(data)
	if err != nil {
		return Table{}, err
	}
	return NewTable(records)
}
