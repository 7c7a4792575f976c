package llm

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// decisionSchema constrains the JSON object the model must return. Schema
// failure downgrades the market to PASS rather than aborting the cycle.
const decisionSchema = `{
  "type": "object",
  "required": ["action", "reasoning"],
  "properties": {
    "action": {"type": "string", "enum": ["BUY", "SELL", "HOLD", "PASS"]},
    "outcome": {"type": ["string", "null"]},
    "side": {"type": ["string", "null"], "enum": ["YES", "NO", null]},
    "size": {"type": ["number", "null"], "minimum": 0},
    "confidence": {"type": ["number", "null"], "minimum": 0, "maximum": 1},
    "edge": {"type": ["number", "null"]},
    "reasoning": {"type": "string"}
  }
}`

var compiledSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("decision.json", strings.NewReader(decisionSchema)); err != nil {
		panic(fmt.Sprintf("adding decision schema: %v", err))
	}
	schema, err := compiler.Compile("decision.json")
	if err != nil {
		panic(fmt.Sprintf("compiling decision schema: %v", err))
	}
	return schema
}

func validateDecisionJSON(doc any) error {
	if err := compiledSchema.Validate(doc); err != nil {
		return fmt.Errorf("decision schema violation: %w", err)
	}
	return nil
}
