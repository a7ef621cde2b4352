package insights

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// generateSchema reflects T into the map form the structured-output endpoint
// accepts. Strict mode rejects open objects and optional properties, so the
// reflected schema gets a post-processing pass that closes every object and
// requires all of its properties.
func generateSchema[T any]() map[string]any {
	r := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var zero T
	raw, err := json.Marshal(r.Reflect(zero))
	if err != nil {
		panic(err)
	}
	var schema map[string]any
	if err := json.Unmarshal(raw, &schema); err != nil {
		panic(err)
	}
	closeObjects(schema)
	return schema
}

// closeObjects walks the schema tree, forcing strict-mode shape onto every
// object node it finds.
func closeObjects(node map[string]any) {
	props, _ := node["properties"].(map[string]any)

	if t, _ := node["type"].(string); t == "object" {
		node["additionalProperties"] = false
		if len(props) > 0 {
			required := make([]string, 0, len(props))
			for name := range props {
				required = append(required, name)
			}
			node["required"] = required
		}
	}

	for _, p := range props {
		if child, ok := p.(map[string]any); ok {
			closeObjects(child)
		}
	}
	for _, key := range []string{"items", "additionalProperties"} {
		if child, ok := node[key].(map[string]any); ok {
			closeObjects(child)
		}
	}
}
