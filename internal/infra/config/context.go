// Where: cli/internal/infra/config/context.go
// What: Deployment context loading from cdk.json-style files and -c overrides.
// Why: Produce the raw context bag the resolver validates, from files and flags.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	domaincfg "github.com/poruru/webviz-stack/internal/domain/config"
	"github.com/poruru/webviz-stack/internal/domain/topology"
	"github.com/poruru/webviz-stack/internal/domain/value"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"sigs.k8s.io/yaml"
)

const schemaURL = "context.schema.json"

//go:embed context.schema.json
var contextSchema []byte

var (
	schemaOnce     sync.Once
	schemaErr      error
	compiledSchema *jsonschema.Schema
)

// Source describes where the context comes from.
type Source struct {
	Path string
	// Optional tolerates a missing file (the default cdk.json).
	Optional  bool
	Overrides []string
}

// LoadContext reads the context file (JSON or YAML, either a bare map or
// wrapped under "context"), applies overrides, and validates the result.
func LoadContext(src Source) (map[string]any, error) {
	ctx := map[string]any{}
	if path := strings.TrimSpace(src.Path); path != "" {
		payload, err := os.ReadFile(path)
		switch {
		case err == nil:
			ctx, err = decodeContext(payload)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && src.Optional:
		default:
			return nil, fmt.Errorf("read context: %w", err)
		}
	}

	overrides, err := ParseOverrides(src.Overrides)
	if err != nil {
		return nil, err
	}
	for key, v := range overrides {
		ctx[key] = v
	}

	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return ctx, nil
}

// LoadDeploymentConfig loads the context and resolves it.
func LoadDeploymentConfig(src Source) (topology.DeploymentConfig, error) {
	raw, err := LoadContext(src)
	if err != nil {
		return topology.DeploymentConfig{}, err
	}
	return domaincfg.Resolve(raw)
}

func decodeContext(payload []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return map[string]any{}, nil
	}
	jsonData, err := yaml.YAMLToJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("convert yaml to json: %w", err)
	}
	var document map[string]any
	if err := json.Unmarshal(jsonData, &document); err != nil {
		return nil, topology.InvalidShape("context", "expected an object")
	}
	if nested, ok := value.AsMap(document["context"]); ok {
		return nested, nil
	}
	return document, nil
}

// ParseOverrides turns key=value pairs into context values. Values stay
// strings unless the schema declares the key as boolean ("true"/"false")
// or object ({...}). Keys the schema does not know follow the value shape.
func ParseOverrides(pairs []string) (map[string]any, error) {
	out := map[string]any{}
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid context override %q (expected key=value)", pair)
		}
		raw = strings.TrimSpace(raw)
		declared, known := declaredTypes(key)
		switch {
		case (raw == "true" || raw == "false") && (!known || declared["boolean"]):
			out[key] = raw == "true"
		case strings.HasPrefix(raw, "{") && (!known || declared["object"]):
			var obj map[string]any
			if err := yaml.Unmarshal([]byte(raw), &obj); err != nil {
				return nil, fmt.Errorf("context override %s: %w", key, err)
			}
			out[key] = obj
		default:
			out[key] = raw
		}
	}
	return out, nil
}

// declaredTypes returns the JSON types the schema allows for a top-level key.
func declaredTypes(key string) (map[string]bool, bool) {
	sch, err := loadSchema()
	if err != nil || sch == nil {
		return nil, false
	}
	prop, ok := sch.Properties[key]
	if !ok || prop == nil || len(prop.Types) == 0 {
		return nil, false
	}
	types := make(map[string]bool, len(prop.Types))
	for _, t := range prop.Types {
		types[t] = true
	}
	return types, true
}

func validateContext(ctx map[string]any) error {
	sch, err := loadSchema()
	if err != nil {
		return fmt.Errorf("load context schema: %w", err)
	}
	// Round-trip through JSON so the validator sees plain JSON types.
	data, err := json.Marshal(ctx)
	if err != nil {
		return fmt.Errorf("encode context: %w", err)
	}
	var document any
	if err := json.Unmarshal(data, &document); err != nil {
		return fmt.Errorf("decode context: %w", err)
	}
	if err := sch.Validate(document); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return topology.InvalidShape("context", leafMessage(verr))
		}
		return topology.InvalidShape("context", err.Error())
	}
	return nil
}

func leafMessage(verr *jsonschema.ValidationError) string {
	for len(verr.Causes) > 0 {
		verr = verr.Causes[0]
	}
	location := strings.TrimPrefix(verr.InstanceLocation, "/")
	if location == "" {
		return verr.Message
	}
	return location + ": " + verr.Message
}

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, bytes.NewReader(contextSchema)); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = compiler.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}
