// Where: cli/internal/infra/cfn/template.go
// What: CloudFormation template model and renderers.
// Why: Emit the declared topology as a deployable YAML or JSON document.
package cfn

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/poruru/webviz-stack/internal/domain/topology"
	"gopkg.in/yaml.v3"
)

const formatVersion = "2010-09-09"

type Template struct {
	AWSTemplateFormatVersion string               `yaml:"AWSTemplateFormatVersion" json:"AWSTemplateFormatVersion"`
	Description              string               `yaml:"Description,omitempty" json:"Description,omitempty"`
	Metadata                 map[string]any       `yaml:"Metadata,omitempty" json:"Metadata,omitempty"`
	Parameters               map[string]Parameter `yaml:"Parameters,omitempty" json:"Parameters,omitempty"`
	Resources                map[string]Resource  `yaml:"Resources" json:"Resources"`
	Outputs                  map[string]Output    `yaml:"Outputs,omitempty" json:"Outputs,omitempty"`
}

type Parameter struct {
	Type        string `yaml:"Type" json:"Type"`
	Description string `yaml:"Description,omitempty" json:"Description,omitempty"`
	Default     string `yaml:"Default,omitempty" json:"Default,omitempty"`
}

type Resource struct {
	Type       string         `yaml:"Type" json:"Type"`
	DependsOn  []string       `yaml:"DependsOn,omitempty" json:"DependsOn,omitempty"`
	Properties map[string]any `yaml:"Properties,omitempty" json:"Properties,omitempty"`
}

type Output struct {
	Description string `yaml:"Description,omitempty" json:"Description,omitempty"`
	Value       any    `yaml:"Value" json:"Value"`
}

// Format selects the rendered encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat accepts yaml/yml/json case-insensitively.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported template format %q", value)
	}
}

// Render encodes the template.
func (t *Template) Render(format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(t, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode template: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML, "":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(t); err != nil {
			return nil, fmt.Errorf("encode template: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode template: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported template format %q", format)
	}
}

// sub wraps values holding deferred references in Fn::Sub.
func sub(value string) any {
	if topology.IsDeferred(value) {
		return map[string]any{"Fn::Sub": value}
	}
	return value
}

func subAll(values []string) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, sub(v))
	}
	return out
}

func ref(logicalID string) map[string]any {
	return map[string]any{"Ref": logicalID}
}

func getAtt(logicalID, attr string) map[string]any {
	return map[string]any{"Fn::GetAtt": []string{logicalID, attr}}
}
