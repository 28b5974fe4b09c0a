// Where: cli/internal/infra/local/state.go
// What: Local deployment state load/save.
// Why: Remember generated names and custom action runs across local deploys.
package local

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/poruru/webviz-stack/internal/meta"
	"gopkg.in/yaml.v3"
)

// State is persisted to <project>/.webviz/state.yaml.
type State struct {
	Version       int                     `yaml:"version"`
	Stack         string                  `yaml:"stack,omitempty"`
	Service       *ServiceRecord          `yaml:"service,omitempty"`
	Buckets       map[string]string       `yaml:"buckets,omitempty"`
	CustomActions map[string]ActionRecord `yaml:"custom_actions,omitempty"`
	Outputs       map[string]string       `yaml:"outputs,omitempty"`
}

type ServiceRecord struct {
	ContainerID string `yaml:"container_id"`
	Address     string `yaml:"address"`
}

// ActionRecord tracks the last successful run of one custom action.
type ActionRecord struct {
	PhysicalID string            `yaml:"physical_id"`
	Properties map[string]string `yaml:"properties,omitempty"`
}

func DefaultState() State {
	return State{
		Version:       1,
		Buckets:       map[string]string{},
		CustomActions: map[string]ActionRecord{},
		Outputs:       map[string]string{},
	}
}

// StatePath returns the path to the state file under projectRoot.
func StatePath(projectRoot string) (string, error) {
	root := strings.TrimSpace(projectRoot)
	if root == "" {
		return "", fmt.Errorf("project root is required")
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return filepath.Join(root, meta.HomeDir, meta.StateFile), nil
}

// LoadState returns DefaultState when the file does not exist yet.
func LoadState(path string) (State, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultState(), nil
		}
		return State{}, fmt.Errorf("read state: %w", err)
	}

	state := DefaultState()
	if err := yaml.Unmarshal(payload, &state); err != nil {
		return State{}, fmt.Errorf("decode state: %w", err)
	}
	if state.Buckets == nil {
		state.Buckets = map[string]string{}
	}
	if state.CustomActions == nil {
		state.CustomActions = map[string]ActionRecord{}
	}
	if state.Outputs == nil {
		state.Outputs = map[string]string{}
	}
	return state, nil
}

func SaveState(path string, state State) error {
	payload, err := yaml.Marshal(&state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}
