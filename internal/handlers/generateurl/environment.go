// Where: cli/internal/handlers/generateurl/environment.go
// What: Environment contract of the GenerateUrl handler.
// Why: Keep the env keys set at declaration time and read at runtime in one struct.
package generateurl

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const DefaultURLExpiry = time.Hour

// Environment is populated from the function's environment variables.
// The SCENE_DB_* keys are either all present or all absent.
type Environment struct {
	WebvizURL    string        `env:"WEBVIZ_ELB_URL,required,notEmpty"`
	PartitionKey string        `env:"SCENE_DB_PARTITION_KEY"`
	SortKey      string        `env:"SCENE_DB_SORT_KEY"`
	Region       string        `env:"SCENE_DB_REGION"`
	TableName    string        `env:"SCENE_DB_TABLE"`
	URLExpiry    time.Duration `env:"URL_EXPIRY" envDefault:"1h"`
}

// LoadEnvironment reads the process environment.
func LoadEnvironment() (Environment, error) {
	return ParseEnvironment(nil)
}

// ParseEnvironment reads vars, or the process environment when vars is nil.
func ParseEnvironment(vars map[string]string) (Environment, error) {
	var cfg Environment
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Environment{}, fmt.Errorf("parse environment: %w", err)
	}
	cfg.WebvizURL = strings.TrimRight(strings.TrimSpace(cfg.WebvizURL), "/")
	if cfg.URLExpiry <= 0 {
		cfg.URLExpiry = DefaultURLExpiry
	}
	if err := cfg.validate(); err != nil {
		return Environment{}, err
	}
	return cfg, nil
}

// HasScenarioDatastore reports whether scene lookups are configured.
func (e Environment) HasScenarioDatastore() bool {
	return e.TableName != ""
}

func (e Environment) validate() error {
	set := 0
	for _, v := range []string{e.PartitionKey, e.SortKey, e.Region, e.TableName} {
		if v != "" {
			set++
		}
	}
	if set != 0 && set != 4 {
		return fmt.Errorf("scenario datastore environment is incomplete")
	}
	return nil
}
