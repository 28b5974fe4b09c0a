// Where: cli/internal/domain/config/resolver.go
// What: Resolve a flat deployment context bag into a DeploymentConfig.
// Why: Fail fast on missing or malformed fields before any resource is declared.
package config

import (
	"sort"
	"strings"

	"github.com/poruru/webviz-stack/internal/domain/topology"
	"github.com/poruru/webviz-stack/internal/domain/value"
	"sigs.k8s.io/yaml"
)

// Recognized context keys.
const (
	KeyBucketName              = "bucketName"
	KeyBucketExists            = "bucketExists"
	KeyRegion                  = "region"
	KeyScenarioDB              = "scenarioDB"
	KeyGenerateURLFunctionName = "generateUrlFunctionName"
	KeyContainerImage          = "containerImage"
	KeyLoadBalancerName        = "loadBalancerName"
	KeyStackName               = "stackName"
)

var scenarioFields = []string{"partitionKey", "sortKey", "region", "tableName"}

// Resolve normalizes and validates raw. It has no side effects and returns the
// same result for the same input.
func Resolve(raw map[string]any) (topology.DeploymentConfig, error) {
	rawExists, ok := value.Lookup(raw, KeyBucketExists)
	if !ok {
		return topology.DeploymentConfig{}, topology.MissingField(KeyBucketExists)
	}
	exists, ok := value.AsBool(rawExists)
	if !ok {
		return topology.DeploymentConfig{}, topology.InvalidShape(KeyBucketExists, "expected a boolean")
	}

	cfg := topology.DeploymentConfig{BucketExists: exists}

	strs := []struct {
		key    string
		target *string
	}{
		{KeyBucketName, &cfg.BucketName},
		{KeyRegion, &cfg.Region},
		{KeyGenerateURLFunctionName, &cfg.GenerateURLFunctionName},
		{KeyContainerImage, &cfg.ContainerImage},
		{KeyLoadBalancerName, &cfg.LoadBalancerName},
		{KeyStackName, &cfg.StackName},
	}
	for _, field := range strs {
		s, err := optionalString(raw, field.key)
		if err != nil {
			return topology.DeploymentConfig{}, err
		}
		*field.target = s
	}

	if cfg.BucketExists && cfg.BucketName == "" {
		return topology.DeploymentConfig{}, topology.MissingField(KeyBucketName)
	}

	ds, err := ResolveScenarioDatastore(raw)
	if err != nil {
		return topology.DeploymentConfig{}, err
	}
	cfg.ScenarioDatastore = ds

	if cfg.ContainerImage == "" {
		cfg.ContainerImage = topology.DefaultContainerImage
	}
	if cfg.LoadBalancerName == "" {
		cfg.LoadBalancerName = topology.DefaultLoadBalancerName
	}
	if cfg.StackName == "" {
		cfg.StackName = topology.DefaultStackName
	}
	return cfg, nil
}

func optionalString(raw map[string]any, key string) (string, error) {
	v, ok := value.Lookup(raw, key)
	if !ok {
		return "", nil
	}
	s, ok := value.AsString(v)
	if !ok {
		return "", topology.InvalidShape(key, "expected a string")
	}
	return strings.TrimSpace(s), nil
}

// ResolveScenarioDatastore reads the optional scenarioDB block. A nil result
// means no datastore is configured.
func ResolveScenarioDatastore(raw map[string]any) (*topology.ScenarioDatastore, error) {
	v, ok := value.Lookup(raw, KeyScenarioDB)
	if !ok {
		return nil, nil
	}
	// Context passed on a command line arrives as an encoded string.
	if s, isString := value.AsString(v); isString {
		var decoded any
		if err := yaml.Unmarshal([]byte(s), &decoded); err != nil {
			return nil, topology.InvalidShape(KeyScenarioDB, "expected an object")
		}
		v = decoded
	}
	block, ok := value.AsMap(v)
	if !ok {
		return nil, topology.InvalidShape(KeyScenarioDB, "expected an object")
	}

	values := make(map[string]string, len(scenarioFields))
	var missing []string
	for _, field := range scenarioFields {
		fv, present := value.Lookup(block, field)
		s, isString := value.AsString(fv)
		s = strings.TrimSpace(s)
		if !present || !isString || s == "" {
			missing = append(missing, field)
			continue
		}
		values[field] = s
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, topology.InvalidShape(KeyScenarioDB, "missing "+strings.Join(missing, ", "))
	}

	return &topology.ScenarioDatastore{
		PartitionKey: values["partitionKey"],
		SortKey:      values["sortKey"],
		Region:       values["region"],
		TableName:    values["tableName"],
	}, nil
}
