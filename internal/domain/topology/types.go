// Where: cli/internal/domain/topology/types.go
// What: Core value types shared by the topology assembly steps.
// Why: Keep configuration, handles, and endpoints free of backend dependencies.
package topology

import (
	"fmt"
	"strings"
)

// Defaults carried over from the original stack definition.
const (
	DefaultContainerImage   = "cruise/webviz"
	DefaultLoadBalancerName = "webviz-lb"
	DefaultStackName        = "WebvizStack"
	ServiceContainerPort    = 8080
)

// DeploymentConfig is the resolved, validated deployment context.
type DeploymentConfig struct {
	BucketName              string
	BucketExists            bool
	Region                  string
	ScenarioDatastore       *ScenarioDatastore
	GenerateURLFunctionName string

	ContainerImage   string
	LoadBalancerName string
	StackName        string
}

// ScenarioDatastore holds the coordinates of the external scene table.
type ScenarioDatastore struct {
	PartitionKey string `json:"partitionKey" yaml:"partitionKey"`
	SortKey      string `json:"sortKey" yaml:"sortKey"`
	Region       string `json:"region" yaml:"region"`
	TableName    string `json:"tableName" yaml:"tableName"`
}

// Handle is an opaque reference to a backend-managed resource.
// Name and ARN may be deferred references (see IsDeferred).
type Handle struct {
	LogicalID string
	Name      string
	ARN       string
}

// IsZero reports whether the handle was never assigned by a backend.
func (h Handle) IsZero() bool {
	return h.LogicalID == "" && h.Name == "" && h.ARN == ""
}

// ServiceEndpoint is the externally reachable address of the compute service.
// Only NewServiceEndpoint produces a resolved value.
type ServiceEndpoint struct {
	Scheme string
	Host   string
	Source Handle
}

// NewServiceEndpoint derives an endpoint from the address a backend assigned
// to the service identified by source.
func NewServiceEndpoint(scheme, host string, source Handle) (ServiceEndpoint, error) {
	scheme = strings.ToLower(strings.TrimSpace(scheme))
	host = strings.TrimSpace(host)
	if scheme == "" {
		return ServiceEndpoint{}, fmt.Errorf("endpoint scheme is required")
	}
	if host == "" {
		return ServiceEndpoint{}, fmt.Errorf("endpoint host is required")
	}
	if source.IsZero() {
		return ServiceEndpoint{}, fmt.Errorf("endpoint source service is required")
	}
	return ServiceEndpoint{
		Scheme: scheme,
		Host:   LowerLiteral(host),
		Source: source,
	}, nil
}

// Resolved reports whether the endpoint was derived from a declared service.
func (e ServiceEndpoint) Resolved() bool {
	return e.Scheme != "" && e.Host != "" && !e.Source.IsZero()
}

// URL renders scheme://host.
func (e ServiceEndpoint) URL() string {
	return e.Scheme + "://" + e.Host
}

// CORSRule is a single cross-origin rule applied to a bucket.
type CORSRule struct {
	AllowedHeaders []string
	AllowedMethods []string
	AllowedOrigins []string
	ExposedHeaders []string
}

// ReadOnlyCORSRule builds the rule that lets origin fetch objects with HEAD/GET.
func ReadOnlyCORSRule(origin string) CORSRule {
	return CORSRule{
		AllowedHeaders: []string{"*"},
		AllowedMethods: []string{"HEAD", "GET"},
		AllowedOrigins: []string{origin},
		ExposedHeaders: []string{"ETag", "Content-Type", "Accept-Ranges", "Content-Length"},
	}
}

// IsDeferred reports whether value contains a reference that a backend
// resolves only after creation (for example "${WebvizLB.DNSName}").
func IsDeferred(value string) bool {
	return strings.Contains(value, "${")
}

// LowerLiteral lowercases value except inside ${...} references.
func LowerLiteral(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	depth := 0
	for i := 0; i < len(value); i++ {
		c := value[i]
		switch {
		case c == '$' && i+1 < len(value) && value[i+1] == '{':
			depth++
			b.WriteString("${")
			i++
			continue
		case c == '}' && depth > 0:
			depth--
		case depth == 0 && c >= 'A' && c <= 'Z':
			c += 'a' - 'A'
		}
		b.WriteByte(c)
	}
	return b.String()
}
