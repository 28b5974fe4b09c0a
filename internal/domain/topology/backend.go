// Where: cli/internal/domain/topology/backend.go
// What: Provisioning backend port consumed by the assembly steps.
// Why: Share one contract between usecases and the cfn/local backends without layer leaks.
package topology

import "context"

// Backend accepts resource declarations and returns handles or addresses.
// Implementations report failures as *BackendError (see WrapBackend).
type Backend interface {
	DeclareService(ctx context.Context, decl ServiceDeclaration) (ServiceAddress, error)
	ReferenceBucket(ctx context.Context, name string) (Handle, error)
	CreateBucket(ctx context.Context, decl BucketDeclaration) (Handle, error)
	DeclareRole(ctx context.Context, decl RoleDeclaration) (Handle, error)
	DeclareFunction(ctx context.Context, decl FunctionDeclaration) (Handle, error)
	DeclareCustomAction(ctx context.Context, decl CustomActionDeclaration) (Handle, error)
	// AccountID returns the account identifier used when building ARNs.
	AccountID() string
}

// ServiceDeclaration describes the load-balanced container service.
type ServiceDeclaration struct {
	LogicalID        string
	Image            string
	ContainerPort    int
	LoadBalancerName string
}

// ServiceAddress is what the backend assigned to a declared service.
type ServiceAddress struct {
	Handle  Handle
	DNSName string
}

// BucketDeclaration describes a bucket owned by this deployment.
// An empty Name lets the backend generate one.
type BucketDeclaration struct {
	LogicalID string
	Name      string
	CORS      []CORSRule
	DependsOn []string
}

// RoleDeclaration describes the execution identity of one function.
type RoleDeclaration struct {
	LogicalID string
	Grant     IdentityGrant
}

// FunctionDeclaration describes an invocation target.
type FunctionDeclaration struct {
	LogicalID    string
	Kind         string
	FunctionName string
	Role         Handle
	Environment  map[string]string
	DependsOn    []string
}

// CustomActionDeclaration schedules one out-of-band action handled by Function.
type CustomActionDeclaration struct {
	LogicalID    string
	ResourceType string
	Function     Handle
	Properties   map[string]string
	DependsOn    []string
}

// Custom action contract for applying CORS rules to a referenced bucket.
const (
	CORSResourceType      = "Custom::PutCorsRules"
	PropertyBucketName    = "bucket_name"
	PropertyAllowedOrigin = "allowed_origin"
)
