// Where: cli/internal/usecase/invocation/targets.go
// What: Invocation target bindings (PutCors, GenerateUrl) with their identities.
// Why: Each function gets its own least-privilege role and a payload derived upstream.
package invocation

import (
	"context"
	"fmt"
	"strings"

	"github.com/poruru/webviz-stack/internal/constants"
	"github.com/poruru/webviz-stack/internal/domain/topology"
	"github.com/poruru/webviz-stack/internal/domain/value"
)

const (
	KindPutCors     = "PutCors"
	KindGenerateURL = "GenerateUrl"
)

const (
	ActionPutBucketCORS = "s3:PutBucketCORS"
	ActionGetObject     = "s3:GetObject"
	ActionGetItem       = "dynamodb:GetItem"
)

// Options carries optional per-target settings.
type Options struct {
	FunctionName string
	DependsOn    []string
}

// DeclareInvocationTarget declares the role for grant and then the function
// of kind bound to it.
func DeclareInvocationTarget(
	ctx context.Context,
	backend topology.Backend,
	kind string,
	grant topology.IdentityGrant,
	env map[string]string,
	opts Options,
) (topology.InvocationTarget, error) {
	if backend == nil {
		return topology.InvocationTarget{}, fmt.Errorf("backend is nil")
	}
	switch kind {
	case KindPutCors, KindGenerateURL:
	default:
		return topology.InvocationTarget{}, fmt.Errorf("unknown invocation target kind %q", kind)
	}
	if err := grant.Validate(); err != nil {
		return topology.InvocationTarget{}, fmt.Errorf("%s identity: %w", kind, err)
	}

	role, err := backend.DeclareRole(ctx, topology.RoleDeclaration{
		LogicalID: kind + "Role",
		Grant:     grant,
	})
	if err != nil {
		return topology.InvocationTarget{}, fmt.Errorf("declare %s role: %w", kind, topology.WrapBackend("DeclareRole", err))
	}

	dependsOn := append(append([]string(nil), opts.DependsOn...), role.LogicalID)
	fn, err := backend.DeclareFunction(ctx, topology.FunctionDeclaration{
		LogicalID:    kind + "Function",
		Kind:         kind,
		FunctionName: strings.TrimSpace(opts.FunctionName),
		Role:         role,
		Environment:  value.CloneStrings(env),
		DependsOn:    dependsOn,
	})
	if err != nil {
		return topology.InvocationTarget{}, fmt.Errorf("declare %s function: %w", kind, topology.WrapBackend("DeclareFunction", err))
	}

	return topology.InvocationTarget{
		Kind:        kind,
		Function:    fn,
		Role:        role,
		Grant:       grant,
		Environment: value.CloneStrings(env),
	}, nil
}

// PutCorsGrant allows exactly one action on exactly one bucket.
func PutCorsGrant(bucket topology.Handle) topology.IdentityGrant {
	return topology.IdentityGrant{
		Name:            "allow-put-cors",
		Permissions:     []topology.Permission{topology.Allow(ActionPutBucketCORS, bucket.ARN)},
		BaselineLogging: true,
	}
}

// GenerateURLGrant allows object reads on the bucket and, when a scene table
// is configured, single-item reads on that table.
func GenerateURLGrant(bucket topology.Handle, ds *topology.ScenarioDatastore, account string) topology.IdentityGrant {
	perms := []topology.Permission{topology.Allow(ActionGetObject, bucket.ARN+"/*")}
	if ds != nil {
		perms = append(perms, topology.Allow(ActionGetItem, TableARN(*ds, account)))
	}
	return topology.IdentityGrant{
		Name:            "generate-url",
		Permissions:     perms,
		BaselineLogging: true,
	}
}

// TableARN builds the ARN of the scene table.
func TableARN(ds topology.ScenarioDatastore, account string) string {
	return fmt.Sprintf("arn:aws:dynamodb:%s:%s:table/%s", ds.Region, account, ds.TableName)
}

// GenerateURLEnvironment builds the GenerateUrl payload. The SCENE_DB_* keys
// are present only when ds is set.
func GenerateURLEnvironment(endpoint topology.ServiceEndpoint, ds *topology.ScenarioDatastore) (map[string]string, error) {
	if !endpoint.Resolved() {
		return nil, fmt.Errorf("generate url environment: %w", topology.ErrUnresolved)
	}
	env := map[string]string{
		constants.EnvWebvizURL: endpoint.URL(),
	}
	if ds != nil {
		env[constants.EnvSceneDBPartitionKey] = ds.PartitionKey
		env[constants.EnvSceneDBSortKey] = ds.SortKey
		env[constants.EnvSceneDBRegion] = ds.Region
		env[constants.EnvSceneDBTable] = ds.TableName
	}
	return env, nil
}
