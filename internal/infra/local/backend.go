// Where: cli/internal/infra/local/backend.go
// What: Provisioning backend that materializes the topology on local services.
// Why: Exercise the same assembly against Docker and S3/DynamoDB-compatible endpoints.
package local

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/poruru/webviz-stack/internal/domain/topology"
	"github.com/poruru/webviz-stack/internal/handlers/putcors"
	"github.com/poruru/webviz-stack/internal/infra/docker"
	"go.uber.org/zap"
)

const DefaultAccountID = "000000000000"

// BucketStore is the storage surface the backend needs.
type BucketStore interface {
	putcors.BucketCORSAPI
	BucketExists(ctx context.Context, bucket string) (bool, error)
	CreateBucket(ctx context.Context, bucket string) error
}

// ServiceRunner starts or reuses the service container.
type ServiceRunner interface {
	Ensure(ctx context.Context, spec docker.ServiceSpec) (docker.ServiceAddress, error)
}

// ActionDispatcher delivers custom action events.
type ActionDispatcher interface {
	Dispatch(ctx context.Context, ev putcors.Event) (putcors.Response, error)
}

// Backend implements topology.Backend. Roles and functions are kept in
// memory; custom actions run inline through Actions.
type Backend struct {
	Project  string
	Region   string
	Buckets  BucketStore
	Services ServiceRunner
	Actions  ActionDispatcher
	State    *State
	Logger   *zap.Logger
	// NewID returns unique ids for generated names and request ids.
	NewID func() string

	roles     map[string]topology.RoleDeclaration
	functions map[string]topology.FunctionDeclaration
}

// NewBackend wires a putcors provider over buckets as the action dispatcher.
func NewBackend(project, region string, buckets BucketStore, services ServiceRunner, state *State, logger *zap.Logger) *Backend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backend{
		Project:  project,
		Region:   region,
		Buckets:  buckets,
		Services: services,
		Actions: &putcors.Provider{
			Handler: &putcors.Handler{Client: buckets, Logger: logger},
			Logger:  logger,
		},
		State:  state,
		Logger: logger,
	}
}

func (b *Backend) AccountID() string {
	return DefaultAccountID
}

// Function returns the declaration recorded for logicalID.
func (b *Backend) Function(logicalID string) (topology.FunctionDeclaration, bool) {
	decl, ok := b.functions[logicalID]
	return decl, ok
}

func (b *Backend) DeclareService(ctx context.Context, decl topology.ServiceDeclaration) (topology.ServiceAddress, error) {
	if b.Services == nil {
		return topology.ServiceAddress{}, topology.WrapBackend("DeclareService", fmt.Errorf("service runner is not configured"))
	}
	addr, err := b.Services.Ensure(ctx, docker.ServiceSpec{
		Project:       b.Project,
		Name:          decl.LoadBalancerName,
		Image:         decl.Image,
		ContainerPort: decl.ContainerPort,
	})
	if err != nil {
		return topology.ServiceAddress{}, topology.WrapBackend("DeclareService", err)
	}
	b.state().Service = &ServiceRecord{ContainerID: addr.ContainerID, Address: addr.HostPort()}
	b.logger().Info("service ready", zap.String("name", decl.LoadBalancerName), zap.String("address", addr.HostPort()))
	return topology.ServiceAddress{
		Handle: topology.Handle{
			LogicalID: decl.LogicalID,
			Name:      decl.LoadBalancerName,
			ARN:       "local:container/" + addr.ContainerID,
		},
		DNSName: addr.HostPort(),
	}, nil
}

func (b *Backend) ReferenceBucket(ctx context.Context, name string) (topology.Handle, error) {
	if b.Buckets == nil {
		return topology.Handle{}, topology.WrapBackend("ReferenceBucket", fmt.Errorf("bucket store is not configured"))
	}
	exists, err := b.Buckets.BucketExists(ctx, name)
	if err != nil {
		return topology.Handle{}, topology.WrapBackend("ReferenceBucket", err)
	}
	if !exists {
		return topology.Handle{}, topology.WrapBackend("ReferenceBucket", topology.TargetNotFound(name))
	}
	return topology.Handle{Name: name, ARN: "arn:aws:s3:::" + name}, nil
}

// CreateBucket creates the bucket when missing and then applies its CORS
// rules. Generated names are stored so later runs reuse the same bucket.
func (b *Backend) CreateBucket(ctx context.Context, decl topology.BucketDeclaration) (topology.Handle, error) {
	if b.Buckets == nil {
		return topology.Handle{}, topology.WrapBackend("CreateBucket", fmt.Errorf("bucket store is not configured"))
	}
	for _, rule := range decl.CORS {
		for _, origin := range rule.AllowedOrigins {
			if topology.IsDeferred(origin) {
				return topology.Handle{}, topology.WrapBackend("CreateBucket", fmt.Errorf("unresolved origin %q", origin))
			}
		}
	}

	state := b.state()
	name := decl.Name
	if name == "" {
		name = state.Buckets[decl.LogicalID]
	}
	if name == "" {
		name = b.generatedName(decl.LogicalID)
	}

	exists, err := b.Buckets.BucketExists(ctx, name)
	if err != nil {
		return topology.Handle{}, topology.WrapBackend("CreateBucket", err)
	}
	if !exists {
		if err := b.Buckets.CreateBucket(ctx, name); err != nil {
			return topology.Handle{}, topology.WrapBackend("CreateBucket", err)
		}
		b.logger().Info("bucket created", zap.String("bucket", name))
	}
	if len(decl.CORS) > 0 {
		if err := b.Buckets.PutBucketCORS(ctx, name, decl.CORS); err != nil {
			return topology.Handle{}, topology.WrapBackend("CreateBucket", err)
		}
	}
	state.Buckets[decl.LogicalID] = name
	return topology.Handle{LogicalID: decl.LogicalID, Name: name, ARN: "arn:aws:s3:::" + name}, nil
}

func (b *Backend) DeclareRole(_ context.Context, decl topology.RoleDeclaration) (topology.Handle, error) {
	if err := decl.Grant.Validate(); err != nil {
		return topology.Handle{}, topology.WrapBackend("DeclareRole", err)
	}
	if b.roles == nil {
		b.roles = map[string]topology.RoleDeclaration{}
	}
	b.roles[decl.LogicalID] = decl
	name := b.resourceName(decl.LogicalID)
	return topology.Handle{
		LogicalID: decl.LogicalID,
		Name:      name,
		ARN:       fmt.Sprintf("arn:aws:iam::%s:role/%s", b.AccountID(), name),
	}, nil
}

func (b *Backend) DeclareFunction(_ context.Context, decl topology.FunctionDeclaration) (topology.Handle, error) {
	if _, ok := b.roles[decl.Role.LogicalID]; !ok {
		return topology.Handle{}, topology.WrapBackend("DeclareFunction", fmt.Errorf("%s: role %q is not declared", decl.LogicalID, decl.Role.LogicalID))
	}
	if b.functions == nil {
		b.functions = map[string]topology.FunctionDeclaration{}
	}
	b.functions[decl.LogicalID] = decl
	name := decl.FunctionName
	if name == "" {
		name = b.resourceName(decl.LogicalID)
	}
	return topology.Handle{
		LogicalID: decl.LogicalID,
		Name:      name,
		ARN:       fmt.Sprintf("arn:aws:lambda:%s:%s:function:%s", b.region(), b.AccountID(), name),
	}, nil
}

// DeclareCustomAction runs the action immediately: Create the first time a
// logical id is seen, Update afterwards.
func (b *Backend) DeclareCustomAction(ctx context.Context, decl topology.CustomActionDeclaration) (topology.Handle, error) {
	if decl.ResourceType != topology.CORSResourceType {
		return topology.Handle{}, topology.WrapBackend("DeclareCustomAction", fmt.Errorf("unsupported custom action %s", decl.ResourceType))
	}
	if _, ok := b.functions[decl.Function.LogicalID]; !ok {
		return topology.Handle{}, topology.WrapBackend("DeclareCustomAction", fmt.Errorf("%s: function %q is not declared", decl.LogicalID, decl.Function.LogicalID))
	}
	if b.Actions == nil {
		return topology.Handle{}, topology.WrapBackend("DeclareCustomAction", fmt.Errorf("action dispatcher is not configured"))
	}

	state := b.state()
	prior, seen := state.CustomActions[decl.LogicalID]
	event := putcors.Event{
		RequestType:       putcors.RequestCreate,
		StackID:           b.Project,
		RequestID:         b.newID(),
		ResourceType:      decl.ResourceType,
		LogicalResourceID: decl.LogicalID,
		ResourceProperties: putcors.Properties{
			BucketName:    decl.Properties[topology.PropertyBucketName],
			AllowedOrigin: decl.Properties[topology.PropertyAllowedOrigin],
		}.Map(),
	}
	if seen {
		event.RequestType = putcors.RequestUpdate
		event.PhysicalResourceID = prior.PhysicalID
		event.OldResourceProperties = putcors.Properties{
			BucketName:    prior.Properties[topology.PropertyBucketName],
			AllowedOrigin: prior.Properties[topology.PropertyAllowedOrigin],
		}.Map()
	}

	resp, err := b.Actions.Dispatch(ctx, event)
	if err != nil {
		return topology.Handle{}, topology.WrapBackend("DeclareCustomAction", err)
	}
	props := make(map[string]string, len(decl.Properties))
	for k, v := range decl.Properties {
		props[k] = v
	}
	state.CustomActions[decl.LogicalID] = ActionRecord{PhysicalID: resp.PhysicalResourceID, Properties: props}
	b.logger().Info("custom action applied",
		zap.String("logical_id", decl.LogicalID),
		zap.String("request", string(event.RequestType)),
		zap.String("physical_id", resp.PhysicalResourceID),
	)
	return topology.Handle{LogicalID: decl.LogicalID, Name: resp.PhysicalResourceID}, nil
}

func (b *Backend) generatedName(logicalID string) string {
	suffix := strings.ReplaceAll(b.newID(), "-", "")
	if len(suffix) > 12 {
		suffix = suffix[:12]
	}
	return strings.ToLower(b.resourceName(logicalID)) + "-" + suffix
}

func (b *Backend) resourceName(logicalID string) string {
	return b.Project + "-" + logicalID
}

func (b *Backend) newID() string {
	if b.NewID != nil {
		return b.NewID()
	}
	return uuid.NewString()
}

func (b *Backend) region() string {
	if b.Region != "" {
		return b.Region
	}
	return "us-east-1"
}

func (b *Backend) state() *State {
	if b.State == nil {
		state := DefaultState()
		b.State = &state
	}
	if b.State.Buckets == nil {
		b.State.Buckets = map[string]string{}
	}
	if b.State.CustomActions == nil {
		b.State.CustomActions = map[string]ActionRecord{}
	}
	return b.State
}

func (b *Backend) logger() *zap.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return zap.NewNop()
}
