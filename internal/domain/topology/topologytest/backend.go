// Where: cli/internal/domain/topology/topologytest/backend.go
// What: Recording fake of the provisioning backend.
// Why: Let usecase tests assert declarations and ordering without real infrastructure.
package topologytest

import (
	"context"
	"fmt"
	"strings"

	"github.com/poruru/webviz-stack/internal/domain/topology"
)

// Backend records every declaration in call order.
type Backend struct {
	Account    string
	ServiceDNS string
	// MissingBuckets lists names ReferenceBucket reports as absent.
	MissingBuckets map[string]bool
	GeneratedName  string
	// Errors injects a failure for an operation name (e.g. "CreateBucket").
	Errors map[string]error

	Calls         []string
	Services      []topology.ServiceDeclaration
	References    []string
	Buckets       []topology.BucketDeclaration
	Roles         []topology.RoleDeclaration
	Functions     []topology.FunctionDeclaration
	CustomActions []topology.CustomActionDeclaration
}

func (b *Backend) record(op string) error {
	b.Calls = append(b.Calls, op)
	if err, ok := b.Errors[op]; ok {
		return err
	}
	return nil
}

func (b *Backend) DeclareService(_ context.Context, decl topology.ServiceDeclaration) (topology.ServiceAddress, error) {
	if err := b.record("DeclareService"); err != nil {
		return topology.ServiceAddress{}, err
	}
	b.Services = append(b.Services, decl)
	dns := b.ServiceDNS
	if dns == "" {
		dns = decl.LoadBalancerName + "-123456.elb.example.com"
	}
	return topology.ServiceAddress{
		Handle:  topology.Handle{LogicalID: decl.LogicalID, Name: decl.LoadBalancerName, ARN: "arn:test:service/" + decl.LogicalID},
		DNSName: dns,
	}, nil
}

func (b *Backend) ReferenceBucket(_ context.Context, name string) (topology.Handle, error) {
	if err := b.record("ReferenceBucket"); err != nil {
		return topology.Handle{}, err
	}
	if b.MissingBuckets[name] {
		return topology.Handle{}, topology.WrapBackend("ReferenceBucket", fmt.Errorf("bucket %s does not exist", name))
	}
	b.References = append(b.References, name)
	return topology.Handle{LogicalID: "BucketRef", Name: name, ARN: "arn:aws:s3:::" + name}, nil
}

func (b *Backend) CreateBucket(_ context.Context, decl topology.BucketDeclaration) (topology.Handle, error) {
	if err := b.record("CreateBucket"); err != nil {
		return topology.Handle{}, err
	}
	b.Buckets = append(b.Buckets, decl)
	name := decl.Name
	if name == "" {
		name = b.GeneratedName
		if name == "" {
			name = "generated-" + strings.ToLower(decl.LogicalID)
		}
	}
	return topology.Handle{LogicalID: decl.LogicalID, Name: name, ARN: "arn:aws:s3:::" + name}, nil
}

func (b *Backend) DeclareRole(_ context.Context, decl topology.RoleDeclaration) (topology.Handle, error) {
	if err := b.record("DeclareRole"); err != nil {
		return topology.Handle{}, err
	}
	b.Roles = append(b.Roles, decl)
	return topology.Handle{LogicalID: decl.LogicalID, Name: decl.LogicalID, ARN: "arn:test:role/" + decl.LogicalID}, nil
}

func (b *Backend) DeclareFunction(_ context.Context, decl topology.FunctionDeclaration) (topology.Handle, error) {
	if err := b.record("DeclareFunction"); err != nil {
		return topology.Handle{}, err
	}
	b.Functions = append(b.Functions, decl)
	name := decl.FunctionName
	if name == "" {
		name = decl.LogicalID
	}
	return topology.Handle{LogicalID: decl.LogicalID, Name: name, ARN: "arn:test:function/" + name}, nil
}

func (b *Backend) DeclareCustomAction(_ context.Context, decl topology.CustomActionDeclaration) (topology.Handle, error) {
	if err := b.record("DeclareCustomAction"); err != nil {
		return topology.Handle{}, err
	}
	b.CustomActions = append(b.CustomActions, decl)
	return topology.Handle{LogicalID: decl.LogicalID, Name: decl.LogicalID}, nil
}

func (b *Backend) AccountID() string {
	if b.Account == "" {
		return "123456789012"
	}
	return b.Account
}

// FunctionByKind returns the first declared function of kind.
func (b *Backend) FunctionByKind(kind string) (topology.FunctionDeclaration, bool) {
	for _, fn := range b.Functions {
		if fn.Kind == kind {
			return fn, true
		}
	}
	return topology.FunctionDeclaration{}, false
}
