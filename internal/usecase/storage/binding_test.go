// Where: cli/internal/usecase/storage/binding_test.go
// What: Tests for the storage binding decision.
// Why: Exactly one mode per deployment; CORS only embedded for created buckets.
package storage

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/poruru/webviz-stack/internal/domain/topology"
	"github.com/poruru/webviz-stack/internal/domain/topology/topologytest"
)

func testEndpoint(t *testing.T) topology.ServiceEndpoint {
	t.Helper()
	ep, err := topology.NewServiceEndpoint("http", "lb.example.com", topology.Handle{LogicalID: "WebvizService"})
	if err != nil {
		t.Fatalf("endpoint: %v", err)
	}
	return ep
}

func TestBindCreatesBucketWithCORS(t *testing.T) {
	backend := &topologytest.Backend{}
	cfg := topology.DeploymentConfig{BucketName: "x"}

	binding, err := Bind(context.Background(), backend, cfg, testEndpoint(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	created, ok := binding.(topology.Created)
	if !ok {
		t.Fatalf("expected Created binding, got %T", binding)
	}
	if len(backend.References) != 0 {
		t.Fatalf("expected no reference, got %v", backend.References)
	}
	if len(backend.Buckets) != 1 {
		t.Fatalf("expected one bucket declaration")
	}
	decl := backend.Buckets[0]
	if decl.Name != "x" {
		t.Fatalf("unexpected bucket name: %s", decl.Name)
	}
	if len(decl.CORS) != 1 {
		t.Fatalf("expected one CORS rule, got %d", len(decl.CORS))
	}
	rule := decl.CORS[0]
	if !reflect.DeepEqual(rule.AllowedOrigins, []string{"http://lb.example.com"}) {
		t.Fatalf("unexpected origins: %v", rule.AllowedOrigins)
	}
	if !reflect.DeepEqual(rule.AllowedMethods, []string{"HEAD", "GET"}) {
		t.Fatalf("unexpected methods: %v", rule.AllowedMethods)
	}
	if !reflect.DeepEqual(rule.AllowedHeaders, []string{"*"}) {
		t.Fatalf("unexpected headers: %v", rule.AllowedHeaders)
	}
	if !reflect.DeepEqual(rule.ExposedHeaders, []string{"ETag", "Content-Type", "Accept-Ranges", "Content-Length"}) {
		t.Fatalf("unexpected exposed headers: %v", rule.ExposedHeaders)
	}
	if !reflect.DeepEqual(decl.DependsOn, []string{"WebvizService"}) {
		t.Fatalf("expected dependency on the service, got %v", decl.DependsOn)
	}
	if !reflect.DeepEqual(created.CORSRules(), decl.CORS) {
		t.Fatalf("binding rules differ from declaration")
	}
}

func TestBindCreatesBucketWithGeneratedName(t *testing.T) {
	backend := &topologytest.Backend{GeneratedName: "webvizstack-webvizbucket-abc"}

	binding, err := Bind(context.Background(), backend, topology.DeploymentConfig{}, testEndpoint(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if backend.Buckets[0].Name != "" {
		t.Fatalf("expected no name to be assumed before creation")
	}
	if binding.Handle().Name != "webvizstack-webvizbucket-abc" {
		t.Fatalf("expected backend-assigned name, got %s", binding.Handle().Name)
	}
}

func TestBindReferencesExistingBucket(t *testing.T) {
	backend := &topologytest.Backend{}
	cfg := topology.DeploymentConfig{BucketExists: true, BucketName: "existing-bucket"}

	binding, err := Bind(context.Background(), backend, cfg, testEndpoint(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if binding.Mode() != topology.StorageReferenced {
		t.Fatalf("expected referenced mode, got %s", binding.Mode())
	}
	if len(backend.Buckets) != 0 {
		t.Fatalf("expected no bucket declaration, got %d", len(backend.Buckets))
	}
	if binding.Handle().Name != "existing-bucket" {
		t.Fatalf("unexpected handle: %+v", binding.Handle())
	}
}

func TestBindRequiresResolvedEndpoint(t *testing.T) {
	backend := &topologytest.Backend{}
	_, err := Bind(context.Background(), backend, topology.DeploymentConfig{}, topology.ServiceEndpoint{})
	if !errors.Is(err, topology.ErrUnresolved) {
		t.Fatalf("expected unresolved endpoint error, got %v", err)
	}
	if len(backend.Calls) != 0 {
		t.Fatalf("expected no backend calls, got %v", backend.Calls)
	}
}

func TestBindPropagatesBackendError(t *testing.T) {
	backend := &topologytest.Backend{MissingBuckets: map[string]bool{"gone": true}}
	cfg := topology.DeploymentConfig{BucketExists: true, BucketName: "gone"}

	_, err := Bind(context.Background(), backend, cfg, testEndpoint(t))
	if !errors.Is(err, topology.ErrBackend) {
		t.Fatalf("expected backend error, got %v", err)
	}
}
