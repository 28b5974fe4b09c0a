// Where: cli/internal/usecase/invocation/targets_test.go
// What: Tests for invocation target declarations, grants, and env payloads.
// Why: Keep identities least-privilege and the datastore keys all-or-nothing.
package invocation

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/poruru/webviz-stack/internal/domain/topology"
	"github.com/poruru/webviz-stack/internal/domain/topology/topologytest"
)

var testBucket = topology.Handle{LogicalID: "WebvizBucket", Name: "b", ARN: "arn:aws:s3:::b"}

func testEndpoint(t *testing.T) topology.ServiceEndpoint {
	t.Helper()
	ep, err := topology.NewServiceEndpoint("http", "lb.example.com", topology.Handle{LogicalID: "WebvizService"})
	if err != nil {
		t.Fatalf("endpoint: %v", err)
	}
	return ep
}

func TestGenerateURLEnvironmentWithoutDatastore(t *testing.T) {
	env, err := GenerateURLEnvironment(testEndpoint(t), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]string{"WEBVIZ_ELB_URL": "http://lb.example.com"}
	if !reflect.DeepEqual(env, want) {
		t.Fatalf("unexpected env: %v", env)
	}
	for key := range env {
		if strings.HasPrefix(key, "SCENE_DB_") {
			t.Fatalf("unexpected datastore key %s", key)
		}
	}
}

func TestGenerateURLEnvironmentWithDatastore(t *testing.T) {
	ds := &topology.ScenarioDatastore{PartitionKey: "p", SortKey: "s", Region: "eu-west-1", TableName: "scenes"}
	env, err := GenerateURLEnvironment(testEndpoint(t), ds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]string{
		"WEBVIZ_ELB_URL":         "http://lb.example.com",
		"SCENE_DB_PARTITION_KEY": "p",
		"SCENE_DB_SORT_KEY":      "s",
		"SCENE_DB_REGION":        "eu-west-1",
		"SCENE_DB_TABLE":         "scenes",
	}
	if !reflect.DeepEqual(env, want) {
		t.Fatalf("unexpected env: %v", env)
	}
}

func TestGenerateURLEnvironmentRequiresEndpoint(t *testing.T) {
	if _, err := GenerateURLEnvironment(topology.ServiceEndpoint{}, nil); err == nil {
		t.Fatalf("expected error for unresolved endpoint")
	}
}

func TestPutCorsGrantIsSingleAction(t *testing.T) {
	grant := PutCorsGrant(testBucket)
	if err := grant.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []topology.Permission{{Action: "s3:PutBucketCORS", Resource: "arn:aws:s3:::b", Effect: topology.EffectAllow}}
	if !reflect.DeepEqual(grant.Permissions, want) {
		t.Fatalf("unexpected permissions: %+v", grant.Permissions)
	}
	if !grant.BaselineLogging {
		t.Fatalf("expected baseline logging grant")
	}
}

func TestGenerateURLGrant(t *testing.T) {
	grant := GenerateURLGrant(testBucket, nil, "111122223333")
	if !reflect.DeepEqual(grant.Actions(), []string{"s3:GetObject"}) {
		t.Fatalf("unexpected actions: %v", grant.Actions())
	}
	if grant.Permissions[0].Resource != "arn:aws:s3:::b/*" {
		t.Fatalf("unexpected resource: %s", grant.Permissions[0].Resource)
	}

	ds := &topology.ScenarioDatastore{Region: "us-east-1", TableName: "scenes"}
	grant = GenerateURLGrant(testBucket, ds, "111122223333")
	if err := grant.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(grant.Actions(), []string{"s3:GetObject", "dynamodb:GetItem"}) {
		t.Fatalf("unexpected actions: %v", grant.Actions())
	}
	if got := grant.Permissions[1].Resource; got != "arn:aws:dynamodb:us-east-1:111122223333:table/scenes" {
		t.Fatalf("unexpected table arn: %s", got)
	}
}

func TestDeclareInvocationTarget(t *testing.T) {
	backend := &topologytest.Backend{}
	env := map[string]string{"WEBVIZ_ELB_URL": "http://lb"}

	target, err := DeclareInvocationTarget(
		context.Background(),
		backend,
		KindGenerateURL,
		GenerateURLGrant(testBucket, nil, backend.AccountID()),
		env,
		Options{FunctionName: " generate-url ", DependsOn: []string{"WebvizService"}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(backend.Calls, []string{"DeclareRole", "DeclareFunction"}) {
		t.Fatalf("unexpected call order: %v", backend.Calls)
	}
	fn := backend.Functions[0]
	if fn.FunctionName != "generate-url" || fn.Kind != KindGenerateURL {
		t.Fatalf("unexpected function declaration: %+v", fn)
	}
	if fn.Role != target.Role {
		t.Fatalf("function must be bound to the declared role")
	}
	if !reflect.DeepEqual(fn.DependsOn, []string{"WebvizService", "GenerateUrlRole"}) {
		t.Fatalf("unexpected dependencies: %v", fn.DependsOn)
	}

	env["WEBVIZ_ELB_URL"] = "mutated"
	if target.Environment["WEBVIZ_ELB_URL"] != "http://lb" {
		t.Fatalf("expected environment to be copied")
	}
}

func TestDeclareInvocationTargetRejectsWildcardGrant(t *testing.T) {
	backend := &topologytest.Backend{}
	grant := topology.IdentityGrant{Name: "wide", Permissions: []topology.Permission{topology.Allow("dynamodb:GetItem", "*")}}

	if _, err := DeclareInvocationTarget(context.Background(), backend, KindGenerateURL, grant, nil, Options{}); err == nil {
		t.Fatalf("expected wildcard grant to be rejected")
	}
	if len(backend.Calls) != 0 {
		t.Fatalf("expected nothing declared, got %v", backend.Calls)
	}
}

func TestDeclareInvocationTargetUnknownKind(t *testing.T) {
	if _, err := DeclareInvocationTarget(context.Background(), &topologytest.Backend{}, "Other", PutCorsGrant(testBucket), nil, Options{}); err == nil {
		t.Fatalf("expected unknown kind to be rejected")
	}
}
