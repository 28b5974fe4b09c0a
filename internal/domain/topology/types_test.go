// Where: cli/internal/domain/topology/types_test.go
// What: Tests for endpoint derivation, grants, and error classification.
// Why: Keep the shared contracts stable for every assembly step.
package topology

import (
	"errors"
	"fmt"
	"testing"
)

func TestLowerLiteralKeepsReferences(t *testing.T) {
	cases := map[string]string{
		"Webviz-LB-123.Elb.Amazonaws.COM": "webviz-lb-123.elb.amazonaws.com",
		"${WebvizLB.DNSName}":             "${WebvizLB.DNSName}",
		"Pre-${Lb.DNSName}-POST":          "pre-${Lb.DNSName}-post",
		"":                                "",
	}
	for in, want := range cases {
		if got := LowerLiteral(in); got != want {
			t.Fatalf("LowerLiteral(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewServiceEndpoint(t *testing.T) {
	src := Handle{LogicalID: "WebvizService"}
	ep, err := NewServiceEndpoint("HTTP", "LB.Example.com", src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ep.URL(); got != "http://lb.example.com" {
		t.Fatalf("unexpected url: %s", got)
	}
	if !ep.Resolved() {
		t.Fatalf("expected resolved endpoint")
	}
	if (ServiceEndpoint{}).Resolved() {
		t.Fatalf("zero endpoint must not be resolved")
	}
	if _, err := NewServiceEndpoint("http", "lb", Handle{}); err == nil {
		t.Fatalf("expected error without source service")
	}
}

func TestGrantValidate(t *testing.T) {
	ok := IdentityGrant{Name: "read", Permissions: []Permission{Allow("s3:GetObject", "arn:aws:s3:::b/*")}}
	if err := ok.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := []IdentityGrant{
		{Name: "empty"},
		{Name: "wild-action", Permissions: []Permission{Allow("s3:*", "arn:aws:s3:::b")}},
		{Name: "wild-resource", Permissions: []Permission{Allow("dynamodb:GetItem", "*")}},
		{Name: "deny", Permissions: []Permission{{Action: "s3:GetObject", Resource: "arn", Effect: "Deny"}}},
	}
	for _, g := range bad {
		if err := g.Validate(); err == nil {
			t.Fatalf("expected %s to be rejected", g.Name)
		}
	}
}

func TestErrorClassification(t *testing.T) {
	if !errors.Is(MissingField("bucketExists"), ErrMissingField) {
		t.Fatalf("expected missing field")
	}
	if errors.Is(MissingField("bucketExists"), ErrInvalidShape) {
		t.Fatalf("missing field must not match invalid shape")
	}

	root := errors.New("throttled")
	wrapped := fmt.Errorf("declare bucket: %w", WrapBackend("CreateBucket", root))
	if !errors.Is(wrapped, ErrBackend) || !errors.Is(wrapped, root) {
		t.Fatalf("expected backend error to keep the original cause: %v", wrapped)
	}
	if WrapBackend("noop", nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
	again := WrapBackend("outer", WrapBackend("inner", root))
	var be *BackendError
	if !errors.As(again, &be) || be.Op != "inner" {
		t.Fatalf("expected inner op to be preserved, got %v", again)
	}
}

func TestStorageVariants(t *testing.T) {
	h := Handle{LogicalID: "Bucket", Name: "b"}
	created := NewCreated(h, []CORSRule{ReadOnlyCORSRule("http://lb")})
	rules := created.CORSRules()
	rules[0] = CORSRule{}
	if len(created.CORSRules()[0].AllowedOrigins) != 1 {
		t.Fatalf("expected CORSRules to return a copy")
	}
	var binding StorageBinding = created
	if binding.Mode() != StorageCreated {
		t.Fatalf("unexpected mode %s", binding.Mode())
	}
	binding = NewReferenced(h)
	if binding.Mode() != StorageReferenced || binding.Handle() != h {
		t.Fatalf("unexpected referenced binding")
	}
}
