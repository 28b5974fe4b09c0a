// Where: cli/internal/command/app_test.go
// What: Tests for CLI run behavior.
// Why: Ensure command routing, config errors, and outputs remain stable.
package command

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/poruru/webviz-stack/internal/domain/topology"
	"github.com/poruru/webviz-stack/internal/handlers/generateurl"
	"github.com/poruru/webviz-stack/internal/infra/awsclient"
	"github.com/poruru/webviz-stack/internal/infra/cfn"
	"github.com/poruru/webviz-stack/internal/infra/docker"
	"github.com/poruru/webviz-stack/internal/infra/local"
)

func setWorkingDir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir %s: %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore cwd %s: %v", prev, err)
		}
	})
}

func run(t *testing.T, deps Dependencies, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	deps.Out = &out
	deps.ErrOut = &errOut
	code := Run(args, deps)
	return code, out.String(), errOut.String()
}

func TestRunNoArgsPrintsUsage(t *testing.T) {
	code, out, _ := run(t, Dependencies{})
	if code != 0 || !strings.Contains(out, "Usage:") {
		t.Fatalf("unexpected result %d %q", code, out)
	}
}

func TestRunVersion(t *testing.T) {
	code, out, _ := run(t, Dependencies{}, "version")
	if code != 0 || strings.TrimSpace(out) == "" {
		t.Fatalf("unexpected result %d %q", code, out)
	}
}

func TestRunSynthWritesTemplate(t *testing.T) {
	dir := t.TempDir()
	setWorkingDir(t, dir)

	code, out, errOut := run(t, Dependencies{}, "--no-emoji", "-c", "bucketExists=false", "synth")
	if code != 0 {
		t.Fatalf("synth failed: %s", errOut)
	}
	data, err := os.ReadFile(filepath.Join(dir, "cdk.out", "WebvizStack.template.yaml"))
	if err != nil {
		t.Fatalf("read template: %v", err)
	}
	if !strings.Contains(string(data), "AWS::S3::Bucket") {
		t.Fatalf("expected created bucket in template")
	}
	if !strings.Contains(out, "[ok] wrote cdk.out/WebvizStack.template.yaml") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRunSynthToStdoutAsJSON(t *testing.T) {
	setWorkingDir(t, t.TempDir())
	code, out, errOut := run(t, Dependencies{},
		"-c", "bucketExists=true", "-c", "bucketName=bags", "synth", "-o", "-", "-f", "json")
	if code != 0 {
		t.Fatalf("synth failed: %s", errOut)
	}
	if !strings.HasPrefix(strings.TrimSpace(out), "{") || !strings.Contains(out, topology.CORSResourceType) {
		t.Fatalf("expected JSON template with custom action, got %q", out)
	}
}

func TestRunSynthMissingBucketExists(t *testing.T) {
	setWorkingDir(t, t.TempDir())
	code, _, errOut := run(t, Dependencies{}, "synth")
	if code != 1 || !strings.Contains(errOut, "bucketExists") {
		t.Fatalf("expected missing field error, got %d %q", code, errOut)
	}
}

type staticLookup bool

func (s staticLookup) BucketExists(context.Context, string) (bool, error) { return bool(s), nil }

func TestRunSynthVerifyBucket(t *testing.T) {
	setWorkingDir(t, t.TempDir())
	deps := Dependencies{Synth: SynthDeps{BucketLookup: func(context.Context, string) (cfn.BucketLookup, error) {
		return staticLookup(false), nil
	}}}
	code, _, errOut := run(t, deps, "-c", "bucketExists=true", "-c", "bucketName=ghost", "synth", "--verify-bucket", "-o", "-")
	if code != 1 || !strings.Contains(errOut, "target not found") {
		t.Fatalf("expected target not found, got %d %q", code, errOut)
	}
}

type memBuckets struct {
	buckets map[string][]topology.CORSRule
}

func (m *memBuckets) BucketExists(_ context.Context, bucket string) (bool, error) {
	_, ok := m.buckets[bucket]
	return ok, nil
}

func (m *memBuckets) CreateBucket(_ context.Context, bucket string) error {
	m.buckets[bucket] = nil
	return nil
}

func (m *memBuckets) PutBucketCORS(_ context.Context, bucket string, rules []topology.CORSRule) error {
	m.buckets[bucket] = rules
	return nil
}

type stubRunner struct{}

func (stubRunner) Ensure(context.Context, docker.ServiceSpec) (docker.ServiceAddress, error) {
	return docker.ServiceAddress{ContainerID: "c1", Host: "127.0.0.1", Port: 8081}, nil
}

func TestRunDeployLocalPersistsOutputs(t *testing.T) {
	dir := t.TempDir()
	setWorkingDir(t, dir)
	t.Setenv("WEBVIZ_S3_ENDPOINT", "http://127.0.0.1:9000")
	buckets := &memBuckets{buckets: map[string][]topology.CORSRule{"bags": nil}}
	var endpoint string
	deps := Dependencies{Deploy: DeployDeps{
		Services: func() (local.ServiceRunner, docker.PortResolver, error) { return stubRunner{}, nil, nil },
		Buckets: func(_ context.Context, opts awsclient.Options) (local.BucketStore, error) {
			endpoint = opts.Endpoint
			return buckets, nil
		},
	}}

	code, out, errOut := run(t, deps, "--no-emoji", "-c", "bucketExists=true", "-c", "bucketName=bags", "deploy")
	if code != 0 {
		t.Fatalf("deploy failed: %s", errOut)
	}
	if endpoint != "http://127.0.0.1:9000" {
		t.Fatalf("unexpected s3 endpoint %q", endpoint)
	}
	if len(buckets.buckets["bags"]) != 1 || buckets.buckets["bags"][0].AllowedOrigins[0] != "http://127.0.0.1:8081" {
		t.Fatalf("expected CORS applied for the service origin, got %#v", buckets.buckets["bags"])
	}
	state, err := local.LoadState(filepath.Join(dir, ".webviz", "state.yaml"))
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	if state.Outputs["WebvizURL"] != "http://127.0.0.1:8081" || state.CustomActions["PutCorsRulesCustomResource"].PhysicalID != "put-cors-bags" {
		t.Fatalf("unexpected state %#v", state)
	}
	if !strings.Contains(out, "Deployed (local)") || !strings.Contains(out, "new 1 / updated 0 / removed 0 (total 1)") {
		t.Fatalf("unexpected output %q", out)
	}

	code, out, errOut = run(t, deps, "--no-emoji", "-c", "bucketExists=true", "-c", "bucketName=bags", "deploy")
	if code != 0 {
		t.Fatalf("redeploy failed: %s", errOut)
	}
	if !strings.Contains(out, "no changes since last deploy") {
		t.Fatalf("expected unchanged redeploy, got %q", out)
	}
}

func TestRunGetURLRequiresKeyOrScene(t *testing.T) {
	setWorkingDir(t, t.TempDir())
	code, _, errOut := run(t, Dependencies{}, "get-url", "--record", "r1")
	if code != 1 || !strings.Contains(errOut, "--key or --record and --scene") {
		t.Fatalf("unexpected result %d %q", code, errOut)
	}
}

type presignStub struct{}

func (presignStub) PresignGetObject(_ context.Context, bucket, key string, _ time.Duration) (string, error) {
	return "https://" + bucket + ".s3.example.com/" + key, nil
}

func TestRunGetURLUsesContextDefaults(t *testing.T) {
	dir := t.TempDir()
	setWorkingDir(t, dir)
	if err := os.WriteFile("cdk.json", []byte(`{"context": {"bucketExists": true, "bucketName": "bags", "region": "us-west-2"}}`), 0o600); err != nil {
		t.Fatalf("write cdk.json: %v", err)
	}
	var gotRegion string
	var gotEnv generateurl.Environment
	deps := Dependencies{GetURL: GetURLDeps{Local: func(_ context.Context, region string, env generateurl.Environment) (URLHandler, error) {
		gotRegion, gotEnv = region, env
		return &generateurl.Handler{Env: env, Presigner: presignStub{}}, nil
	}}}

	code, out, errOut := run(t, deps, "get-url", "--local", "--key", "drive/1.bag", "--webviz-url", "http://viz.example.com")
	if code != 0 {
		t.Fatalf("get-url failed: %s", errOut)
	}
	if gotRegion != "us-west-2" || gotEnv.WebvizURL != "http://viz.example.com" || gotEnv.HasScenarioDatastore() {
		t.Fatalf("unexpected handler inputs %q %#v", gotRegion, gotEnv)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if lines[0] != "200" || !strings.HasPrefix(lines[1], "http://viz.example.com/?remote-bag-url=https%3A%2F%2Fbags.s3.example.com") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRunGetURLReportsErrorBody(t *testing.T) {
	setWorkingDir(t, t.TempDir())
	deps := Dependencies{GetURL: GetURLDeps{Local: func(_ context.Context, _ string, env generateurl.Environment) (URLHandler, error) {
		return &generateurl.Handler{Env: env, Presigner: presignStub{}}, nil
	}}}
	code, out, _ := run(t, deps, "get-url", "--local", "--record", "r1", "--scene", "s1", "--webviz-url", "http://viz")
	if code != 1 || !strings.HasPrefix(out, "400") || !strings.Contains(out, "scenario datastore is not configured") {
		t.Fatalf("unexpected result %d %q", code, out)
	}
}

type fakeInvoker struct {
	requests []generateurl.Request
	resp     generateurl.Response
}

func (f *fakeInvoker) Handle(_ context.Context, req generateurl.Request) (generateurl.Response, error) {
	f.requests = append(f.requests, req)
	return f.resp, nil
}

func TestRunGetURLInvokesNamedFunction(t *testing.T) {
	setWorkingDir(t, t.TempDir())
	if err := os.WriteFile("cdk.json", []byte(`{"context": {"bucketExists": true, "bucketName": "bags", "region": "us-west-2"}}`), 0o600); err != nil {
		t.Fatalf("write cdk.json: %v", err)
	}
	invoker := &fakeInvoker{resp: generateurl.Response{StatusCode: 200, Body: `{"url": "http://viz/?remote-bag-url=deployed"}`}}
	var gotRegion, gotFunction string
	localUsed := false
	deps := Dependencies{GetURL: GetURLDeps{
		Remote: func(_ context.Context, region, function string) (URLHandler, error) {
			gotRegion, gotFunction = region, function
			return invoker, nil
		},
		Local: func(context.Context, string, generateurl.Environment) (URLHandler, error) {
			localUsed = true
			return nil, errors.New("local handler must not run")
		},
	}}

	code, out, errOut := run(t, deps, "get-url", "--function-name", "WebvizGenerateUrl", "--record", "r1", "--scene", "s1")
	if code != 0 {
		t.Fatalf("get-url failed: %s", errOut)
	}
	if localUsed || gotRegion != "us-west-2" || gotFunction != "WebvizGenerateUrl" {
		t.Fatalf("unexpected invoker inputs local=%v %q %q", localUsed, gotRegion, gotFunction)
	}
	if len(invoker.requests) != 1 || invoker.requests[0] != (generateurl.Request{Bucket: "bags", RecordID: "r1", SceneID: "s1"}) {
		t.Fatalf("unexpected requests %#v", invoker.requests)
	}
	if !strings.Contains(errOut, "Invoking: WebvizGenerateUrl") {
		t.Fatalf("expected invoking notice, got %q", errOut)
	}
	if lines := strings.Split(strings.TrimSpace(out), "\n"); len(lines) != 2 || lines[0] != "200" || lines[1] != "http://viz/?remote-bag-url=deployed" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRunGetURLRequiresFunctionNameWithoutLocal(t *testing.T) {
	setWorkingDir(t, t.TempDir())
	deps := Dependencies{GetURL: GetURLDeps{Remote: func(context.Context, string, string) (URLHandler, error) {
		t.Fatalf("remote handler must not be built without a function name")
		return nil, nil
	}}}
	code, _, errOut := run(t, deps, "get-url", "--key", "drive/1.bag")
	if code != 1 || !strings.Contains(errOut, "--function-name") {
		t.Fatalf("unexpected result %d %q", code, errOut)
	}
}
