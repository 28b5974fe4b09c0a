// Where: cli/internal/command/geturl.go
// What: get-url command that produces a viewer link for a bag file.
// Why: Let operators share a bag without handing out bucket credentials.
package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/poruru/webviz-stack/internal/constants"
	domaincfg "github.com/poruru/webviz-stack/internal/domain/config"
	"github.com/poruru/webviz-stack/internal/domain/value"
	"github.com/poruru/webviz-stack/internal/handlers/generateurl"
	"github.com/poruru/webviz-stack/internal/infra/awsclient"
	"github.com/poruru/webviz-stack/internal/infra/config"
	"github.com/poruru/webviz-stack/internal/infra/local"
)

// URLHandler is the GenerateUrl logic the command runs.
type URLHandler interface {
	Handle(ctx context.Context, req generateurl.Request) (generateurl.Response, error)
}

type GetURLDeps struct {
	// Local builds the in-process handler used with --local.
	Local func(ctx context.Context, region string, env generateurl.Environment) (URLHandler, error)
	// Remote builds the caller for the deployed GenerateUrl function.
	Remote func(ctx context.Context, region, function string) (URLHandler, error)
}

func runGetURL(ctx context.Context, cli CLI, deps Dependencies) error {
	cmd := cli.GetURL
	if cmd.Key == "" && (cmd.Record == "" || cmd.Scene == "") {
		return errors.New("you need to either specify --key or --record and --scene")
	}

	raw, err := config.LoadContext(config.Source{
		Path:      cli.ContextFile,
		Optional:  cli.ContextFile == "cdk.json",
		Overrides: cli.Context,
	})
	if err != nil {
		return err
	}
	region := firstNonEmpty(cmd.Region, contextString(raw, domaincfg.KeyRegion))
	bucket := firstNonEmpty(cmd.BucketName, contextString(raw, domaincfg.KeyBucketName))
	function := firstNonEmpty(cmd.FunctionName, contextString(raw, domaincfg.KeyGenerateURLFunctionName))

	u := newUI(deps.ErrOut, cli.NoEmoji)
	var handler URLHandler
	if cmd.Local {
		handler, err = localGetURLHandler(ctx, cmd, raw, region, deps.GetURL)
	} else {
		if function == "" {
			return fmt.Errorf("GenerateUrl function name unknown: pass --function-name or set %s", domaincfg.KeyGenerateURLFunctionName)
		}
		build := deps.GetURL.Remote
		if build == nil {
			build = defaultRemoteURLHandler
		}
		u.Info(fmt.Sprintf("Invoking: %s", function))
		handler, err = build(ctx, region, function)
	}
	if err != nil {
		return err
	}

	req := generateurl.Request{Bucket: bucket, Key: cmd.Key, RecordID: cmd.Record, SceneID: cmd.Scene}
	resp, err := handler.Handle(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintln(deps.Out, resp.StatusCode)
	link, err := generateurl.ParseURL(resp)
	if err != nil {
		fmt.Fprintln(deps.Out, resp.Body)
		return err
	}
	fmt.Fprintln(deps.Out, link)
	return nil
}

// localGetURLHandler runs the GenerateUrl logic in-process with the
// environment the deployed function would carry.
func localGetURLHandler(ctx context.Context, cmd GetURLCmd, raw map[string]any, region string, deps GetURLDeps) (URLHandler, error) {
	ds, err := domaincfg.ResolveScenarioDatastore(raw)
	if err != nil {
		return nil, err
	}
	webvizURL, err := resolveWebvizURL(cmd)
	if err != nil {
		return nil, err
	}
	env := generateurl.Environment{WebvizURL: webvizURL, URLExpiry: generateurl.DefaultURLExpiry}
	if ds != nil {
		env.PartitionKey, env.SortKey, env.Region, env.TableName = ds.PartitionKey, ds.SortKey, ds.Region, ds.TableName
	}
	build := deps.Local
	if build == nil {
		build = defaultLocalURLHandler
	}
	return build(ctx, region, env)
}

// resolveWebvizURL prefers the flag/env value, then the local state output.
func resolveWebvizURL(cmd GetURLCmd) (string, error) {
	if v := strings.TrimSpace(cmd.WebvizURL); v != "" {
		return v, nil
	}
	path, err := local.StatePath(cmd.ProjectDir)
	if err != nil {
		return "", err
	}
	state, err := local.LoadState(path)
	if err != nil {
		return "", err
	}
	if v := state.Outputs["WebvizURL"]; v != "" {
		return v, nil
	}
	return "", fmt.Errorf("viewer URL unknown: pass --webviz-url or set %s", constants.EnvWebvizURL)
}

func defaultRemoteURLHandler(ctx context.Context, region, function string) (URLHandler, error) {
	return awsclient.NewGenerateURLInvoker(ctx, awsclient.Options{Region: region}, function)
}

func defaultLocalURLHandler(ctx context.Context, region string, env generateurl.Environment) (URLHandler, error) {
	presigner, err := awsclient.NewS3(ctx, awsclient.LocalOptions(region, constants.EnvLocalS3Endpoint))
	if err != nil {
		return nil, err
	}
	handler := &generateurl.Handler{Env: env, Presigner: presigner}
	if env.HasScenarioDatastore() {
		scenes, err := awsclient.NewDynamoDB(ctx, awsclient.LocalOptions(env.Region, constants.EnvLocalDynamoDBEndpoint))
		if err != nil {
			return nil, err
		}
		handler.Scenes = scenes
	}
	return handler, nil
}

func contextString(raw map[string]any, key string) string {
	v, ok := value.Lookup(raw, key)
	if !ok {
		return ""
	}
	s, _ := value.AsString(v)
	return strings.TrimSpace(s)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
