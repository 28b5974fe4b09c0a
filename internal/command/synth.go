// Where: cli/internal/command/synth.go
// What: synth command that renders the topology as a CloudFormation template.
// Why: Cloud deployments go through CloudFormation; synth produces its input.
package command

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	domaincfg "github.com/poruru/webviz-stack/internal/domain/config"
	"github.com/poruru/webviz-stack/internal/domain/topology"
	"github.com/poruru/webviz-stack/internal/infra/awsclient"
	"github.com/poruru/webviz-stack/internal/infra/cfn"
	"github.com/poruru/webviz-stack/internal/infra/config"
	"github.com/poruru/webviz-stack/internal/usecase/assemble"
)

type SynthDeps struct {
	// BucketLookup builds the checker used by --verify-bucket.
	BucketLookup func(ctx context.Context, region string) (cfn.BucketLookup, error)
}

func runSynth(ctx context.Context, cli CLI, deps Dependencies) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	format, err := cfn.ParseFormat(cli.Synth.Format)
	if err != nil {
		return err
	}

	synth := cfn.NewSynth(cfg.StackName, cfg.Region)
	if cli.Synth.VerifyBucket && cfg.BucketExists {
		lookup := deps.Synth.BucketLookup
		if lookup == nil {
			lookup = defaultBucketLookup
		}
		checker, err := lookup(ctx, cfg.Region)
		if err != nil {
			return fmt.Errorf("bucket lookup: %w", err)
		}
		synth.Buckets = checker
	}

	topo, err := assemble.Assemble(ctx, cfg, synth)
	if err != nil {
		return fmt.Errorf("assemble: %w", err)
	}
	synth.SetOutputs(topo.Outputs())

	data, err := synth.Template().Render(format)
	if err != nil {
		return err
	}

	path := domaincfg.ResolveTemplatePath(cli.Synth.Output, cli.Synth.OutDir, cfg.StackName, string(format))
	if path == "-" {
		_, err := deps.Out.Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write template: %w", err)
	}

	u := newUI(deps.Out, cli.NoEmoji)
	u.Block("🧩", "Synthesized", topologyRows(topo, path))
	u.Success(fmt.Sprintf("wrote %s", path))
	return nil
}

func loadConfig(cli CLI) (topology.DeploymentConfig, error) {
	return config.LoadDeploymentConfig(config.Source{
		Path:      cli.ContextFile,
		Optional:  cli.ContextFile == "cdk.json",
		Overrides: cli.Context,
	})
}

func defaultBucketLookup(ctx context.Context, region string) (cfn.BucketLookup, error) {
	return awsclient.NewS3(ctx, awsclient.Options{Region: region})
}
