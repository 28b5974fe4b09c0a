// Where: cli/internal/command/deploy.go
// What: deploy command that materializes the topology locally.
// Why: Run the viewer, bucket, and CORS action end to end without a cloud account.
package command

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/poruru/webviz-stack/internal/constants"
	domaincfg "github.com/poruru/webviz-stack/internal/domain/config"
	"github.com/poruru/webviz-stack/internal/infra/awsclient"
	"github.com/poruru/webviz-stack/internal/infra/docker"
	"github.com/poruru/webviz-stack/internal/infra/local"
	"github.com/poruru/webviz-stack/internal/usecase/assemble"
)

const (
	emulatorS3Service     = "s3"
	emulatorS3Port        = 9000
	emulatorDynamoService = "dynamodb"
	emulatorDynamoPort    = 8000
)

type DeployDeps struct {
	// Services returns the container runner and the emulator port resolver.
	Services func() (local.ServiceRunner, docker.PortResolver, error)
	Buckets  func(ctx context.Context, opts awsclient.Options) (local.BucketStore, error)
	Tables   func(ctx context.Context, opts awsclient.Options) (local.TableAPI, error)
}

func runDeploy(ctx context.Context, cli CLI, deps Dependencies) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	d := deps.Deploy.withDefaults()
	u := newUI(deps.Out, cli.NoEmoji)

	services, ports, err := d.Services()
	if err != nil {
		return err
	}

	s3Opts := awsclient.LocalOptions(cfg.Region, constants.EnvLocalS3Endpoint)
	s3Opts.Endpoint = docker.ResolveEndpoint(ctx, constants.EnvLocalS3Endpoint, emulatorS3Port, docker.PortRequest{
		Project: cli.Deploy.EmulatorProject, Service: emulatorS3Service, ContainerPort: emulatorS3Port,
	}, ports)
	buckets, err := d.Buckets(ctx, s3Opts)
	if err != nil {
		return fmt.Errorf("s3 client: %w", err)
	}

	statePath, err := local.StatePath(cli.Deploy.ProjectDir)
	if err != nil {
		return err
	}
	state, err := local.LoadState(statePath)
	if err != nil {
		return err
	}
	state.Stack = cfg.StackName
	before := snapshotState(state)

	backend := local.NewBackend(cfg.StackName, cfg.Region, buckets, services, &state, deps.Logger)
	topo, err := assemble.Assemble(ctx, cfg, backend)
	if err != nil {
		return fmt.Errorf("assemble: %w", err)
	}

	if cfg.ScenarioDatastore != nil {
		dynamoOpts := awsclient.LocalOptions(cfg.ScenarioDatastore.Region, constants.EnvLocalDynamoDBEndpoint)
		dynamoOpts.Endpoint = docker.ResolveEndpoint(ctx, constants.EnvLocalDynamoDBEndpoint, emulatorDynamoPort, docker.PortRequest{
			Project: cli.Deploy.EmulatorProject, Service: emulatorDynamoService, ContainerPort: emulatorDynamoPort,
		}, ports)
		tables, err := d.Tables(ctx, dynamoOpts)
		if err != nil {
			return fmt.Errorf("dynamodb client: %w", err)
		}
		created, err := local.EnsureScenarioTable(ctx, tables, cfg.ScenarioDatastore)
		if err != nil {
			return err
		}
		if created {
			u.Info(fmt.Sprintf("created scenario table %s", cfg.ScenarioDatastore.TableName))
		}
	}

	state.Outputs = topo.Outputs()
	if err := local.SaveState(statePath, state); err != nil {
		return err
	}

	u.Block("🚀", "Deployed (local)", topologyRows(topo, ""))
	if diff := domaincfg.DiffSnapshots(before, snapshotState(state)); diff.Changed() {
		u.Block("📝", "Changes", changeRows(diff))
	} else {
		u.Info("no changes since last deploy")
	}
	u.Success(fmt.Sprintf("state saved to %s", statePath))
	return nil
}

func (d DeployDeps) withDefaults() DeployDeps {
	if d.Services == nil {
		d.Services = defaultServices
	}
	if d.Buckets == nil {
		d.Buckets = func(ctx context.Context, opts awsclient.Options) (local.BucketStore, error) {
			return awsclient.NewS3(ctx, opts)
		}
	}
	if d.Tables == nil {
		d.Tables = func(ctx context.Context, opts awsclient.Options) (local.TableAPI, error) {
			return awsclient.NewDynamoDB(ctx, opts)
		}
	}
	return d
}

func defaultServices() (local.ServiceRunner, docker.PortResolver, error) {
	client, err := docker.NewClient()
	if err != nil {
		return nil, nil, err
	}
	return docker.ServiceRunner{Client: client, AdvertiseHost: strings.TrimSpace(os.Getenv(constants.EnvLocalServiceHost))},
		docker.ComposePortResolver{Client: client}, nil
}
