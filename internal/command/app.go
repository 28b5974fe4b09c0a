// Where: cli/internal/command/app.go
// What: CLI entrypoint logic.
// Why: Provide a testable command dispatcher.
package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/poruru/webviz-stack/internal/infra/ui"
	"github.com/poruru/webviz-stack/internal/meta"
	"github.com/poruru/webviz-stack/internal/version"
	"go.uber.org/zap"
)

// Dependencies holds all injected dependencies required for CLI command execution.
// Nil fields fall back to the real implementations.
type Dependencies struct {
	Out    io.Writer
	ErrOut io.Writer
	Logger *zap.Logger
	Synth  SynthDeps
	Deploy DeployDeps
	GetURL GetURLDeps
}

// CLI defines the command-line interface structure parsed by Kong.
type CLI struct {
	ContextFile string   `name:"context-file" default:"cdk.json" help:"Path to the deployment context file (cdk.json or YAML)"`
	Context     []string `short:"c" name:"context" sep:"none" help:"Context override key=value (repeatable)"`
	EnvFile     string   `name:"env-file" help:"Path to .env file"`
	Verbose     bool     `short:"v" help:"Verbose logging"`
	NoEmoji     bool     `name:"no-emoji" help:"Disable emoji output"`

	Synth   SynthCmd   `cmd:"" help:"Synthesize the CloudFormation template"`
	Deploy  DeployCmd  `cmd:"" help:"Deploy the topology to local Docker and S3/DynamoDB-compatible endpoints"`
	GetURL  GetURLCmd  `cmd:"" name:"get-url" help:"Generate a viewer URL for a bag file"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

type (
	SynthCmd struct {
		Output       string `short:"o" help:"Output file (default: <out-dir>/<stack>.template.<ext>, - for stdout)"`
		OutDir       string `name:"out-dir" help:"Directory for the default output file (default: cdk.out)"`
		Format       string `short:"f" default:"yaml" enum:"yaml,yml,json" help:"Template format (yaml/json)"`
		VerifyBucket bool   `name:"verify-bucket" help:"Check that a referenced bucket exists before synthesizing"`
	}

	DeployCmd struct {
		ProjectDir      string `name:"project-dir" default:"." help:"Directory holding the local state (.webviz/)"`
		EmulatorProject string `name:"emulator-project" default:"webviz" help:"Compose project running the S3/DynamoDB emulators"`
	}

	GetURLCmd struct {
		Region       string `help:"Region the stack is deployed to (default: context region)"`
		BucketName   string `name:"bucket-name" help:"Bucket containing the bag file (default: context bucketName)"`
		FunctionName string `name:"function-name" help:"GenerateUrl function name (default: context generateUrlFunctionName)"`
		Key          string `help:"Object key of the bag file"`
		Record       string `help:"Partition key of the scene in the scenario datastore"`
		Scene        string `help:"Sort key of the scene in the scenario datastore"`
		WebvizURL    string `name:"webviz-url" env:"WEBVIZ_ELB_URL" help:"Viewer base URL for --local (default: local state output)"`
		Local        bool   `help:"Run the GenerateUrl logic in-process against local S3/DynamoDB-compatible endpoints"`
		ProjectDir   string `name:"project-dir" default:"." help:"Directory holding the local state (.webviz/)"`
	}

	VersionCmd struct{}
)

// Run is the main entry point for CLI command execution.
// Returns 0 on success, 1 on error.
func Run(args []string, deps Dependencies) int {
	if deps.Out == nil {
		deps.Out = os.Stdout
	}
	if deps.ErrOut == nil {
		deps.ErrOut = os.Stderr
	}
	out := deps.Out

	if len(args) == 0 {
		return runNoArgs(out)
	}

	cli := CLI{}
	parser, err := kong.New(&cli, kong.Name(meta.AppName), kong.Writers(out, deps.ErrOut))
	if err != nil {
		return exitWithError(deps.ErrOut, err)
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return handleParseError(err, deps)
	}

	loadEnvFile(cli.EnvFile, newUI(deps.ErrOut, cli.NoEmoji))

	if deps.Logger == nil {
		deps.Logger = newLogger(cli.Verbose)
	}
	defer func() { _ = deps.Logger.Sync() }()

	if exitCode, handled := dispatchCommand(kctx.Command(), cli, deps); handled {
		return exitCode
	}
	newUI(deps.ErrOut, cli.NoEmoji).Warn("unknown command")
	return 1
}

type commandHandler func(context.Context, CLI, Dependencies) error

func dispatchCommand(command string, cli CLI, deps Dependencies) (int, bool) {
	handlers := map[string]commandHandler{
		"synth":   runSynth,
		"deploy":  runDeploy,
		"get-url": runGetURL,
		"version": runVersion,
	}
	handler, ok := handlers[command]
	if !ok {
		return 1, false
	}
	if err := handler(context.Background(), cli, deps); err != nil {
		return exitWithError(deps.ErrOut, err), true
	}
	return 0, true
}

func runVersion(_ context.Context, _ CLI, deps Dependencies) error {
	fmt.Fprintln(deps.Out, version.GetVersion())
	return nil
}

// loadEnvFile loads --env-file, or ./.env when present.
func loadEnvFile(path string, out ui.UserInterface) {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			out.Warn(fmt.Sprintf("failed to load env file %s: %v", path, err))
		}
		return
	}
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			out.Warn(fmt.Sprintf("failed to load .env: %v", err))
		}
	}
}

func runNoArgs(out io.Writer) int {
	u := ui.NewPlainUI(out)
	u.Info("Usage:")
	u.Info(fmt.Sprintf("  %s synth [-c key=value] [-o template.yaml]", meta.AppName))
	u.Info(fmt.Sprintf("  %s deploy [-c key=value]", meta.AppName))
	u.Info(fmt.Sprintf("  %s get-url --key <key> | --record <id> --scene <id>", meta.AppName))
	u.Info("")
	u.Info(fmt.Sprintf("Try: %s --help", meta.AppName))
	return 0
}

// handleParseError adds hints for flags that commonly miss their value.
func handleParseError(err error, deps Dependencies) int {
	msg := err.Error()
	if strings.Contains(msg, "expected string value") || strings.Contains(msg, "expected a value") {
		u := ui.NewPlainUI(deps.ErrOut)
		switch {
		case strings.Contains(msg, "--context"):
			u.Warn("`-c/--context` expects key=value, for example -c bucketExists=true")
			return 1
		case strings.Contains(msg, "--env-file"):
			u.Warn("`--env-file` expects a file path, for example --env-file .env.prod")
			return 1
		}
	}
	return exitWithError(deps.ErrOut, err)
}

func exitWithError(out io.Writer, err error) int {
	ui.NewPlainUI(out).Warn(fmt.Sprintf("✗ %v", err))
	return 1
}

func newUI(out io.Writer, noEmoji bool) ui.UserInterface {
	if noEmoji {
		return ui.NewPlainUI(out)
	}
	return ui.NewUI(out)
}

func newLogger(verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
