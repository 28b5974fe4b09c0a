// Where: cli/cmd/generate-url/wiring.go
// What: Dependency wiring for the GenerateUrl function.
// Why: Attach the scenario datastore only when it is configured.
package main

import (
	"context"

	"github.com/poruru/webviz-stack/internal/handlers/generateurl"
	"github.com/poruru/webviz-stack/internal/infra/awsclient"
	"go.uber.org/zap"
)

func buildHandler(ctx context.Context) (*generateurl.Handler, error) {
	env, err := generateurl.LoadEnvironment()
	if err != nil {
		return nil, err
	}
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	presigner, err := awsclient.NewS3(ctx, awsclient.Options{})
	if err != nil {
		return nil, err
	}
	handler := &generateurl.Handler{
		Env:       env,
		Presigner: presigner,
		Logger:    logger,
	}
	if env.HasScenarioDatastore() {
		scenes, err := awsclient.NewDynamoDB(ctx, awsclient.Options{Region: env.Region})
		if err != nil {
			return nil, err
		}
		handler.Scenes = scenes
	}
	return handler, nil
}
