// Where: cli/cmd/put-cors/wiring.go
// What: Dependency wiring for the PutCors function.
// Why: Keep main thin and the event adapter testable.
package main

import (
	"context"
	"errors"

	"github.com/caarlos0/env/v11"
	"github.com/poruru/webviz-stack/internal/handlers/putcors"
	"github.com/poruru/webviz-stack/internal/infra/awsclient"
	"go.uber.org/zap"
)

type settings struct {
	MaxAttempts int    `env:"PUT_CORS_MAX_ATTEMPTS" envDefault:"3"`
	Region      string `env:"AWS_REGION"`
}

type dispatcher interface {
	Dispatch(ctx context.Context, ev putcors.Event) (putcors.Response, error)
}

func buildProvider(ctx context.Context) (*putcors.Provider, error) {
	var cfg settings
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	client, err := awsclient.NewS3(ctx, awsclient.Options{Region: cfg.Region})
	if err != nil {
		return nil, err
	}
	return &putcors.Provider{
		Handler: &putcors.Handler{
			Client:      client,
			MaxAttempts: cfg.MaxAttempts,
			Logger:      logger,
		},
		Responder: putcors.CFNResponder{},
		Logger:    logger,
	}, nil
}

// lambdaHandler reports handler failures through the response document only.
// Returning them to the runtime would trigger an async retry of a request
// that already has an answer.
func lambdaHandler(d dispatcher) func(context.Context, putcors.Event) (putcors.Response, error) {
	return func(ctx context.Context, ev putcors.Event) (putcors.Response, error) {
		resp, err := d.Dispatch(ctx, ev)
		if err != nil && errors.Is(err, putcors.ErrRespond) {
			return resp, err
		}
		return resp, nil
	}
}
