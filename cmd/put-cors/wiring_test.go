// Where: cli/cmd/put-cors/wiring_test.go
// What: Tests for the PutCors Lambda adapter.
// Why: Only delivery failures may surface to the runtime.
package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/poruru/webviz-stack/internal/handlers/putcors"
)

type stubDispatcher struct {
	resp putcors.Response
	err  error
}

func (s stubDispatcher) Dispatch(_ context.Context, _ putcors.Event) (putcors.Response, error) {
	return s.resp, s.err
}

func TestLambdaHandlerSwallowsReportedFailure(t *testing.T) {
	h := lambdaHandler(stubDispatcher{
		resp: putcors.Response{Status: putcors.StatusFailed},
		err:  errors.New("bucket missing"),
	})
	resp, err := h(context.Background(), putcors.Event{})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if resp.Status != putcors.StatusFailed {
		t.Fatalf("unexpected status: %s", resp.Status)
	}
}

func TestLambdaHandlerReturnsRespondFailure(t *testing.T) {
	h := lambdaHandler(stubDispatcher{
		err: fmt.Errorf("%w: connection refused", putcors.ErrRespond),
	})
	if _, err := h(context.Background(), putcors.Event{}); !errors.Is(err, putcors.ErrRespond) {
		t.Fatalf("expected ErrRespond, got %v", err)
	}
}
