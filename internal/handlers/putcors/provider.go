// Where: cli/internal/handlers/putcors/provider.go
// What: Custom-resource provider protocol around the PutCors handler.
// Why: Deliver each lifecycle event to the handler exactly once and report the outcome.
package putcors

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aws/aws-lambda-go/cfn"
	"go.uber.org/zap"
)

const (
	StatusSuccess = cfn.StatusSuccess
	StatusFailed  = cfn.StatusFailed

	// DefaultMaxRecorded bounds the outcomes kept for redelivery.
	DefaultMaxRecorded = 256
)

// ErrRespond marks a failure to report the outcome back to the orchestrator.
var ErrRespond = errors.New("respond to orchestrator")

// Event is one lifecycle request from the deployment orchestrator.
type Event = cfn.Event

// Response is the outcome document sent to Event.ResponseURL.
type Response = cfn.Response

// ActionHandler applies one lifecycle request and returns the physical id.
type ActionHandler interface {
	Handle(ctx context.Context, request RequestType, props Properties) (string, error)
}

// Responder delivers a Response to the orchestrator.
type Responder interface {
	Respond(ctx context.Context, resp *Response) error
}

// Provider deduplicates deliveries by (StackId, RequestId). A redelivered
// event gets the recorded outcome without re-running the handler; the
// outcome is sent again until one delivery succeeds.
type Provider struct {
	Handler     ActionHandler
	Responder   Responder
	Logger      *zap.Logger
	MaxRecorded int

	mu       sync.Mutex
	outcomes map[string]*outcome
	order    []string
}

type outcome struct {
	done chan struct{}

	mu        sync.Mutex
	response  Response
	handleErr error
	delivered bool
}

func (o *outcome) finished() bool {
	select {
	case <-o.done:
		return true
	default:
		return false
	}
}

// Dispatch runs the handler for ev at most once and reports the outcome.
// The returned error is the handler failure (if any) joined with a
// delivery failure wrapped in ErrRespond.
func (p *Provider) Dispatch(ctx context.Context, ev Event) (Response, error) {
	logger := p.logger().With(
		zap.String("request_type", string(ev.RequestType)),
		zap.String("request_id", ev.RequestID),
		zap.String("logical_id", ev.LogicalResourceID),
	)

	key := ev.StackID + "/" + ev.RequestID
	dedupe := ev.StackID != "" && ev.RequestID != ""
	var entry *outcome
	if dedupe {
		p.mu.Lock()
		if prior, ok := p.outcomes[key]; ok {
			p.mu.Unlock()
			<-prior.done
			return p.replay(ctx, ev, prior, logger)
		}
		entry = &outcome{done: make(chan struct{})}
		p.record(key, entry)
		p.mu.Unlock()
	}

	resp, handleErr := p.run(ctx, ev, logger)
	respondErr := p.deliver(ctx, ev, &resp, logger)
	if entry != nil {
		entry.response = resp
		entry.handleErr = handleErr
		entry.delivered = respondErr == nil
		close(entry.done)
	}
	return resp, errors.Join(handleErr, respondErr)
}

// replay answers a redelivered event from its recorded outcome.
func (p *Provider) replay(ctx context.Context, ev Event, prior *outcome, logger *zap.Logger) (Response, error) {
	prior.mu.Lock()
	defer prior.mu.Unlock()
	if prior.delivered {
		logger.Info("duplicate delivery, replaying recorded outcome", zap.String("status", string(prior.response.Status)))
		return prior.response, prior.handleErr
	}

	logger.Warn("duplicate delivery after failed response, sending again", zap.String("status", string(prior.response.Status)))
	resp := *cfn.NewResponse(&ev)
	resp.Status = prior.response.Status
	resp.Reason = prior.response.Reason
	resp.PhysicalResourceID = prior.response.PhysicalResourceID
	resp.Data = prior.response.Data
	respondErr := p.deliver(ctx, ev, &resp, logger)
	if respondErr == nil {
		prior.delivered = true
		prior.response = resp
	}
	return resp, errors.Join(prior.handleErr, respondErr)
}

// record stores entry and evicts the oldest finished outcomes over the bound.
// Callers hold p.mu.
func (p *Provider) record(key string, entry *outcome) {
	if p.outcomes == nil {
		p.outcomes = make(map[string]*outcome)
	}
	p.outcomes[key] = entry
	p.order = append(p.order, key)

	limit := p.MaxRecorded
	if limit <= 0 {
		limit = DefaultMaxRecorded
	}
	for len(p.order) > limit {
		oldest, ok := p.outcomes[p.order[0]]
		if ok && !oldest.finished() {
			break
		}
		delete(p.outcomes, p.order[0])
		p.order = p.order[1:]
	}
}

func (p *Provider) run(ctx context.Context, ev Event, logger *zap.Logger) (Response, error) {
	resp := *cfn.NewResponse(&ev)
	var (
		physicalID string
		handleErr  error
	)
	props := PropertiesFromMap(ev.ResourceProperties)
	if p.Handler == nil {
		handleErr = fmt.Errorf("put cors provider has no handler")
	} else {
		physicalID, handleErr = p.Handler.Handle(ctx, ev.RequestType, props)
	}
	if physicalID != "" {
		resp.PhysicalResourceID = physicalID
	}
	if resp.PhysicalResourceID == "" {
		resp.PhysicalResourceID = ev.LogicalResourceID
	}
	if handleErr != nil {
		resp.Status = StatusFailed
		resp.Reason = handleErr.Error()
		logger.Error("custom action failed", zap.Error(handleErr))
	} else {
		resp.Status = StatusSuccess
		resp.Data = map[string]interface{}{"BucketName": props.BucketName}
	}
	return resp, handleErr
}

// deliver sends resp when the event carries a response URL.
func (p *Provider) deliver(ctx context.Context, ev Event, resp *Response, logger *zap.Logger) error {
	if p.Responder == nil || ev.ResponseURL == "" {
		return nil
	}
	if err := p.Responder.Respond(ctx, resp); err != nil {
		logger.Error("deliver response failed", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrRespond, err)
	}
	return nil
}

func (p *Provider) logger() *zap.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return zap.NewNop()
}
