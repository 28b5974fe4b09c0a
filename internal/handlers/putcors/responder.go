// Where: cli/internal/handlers/putcors/responder.go
// What: Responder that uploads the outcome to the pre-signed response URL.
// Why: The orchestrator waits on this upload to advance the deployment.
package putcors

import (
	"context"
	"fmt"
)

// CFNResponder sends the response document with the lambda runtime's
// custom-resource client.
type CFNResponder struct{}

func (CFNResponder) Respond(ctx context.Context, resp *Response) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := resp.Send(); err != nil {
		return fmt.Errorf("put response: %w", err)
	}
	return nil
}
