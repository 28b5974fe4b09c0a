// Where: cli/internal/infra/awsclient/errors.go
// What: Classification of SDK errors.
// Why: Translate provider-specific "not found" codes into one check.
package awsclient

import (
	"errors"

	"github.com/aws/smithy-go"
)

var notFoundCodes = map[string]struct{}{
	"NotFound":                  {},
	"NoSuchBucket":              {},
	"ResourceNotFoundException": {},
}

// IsNotFound reports whether err is an API error for a missing resource.
func IsNotFound(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	_, ok := notFoundCodes[apiErr.ErrorCode()]
	return ok
}

func isCode(err error, code string) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == code
}
