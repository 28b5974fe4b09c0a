// Where: cli/internal/infra/awsclient/lambda.go
// What: Lambda adapter that invokes the deployed GenerateUrl function.
// Why: get-url asks the deployed function so the link uses its role and configuration.
package awsclient

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/poruru/webviz-stack/internal/handlers/generateurl"
)

// InvokeAPI is the Lambda operation the invoker needs.
type InvokeAPI interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// GenerateURLInvoker calls a GenerateUrl function synchronously.
type GenerateURLInvoker struct {
	Client   InvokeAPI
	Function string
}

// NewGenerateURLInvoker builds an invoker for function in opts.Region.
func NewGenerateURLInvoker(ctx context.Context, opts Options, function string) (*GenerateURLInvoker, error) {
	cfg, err := LoadConfig(ctx, opts)
	if err != nil {
		return nil, err
	}
	client := lambda.NewFromConfig(cfg, func(o *lambda.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})
	return &GenerateURLInvoker{Client: client, Function: function}, nil
}

// Handle invokes the function with req and decodes its proxy-style result.
func (i *GenerateURLInvoker) Handle(ctx context.Context, req generateurl.Request) (generateurl.Response, error) {
	if i == nil || i.Client == nil {
		return generateurl.Response{}, fmt.Errorf("lambda client is nil")
	}
	if i.Function == "" {
		return generateurl.Response{}, fmt.Errorf("generate url function name is required")
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return generateurl.Response{}, fmt.Errorf("encode request: %w", err)
	}
	out, err := i.Client.Invoke(ctx, &lambda.InvokeInput{
		FunctionName:   aws.String(i.Function),
		InvocationType: types.InvocationTypeRequestResponse,
		LogType:        types.LogTypeTail,
		Payload:        payload,
	})
	if err != nil {
		return generateurl.Response{}, fmt.Errorf("invoke %s: %w", i.Function, err)
	}
	return decodeInvokeOutput(i.Function, out)
}

func decodeInvokeOutput(function string, out *lambda.InvokeOutput) (generateurl.Response, error) {
	if out == nil {
		return generateurl.Response{}, fmt.Errorf("invoke %s: empty output", function)
	}
	if out.FunctionError != nil {
		return generateurl.Response{}, fmt.Errorf("invoke %s: function error %s: %s", function, aws.ToString(out.FunctionError), string(out.Payload))
	}
	var resp generateurl.Response
	if err := json.Unmarshal(out.Payload, &resp); err != nil {
		return generateurl.Response{}, fmt.Errorf("invoke %s: decode payload: %w", function, err)
	}
	if resp.StatusCode == 0 {
		return generateurl.Response{}, fmt.Errorf("invoke %s: payload has no statusCode: %s", function, string(out.Payload))
	}
	return resp, nil
}
