// Where: cli/cmd/put-cors/main.go
// What: Lambda entrypoint for the PutCors custom action.
// Why: Serve CloudFormation custom resource events against S3.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
)

func main() {
	provider, err := buildProvider(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	lambda.Start(lambdaHandler(provider))
}
