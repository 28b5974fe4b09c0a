// Where: cli/cmd/generate-url/main.go
// What: Lambda entrypoint for the GenerateUrl function.
// Why: Serve viewer URL requests with presigned S3 links.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
)

func main() {
	handler, err := buildHandler(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	lambda.Start(handler.Handle)
}
