// Where: cli/internal/constants/env.go
// What: Environment variable naming constants.
// Why: Centralize environment variable names shared by the stack, handlers, and CLI.
package constants

const (
	// GenerateUrl handler environment
	EnvWebvizURL           = "WEBVIZ_ELB_URL"
	EnvSceneDBPartitionKey = "SCENE_DB_PARTITION_KEY"
	EnvSceneDBSortKey      = "SCENE_DB_SORT_KEY"
	EnvSceneDBRegion       = "SCENE_DB_REGION"
	EnvSceneDBTable        = "SCENE_DB_TABLE"
	EnvURLExpiry           = "URL_EXPIRY"

	// PutCors handler environment
	EnvPutCorsAttempts = "PUT_CORS_MAX_ATTEMPTS"

	// Local backend endpoints
	EnvLocalS3Endpoint       = "WEBVIZ_S3_ENDPOINT"
	EnvLocalDynamoDBEndpoint = "WEBVIZ_DYNAMODB_ENDPOINT"
	EnvLocalAccessKey        = "WEBVIZ_ACCESS_KEY"
	EnvLocalSecretKey        = "WEBVIZ_SECRET_KEY"
	EnvLocalServiceHost      = "WEBVIZ_SERVICE_HOST"

	// Shared AWS settings
	EnvAWSRegion = "AWS_REGION"
)
