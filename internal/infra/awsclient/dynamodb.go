// Where: cli/internal/infra/awsclient/dynamodb.go
// What: DynamoDB adapter for scene lookups and scenario table bootstrap.
// Why: Keep SDK attribute types out of handlers and backends.
package awsclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/poruru/webviz-stack/internal/handlers/generateurl"
)

const (
	AttrBagFile       = "bag_file"
	AttrBagFileBucket = "bag_file_bucket"
)

type DynamoDB struct {
	client *dynamodb.Client
}

// TableSpec describes a scenario table keyed by string partition and sort keys.
type TableSpec struct {
	TableName    string
	PartitionKey string
	SortKey      string
}

func (c *DynamoDB) ListTables(ctx context.Context) ([]string, error) {
	if c == nil || c.client == nil {
		return nil, fmt.Errorf("dynamodb client is nil")
	}
	var names []string
	paginator := dynamodb.NewListTablesPaginator(c.client, &dynamodb.ListTablesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		names = append(names, page.TableNames...)
	}
	return names, nil
}

func (c *DynamoDB) CreateTable(ctx context.Context, spec TableSpec) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("dynamodb client is nil")
	}
	input, err := buildCreateTableInput(spec)
	if err != nil {
		return err
	}
	_, err = c.client.CreateTable(ctx, input)
	return err
}

// GetScene implements generateurl.SceneStore.
func (c *DynamoDB) GetScene(ctx context.Context, key generateurl.SceneKey) (generateurl.Scene, bool, error) {
	if c == nil || c.client == nil {
		return generateurl.Scene{}, false, fmt.Errorf("dynamodb client is nil")
	}
	resp, err := c.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(key.TableName),
		Key: map[string]types.AttributeValue{
			key.PartitionKey: &types.AttributeValueMemberS{Value: key.PartitionValue},
			key.SortKey:      &types.AttributeValueMemberS{Value: key.SortValue},
		},
	})
	if err != nil {
		return generateurl.Scene{}, false, err
	}
	if len(resp.Item) == 0 {
		return generateurl.Scene{}, false, nil
	}
	return generateurl.Scene{
		BagFile:       stringAttr(resp.Item, AttrBagFile),
		BagFileBucket: stringAttr(resp.Item, AttrBagFileBucket),
	}, true, nil
}

func buildCreateTableInput(spec TableSpec) (*dynamodb.CreateTableInput, error) {
	name := strings.TrimSpace(spec.TableName)
	if name == "" {
		return nil, fmt.Errorf("table name is required")
	}
	if spec.PartitionKey == "" || spec.SortKey == "" {
		return nil, fmt.Errorf("table %s: partition and sort keys are required", name)
	}
	return &dynamodb.CreateTableInput{
		TableName: aws.String(name),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(spec.PartitionKey), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(spec.SortKey), KeyType: types.KeyTypeRange},
		},
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(spec.PartitionKey), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(spec.SortKey), AttributeType: types.ScalarAttributeTypeS},
		},
		BillingMode: types.BillingModePayPerRequest,
	}, nil
}

func stringAttr(item map[string]types.AttributeValue, name string) string {
	if value, ok := item[name].(*types.AttributeValueMemberS); ok {
		return value.Value
	}
	return ""
}
