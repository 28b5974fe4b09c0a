// Where: cli/internal/infra/local/scenario.go
// What: Scenario table bootstrap for local deployments.
// Why: GenerateUrl scene lookups need the table to exist on the local endpoint.
package local

import (
	"context"
	"fmt"
	"strings"

	"github.com/poruru/webviz-stack/internal/domain/topology"
	"github.com/poruru/webviz-stack/internal/infra/awsclient"
)

// TableAPI is the DynamoDB surface used for bootstrap.
type TableAPI interface {
	ListTables(ctx context.Context) ([]string, error)
	CreateTable(ctx context.Context, spec awsclient.TableSpec) error
}

// EnsureScenarioTable creates the scenario table when it is missing and
// reports whether it created it.
func EnsureScenarioTable(ctx context.Context, client TableAPI, ds *topology.ScenarioDatastore) (bool, error) {
	if client == nil || ds == nil {
		return false, nil
	}
	name := strings.TrimSpace(ds.TableName)
	if name == "" {
		return false, fmt.Errorf("scenario table name is required")
	}

	names, err := client.ListTables(ctx)
	if err != nil {
		return false, fmt.Errorf("list tables: %w", err)
	}
	for _, existing := range names {
		if existing == name {
			return false, nil
		}
	}
	if err := client.CreateTable(ctx, awsclient.TableSpec{
		TableName:    name,
		PartitionKey: ds.PartitionKey,
		SortKey:      ds.SortKey,
	}); err != nil {
		return false, fmt.Errorf("create table %s: %w", name, err)
	}
	return true, nil
}
