// Where: cli/internal/command/output.go
// What: Summary rows for assembled topologies.
// Why: Keep presentation separate from assembly and backend wiring.
package command

import (
	"strings"

	domaincfg "github.com/poruru/webviz-stack/internal/domain/config"
	"github.com/poruru/webviz-stack/internal/domain/topology"
	"github.com/poruru/webviz-stack/internal/domain/value"
	"github.com/poruru/webviz-stack/internal/infra/local"
	"github.com/poruru/webviz-stack/internal/infra/ui"
)

func topologyRows(topo *topology.Topology, location string) []ui.KeyValue {
	rows := []ui.KeyValue{
		{Key: "Stack", Value: topo.Config.StackName},
		{Key: "Bucket mode", Value: topo.Storage.Mode()},
	}
	if location != "" {
		rows = append(rows, ui.KeyValue{Key: "Template", Value: location})
	}
	if topo.CustomAction != nil {
		rows = append(rows, ui.KeyValue{Key: "CORS action", Value: topo.CustomAction.Resource.LogicalID})
	}
	return append(rows, outputRows(topo.Outputs())...)
}

func outputRows(outputs map[string]string) []ui.KeyValue {
	keys := value.SortedKeys(outputs)
	rows := make([]ui.KeyValue, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, ui.KeyValue{Key: key, Value: outputs[key]})
	}
	return rows
}

// snapshotState flattens the recorded local state for change summaries.
// A custom action counts as updated when its physical id or properties change.
func snapshotState(state local.State) domaincfg.Snapshot {
	actions := make(map[string]string, len(state.CustomActions))
	for id, record := range state.CustomActions {
		parts := []string{record.PhysicalID}
		for _, key := range value.SortedKeys(record.Properties) {
			parts = append(parts, key+"="+record.Properties[key])
		}
		actions[id] = strings.Join(parts, ";")
	}
	return domaincfg.Snapshot{
		Buckets:       value.CloneStrings(state.Buckets),
		CustomActions: actions,
		Outputs:       value.CloneStrings(state.Outputs),
	}
}

func changeRows(diff domaincfg.Diff) []ui.KeyValue {
	return []ui.KeyValue{
		{Key: "Buckets", Value: domaincfg.FormatCountsLabel(diff.Buckets)},
		{Key: "Custom actions", Value: domaincfg.FormatCountsLabel(diff.CustomActions)},
		{Key: "Outputs", Value: domaincfg.FormatCountsLabel(diff.Outputs)},
	}
}
