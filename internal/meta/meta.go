// Where: cli/internal/meta/meta.go
// What: CLI-local metadata constants.
// Why: Keep the project identity (names, labels, directories) in one place.
package meta

const (
	// Project Identity
	AppName     = "webviz"
	EnvPrefix   = "WEBVIZ"
	LabelPrefix = "com.webviz"

	// Directory Layout
	HomeDir       = ".webviz"
	StateFile     = "state.yaml"
	ContextFile   = "cdk.json"
	TemplateFile  = "template.yaml"
	DefaultOutDir = "cdk.out"
)
