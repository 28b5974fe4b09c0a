// Where: cli/internal/domain/topology/topology.go
// What: Assembled topology returned to callers.
// Why: Expose resolved handles and addresses for inspection and cross-wiring.
package topology

// InvocationTarget is a declared function together with its identity.
type InvocationTarget struct {
	Kind        string
	Function    Handle
	Role        Handle
	Grant       IdentityGrant
	Environment map[string]string
}

// CustomAction is the scheduled post-creation action for a referenced bucket.
type CustomAction struct {
	Resource   Handle
	Target     InvocationTarget
	Properties map[string]string
}

// Topology is the result of one assembly pass.
type Topology struct {
	Config       DeploymentConfig
	Service      Handle
	Endpoint     ServiceEndpoint
	Storage      StorageBinding
	CustomAction *CustomAction
	Targets      map[string]InvocationTarget
}

// Outputs returns the values a deployment exposes for external cross-wiring.
func (t *Topology) Outputs() map[string]string {
	if t == nil {
		return nil
	}
	out := map[string]string{
		"WebvizURL": t.Endpoint.URL(),
	}
	if t.Storage != nil {
		out["BucketName"] = t.Storage.Handle().Name
	}
	for kind, target := range t.Targets {
		out[kind+"Function"] = target.Function.Name
	}
	return out
}
