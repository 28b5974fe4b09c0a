// Where: cli/internal/domain/topology/grant.go
// What: Least-privilege identity grants attached to invocation targets.
// Why: Make the permission set explicit and checkable before declaration.
package topology

import (
	"fmt"
	"strings"
)

// Effect is the outcome of a permission. Only Allow is ever declared.
type Effect string

const EffectAllow Effect = "Allow"

// BasicExecutionPolicy is the managed policy granting log writes to a function.
const BasicExecutionPolicy = "service-role/AWSLambdaBasicExecutionRole"

// Permission is a single (action, resource, effect) triple.
type Permission struct {
	Action   string
	Resource string
	Effect   Effect
}

// IdentityGrant is the permission set of exactly one invocation target.
type IdentityGrant struct {
	Name            string
	Permissions     []Permission
	BaselineLogging bool
}

// Allow builds an Allow permission.
func Allow(action, resource string) Permission {
	return Permission{Action: action, Resource: resource, Effect: EffectAllow}
}

// Validate rejects grants that are empty or use wildcard actions/resources.
func (g IdentityGrant) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return fmt.Errorf("grant name is required")
	}
	if len(g.Permissions) == 0 {
		return fmt.Errorf("grant %s has no permissions", g.Name)
	}
	for _, p := range g.Permissions {
		if p.Effect != EffectAllow {
			return fmt.Errorf("grant %s: unsupported effect %q", g.Name, p.Effect)
		}
		action := strings.TrimSpace(p.Action)
		if action == "" || strings.Contains(action, "*") {
			return fmt.Errorf("grant %s: action %q is not a single action", g.Name, p.Action)
		}
		resource := strings.TrimSpace(p.Resource)
		if resource == "" || resource == "*" {
			return fmt.Errorf("grant %s: action %s is not scoped to a resource", g.Name, action)
		}
	}
	return nil
}

// Actions returns the distinct actions in declaration order.
func (g IdentityGrant) Actions() []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(g.Permissions))
	for _, p := range g.Permissions {
		if _, ok := seen[p.Action]; ok {
			continue
		}
		seen[p.Action] = struct{}{}
		out = append(out, p.Action)
	}
	return out
}
