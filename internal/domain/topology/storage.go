// Where: cli/internal/domain/topology/storage.go
// What: Storage binding variant (referenced vs created bucket).
// Why: Decide the bucket mode once and force callers to handle both cases.
package topology

// StorageMode names the active StorageBinding variant.
type StorageMode string

const (
	StorageReferenced StorageMode = "Referenced"
	StorageCreated    StorageMode = "Created"
)

// StorageBinding is implemented only by Referenced and Created.
type StorageBinding interface {
	Mode() StorageMode
	Handle() Handle
	storageBinding()
}

// Referenced points at a bucket that already exists. CORS rules are applied
// later by the post-creation custom action.
type Referenced struct {
	handle Handle
}

// Created is a bucket declared by this deployment with CORS rules embedded.
type Created struct {
	handle    Handle
	corsRules []CORSRule
}

func NewReferenced(handle Handle) Referenced {
	return Referenced{handle: handle}
}

func NewCreated(handle Handle, rules []CORSRule) Created {
	return Created{handle: handle, corsRules: append([]CORSRule(nil), rules...)}
}

func (Referenced) Mode() StorageMode { return StorageReferenced }
func (r Referenced) Handle() Handle  { return r.handle }
func (Referenced) storageBinding()   {}

func (Created) Mode() StorageMode { return StorageCreated }
func (c Created) Handle() Handle  { return c.handle }
func (Created) storageBinding()   {}

// CORSRules returns a copy of the rules embedded in the bucket declaration.
func (c Created) CORSRules() []CORSRule {
	return append([]CORSRule(nil), c.corsRules...)
}
