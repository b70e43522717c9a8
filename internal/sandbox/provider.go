package sandbox

import (
	"context"

	"github.com/habbes/sandstorm/internal/types"
)

// CreateResult is what a CloudProvider returns for a provisioned VM.
type CreateResult struct {
	// VMHandle is an opaque token the provider understands; the registry
	// stores it and passes it back to DeleteSandbox.
	VMHandle string
	// PublicIP may be empty when the VM has no public address (yet).
	PublicIP string
}

// CloudProvider provisions and tears down sandbox VMs. The orchestrator
// consumes this interface only — credentials and cloud specifics live
// entirely inside implementations.
type CloudProvider interface {
	// CreateSandbox provisions a VM for sandboxID. orchestratorEndpoint and
	// sandboxID must be baked into the VM's boot metadata so the agent that
	// boots inside it knows where to phone home and who it is.
	CreateSandbox(ctx context.Context, sandboxID string, cfg types.SandboxConfiguration, orchestratorEndpoint string) (CreateResult, error)

	// BuildDefaultImage produces the image used for sandboxes created
	// without an explicit configuration. Called at most once per
	// orchestrator process; the result is memoized. May take minutes.
	BuildDefaultImage(ctx context.Context, orchestratorEndpoint string) (string, error)

	// DeleteSandbox tears down the VM identified by vmHandle.
	DeleteSandbox(ctx context.Context, vmHandle string) error
}
