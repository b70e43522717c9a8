package sandbox

import "errors"

var (
	// ErrNotFound means no sandbox record exists for the id.
	ErrNotFound = errors.New("sandbox: not found")

	// ErrProvisioningFailed wraps synchronous CloudProvider failures on the
	// create path. Asynchronous failures surface as status Error only.
	ErrProvisioningFailed = errors.New("sandbox: provisioning failed")
)
