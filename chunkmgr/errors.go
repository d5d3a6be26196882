package chunkmgr

import "errors"

// ErrInvalidViewDistance is returned by Manager.SetViewDistance when V'
// would produce a non-positive working-set dimension. Per spec.md §7
// this is a diagnostic no-op, not a fatal error.
var ErrInvalidViewDistance = errors.New("chunkmgr: view distance must be >= 0")

// ErrNoWorldLoaded is returned by operations that require LoadWorld to
// have completed successfully first.
var ErrNoWorldLoaded = errors.New("chunkmgr: no world is currently loaded")
