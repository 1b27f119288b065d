package sentinel

import "errors"

// Infrastructure facts returned by stores and sinks, optionally wrapped.
// Services translate them into domain errors:
//   - ErrNotFound: row does not exist
//   - ErrConflict: conditional write lost to a concurrent writer
//   - ErrUnavailable: backing service unreachable
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
