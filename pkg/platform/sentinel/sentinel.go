package sentinel

import "errors"

// Infrastructure facts returned (optionally wrapped) by stores. Services translate
// them into coded errors from pkg/domain-errors; transports never see them directly.
//
//   - ErrNotFound: the keyed record does not exist
//   - ErrAlreadyExists: a write collided with an existing unique key
//   - ErrUnavailable: the backing service could not be reached
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrUnavailable   = errors.New("unavailable")
)
