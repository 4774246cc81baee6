package signing

import "github.com/pkg/errors"

// The four terminal outcomes of a signing request. Callers classify failures
// with errors.Is; the pipeline never retries internally.
var (
	// ErrInvalidInput marks a structurally invalid request. The caller may
	// send a corrected request.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUserAbort marks an explicit rejection at a confirmation step
	ErrUserAbort = errors.New("aborted by user")

	// ErrProtocolFault marks an anti-klepto violation by the host
	ErrProtocolFault = errors.New("anti-klepto protocol fault")

	// ErrSigning marks a failure of the underlying key storage, e.g. when it
	// is locked. Deliberately opaque.
	ErrSigning = errors.New("signing failed")
)
