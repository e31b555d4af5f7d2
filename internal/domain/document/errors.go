package document

import "errors"

var (
	ErrNotFound = errors.New("document not found")
	// Actor is not entitled to perform the transition (not the creator on
	// submit, not the assigned approver on approve/reject).
	ErrForbidden = errors.New("actor not allowed to act on this document")
	// Transition illegal for the current status, including losing the
	// conditional-write race to a concurrent transition.
	ErrInvalidState = errors.New("transition not allowed from current status")
	// Rendering or uploading the canonical PDF failed; the triggering
	// transition must not happen.
	ErrRenderFailure = errors.New("document render failed")
)
