package document

import "context"

// Transition describes one status change to be applied with a conditional
// write: the update only lands if the row still carries From.
type Transition struct {
	From   Status
	To     Status
	Action ApprovalAction

	// Optional extra fields written together with the status change.
	DocumentURL  string
	DocumentHash string
	ApproverID   string
}

type Repository interface {
	Create(ctx context.Context, d *Document) error
	GetByDocumentID(ctx context.Context, kind Kind, documentID string) (*Document, error)

	// Transition applies t as a single conditional write
	// ("SET status = To WHERE document_id = ? AND status = From") appending
	// t.Action to the history. Zero rows affected means another transition
	// won; implementations return ErrInvalidState in that case and leave d
	// untouched. On success d is updated in place.
	Transition(ctx context.Context, d *Document, t Transition) error

	// UpdateRendered stores a fresh rendered copy's URL and hash without
	// touching status or history (post-approval re-render).
	UpdateRendered(ctx context.Context, documentID, url, hashHex string) error
}
