// Package workflow is the approval state machine for procurement documents:
// DRAFT → PENDING_APPROVAL → {APPROVED, REJECTED}, with an append-only audit
// trail and a conditional write guarding every transition.
package workflow

import (
	"context"
	"errors"
	"log"
	"time"

	"procurement-backoffice/internal/domain/document"
	"procurement-backoffice/internal/token"
	"procurement-backoffice/pkg/id"
)

// Integrity renders the current document state and returns the stored copy's
// URL plus its lower-case hex content hash.
type Integrity interface {
	Render(ctx context.Context, d *document.Document) (url, hashHex string, err error)
}

// Notifier delivers workflow emails. Failures are logged by the usecase and
// never fail the transition that triggered them.
type Notifier interface {
	DocumentSubmitted(ctx context.Context, d *document.Document, approveToken, rejectToken string) error
	DocumentResolved(ctx context.Context, d *document.Document) error
}

const approverRole = "approver"

type Usecase struct {
	repo     document.Repository
	integ    Integrity
	codec    *token.Codec
	notifier Notifier
	tokenTTL time.Duration
}

// NewUsecase wires the state machine. notifier may be nil (emails skipped);
// integ may be nil only in setups that never submit, such as read paths.
func NewUsecase(repo document.Repository, integ Integrity, codec *token.Codec, notifier Notifier, tokenTTL time.Duration) *Usecase {
	if tokenTTL <= 0 {
		tokenTTL = token.DefaultTTL
	}
	return &Usecase{repo: repo, integ: integ, codec: codec, notifier: notifier, tokenTTL: tokenTTL}
}

func (u *Usecase) Create(ctx context.Context, in CreateDocumentInput) (*DocumentDTO, error) {
	if in.Title == "" || in.CreatorID == "" {
		return nil, errors.New("invalid input: title and creator are required")
	}
	if in.Kind != document.KindBudgetaryOffer && in.Kind != document.KindPurchaseOrder {
		return nil, errors.New("invalid input: unknown document kind")
	}
	d := &document.Document{
		DocumentID:            id.NewID32(),
		Kind:                  in.Kind,
		Title:                 in.Title,
		Reference:             in.Reference,
		Amount:                in.Amount,
		CreatorID:             in.CreatorID,
		CreatorEmail:          in.CreatorEmail,
		AssignedApproverID:    in.AssignedApproverID,
		AssignedApproverEmail: in.AssignedApproverEmail,
		Status:                document.StatusDraft,
		ApprovalHistory:       document.History{},
		StatusUpdatedAt:       time.Now().UTC(),
	}
	if err := u.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	return toDTO(d), nil
}

func (u *Usecase) Get(ctx context.Context, kind document.Kind, documentID string) (*DocumentDTO, error) {
	d, err := u.repo.GetByDocumentID(ctx, kind, documentID)
	if err != nil {
		return nil, err
	}
	return toDTO(d), nil
}

// Submit moves a DRAFT to PENDING_APPROVAL. The PDF is rendered and uploaded
// before the transition; a render failure leaves the document in DRAFT.
// Token minting and the approver notification happen after the transition
// commits and are best-effort.
func (u *Usecase) Submit(ctx context.Context, kind document.Kind, documentID, actorID string) (*DocumentDTO, error) {
	d, err := u.repo.GetByDocumentID(ctx, kind, documentID)
	if err != nil {
		return nil, err
	}
	if d.CreatorID != actorID {
		return nil, document.ErrForbidden
	}
	if d.Status != document.StatusDraft {
		return nil, document.ErrInvalidState
	}
	if u.integ == nil {
		return nil, document.ErrRenderFailure
	}

	url, hash, err := u.integ.Render(ctx, d)
	if err != nil {
		return nil, err
	}

	err = u.repo.Transition(ctx, d, document.Transition{
		From: document.StatusDraft,
		To:   document.StatusPendingApproval,
		Action: document.ApprovalAction{
			ActionType:     document.ActionSubmit,
			UserID:         actorID,
			Timestamp:      time.Now().UTC().Format(time.RFC3339),
			PreviousStatus: document.StatusDraft,
			NewStatus:      document.StatusPendingApproval,
		},
		DocumentURL:  url,
		DocumentHash: hash,
	})
	if err != nil {
		return nil, err
	}

	u.notifyApprover(ctx, d)
	return toDTO(d), nil
}

// Approve moves PENDING_APPROVAL to APPROVED. A second approval, or one
// racing the email path, loses the conditional write and gets ErrInvalidState.
func (u *Usecase) Approve(ctx context.Context, kind document.Kind, documentID, actorID, comments string) (*DocumentDTO, error) {
	return u.resolve(ctx, kind, documentID, actorID, comments, document.ActionApprove)
}

// Reject moves PENDING_APPROVAL to REJECTED. An empty reason is accepted.
func (u *Usecase) Reject(ctx context.Context, kind document.Kind, documentID, actorID, reason string) (*DocumentDTO, error) {
	return u.resolve(ctx, kind, documentID, actorID, reason, document.ActionReject)
}

func (u *Usecase) resolve(ctx context.Context, kind document.Kind, documentID, actorID, text string, act document.ActionType) (*DocumentDTO, error) {
	d, err := u.repo.GetByDocumentID(ctx, kind, documentID)
	if err != nil {
		return nil, err
	}
	if d.Status != document.StatusPendingApproval {
		return nil, document.ErrInvalidState
	}
	if d.AssignedApproverID != "" && d.AssignedApproverID != actorID {
		return nil, document.ErrForbidden
	}

	to := document.StatusApproved
	if act == document.ActionReject {
		to = document.StatusRejected
	}
	err = u.repo.Transition(ctx, d, document.Transition{
		From: document.StatusPendingApproval,
		To:   to,
		Action: document.ApprovalAction{
			ActionType:     act,
			UserID:         actorID,
			Timestamp:      time.Now().UTC().Format(time.RFC3339),
			Comments:       text,
			PreviousStatus: document.StatusPendingApproval,
			NewStatus:      to,
		},
		ApproverID: actorID,
	})
	if err != nil {
		return nil, err
	}

	if act == document.ActionApprove {
		u.renderFinalCopy(ctx, d)
	}
	if u.notifier != nil {
		if err := u.notifier.DocumentResolved(ctx, d); err != nil {
			log.Printf("workflow: resolution email for %s failed: %v", d.DocumentID, err)
		}
	}
	return toDTO(d), nil
}

// renderFinalCopy refreshes the stored PDF after approval so the archived
// copy carries the terminal status. The transition is already durable, so a
// failure here only logs; the submission-time copy stays in place.
func (u *Usecase) renderFinalCopy(ctx context.Context, d *document.Document) {
	if u.integ == nil {
		return
	}
	url, hash, err := u.integ.Render(ctx, d)
	if err != nil {
		log.Printf("workflow: final render for %s failed: %v", d.DocumentID, err)
		return
	}
	if err := u.repo.UpdateRendered(ctx, d.DocumentID, url, hash); err != nil {
		log.Printf("workflow: storing final render for %s failed: %v", d.DocumentID, err)
		return
	}
	d.DocumentURL = url
	d.DocumentHash = hash
}

func (u *Usecase) notifyApprover(ctx context.Context, d *document.Document) {
	if u.notifier == nil || u.codec == nil || d.AssignedApproverID == "" {
		return
	}
	approveTok, err := u.mintActionToken(d, token.ActionApprove)
	if err != nil {
		log.Printf("workflow: minting approve token for %s failed: %v", d.DocumentID, err)
		return
	}
	rejectTok, err := u.mintActionToken(d, token.ActionReject)
	if err != nil {
		log.Printf("workflow: minting reject token for %s failed: %v", d.DocumentID, err)
		return
	}
	if err := u.notifier.DocumentSubmitted(ctx, d, approveTok, rejectTok); err != nil {
		log.Printf("workflow: submission email for %s failed: %v", d.DocumentID, err)
	}
}

func (u *Usecase) mintActionToken(d *document.Document, act token.Action) (string, error) {
	return u.codec.Mint(token.Payload{
		DocumentID: d.DocumentID,
		ActorID:    d.AssignedApproverID,
		ActorRole:  approverRole,
		ActorEmail: d.AssignedApproverEmail,
		Action:     act,
	}, u.tokenTTL)
}
