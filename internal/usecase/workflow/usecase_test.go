package workflow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"procurement-backoffice/internal/domain/document"
	"procurement-backoffice/internal/testutil/documentmock"
	"procurement-backoffice/internal/token"
)

var (
	creatorID  = strings.Repeat("c", 32)
	approverID = strings.Repeat("1", 32)
	otherID    = strings.Repeat("2", 32)
	docID      = strings.Repeat("d", 32)
)

type fakeIntegrity struct {
	url   string
	hash  string
	err   error
	calls int
}

func (f *fakeIntegrity) Render(ctx context.Context, d *document.Document) (string, string, error) {
	f.calls++
	if f.err != nil {
		return "", "", f.err
	}
	return f.url, f.hash, nil
}

type fakeNotifier struct {
	submitted int
	resolved  int
	err       error
}

func (f *fakeNotifier) DocumentSubmitted(ctx context.Context, d *document.Document, approveToken, rejectToken string) error {
	f.submitted++
	return f.err
}

func (f *fakeNotifier) DocumentResolved(ctx context.Context, d *document.Document) error {
	f.resolved++
	return f.err
}

func newDraftDoc() *document.Document {
	return &document.Document{
		ID:                    7,
		DocumentID:            docID,
		Kind:                  document.KindBudgetaryOffer,
		Title:                 "Server rack",
		CreatorID:             creatorID,
		CreatorEmail:          "creator@example.com",
		AssignedApproverID:    approverID,
		AssignedApproverEmail: "approver@example.com",
		Status:                document.StatusDraft,
		ApprovalHistory:       document.History{},
	}
}

func newPendingDoc() *document.Document {
	d := newDraftDoc()
	d.Status = document.StatusPendingApproval
	d.ApprovalHistory = document.History{{
		ActionType:     document.ActionSubmit,
		UserID:         creatorID,
		Timestamp:      "2026-08-01T10:00:00Z",
		PreviousStatus: document.StatusDraft,
		NewStatus:      document.StatusPendingApproval,
	}}
	d.DocumentURL = "blob://budgetary_offer/" + docID + ".pdf"
	d.DocumentHash = strings.Repeat("0", 64)
	return d
}

func newUsecase(repo document.Repository, integ Integrity, notif Notifier) *Usecase {
	return NewUsecase(repo, integ, token.NewCodec([]byte("test-secret")), notif, 0)
}

func TestUsecase_Submit(t *testing.T) {
	tests := []struct {
		name    string
		doc     func() *document.Document
		actor   string
		renderE error
		wantErr error
	}{
		{name: "happy path draft -> pending", doc: newDraftDoc, actor: creatorID},
		{name: "document missing", doc: func() *document.Document { return nil }, actor: creatorID, wantErr: document.ErrNotFound},
		{name: "wrong actor", doc: newDraftDoc, actor: otherID, wantErr: document.ErrForbidden},
		{name: "already pending", doc: newPendingDoc, actor: creatorID, wantErr: document.ErrInvalidState},
		{name: "render failure keeps draft", doc: newDraftDoc, actor: creatorID,
			renderE: document.ErrRenderFailure, wantErr: document.ErrRenderFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transitions := 0
			repo := &documentmock.Repo{
				GetByDocumentIDFn: func(ctx context.Context, kind document.Kind, id string) (*document.Document, error) {
					if d := tt.doc(); d != nil {
						return d, nil
					}
					return nil, document.ErrNotFound
				},
				TransitionFn: func(ctx context.Context, d *document.Document, tr document.Transition) error {
					transitions++
					if tr.From != document.StatusDraft || tr.To != document.StatusPendingApproval {
						t.Fatalf("unexpected transition %s -> %s", tr.From, tr.To)
					}
					if tr.Action.ActionType != document.ActionSubmit {
						t.Fatalf("unexpected action %s", tr.Action.ActionType)
					}
					if tr.Action.PreviousStatus != document.StatusDraft || tr.Action.NewStatus != document.StatusPendingApproval {
						t.Fatalf("history entry statuses wrong: %+v", tr.Action)
					}
					if tr.DocumentURL == "" || tr.DocumentHash == "" {
						t.Fatal("submit must carry the rendered url and hash")
					}
					d.Status = tr.To
					d.ApprovalHistory = append(d.ApprovalHistory, tr.Action)
					d.DocumentURL = tr.DocumentURL
					d.DocumentHash = tr.DocumentHash
					return nil
				},
			}
			integ := &fakeIntegrity{url: "blob://x.pdf", hash: strings.Repeat("a", 64), err: tt.renderE}
			notif := &fakeNotifier{}
			uc := newUsecase(repo, integ, notif)

			dto, err := uc.Submit(context.Background(), document.KindBudgetaryOffer, docID, tt.actor)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("want %v, got %v", tt.wantErr, err)
				}
				if transitions != 0 {
					t.Fatal("failed submit must not transition")
				}
				if notif.submitted != 0 {
					t.Fatal("failed submit must not notify")
				}
				return
			}
			if err != nil {
				t.Fatalf("submit: %v", err)
			}
			if dto.Status != string(document.StatusPendingApproval) {
				t.Fatalf("status = %s", dto.Status)
			}
			if len(dto.ApprovalHistory) != 1 {
				t.Fatalf("history length = %d, want 1", len(dto.ApprovalHistory))
			}
			if notif.submitted != 1 {
				t.Fatalf("approver notifications = %d, want 1", notif.submitted)
			}
		})
	}
}

func TestUsecase_Submit_NotificationFailureIsNonFatal(t *testing.T) {
	repo := &documentmock.Repo{
		GetByDocumentIDFn: func(ctx context.Context, kind document.Kind, id string) (*document.Document, error) {
			return newDraftDoc(), nil
		},
	}
	integ := &fakeIntegrity{url: "blob://x.pdf", hash: strings.Repeat("a", 64)}
	notif := &fakeNotifier{err: errors.New("smtp down")}
	uc := newUsecase(repo, integ, notif)

	dto, err := uc.Submit(context.Background(), document.KindBudgetaryOffer, docID, creatorID)
	if err != nil {
		t.Fatalf("submit must succeed despite notification failure: %v", err)
	}
	if dto.Status != string(document.StatusPendingApproval) {
		t.Fatalf("status = %s", dto.Status)
	}
}

func TestUsecase_Approve(t *testing.T) {
	tests := []struct {
		name    string
		doc     func() *document.Document
		actor   string
		wantErr error
	}{
		{name: "happy path pending -> approved", doc: newPendingDoc, actor: approverID},
		{name: "missing document", doc: func() *document.Document { return nil }, actor: approverID, wantErr: document.ErrNotFound},
		{name: "not the assigned approver", doc: newPendingDoc, actor: otherID, wantErr: document.ErrForbidden},
		{name: "still draft", doc: newDraftDoc, actor: approverID, wantErr: document.ErrInvalidState},
		{name: "already approved", doc: func() *document.Document {
			d := newPendingDoc()
			d.Status = document.StatusApproved
			return d
		}, actor: approverID, wantErr: document.ErrInvalidState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &documentmock.Repo{
				GetByDocumentIDFn: func(ctx context.Context, kind document.Kind, id string) (*document.Document, error) {
					if d := tt.doc(); d != nil {
						return d, nil
					}
					return nil, document.ErrNotFound
				},
			}
			integ := &fakeIntegrity{url: "blob://final.pdf", hash: strings.Repeat("b", 64)}
			notif := &fakeNotifier{}
			uc := newUsecase(repo, integ, notif)

			dto, err := uc.Approve(context.Background(), document.KindBudgetaryOffer, docID, tt.actor, "looks good")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("want %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("approve: %v", err)
			}
			if dto.Status != string(document.StatusApproved) {
				t.Fatalf("status = %s", dto.Status)
			}
			if dto.ApproverID != approverID {
				t.Fatalf("approver = %s", dto.ApproverID)
			}
			if dto.ApprovalComments != "looks good" {
				t.Fatalf("approval comments = %q", dto.ApprovalComments)
			}
			last := dto.ApprovalHistory[len(dto.ApprovalHistory)-1]
			if last.ActionType != document.ActionApprove ||
				last.PreviousStatus != document.StatusPendingApproval ||
				last.NewStatus != document.StatusApproved {
				t.Fatalf("last history entry wrong: %+v", last)
			}
			// final signed copy re-rendered after approval
			if integ.calls != 1 {
				t.Fatalf("final render calls = %d, want 1", integ.calls)
			}
			if notif.resolved != 1 {
				t.Fatalf("creator notifications = %d, want 1", notif.resolved)
			}
		})
	}
}

func TestUsecase_Approve_UnassignedDocumentAllowsAnyActor(t *testing.T) {
	repo := &documentmock.Repo{
		GetByDocumentIDFn: func(ctx context.Context, kind document.Kind, id string) (*document.Document, error) {
			d := newPendingDoc()
			d.AssignedApproverID = ""
			return d, nil
		},
	}
	uc := newUsecase(repo, &fakeIntegrity{url: "u", hash: "h"}, &fakeNotifier{})

	dto, err := uc.Approve(context.Background(), document.KindBudgetaryOffer, docID, otherID, "")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if dto.ApproverID != otherID {
		t.Fatalf("approver = %s", dto.ApproverID)
	}
}

func TestUsecase_Reject(t *testing.T) {
	repo := &documentmock.Repo{
		GetByDocumentIDFn: func(ctx context.Context, kind document.Kind, id string) (*document.Document, error) {
			return newPendingDoc(), nil
		},
	}
	integ := &fakeIntegrity{url: "u", hash: "h"}
	notif := &fakeNotifier{}
	uc := newUsecase(repo, integ, notif)

	dto, err := uc.Reject(context.Background(), document.KindBudgetaryOffer, docID, approverID, "budget exceeded")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if dto.Status != string(document.StatusRejected) {
		t.Fatalf("status = %s", dto.Status)
	}
	if dto.RejectionReason != "budget exceeded" {
		t.Fatalf("rejection reason = %q", dto.RejectionReason)
	}
	// no final copy re-render on rejection
	if integ.calls != 0 {
		t.Fatalf("render calls = %d, want 0", integ.calls)
	}
	if notif.resolved != 1 {
		t.Fatalf("creator notifications = %d, want 1", notif.resolved)
	}
}

func TestUsecase_Reject_EmptyReasonAccepted(t *testing.T) {
	repo := &documentmock.Repo{
		GetByDocumentIDFn: func(ctx context.Context, kind document.Kind, id string) (*document.Document, error) {
			return newPendingDoc(), nil
		},
	}
	uc := newUsecase(repo, &fakeIntegrity{}, &fakeNotifier{})

	dto, err := uc.Reject(context.Background(), document.KindBudgetaryOffer, docID, approverID, "")
	if err != nil {
		t.Fatalf("reject with empty reason: %v", err)
	}
	if dto.Status != string(document.StatusRejected) {
		t.Fatalf("status = %s", dto.Status)
	}
}

// casRepo is a stateful in-memory repository whose Transition is a real
// compare-and-swap, for sequencing and race tests.
type casRepo struct {
	mu  sync.Mutex
	doc *document.Document
}

func (r *casRepo) Create(ctx context.Context, d *document.Document) error { return nil }

func (r *casRepo) GetByDocumentID(ctx context.Context, kind document.Kind, id string) (*document.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *r.doc
	cp.ApprovalHistory = append(document.History{}, r.doc.ApprovalHistory...)
	return &cp, nil
}

func (r *casRepo) Transition(ctx context.Context, d *document.Document, t document.Transition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.doc.Status != t.From {
		return document.ErrInvalidState
	}
	r.doc.Status = t.To
	r.doc.ApprovalHistory = append(r.doc.ApprovalHistory, t.Action)
	if t.ApproverID != "" {
		r.doc.ApproverID = t.ApproverID
	}
	d.Status = t.To
	d.ApprovalHistory = append(d.ApprovalHistory, t.Action)
	return nil
}

func (r *casRepo) UpdateRendered(ctx context.Context, id, url, hash string) error { return nil }

func TestUsecase_Approve_TwiceInSequence(t *testing.T) {
	repo := &casRepo{doc: newPendingDoc()}
	uc := newUsecase(repo, &fakeIntegrity{url: "u", hash: "h"}, &fakeNotifier{})
	ctx := context.Background()

	if _, err := uc.Approve(ctx, document.KindBudgetaryOffer, docID, approverID, "first"); err != nil {
		t.Fatalf("first approve: %v", err)
	}
	_, err := uc.Approve(ctx, document.KindBudgetaryOffer, docID, approverID, "second")
	if !errors.Is(err, document.ErrInvalidState) {
		t.Fatalf("second approve: want ErrInvalidState, got %v", err)
	}
	if len(repo.doc.ApprovalHistory) != 2 { // SUBMIT + one APPROVE
		t.Fatalf("history length = %d, want 2", len(repo.doc.ApprovalHistory))
	}
}

func TestUsecase_Approve_ConcurrentCallsExactlyOneWins(t *testing.T) {
	repo := &casRepo{doc: newPendingDoc()}
	notif := &fakeNotifier{}
	uc := newUsecase(repo, nil, notif)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = uc.Approve(ctx, document.KindBudgetaryOffer, docID, approverID, "race")
		}(i)
	}
	wg.Wait()

	var wins, losses int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, document.ErrInvalidState):
			losses++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || losses != 1 {
		t.Fatalf("wins=%d losses=%d, want exactly one of each", wins, losses)
	}
	if repo.doc.Status != document.StatusApproved {
		t.Fatalf("status = %s", repo.doc.Status)
	}
	if len(repo.doc.ApprovalHistory) != 2 {
		t.Fatalf("history length = %d, want 2 (no duplicate entry)", len(repo.doc.ApprovalHistory))
	}
}

func TestUsecase_Create(t *testing.T) {
	var created *document.Document
	repo := &documentmock.Repo{
		CreateFn: func(ctx context.Context, d *document.Document) error {
			created = d
			return nil
		},
	}
	uc := newUsecase(repo, &fakeIntegrity{}, &fakeNotifier{})

	dto, err := uc.Create(context.Background(), CreateDocumentInput{
		Kind:      document.KindPurchaseOrder,
		Title:     "Laptops",
		Reference: "PO-2026-014",
		Amount:    12499.99,
		CreatorID: creatorID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created == nil || created.Status != document.StatusDraft {
		t.Fatalf("created doc not draft: %+v", created)
	}
	if len(created.DocumentID) != 32 {
		t.Fatalf("document id %q not 32 chars", created.DocumentID)
	}
	if len(dto.ApprovalHistory) != 0 {
		t.Fatal("new document must start with empty history")
	}

	if _, err := uc.Create(context.Background(), CreateDocumentInput{Kind: "memo", Title: "x", CreatorID: creatorID}); err == nil {
		t.Fatal("unknown kind must be rejected")
	}
	if _, err := uc.Create(context.Background(), CreateDocumentInput{Kind: document.KindPurchaseOrder, CreatorID: creatorID}); err == nil {
		t.Fatal("missing title must be rejected")
	}
}
