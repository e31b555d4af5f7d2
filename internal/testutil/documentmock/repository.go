package documentmock

import (
	"context"

	domain "procurement-backoffice/internal/domain/document"
)

// Ensure compile-time compliance
var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Fill in the function fields a test needs; unfilled ones fall back to
// benign defaults.
type Repo struct {
	CreateFn          func(ctx context.Context, d *domain.Document) error
	GetByDocumentIDFn func(ctx context.Context, kind domain.Kind, documentID string) (*domain.Document, error)
	TransitionFn      func(ctx context.Context, d *domain.Document, t domain.Transition) error
	UpdateRenderedFn  func(ctx context.Context, documentID, url, hashHex string) error
}

func (m *Repo) Create(ctx context.Context, d *domain.Document) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, d)
	}
	return nil
}

func (m *Repo) GetByDocumentID(ctx context.Context, kind domain.Kind, documentID string) (*domain.Document, error) {
	if m.GetByDocumentIDFn != nil {
		return m.GetByDocumentIDFn(ctx, kind, documentID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) Transition(ctx context.Context, d *domain.Document, t domain.Transition) error {
	if m.TransitionFn != nil {
		return m.TransitionFn(ctx, d, t)
	}
	// Default emulates a successful conditional write.
	d.ApprovalHistory = append(d.ApprovalHistory, t.Action)
	d.Status = t.To
	if t.DocumentURL != "" {
		d.DocumentURL = t.DocumentURL
		d.DocumentHash = t.DocumentHash
	}
	if t.ApproverID != "" {
		d.ApproverID = t.ApproverID
	}
	return nil
}

func (m *Repo) UpdateRendered(ctx context.Context, documentID, url, hashHex string) error {
	if m.UpdateRenderedFn != nil {
		return m.UpdateRenderedFn(ctx, documentID, url, hashHex)
	}
	return nil
}
