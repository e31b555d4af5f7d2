package mysql

import (
	"context"
	"errors"
	"time"

	docDomain "procurement-backoffice/internal/domain/document"

	"gorm.io/gorm"
)

type DocumentRepository struct{ db *gorm.DB }

func NewDocumentRepository(db *gorm.DB) *DocumentRepository { return &DocumentRepository{db: db} }

func (r *DocumentRepository) Create(ctx context.Context, d *docDomain.Document) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *DocumentRepository) GetByDocumentID(ctx context.Context, kind docDomain.Kind, documentID string) (*docDomain.Document, error) {
	var out docDomain.Document
	res := r.db.WithContext(ctx).
		Where("document_id = ? AND kind = ?", documentID, kind).
		First(&out)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, docDomain.ErrNotFound
		}
		return nil, res.Error
	}
	return &out, nil
}

// Transition is the compare-and-swap gate for the whole workflow: the WHERE
// clause carries the expected previous status, so of two concurrent callers
// exactly one sees RowsAffected == 1. The history append rides on the same
// guarded UPDATE and therefore serializes with the status change.
func (r *DocumentRepository) Transition(ctx context.Context, d *docDomain.Document, t docDomain.Transition) error {
	hist := make(docDomain.History, 0, len(d.ApprovalHistory)+1)
	hist = append(hist, d.ApprovalHistory...)
	hist = append(hist, t.Action)

	now := time.Now().UTC()
	updates := map[string]any{
		"status":            t.To,
		"approval_history":  hist,
		"status_updated_at": now,
	}
	if t.DocumentURL != "" {
		updates["document_url"] = t.DocumentURL
		updates["document_hash"] = t.DocumentHash
	}
	if t.ApproverID != "" {
		updates["approver_id"] = t.ApproverID
	}

	res := r.db.WithContext(ctx).
		Model(&docDomain.Document{}).
		Where("document_id = ? AND status = ?", d.DocumentID, t.From).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return docDomain.ErrInvalidState
	}

	d.Status = t.To
	d.ApprovalHistory = hist
	d.StatusUpdatedAt = now
	if t.DocumentURL != "" {
		d.DocumentURL = t.DocumentURL
		d.DocumentHash = t.DocumentHash
	}
	if t.ApproverID != "" {
		d.ApproverID = t.ApproverID
	}
	return nil
}

func (r *DocumentRepository) UpdateRendered(ctx context.Context, documentID, url, hashHex string) error {
	res := r.db.WithContext(ctx).
		Model(&docDomain.Document{}).
		Where("document_id = ?", documentID).
		Updates(map[string]any{"document_url": url, "document_hash": hashHex})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return docDomain.ErrNotFound
	}
	return nil
}
