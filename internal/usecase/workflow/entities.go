package workflow

import (
	"time"

	"procurement-backoffice/internal/domain/document"
)

type CreateDocumentInput struct {
	Kind                  document.Kind
	Title                 string
	Reference             string
	Amount                float64
	CreatorID             string
	CreatorEmail          string
	AssignedApproverID    string
	AssignedApproverEmail string
}

type DocumentDTO struct {
	DocumentID         string                    `json:"document_id"`
	Kind               string                    `json:"kind"`
	Title              string                    `json:"title"`
	Reference          string                    `json:"reference"`
	Amount             float64                   `json:"amount"`
	CreatorID          string                    `json:"creator_id"`
	AssignedApproverID string                    `json:"assigned_approver_id,omitempty"`
	ApproverID         string                    `json:"approver_id,omitempty"`
	Status             string                    `json:"status"`
	DocumentURL        string                    `json:"document_url,omitempty"`
	DocumentHash       string                    `json:"document_hash,omitempty"`
	ApprovalComments   string                    `json:"approval_comments,omitempty"`
	RejectionReason    string                    `json:"rejection_reason,omitempty"`
	ApprovalHistory    []document.ApprovalAction `json:"approval_history"`
	CreatedAt          time.Time                 `json:"created_at"`
}

func toDTO(d *document.Document) *DocumentDTO {
	hist := d.ApprovalHistory
	if hist == nil {
		hist = document.History{}
	}
	return &DocumentDTO{
		DocumentID:         d.DocumentID,
		Kind:               string(d.Kind),
		Title:              d.Title,
		Reference:          d.Reference,
		Amount:             d.Amount,
		CreatorID:          d.CreatorID,
		AssignedApproverID: d.AssignedApproverID,
		ApproverID:         d.ApproverID,
		Status:             string(d.Status),
		DocumentURL:        d.DocumentURL,
		DocumentHash:       d.DocumentHash,
		ApprovalComments:   d.ApprovalComments(),
		RejectionReason:    d.RejectionReason(),
		ApprovalHistory:    hist,
		CreatedAt:          d.CreatedAt,
	}
}
