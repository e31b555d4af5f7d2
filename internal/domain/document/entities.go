package document

import (
	"time"

	"gorm.io/gorm"
)

type Status string

const (
	StatusDraft           Status = "DRAFT"
	StatusPendingApproval Status = "PENDING_APPROVAL"
	StatusApproved        Status = "APPROVED"
	StatusRejected        Status = "REJECTED"
)

// Terminal reports whether no further transition may leave s.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

type Kind string

const (
	KindBudgetaryOffer Kind = "budgetary_offer"
	KindPurchaseOrder  Kind = "purchase_order"
)

// RoutePrefix is the URL path segment a kind is served under.
func (k Kind) RoutePrefix() string {
	if k == KindPurchaseOrder {
		return "orders"
	}
	return "offers"
}

// Label is the human-readable name used on rendered documents and emails.
func (k Kind) Label() string {
	if k == KindPurchaseOrder {
		return "Purchase Order"
	}
	return "Budgetary Offer"
}

type Document struct {
	ID         uint64 `gorm:"primaryKey;column:id" json:"-"`
	DocumentID string `gorm:"size:32;uniqueIndex:ux_documents_document_id_active" json:"document_id"`
	Kind       Kind   `gorm:"type:enum('budgetary_offer','purchase_order');index:idx_documents_kind" json:"kind"`

	Title     string  `gorm:"size:255" json:"title"`
	Reference string  `gorm:"size:64" json:"reference"`
	Amount    float64 `gorm:"type:decimal(18,2)" json:"amount"`

	CreatorID            string `gorm:"size:32;index:idx_documents_creator" json:"creator_id"`
	CreatorEmail         string `gorm:"size:255" json:"creator_email"`
	AssignedApproverID   string `gorm:"size:32" json:"assigned_approver_id"`
	AssignedApproverEmail string `gorm:"size:255" json:"assigned_approver_email"`
	// Set when a terminal transition happens; identifies who actually acted.
	ApproverID string `gorm:"size:32" json:"approver_id"`

	Status Status `gorm:"type:enum('DRAFT','PENDING_APPROVAL','APPROVED','REJECTED');default:'DRAFT'" json:"status"`

	DocumentURL  string `gorm:"type:text" json:"document_url"`
	DocumentHash string `gorm:"size:64" json:"document_hash"`

	ApprovalHistory History `gorm:"type:json" json:"approval_history"`

	StatusUpdatedAt time.Time      `gorm:"autoCreateTime" json:"status_updated_at"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
	DeletedBy       string         `gorm:"size:32" json:"-"`
}

func (Document) TableName() string { return "documents" }

// ApprovalComments returns the free text of the last APPROVE entry, derived
// from history rather than stored twice.
func (d *Document) ApprovalComments() string {
	return d.ApprovalHistory.lastComment(ActionApprove)
}

// RejectionReason returns the free text of the last REJECT entry.
func (d *Document) RejectionReason() string {
	return d.ApprovalHistory.lastComment(ActionReject)
}
