package document

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

type ActionType string

const (
	ActionSubmit  ActionType = "SUBMIT"
	ActionApprove ActionType = "APPROVE"
	ActionReject  ActionType = "REJECT"
)

// ApprovalAction is one audit-trail entry. PreviousStatus/NewStatus are
// captured at the moment of the transition; they are never recomputed.
type ApprovalAction struct {
	ActionType     ActionType `json:"actionType"`
	UserID         string     `json:"userId"`
	Timestamp      string     `json:"timestamp"` // RFC3339 UTC
	Comments       string     `json:"comments,omitempty"`
	PreviousStatus Status     `json:"previousStatus"`
	NewStatus      Status     `json:"newStatus"`
}

// History is the append-only audit trail, persisted as a JSON column.
// Insertion order is the audit order and must never change.
type History []ApprovalAction

func (h History) Value() (driver.Value, error) {
	if h == nil {
		h = History{}
	}
	b, err := json.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("marshal approval history: %w", err)
	}
	return string(b), nil
}

func (h *History) Scan(src any) error {
	if src == nil {
		*h = History{}
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("scan approval history: unsupported type %T", src)
	}
	if len(b) == 0 {
		*h = History{}
		return nil
	}
	return json.Unmarshal(b, h)
}

// Last returns the most recent entry, if any.
func (h History) Last() (ApprovalAction, bool) {
	if len(h) == 0 {
		return ApprovalAction{}, false
	}
	return h[len(h)-1], true
}

func (h History) lastComment(t ActionType) string {
	last, ok := h.Last()
	if !ok || last.ActionType != t {
		return ""
	}
	return last.Comments
}
