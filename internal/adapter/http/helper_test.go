package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"procurement-backoffice/internal/domain/document"
	"procurement-backoffice/internal/testutil/documentmock"
	"procurement-backoffice/internal/token"
	"procurement-backoffice/internal/usecase/workflow"
)

// ---- shared test helpers ----

func newEchoWithValidator() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = NewValidator()
	return e
}

func mustJSON(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return bytes.NewReader(b)
}

var (
	tCreatorID  = strings.Repeat("c", 32)
	tApproverID = strings.Repeat("1", 32)
	tDocID      = strings.Repeat("d", 32)
)

func pendingTestDoc() *document.Document {
	return &document.Document{
		DocumentID:            tDocID,
		Kind:                  document.KindBudgetaryOffer,
		Title:                 "Standing desks",
		CreatorID:             tCreatorID,
		CreatorEmail:          "creator@example.com",
		AssignedApproverID:    tApproverID,
		AssignedApproverEmail: "approver@example.com",
		Status:                document.StatusPendingApproval,
		DocumentURL:           "http://minio:9000/documents/budgetary_offer/" + tDocID + ".pdf",
		DocumentHash:          strings.Repeat("0", 64),
		ApprovalHistory: document.History{{
			ActionType:     document.ActionSubmit,
			UserID:         tCreatorID,
			Timestamp:      time.Now().UTC().Format(time.RFC3339),
			PreviousStatus: document.StatusDraft,
			NewStatus:      document.StatusPendingApproval,
		}},
	}
}

type stubIntegrity struct {
	url  string
	hash string
	err  error
}

func (s *stubIntegrity) Render(ctx context.Context, d *document.Document) (string, string, error) {
	return s.url, s.hash, s.err
}

func newWorkflowUsecase(repo *documentmock.Repo, integ workflow.Integrity) *workflow.Usecase {
	return workflow.NewUsecase(repo, integ, token.NewCodec([]byte("handler-test-secret")), nil, 0)
}
