package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"procurement-backoffice/internal/domain/document"
	"procurement-backoffice/internal/integrity"
	"procurement-backoffice/internal/usecase/workflow"
)

// Verifier is the read-only integrity audit the verify endpoint exposes.
type Verifier interface {
	Verify(ctx context.Context, url, storedHashHex string) (integrity.VerifyResult, error)
}

type DocumentHandler struct {
	uc       *workflow.Usecase
	verifier Verifier
}

func NewDocumentHandler(uc *workflow.Usecase, verifier Verifier) *DocumentHandler {
	return &DocumentHandler{uc: uc, verifier: verifier}
}

// Register mounts the authenticated API for both document kinds.
func (h *DocumentHandler) Register(e *echo.Echo, idemp echo.MiddlewareFunc) {
	mount := func(kind document.Kind) {
		g := e.Group("/" + kind.RoutePrefix())
		if idemp != nil {
			g.Use(idemp)
		}
		g.POST("", h.create(kind))
		g.GET("/:document_id", h.get(kind))
		g.POST("/:document_id/submit", h.submit(kind))
		g.POST("/:document_id/approve", h.approve(kind))
		g.POST("/:document_id/reject", h.reject(kind))
		g.GET("/:document_id/verify", h.verify(kind))
	}
	mount(document.KindBudgetaryOffer)
	mount(document.KindPurchaseOrder)
}

type createDocumentReq struct {
	Title                 string  `json:"title"                   validate:"required,max=255"`
	Reference             string  `json:"reference"               validate:"max=64"`
	Amount                float64 `json:"amount"                  validate:"gte=0,dec2"`
	CreatorEmail          string  `json:"creator_email"           validate:"omitempty,email"`
	AssignedApproverID    string  `json:"assigned_approver_id"    validate:"omitempty,hex32"`
	AssignedApproverEmail string  `json:"assigned_approver_email" validate:"omitempty,email"`
}

func (h *DocumentHandler) create(kind document.Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		actor := actorID(c)
		if !reHex32.MatchString(actor) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing or invalid Ax-Actor-Id"})
		}
		var req createDocumentReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
		}
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
				Error:   "validation failed",
				Details: ToFieldErrors(err),
			})
		}
		dto, err := h.uc.Create(c.Request().Context(), workflow.CreateDocumentInput{
			Kind:                  kind,
			Title:                 req.Title,
			Reference:             req.Reference,
			Amount:                req.Amount,
			CreatorID:             actor,
			CreatorEmail:          req.CreatorEmail,
			AssignedApproverID:    req.AssignedApproverID,
			AssignedApproverEmail: req.AssignedApproverEmail,
		})
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		}
		return c.JSON(http.StatusCreated, dto)
	}
}

func (h *DocumentHandler) get(kind document.Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		dto, err := h.uc.Get(c.Request().Context(), kind, c.Param("document_id"))
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(http.StatusOK, dto)
	}
}

func (h *DocumentHandler) submit(kind document.Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		actor := actorID(c)
		if !reHex32.MatchString(actor) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing or invalid Ax-Actor-Id"})
		}
		dto, err := h.uc.Submit(c.Request().Context(), kind, c.Param("document_id"), actor)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(http.StatusOK, dto)
	}
}

type approveReq struct {
	Comments string `json:"comments" validate:"max=2000"`
}

func (h *DocumentHandler) approve(kind document.Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		actor := actorID(c)
		if !reHex32.MatchString(actor) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing or invalid Ax-Actor-Id"})
		}
		var req approveReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
		}
		dto, err := h.uc.Approve(c.Request().Context(), kind, c.Param("document_id"), actor, req.Comments)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(http.StatusOK, dto)
	}
}

type rejectReq struct {
	Reason string `json:"reason" validate:"max=2000"`
}

func (h *DocumentHandler) reject(kind document.Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		actor := actorID(c)
		if !reHex32.MatchString(actor) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing or invalid Ax-Actor-Id"})
		}
		var req rejectReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
		}
		dto, err := h.uc.Reject(c.Request().Context(), kind, c.Param("document_id"), actor, req.Reason)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(http.StatusOK, dto)
	}
}

// verify re-hashes the stored PDF and reports whether it still matches the
// hash recorded at render time. Read-only; callable in any status.
func (h *DocumentHandler) verify(kind document.Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		dto, err := h.uc.Get(c.Request().Context(), kind, c.Param("document_id"))
		if err != nil {
			return writeDomainError(c, err)
		}
		if dto.DocumentURL == "" || dto.DocumentHash == "" {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "document has no rendered copy to verify"})
		}
		res, err := h.verifier.Verify(c.Request().Context(), dto.DocumentURL, dto.DocumentHash)
		if err != nil {
			return c.JSON(http.StatusBadGateway, ErrorResponse{Error: "stored copy could not be retrieved"})
		}
		return c.JSON(http.StatusOK, res)
	}
}
