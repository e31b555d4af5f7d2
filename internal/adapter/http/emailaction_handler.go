package http

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"procurement-backoffice/internal/domain/document"
	"procurement-backoffice/internal/token"
	"procurement-backoffice/internal/usecase/workflow"
)

// EmailActionHandler is the unauthenticated surface behind the emailed
// approve/reject links. The token itself is the credential: the acting
// identity comes from the verified payload, never from a session.
type EmailActionHandler struct {
	uc       *workflow.Usecase
	codec    *token.Codec
	consumed *token.ConsumedTokens
}

// NewEmailActionHandler wires the endpoint. consumed may be nil; replay is
// then contained by the conditional status write alone.
func NewEmailActionHandler(uc *workflow.Usecase, codec *token.Codec, consumed *token.ConsumedTokens) *EmailActionHandler {
	return &EmailActionHandler{uc: uc, codec: codec, consumed: consumed}
}

func (h *EmailActionHandler) Register(e *echo.Echo) {
	mount := func(kind document.Kind) {
		g := e.Group("/" + kind.RoutePrefix())
		g.GET("/email-approve/:token", h.action(kind, token.ActionApprove))
		g.GET("/email-reject/:token", h.action(kind, token.ActionReject))
	}
	mount(document.KindBudgetaryOffer)
	mount(document.KindPurchaseOrder)
}

func (h *EmailActionHandler) action(kind document.Kind, act token.Action) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := c.Param("token")
		p, err := h.codec.Verify(raw)
		if err != nil {
			return errorPage(c, http.StatusBadRequest,
				"This approval link is invalid or has expired. Ask the submitter to send the document again.")
		}
		if p.Action != act {
			return errorPage(c, http.StatusBadRequest,
				"This link cannot be used for that action.")
		}
		if h.consumed != nil {
			used, err := h.consumed.Used(c.Request().Context(), raw)
			if err != nil {
				log.Printf("email-action: consumed lookup failed: %v", err)
			} else if used {
				return errorPage(c, http.StatusBadRequest,
					"This link has already been used.")
			}
		}

		field, label, required := "comments", "Comments (optional)", false
		if act == token.ActionReject {
			field, label, required = "reason", "Reason for rejection", true
		}

		// First visit: no free-text yet, show the form. The form resubmits
		// the same URL via GET with the text as a query parameter.
		if !c.QueryParams().Has(field) {
			verb := "Approve"
			if act == token.ActionReject {
				verb = "Reject"
			}
			return renderPage(c, http.StatusOK, pageData{
				Title:         verb + " document",
				Heading:       verb + " " + kind.Label(),
				Message:       fmt.Sprintf("You are about to %s this %s as %s.", string(act), kind.Label(), p.ActorEmail),
				FieldName:     field,
				FieldLabel:    label,
				FieldRequired: required,
				SubmitLabel:   "Confirm " + verb,
			})
		}

		// The browser enforces a non-empty reason; the server does not trust
		// that and accepts an empty string.
		text := c.QueryParam(field)

		var dto *workflow.DocumentDTO
		switch act {
		case token.ActionApprove:
			dto, err = h.uc.Approve(c.Request().Context(), kind, p.DocumentID, p.ActorID, text)
		case token.ActionReject:
			dto, err = h.uc.Reject(c.Request().Context(), kind, p.DocumentID, p.ActorID, text)
		}
		if err != nil {
			return h.workflowErrorPage(c, err)
		}

		h.markUsed(c, raw, p)

		return renderPage(c, http.StatusOK, pageData{
			Title:   "Done",
			Heading: "Thank you",
			Message: fmt.Sprintf("The %s %q is now %s.", kind.Label(), dto.Title, dto.Status),
		})
	}
}

func (h *EmailActionHandler) workflowErrorPage(c echo.Context, err error) error {
	switch {
	case errors.Is(err, document.ErrNotFound):
		return errorPage(c, http.StatusNotFound, "The document behind this link no longer exists.")
	case errors.Is(err, document.ErrInvalidState):
		return errorPage(c, http.StatusBadRequest, "This document has already been processed.")
	case errors.Is(err, document.ErrForbidden):
		return errorPage(c, http.StatusForbidden, "You are not the assigned approver for this document.")
	default:
		return errorPage(c, http.StatusInternalServerError, "The action could not be completed. Please try again later.")
	}
}

// markUsed is best-effort: losing it means a replay falls through to the
// conditional write and fails there instead.
func (h *EmailActionHandler) markUsed(c echo.Context, raw string, p token.Payload) {
	if h.consumed == nil {
		return
	}
	expires := time.UnixMilli(p.ExpiresAtEpochMillis)
	if _, err := h.consumed.MarkUsed(c.Request().Context(), raw, expires); err != nil {
		log.Printf("email-action: marking token used failed: %v", err)
	}
}
