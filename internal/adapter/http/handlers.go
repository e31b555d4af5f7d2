package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"procurement-backoffice/internal/domain/document"
)

type Handler struct{}

func NewHandler() *Handler { return &Handler{} }

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// writeDomainError maps workflow errors onto the API's structured payloads.
func writeDomainError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, document.ErrNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "document not found"})
	case errors.Is(err, document.ErrForbidden):
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: "actor not allowed to act on this document"})
	case errors.Is(err, document.ErrInvalidState):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "transition not allowed from current status"})
	case errors.Is(err, document.ErrRenderFailure):
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "document rendering failed; nothing was submitted"})
	default:
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

// actorID pulls the authenticated actor from the gateway-populated header.
func actorID(c echo.Context) string {
	return c.Request().Header.Get("Ax-Actor-Id")
}
