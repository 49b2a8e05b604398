package presenter

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/totegamma/invoice-dashboard/internal/domain"
)

// HeaderRedirectType tells a client-side router whether to push or replace
// the history entry when following a redirect.
const HeaderRedirectType = "X-Redirect-Type"

type errorResponse struct {
	Error string `json:"error"`
}

// OK wraps a successful response.
func OK(c echo.Context, payload any) error {
	return c.JSON(http.StatusOK, payload)
}

func BadRequestMessage(c echo.Context, msg string) error {
	slog.InfoContext(c.Request().Context(), "Bad request", slog.String("error", msg))
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

func Unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, errorResponse{Error: msg})
}

// InternalError logs err and answers with a generic message; raw error text
// never reaches the client.
func InternalError(c echo.Context, err error) error {
	slog.ErrorContext(c.Request().Context(), "Internal error", slog.String("error", err.Error()))
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: http.StatusText(http.StatusInternalServerError)})
}

// Redirect answers a form post with 303 See Other.
func Redirect(c echo.Context, redirect domain.Redirect) error {
	c.Response().Header().Set(HeaderRedirectType, redirect.Type.String())
	return c.Redirect(http.StatusSeeOther, redirect.Location)
}

// Action renders the outcome of an invoice mutation. failedStatus is used
// when the state carries errors.
func Action(c echo.Context, state domain.ActionState, failedStatus int) error {
	if state.Failed() {
		return c.JSON(failedStatus, state)
	}
	if state.Redirect != nil {
		return Redirect(c, *state.Redirect)
	}
	return c.JSON(http.StatusOK, state)
}
