package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/totegamma/invoice-dashboard/internal/domain"
	"github.com/totegamma/invoice-dashboard/internal/infra/cache"
	"github.com/totegamma/invoice-dashboard/internal/present/rest/middleware"
	"github.com/totegamma/invoice-dashboard/internal/present/rest/presenter"
	"github.com/totegamma/invoice-dashboard/internal/usecase"
)

// PageCache caches rendered listing pages per path and query variant. Set
// takes the version returned by the Get that missed.
type PageCache interface {
	Get(path, variant string) ([]byte, cache.Version, bool)
	Set(path, variant string, version cache.Version, body []byte) error
}

// Realtime streams revalidation events until ctx is done.
type Realtime interface {
	Realtime(ctx context.Context, output chan<- domain.RevalidateEvent) error
}

type Handler struct {
	session  domain.SessionConfig
	invoice  *usecase.InvoiceUsecase
	auth     *usecase.AuthUsecase
	pages    PageCache
	realtime Realtime
	guard    *middleware.AuthMiddleware
}

func NewHandler(
	session domain.SessionConfig,
	invoice *usecase.InvoiceUsecase,
	auth *usecase.AuthUsecase,
	pages PageCache,
	realtime Realtime,
	guard *middleware.AuthMiddleware,
) *Handler {
	return &Handler{
		session:  session,
		invoice:  invoice,
		auth:     auth,
		pages:    pages,
		realtime: realtime,
		guard:    guard,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.handleHealth)
	e.POST("/login", h.handleLogin)
	e.POST("/logout", h.handleLogout)

	dashboard := e.Group(domain.DashboardRoute, h.guard.IdentifyIdentity, h.guard.RequireSession)
	dashboard.GET("/invoices", h.handleListInvoices)
	dashboard.POST("/invoices", h.handleCreateInvoice)
	dashboard.POST("/invoices/:id", h.handleUpdateInvoice)
	dashboard.PUT("/invoices/:id", h.handleUpdateInvoice)
	dashboard.POST("/invoices/:id/delete", h.handleDeleteInvoice)
	dashboard.DELETE("/invoices/:id", h.handleDeleteInvoice)

	if h.realtime != nil {
		dashboard.GET("/realtime", h.handleRealtime)
	}
}

func (h *Handler) handleHealth(c echo.Context) error {
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleListInvoices(c echo.Context) error {
	ctx := c.Request().Context()

	query := strings.TrimSpace(c.QueryParam("query"))
	page := 1
	if raw := c.QueryParam("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return presenter.BadRequestMessage(c, "invalid page")
		}
		page = parsed
	}

	path := domain.NormalizePath(domain.InvoicesPath)
	variant := url.Values{"query": {query}, "page": {strconv.Itoa(page)}}.Encode()

	body, version, found := h.pages.Get(path, variant)
	if found {
		c.Response().Header().Set("X-Cache", "HIT")
		return c.JSONBlob(http.StatusOK, body)
	}

	result, err := h.invoice.List(ctx, query, page)
	if err != nil {
		return presenter.InternalError(c, err)
	}

	body, err = json.Marshal(result)
	if err != nil {
		return presenter.InternalError(c, err)
	}

	if err := h.pages.Set(path, variant, version, body); err != nil {
		slog.WarnContext(
			ctx, "Failed to cache invoice listing",
			slog.String("error", err.Error()),
			slog.String("module", "rest"),
		)
	}

	c.Response().Header().Set("X-Cache", "MISS")
	return c.JSONBlob(http.StatusOK, body)
}

func (h *Handler) handleCreateInvoice(c echo.Context) error {
	ctx := c.Request().Context()

	form, err := c.FormParams()
	if err != nil {
		return presenter.BadRequestMessage(c, "invalid form")
	}

	state := h.invoice.Create(ctx, domain.ActionState{}, form)
	return presenter.Action(c, state, http.StatusUnprocessableEntity)
}

func (h *Handler) handleUpdateInvoice(c echo.Context) error {
	ctx := c.Request().Context()

	form, err := c.FormParams()
	if err != nil {
		return presenter.BadRequestMessage(c, "invalid form")
	}

	state := h.invoice.Update(ctx, c.Param("id"), form)
	return presenter.Action(c, state, http.StatusUnprocessableEntity)
}

func (h *Handler) handleDeleteInvoice(c echo.Context) error {
	ctx := c.Request().Context()

	state := h.invoice.Delete(ctx, c.Param("id"))
	return presenter.Action(c, state, http.StatusInternalServerError)
}

func (h *Handler) handleLogin(c echo.Context) error {
	ctx := c.Request().Context()

	form, err := c.FormParams()
	if err != nil {
		return presenter.BadRequestMessage(c, "invalid form")
	}

	code, session, err := h.auth.Authenticate(ctx, "", form)
	if err != nil {
		return presenter.InternalError(c, err)
	}
	if code != "" {
		return presenter.Unauthorized(c, code)
	}

	c.SetCookie(&http.Cookie{
		Name:     h.session.CookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.session.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	return presenter.Redirect(c, domain.Redirect{
		Location: safeRedirect(form.Get("redirectTo")),
		Type:     domain.RedirectReplace,
	})
}

func (h *Handler) handleLogout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     h.session.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.session.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return presenter.Redirect(c, domain.Redirect{Location: domain.LoginRoute, Type: domain.RedirectReplace})
}

// safeRedirect only follows local paths.
func safeRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return domain.DashboardRoute
	}
	return target
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func (h *Handler) handleRealtime(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	defer func() {
		ws.Close()
	}()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	output := make(chan domain.RevalidateEvent)
	go func() {
		err := h.realtime.Realtime(ctx, output)
		if err != nil && ctx.Err() == nil {
			slog.ErrorContext(
				ctx, "Realtime subscription ended",
				slog.String("error", err.Error()),
				slog.String("module", "socket"),
			)
		}
		cancel()
	}()

	// the client only sends heartbeats; reading detects when it goes away
	go func() {
		defer cancel()
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				wsErr, ok := err.(*websocket.CloseError)
				if !ok || !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
					slog.DebugContext(
						ctx, "WebSocket closed",
						slog.String("error", err.Error()),
						slog.String("module", "socket"),
					)
				}
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event := <-output:
			err := ws.WriteJSON(event)
			if err != nil {
				slog.ErrorContext(
					ctx, "Error writing message",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				return nil
			}
		}
	}
}
