package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/totegamma/invoice-dashboard/internal/domain"
	"github.com/totegamma/invoice-dashboard/internal/infra/cache"
	"github.com/totegamma/invoice-dashboard/internal/present/rest/middleware"
	"github.com/totegamma/invoice-dashboard/internal/present/rest/presenter"
	"github.com/totegamma/invoice-dashboard/internal/service"
	"github.com/totegamma/invoice-dashboard/internal/usecase"
)

// --- mocks ---

type mockInvoiceRepo struct {
	created   []domain.Invoice
	deleted   []string
	lists     int
	amount    int64
	afterList func()
	err       error
}

func (m *mockInvoiceRepo) Create(ctx context.Context, invoice domain.Invoice) (domain.Invoice, error) {
	if m.err != nil {
		return domain.Invoice{}, m.err
	}
	invoice.ID = "inv-1"
	m.created = append(m.created, invoice)
	return invoice, nil
}

func (m *mockInvoiceRepo) Update(ctx context.Context, id string, customerID string, amount int64, status domain.InvoiceStatus) error {
	return m.err
}

func (m *mockInvoiceRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return m.err
}

func (m *mockInvoiceRepo) List(ctx context.Context, query string, page int) ([]domain.InvoiceRow, error) {
	m.lists++
	rows := []domain.InvoiceRow{{
		Invoice: domain.Invoice{ID: "inv-1", CustomerID: "c1", Amount: m.amount, Status: domain.InvoiceStatusPending, Date: "2026-10-17"},
		Name:    "Evil Rabbit",
	}}
	if m.afterList != nil {
		m.afterList()
	}
	return rows, m.err
}

func (m *mockInvoiceRepo) CountPages(ctx context.Context, query string) (int, error) {
	return 1, m.err
}

type mockUserRepo struct {
	user *domain.User
	err  error
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.user == nil || m.user.Email != email {
		return nil, nil
	}
	return m.user, nil
}

type fixture struct {
	e           *echo.Echo
	repo        *mockInvoiceRepo
	users       *mockUserRepo
	pages       *cache.PageCache
	revalidator *service.RevalidateService
	auth        *service.AuthService
	config      domain.SessionConfig
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	hasher := service.NewBcryptHasher(4)
	hash, err := hasher.Hash("123456")
	require.NoError(t, err)

	config := domain.SessionConfig{Secret: []byte("secret"), TTL: time.Hour, CookieName: "session"}
	authService := service.NewAuthService(config)
	repo := &mockInvoiceRepo{amount: 4999}
	users := &mockUserRepo{user: &domain.User{ID: "u-1", Email: "user@nextmail.com", Password: hash}}
	pages := cache.NewPageCache(nil, time.Minute, false)
	revalidator := service.NewRevalidateService(pages, nil)

	invoiceUC := usecase.NewInvoiceUsecase(repo, revalidator)
	authUC := usecase.NewAuthUsecase(&usecase.AuthConfig{
		Providers: []usecase.CredentialsProvider{
			usecase.NewCredentialsAuthorizer(usecase.NewCredentialVerifier(users, hasher)),
		},
		Sessions: authService,
	})

	h := NewHandler(config, invoiceUC, authUC, pages, nil, middleware.NewAuthMiddleware(authService, config))
	e := echo.New()
	h.RegisterRoutes(e)

	return &fixture{
		e:           e,
		repo:        repo,
		users:       users,
		pages:       pages,
		revalidator: revalidator,
		auth:        authService,
		config:      config,
	}
}

func (f *fixture) do(t *testing.T, method, target string, form url.Values, signedIn bool) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.Header.Set(echo.HeaderAccept, echo.MIMEApplicationJSON)

	if signedIn {
		session, err := f.auth.Issue(domain.User{ID: "u-1", Email: "user@nextmail.com"})
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: f.config.CookieName, Value: session.Token})
	}

	res := httptest.NewRecorder()
	f.e.ServeHTTP(res, req)
	return res
}

// --- tests ---

func TestCreateInvoiceRedirects(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	res := f.do(t, http.MethodPost, "/dashboard/invoices", url.Values{
		"customerId": {"c1"},
		"amount":     {"49.99"},
		"status":     {"pending"},
	}, true)

	req.Equal(http.StatusSeeOther, res.Code)
	req.Equal("/dashboard/invoices", res.Header().Get(echo.HeaderLocation))
	req.Equal("replace", res.Header().Get(presenter.HeaderRedirectType))
	req.Len(f.repo.created, 1)
	req.Equal(int64(4999), f.repo.created[0].Amount)
}

func TestCreateInvoiceValidationErrors(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	res := f.do(t, http.MethodPost, "/dashboard/invoices", url.Values{
		"customerId": {"c1"},
		"amount":     {"-1"},
		"status":     {"pending"},
	}, true)

	req.Equal(http.StatusUnprocessableEntity, res.Code)

	var body struct {
		Error   map[string][]string `json:"error"`
		Message string              `json:"message"`
	}
	req.NoError(json.Unmarshal(res.Body.Bytes(), &body))
	req.Equal("Missing Field. Failed to create Invoice.", body.Message)
	req.Equal([]string{"Please Enter amount greater than $0"}, body.Error["amount"])
	req.Empty(f.repo.created)
}

func TestCreateInvoiceDatabaseErrorHidesCause(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	f.repo.err = errors.New("pq: password authentication failed for user postgres")

	res := f.do(t, http.MethodPost, "/dashboard/invoices", url.Values{
		"customerId": {"c1"},
		"amount":     {"5"},
		"status":     {"paid"},
	}, true)

	req.Equal(http.StatusUnprocessableEntity, res.Code)
	req.Contains(res.Body.String(), "Database Error: Failed to Create Invoice.")
	req.NotContains(res.Body.String(), "pq:")
}

func TestUpdateInvoice(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	res := f.do(t, http.MethodPut, "/dashboard/invoices/inv-1", url.Values{
		"customerId": {"c1"},
		"amount":     {"0"},
		"status":     {"paid"},
	}, true)
	req.Equal(http.StatusUnprocessableEntity, res.Code)
	req.Contains(res.Body.String(), "Missing Field. Failed to Update Invoice.")

	res = f.do(t, http.MethodPost, "/dashboard/invoices/inv-1", url.Values{
		"customerId": {"c1"},
		"amount":     {"10"},
		"status":     {"paid"},
	}, true)
	req.Equal(http.StatusSeeOther, res.Code)
}

func TestDeleteInvoiceDoesNotNavigate(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	res := f.do(t, http.MethodDelete, "/dashboard/invoices/inv-9", nil, true)

	req.Equal(http.StatusOK, res.Code)
	req.Empty(res.Header().Get(echo.HeaderLocation))
	req.Equal([]string{"inv-9"}, f.repo.deleted)

	f.repo.err = errors.New("boom")
	res = f.do(t, http.MethodPost, "/dashboard/invoices/inv-9/delete", url.Values{}, true)
	req.Equal(http.StatusInternalServerError, res.Code)
	req.Contains(res.Body.String(), "Database Error: Failed to Delete Invoice")
}

func TestListInvoicesIsCachedUntilRevalidated(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	res := f.do(t, http.MethodGet, "/dashboard/invoices?page=1", nil, true)
	req.Equal(http.StatusOK, res.Code)
	req.Equal("MISS", res.Header().Get("X-Cache"))
	req.Contains(res.Body.String(), "Evil Rabbit")

	res = f.do(t, http.MethodGet, "/dashboard/invoices", nil, true)
	req.Equal("HIT", res.Header().Get("X-Cache"))
	req.Equal(1, f.repo.lists)

	res = f.do(t, http.MethodDelete, "/dashboard/invoices/inv-1", nil, true)
	req.Equal(http.StatusOK, res.Code)

	res = f.do(t, http.MethodGet, "/dashboard/invoices", nil, true)
	req.Equal("MISS", res.Header().Get("X-Cache"))
	req.Equal(2, f.repo.lists)
}

func TestListInvoicesReadOverlappingWriteIsNotCached(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	// the listing query reads amount 100, then an update commits and revalidates
	f.repo.amount = 100
	f.repo.afterList = func() {
		f.repo.afterList = nil
		f.repo.amount = 200
		req.NoError(f.revalidator.Revalidate(context.Background(), domain.InvoicesPath))
	}

	res := f.do(t, http.MethodGet, "/dashboard/invoices", nil, true)
	req.Equal("MISS", res.Header().Get("X-Cache"))
	req.Contains(res.Body.String(), `"amount":100`)

	res = f.do(t, http.MethodGet, "/dashboard/invoices", nil, true)
	req.Equal("MISS", res.Header().Get("X-Cache"))
	req.Contains(res.Body.String(), `"amount":200`)

	res = f.do(t, http.MethodGet, "/dashboard/invoices", nil, true)
	req.Equal("HIT", res.Header().Get("X-Cache"))
	req.Contains(res.Body.String(), `"amount":200`)
}

func TestListInvoicesRejectsBadPage(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	res := f.do(t, http.MethodGet, "/dashboard/invoices?page=zero", nil, true)
	req.Equal(http.StatusBadRequest, res.Code)
}

func TestDashboardRequiresSession(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	res := f.do(t, http.MethodPost, "/dashboard/invoices", url.Values{"customerId": {"c1"}}, false)
	req.Equal(http.StatusUnauthorized, res.Code)
	req.Empty(f.repo.created)
}

func TestLogin(t *testing.T) {
	t.Run("success sets the session cookie", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)

		res := f.do(t, http.MethodPost, "/login", url.Values{
			"email":    {"user@nextmail.com"},
			"password": {"123456"},
		}, false)

		req.Equal(http.StatusSeeOther, res.Code)
		req.Equal("/dashboard", res.Header().Get(echo.HeaderLocation))
		cookies := res.Result().Cookies()
		req.Len(cookies, 1)
		req.Equal("session", cookies[0].Name)
		req.True(cookies[0].HttpOnly)

		result, err := f.auth.AuthJwt(context.Background(), cookies[0].Value)
		req.NoError(err)
		req.Equal("u-1", result.UserID)
	})

	t.Run("wrong password returns CredentialsSignin", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)

		res := f.do(t, http.MethodPost, "/login", url.Values{
			"email":    {"user@nextmail.com"},
			"password": {"654321"},
		}, false)

		req.Equal(http.StatusUnauthorized, res.Code)
		req.JSONEq(`{"error":"CredentialsSignin"}`, res.Body.String())
	})

	t.Run("lookup failure is fatal", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)
		f.users.err = domain.ErrLookupFailed

		res := f.do(t, http.MethodPost, "/login", url.Values{
			"email":    {"user@nextmail.com"},
			"password": {"123456"},
		}, false)

		req.Equal(http.StatusInternalServerError, res.Code)
		req.NotContains(res.Body.String(), "CredentialsSignin")
	})

	t.Run("redirect target stays local", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)

		res := f.do(t, http.MethodPost, "/login", url.Values{
			"email":      {"user@nextmail.com"},
			"password":   {"123456"},
			"redirectTo": {"//evil.example.com"},
		}, false)

		req.Equal("/dashboard", res.Header().Get(echo.HeaderLocation))
	})
}

func TestLogoutClearsCookie(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	res := f.do(t, http.MethodPost, "/logout", nil, true)

	req.Equal(http.StatusSeeOther, res.Code)
	req.Equal("/login", res.Header().Get(echo.HeaderLocation))
	cookies := res.Result().Cookies()
	req.Len(cookies, 1)
	req.Empty(cookies[0].Value)
}
