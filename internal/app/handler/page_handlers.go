package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/atinyakov/go-link-gate/internal/app/service"
	"github.com/atinyakov/go-link-gate/internal/middleware"
	"github.com/atinyakov/go-link-gate/internal/models"
	"github.com/atinyakov/go-link-gate/internal/storage"
)

const (
	RegisteredText     = "Request Sent! Please wait for Admin approval."
	NameTakenText      = "Username already taken or Error."
	PendingText        = "Account Pending Approval by Admin"
	AliasTakenText     = "This name is already taken!"
	requestTimeout     = 3 * time.Second
	maxFormMemoryBytes = 1 << 20
)

// PageHandler serves the HTML management routes of the canonical host.
type PageHandler struct {
	accounts service.AccountServiceIface
	links    service.LinkServiceIface
	auth     service.AuthIface
	views    *Views
	logger   *zap.Logger
	secure   bool
}

// NewPages builds the management handlers. secure marks the session cookie
// Secure and should match whether the server terminates TLS.
func NewPages(a service.AccountServiceIface, s service.LinkServiceIface, auth service.AuthIface, views *Views, l *zap.Logger, secure bool) *PageHandler {
	return &PageHandler{
		accounts: a,
		links:    s,
		auth:     auth,
		views:    views,
		logger:   l,
		secure:   secure,
	}
}

func (h *PageHandler) LoginPage(res http.ResponseWriter, req *http.Request) {
	h.views.Render(res, http.StatusOK, "login.html", map[string]any{"Title": "Login"})
}

func (h *PageHandler) RegisterPage(res http.ResponseWriter, req *http.Request) {
	h.views.Render(res, http.StatusOK, "register.html", map[string]any{"Title": "Register"})
}

func (h *PageHandler) Register(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	if err := req.ParseForm(); err != nil {
		http.Error(res, "Bad Request", http.StatusBadRequest)
		return
	}

	_, err := h.accounts.Register(ctx, req.PostFormValue("username"), req.PostFormValue("password"))

	var verrs validator.ValidationErrors
	switch {
	case err == nil:
		writeText(res, http.StatusOK, RegisteredText)
	case errors.As(err, &verrs):
		http.Error(res, "Username must be 3-32 letters or digits and password at least 6 characters.", http.StatusBadRequest)
	case errors.Is(err, storage.ErrDuplicate):
		http.Error(res, NameTakenText, http.StatusConflict)
	default:
		h.logger.Error("register failed", zap.Error(err))
		http.Error(res, NameTakenText, http.StatusInternalServerError)
	}
}

func (h *PageHandler) Login(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	if err := req.ParseForm(); err != nil {
		http.Redirect(res, req, "/", http.StatusFound)
		return
	}

	account, err := h.accounts.Authenticate(ctx, req.PostFormValue("username"), req.PostFormValue("password"))
	switch {
	case errors.Is(err, service.ErrPendingApproval):
		http.Error(res, PendingText, http.StatusForbidden)
		return
	case errors.Is(err, service.ErrInvalidCredentials):
		http.Redirect(res, req, "/", http.StatusFound)
		return
	case err != nil:
		h.logger.Error("login failed", zap.Error(err))
		http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	token, err := h.auth.BuildJWTString(models.Principal{Name: account.Name, Role: account.Role})
	if err != nil {
		h.logger.Error("cannot sign session", zap.Error(err))
		http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	middleware.SetSession(res, token, h.secure)

	if account.IsAdmin() {
		http.Redirect(res, req, "/admin", http.StatusFound)
		return
	}
	http.Redirect(res, req, "/dashboard", http.StatusFound)
}

func (h *PageHandler) Logout(res http.ResponseWriter, req *http.Request) {
	middleware.ClearSession(res)
	http.Redirect(res, req, "/", http.StatusFound)
}

type dashboardLink struct {
	models.Link
	ShortURL  string
	TenantURL string
}

func (h *PageHandler) Dashboard(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	account, ok := middleware.AccountFrom(req.Context())
	if !ok {
		http.Redirect(res, req, "/", http.StatusFound)
		return
	}

	links, err := h.links.List(ctx, account.Name)
	if err != nil {
		h.logger.Error("cannot list links", zap.String("owner", account.Name), zap.Error(err))
		http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	rows := make([]dashboardLink, 0, len(links))
	for _, l := range links {
		rows = append(rows, dashboardLink{Link: l, ShortURL: h.links.ShortURL(l), TenantURL: h.links.TenantURL(l)})
	}

	h.views.Render(res, http.StatusOK, "dashboard.html", map[string]any{
		"Title":   "Dashboard",
		"Account": account,
		"Links":   rows,
	})
}

func (h *PageHandler) Shorten(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	account, ok := middleware.AccountFrom(req.Context())
	if !ok {
		http.Redirect(res, req, "/", http.StatusFound)
		return
	}

	if err := req.ParseMultipartForm(maxFormMemoryBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		http.Error(res, "Bad Request", http.StatusBadRequest)
		return
	}

	_, err := h.links.Shorten(ctx, account.Name, req.FormValue("originalUrl"), req.FormValue("customAlias"))
	switch {
	case err == nil:
		http.Redirect(res, req, "/dashboard", http.StatusFound)
	case errors.Is(err, storage.ErrDuplicate):
		http.Error(res, AliasTakenText, http.StatusConflict)
	case errors.Is(err, service.ErrEmptyURL), errors.Is(err, service.ErrInvalidAlias):
		http.Error(res, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("shorten failed", zap.String("owner", account.Name), zap.Error(err))
		http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *PageHandler) Admin(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	accounts, err := h.accounts.List(ctx)
	if err != nil {
		h.logger.Error("cannot list accounts", zap.Error(err))
		http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.views.Render(res, http.StatusOK, "admin.html", map[string]any{
		"Title":    "Admin",
		"Accounts": accounts,
	})
}

func (h *PageHandler) Approve(res http.ResponseWriter, req *http.Request) {
	h.adminAction(res, req, func(ctx context.Context, name string) error {
		return h.accounts.Approve(ctx, name)
	})
}

func (h *PageHandler) SetPlan(res http.ResponseWriter, req *http.Request) {
	h.adminAction(res, req, func(ctx context.Context, name string) error {
		return h.accounts.SetPlan(ctx, name, models.Plan(req.PostFormValue("plan")))
	})
}

func (h *PageHandler) Delete(res http.ResponseWriter, req *http.Request) {
	h.adminAction(res, req, func(ctx context.Context, name string) error {
		return h.accounts.Delete(ctx, name)
	})
}

func (h *PageHandler) adminAction(res http.ResponseWriter, req *http.Request, action func(ctx context.Context, name string) error) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	name := chi.URLParam(req, "name")
	err := action(ctx, name)
	switch {
	case err == nil:
		http.Redirect(res, req, "/admin", http.StatusFound)
	case errors.Is(err, storage.ErrNotFound):
		http.Error(res, "Account not found", http.StatusNotFound)
	case errors.Is(err, service.ErrInvalidPlan):
		http.Error(res, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("admin action failed", zap.String("account", name), zap.String("path", req.URL.Path), zap.Error(err))
		http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func writeText(res http.ResponseWriter, status int, msg string) {
	res.Header().Set("Content-Type", "text/plain; charset=utf-8")
	res.WriteHeader(status)
	_, _ = res.Write([]byte(msg))
}
