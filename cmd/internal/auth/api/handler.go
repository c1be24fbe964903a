package authapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"japa/cmd/identity"
	"japa/cmd/internal/auth/session"
	"japa/cmd/internal/httpx"
	"japa/cmd/internal/metrics"
)

// Handler wires HTTP auth endpoints to the credential and session services.
type Handler struct {
	log *slog.Logger
	cfg Config

	creds    *identity.CredentialStore
	provider identity.Authenticator
	users    identity.Store
	sessions *session.Manager
	metrics  *metrics.Metrics

	limiter *ipLimiter
	now     func() time.Time
}

// HandlerOption configures optional auth handler dependencies.
type HandlerOption func(*Handler)

// WithProvider enables POST /auth/login/provider with the given authenticator.
func WithProvider(a identity.Authenticator) HandlerOption {
	return func(h *Handler) {
		if h == nil || a == nil {
			return
		}
		h.provider = a
	}
}

// WithMetrics records auth outcomes in m.
func WithMetrics(m *metrics.Metrics) HandlerOption {
	return func(h *Handler) {
		if h == nil {
			return
		}
		h.metrics = m
	}
}

// NewHandler constructs an auth Handler.
func NewHandler(log *slog.Logger, cfg Config, creds *identity.CredentialStore, users identity.Store, sessions *session.Manager, opts ...HandlerOption) (*Handler, error) {
	if creds == nil || users == nil || sessions == nil {
		return nil, errors.New("auth: credential store, user store and session manager are required")
	}
	if log == nil {
		log = slog.Default()
	}

	h := &Handler{
		log:      log,
		cfg:      cfg,
		creds:    creds,
		users:    users,
		sessions: sessions,
		limiter:  newIPLimiter(cfg.LoginRate, cfg.LoginBurst, cfg.LimiterIdleTTL),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(h)
	}
	return h, nil
}

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/auth/register", h.handleRegister)
	mux.HandleFunc("/auth/login", h.handleLogin)
	mux.HandleFunc("/auth/login/provider", h.handleProviderLogin)
	mux.HandleFunc("/auth/validate-session", h.handleValidateSession)
}

// ---- handlers ----

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.MethodNotAllowed(w, http.MethodPost)
		return
	}

	ctx := r.Context()
	ip := httpx.ClientIP(r, h.cfg.TrustProxy)
	if ok, retryAfter := h.limiter.allow(ip, h.now()); !ok {
		h.auditRateLimited(ctx, "register", ip)
		writeRateLimited(w, retryAfter)
		return
	}

	var req registerRequest
	if err := httpx.DecodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	user, err := h.creds.Register(ctx, identity.RegisterInput{
		Phone:       strings.TrimSpace(req.Phone),
		PIN:         firstNonEmpty(req.PIN, req.MPIN),
		DisplayName: firstNonNil(req.DisplayName, req.FullName),
		Now:         h.now(),
	})
	if err != nil {
		if identity.IsInvalidInput(err) {
			h.metrics.AuthAttempt("register", "invalid_request")
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", validationMessage(err))
			return
		}
		h.log.Error("auth.register.fail", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	h.auditRegistered(ctx, ip, user.ID)
	httpx.WriteJSON(w, http.StatusOK, toRegisterResponse(user))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.MethodNotAllowed(w, http.MethodPost)
		return
	}

	var req loginRequest
	if err := httpx.DecodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	h.login(w, r, "pin", identity.Credential{
		Phone: strings.TrimSpace(req.Phone),
		PIN:   firstNonEmpty(req.PIN, req.MPIN),
	}, h.creds)
}

func (h *Handler) handleProviderLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.MethodNotAllowed(w, http.MethodPost)
		return
	}
	if h.provider == nil {
		httpx.WriteError(w, http.StatusNotFound, "provider_disabled", "provider login is not configured")
		return
	}

	var req providerLoginRequest
	if err := httpx.DecodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	h.login(w, r, "provider", identity.Credential{IDToken: strings.TrimSpace(req.IDToken)}, h.provider)
}

// login is shared by both credential paths: authenticate, then issue a
// session that replaces any earlier one for the user.
func (h *Handler) login(w http.ResponseWriter, r *http.Request, method string, cred identity.Credential, auth identity.Authenticator) {
	ctx := r.Context()
	ip := httpx.ClientIP(r, h.cfg.TrustProxy)

	if ok, retryAfter := h.limiter.allow(ip, h.now()); !ok {
		h.auditRateLimited(ctx, method, ip)
		writeRateLimited(w, retryAfter)
		return
	}

	user, err := auth.Authenticate(ctx, cred)
	if err != nil {
		switch {
		case identity.IsInvalidInput(err):
			h.auditLoginFailed(ctx, method, ip, cred.Phone, "invalid_request")
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", validationMessage(err))
		case identity.IsNotFound(err):
			h.auditLoginFailed(ctx, method, ip, cred.Phone, "not_found")
			httpx.WriteError(w, http.StatusNotFound, "user_not_found", "no user is registered with this phone")
		case identity.IsUnauthorized(err):
			h.auditLoginFailed(ctx, method, ip, cred.Phone, "invalid_credentials")
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
		default:
			h.metrics.AuthAttempt(method, "error")
			h.log.Error("auth.login.authenticate.fail", "method", method, "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
		}
		return
	}

	issued, err := h.sessions.Issue(ctx, h.now(), session.Subject{UserID: user.ID, Phone: user.Phone})
	if err != nil {
		h.metrics.AuthAttempt(method, "error")
		h.log.Error("auth.login.issue_session.fail", "user_id", user.ID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	h.auditLoginSuccess(ctx, method, ip, user.ID)
	httpx.WriteJSON(w, http.StatusOK, toLoginResponse(user, issued))
}

func (h *Handler) handleValidateSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		httpx.MethodNotAllowed(w, "GET, POST")
		return
	}

	id, ok := httpx.RequireIdentity(w, r, h.sessions, h.log)
	if !ok {
		return
	}

	resp := validateResponse{UserID: id.UserID, Phone: id.Phone}
	// The name is a convenience; a lookup failure does not fail validation.
	if u, err := h.users.GetUserByID(r.Context(), id.UserID); err == nil {
		resp.DisplayName = u.DisplayName
	} else if !identity.IsNotFound(err) {
		h.log.Warn("auth.validate.user_lookup.fail", "user_id", id.UserID, "err", err)
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}

// validationMessage returns the client-safe part of an identity validation error.
func validationMessage(err error) string {
	var op identity.OpError
	if errors.As(err, &op) && op.Msg != "" {
		return op.Msg
	}
	return "invalid request"
}
