package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/clinidoc-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/clinidoc-api/services/auth-service/internal/payload"
	"github.com/vasapolrittideah/clinidoc-api/services/auth-service/internal/usecase"
	"github.com/vasapolrittideah/clinidoc-api/shared/metrics"
)

const maxBodyBytes = 1 << 20

var errInvalidBody = errors.New("invalid request body")

// AuthHTTPHandler serves the authentication and user administration API.
type AuthHTTPHandler struct {
	authUsecase usecase.AuthUsecase
	guard       *usecase.AccessGuard
	validator   *requestValidator
	metrics     *metrics.Metrics
	logger      *zerolog.Logger
}

func NewAuthHTTPHandler(
	authUsecase usecase.AuthUsecase,
	guard *usecase.AccessGuard,
	m *metrics.Metrics,
	logger *zerolog.Logger,
) *AuthHTTPHandler {
	return &AuthHTTPHandler{
		authUsecase: authUsecase,
		guard:       guard,
		validator:   newRequestValidator(),
		metrics:     m,
		logger:      logger,
	}
}

// Routes returns the versioned API router, meant to be mounted at /api/v1.
func (h *AuthHTTPHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
		r.Post("/login/oauth", h.loginOAuth)
		r.Post("/refresh", h.refresh)

		r.With(h.OptionalAuth).Get("/session", h.session)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireAuth)
			r.Post("/logout", h.logout)
			r.Get("/me", h.me)
			r.Get("/verify-token", h.verifyToken)
		})
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.With(h.RequireRole(model.SupervisorRoles...)).Get("/{id}", h.getUser)
		r.With(h.RequireRole(model.AdminRoles...)).Patch("/{id}", h.updateUser)
	})

	return r
}

func (h *AuthHTTPHandler) register(w http.ResponseWriter, r *http.Request) {
	var req payload.RegisterRequest
	if !h.decode(w, r, "register", &req) {
		return
	}

	user, err := h.authUsecase.Register(r.Context(), usecase.RegisterParams{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Role:     model.Role(req.Role),
	})
	if err != nil {
		h.fail(w, "register", err)
		return
	}

	h.metrics.ObserveAuth("register", "ok")
	writeJSON(w, http.StatusCreated, payload.NewUserResponse(user))
}

func (h *AuthHTTPHandler) login(w http.ResponseWriter, r *http.Request) {
	var req payload.LoginRequest
	if !h.decode(w, r, "login", &req) {
		return
	}

	user, err := h.authUsecase.Login(r.Context(), usecase.LoginParams{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.fail(w, "login", err)
		return
	}

	h.writeLogin(w, "login", user)
}

func (h *AuthHTTPHandler) loginOAuth(w http.ResponseWriter, r *http.Request) {
	var req payload.OAuthLoginRequest
	if !h.decode(w, r, "login_oauth", &req) {
		return
	}

	user, err := h.authUsecase.LoginOAuth(r.Context(), usecase.OAuthLoginParams{
		Provider:    req.Provider,
		AccessToken: req.AccessToken,
	})
	if err != nil {
		h.fail(w, "login_oauth", err)
		return
	}

	h.writeLogin(w, "login_oauth", user)
}

func (h *AuthHTTPHandler) refresh(w http.ResponseWriter, r *http.Request) {
	var req payload.RefreshRequest
	if !h.decode(w, r, "refresh", &req) {
		return
	}

	tokens, err := h.authUsecase.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.fail(w, "refresh", err)
		return
	}

	h.metrics.ObserveAuth("refresh", "ok")
	writeJSON(w, http.StatusOK, payload.TokenResponse(*tokens))
}

func (h *AuthHTTPHandler) logout(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	if err := h.authUsecase.Logout(r.Context(), user); err != nil {
		h.fail(w, "logout", err)
		return
	}

	h.logger.Info().Str("user_id", user.ID).Msg("user logged out")
	h.metrics.ObserveAuth("logout", "ok")
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHTTPHandler) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, payload.NewUserResponse(UserFromContext(r.Context())))
}

func (h *AuthHTTPHandler) verifyToken(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, payload.VerifyTokenResponse{
		Valid: true,
		User:  payload.NewUserResponse(UserFromContext(r.Context())),
	})
}

func (h *AuthHTTPHandler) session(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeJSON(w, http.StatusOK, payload.SessionResponse{Authenticated: false})
		return
	}

	view := payload.NewUserResponse(user)
	writeJSON(w, http.StatusOK, payload.SessionResponse{Authenticated: true, User: &view})
}

func (h *AuthHTTPHandler) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.authUsecase.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get_user", err)
		return
	}

	writeJSON(w, http.StatusOK, payload.NewUserResponse(user))
}

func (h *AuthHTTPHandler) updateUser(w http.ResponseWriter, r *http.Request) {
	var req payload.UpdateUserRequest
	if !h.decode(w, r, "update_user", &req) {
		return
	}

	params := usecase.UpdateUserParams{
		Email:    req.Email,
		FullName: req.FullName,
		IsActive: req.IsActive,
	}
	if req.Role != nil {
		role := model.Role(*req.Role)
		params.Role = &role
	}

	user, err := h.authUsecase.UpdateUser(r.Context(), chi.URLParam(r, "id"), params)
	if err != nil {
		h.fail(w, "update_user", err)
		return
	}

	h.logger.Info().
		Str("user_id", user.ID).
		Str("admin_id", UserFromContext(r.Context()).ID).
		Msg("user updated")
	h.metrics.ObserveAuth("update_user", "ok")
	writeJSON(w, http.StatusOK, payload.NewUserResponse(user))
}

func (h *AuthHTTPHandler) writeLogin(w http.ResponseWriter, operation string, user *model.User) {
	tokens, err := h.authUsecase.IssueTokens(user)
	if err != nil {
		h.fail(w, operation, err)
		return
	}

	h.metrics.ObserveAuth(operation, "ok")
	writeJSON(w, http.StatusOK, payload.LoginResponse{
		User:   payload.NewUserResponse(user),
		Tokens: *tokens,
	})
}

// decode reads a JSON body into dst and validates it. It writes the error
// response itself and reports whether the handler should continue.
func (h *AuthHTTPHandler) decode(w http.ResponseWriter, r *http.Request, operation string, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		h.metrics.ObserveAuth(operation, "bad_request")
		writeJSON(w, http.StatusBadRequest, payload.ErrorResponse{Error: errInvalidBody.Error()})
		return false
	}

	if fields := h.validator.Struct(dst); fields != nil {
		h.metrics.ObserveAuth(operation, "validation")
		writeJSON(w, http.StatusUnprocessableEntity, payload.ErrorResponse{
			Error:  "validation failed",
			Fields: fields,
		})
		return false
	}

	return true
}

func (h *AuthHTTPHandler) fail(w http.ResponseWriter, operation string, err error) {
	kind := writeError(w, h.logger, err)
	h.metrics.ObserveAuth(operation, kind)
}
