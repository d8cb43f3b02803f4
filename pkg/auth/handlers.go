package auth

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Robertorri/HopVerk1/pkg/httputil"
	"github.com/Robertorri/HopVerk1/pkg/observability"
)

// Handlers exposes the authentication endpoints over HTTP
type Handlers struct {
	service *Service
	log     *observability.Logger
}

// NewHandlers creates HTTP handlers backed by the given service
func NewHandlers(service *Service, log *observability.Logger) *Handlers {
	return &Handlers{service: service, log: log}
}

// RegisterRoutes mounts the authentication endpoints on the router
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/auth/register", h.HandleRegister).Methods(http.MethodPost)
	router.HandleFunc("/auth/login", h.HandleLogin).Methods(http.MethodPost)
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
}

// HandleRegister handles POST /auth/register
func (h *Handlers) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	account, err := h.service.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		var verr *ValidationError
		switch {
		case errors.As(err, &verr):
			httputil.WriteBadRequest(w, verr.Message)
		case errors.Is(err, ErrDuplicateUser):
			httputil.WriteBadRequest(w, ErrDuplicateUser.Error())
		default:
			h.logger(r).WithError(err).Error("registration failed")
			httputil.WriteErrorMessage(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	httputil.WriteCreated(w, registerResponse{
		Message: "Registration successful",
		ID:      account.ID,
	})
}

// HandleLogin handles POST /auth/login
func (h *Handlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	result, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		var verr *ValidationError
		switch {
		case errors.Is(err, ErrAccountLocked):
			httputil.WriteTooManyRequests(w, ErrAccountLocked.Error())
		case errors.As(err, &verr):
			httputil.WriteBadRequest(w, verr.Message)
		case errors.Is(err, ErrInvalidCredentials):
			httputil.WriteUnauthorized(w, ErrInvalidCredentials.Error())
		default:
			h.logger(r).WithError(err).Error("login failed")
			httputil.WriteErrorMessage(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	httputil.WriteSuccess(w, loginResponse{
		Token:  result.Token,
		UserID: result.AccountID,
		Role:   result.Role,
	})
}

func (h *Handlers) logger(r *http.Request) *observability.Logger {
	if log := observability.GetRequestID(r.Context()); log != "" {
		return observability.FromContext(r.Context())
	}
	return h.log
}
