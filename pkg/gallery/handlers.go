package gallery

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Robertorri/HopVerk1/pkg/httputil"
	"github.com/Robertorri/HopVerk1/pkg/middleware"
	"github.com/Robertorri/HopVerk1/pkg/observability"
)

// maxUploadBytes caps multipart upload memory and body size
const maxUploadBytes = 10 << 20

// Handlers exposes the gallery endpoints over HTTP
type Handlers struct {
	service *Service
	log     *observability.Logger
}

// NewHandlers creates HTTP handlers backed by the given service
func NewHandlers(service *Service, log *observability.Logger) *Handlers {
	return &Handlers{service: service, log: log}
}

// RegisterRoutes mounts the gallery endpoints. authed must already carry
// token verification; admin must additionally require the ADMIN role.
func (h *Handlers) RegisterRoutes(authed, admin *mux.Router) {
	authed.HandleFunc("/images/random", h.HandleRandomImage).Methods(http.MethodGet)
	authed.HandleFunc("/images/rate/{id}", h.HandleRateImage).Methods(http.MethodPost)
	authed.HandleFunc("/images/median", h.HandleMedian).Methods(http.MethodGet)
	admin.HandleFunc("/admin/upload", h.HandleUpload).Methods(http.MethodPost)
}

type rateRequest struct {
	Score int `json:"score"`
}

type medianResponse struct {
	Median float64 `json:"median"`
}

// HandleRandomImage handles GET /images/random
func (h *Handlers) HandleRandomImage(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	image, err := h.service.NextUnrated(r.Context(), identity.AccountID)
	if err != nil {
		if errors.Is(err, ErrNoUnratedImages) {
			httputil.WriteNotFound(w, ErrNoUnratedImages.Error())
			return
		}
		h.log.WithError(err).Error("random image selection failed")
		httputil.WriteErrorMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	httputil.WriteSuccess(w, image)
}

// HandleRateImage handles POST /images/rate/{id}
func (h *Handlers) HandleRateImage(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	imageID, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	var req rateRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	rating, err := h.service.Rate(r.Context(), identity.AccountID, imageID, req.Score)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidScore):
			httputil.WriteBadRequest(w, ErrInvalidScore.Error())
		case errors.Is(err, ErrImageNotFound):
			httputil.WriteNotFound(w, ErrImageNotFound.Error())
		default:
			h.log.WithError(err).Error("rating failed")
			httputil.WriteErrorMessage(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	httputil.WriteSuccess(w, rating)
}

// HandleMedian handles GET /images/median
func (h *Handlers) HandleMedian(w http.ResponseWriter, r *http.Request) {
	median, err := h.service.MedianScore(r.Context())
	if err != nil {
		h.log.WithError(err).Error("median computation failed")
		httputil.WriteErrorMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	httputil.WriteSuccess(w, medianResponse{Median: median})
}

// HandleUpload handles POST /admin/upload (multipart/form-data with a
// "file" part and a "prompt" field).
func (h *Handlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.WriteBadRequest(w, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteBadRequest(w, "file is required")
		return
	}
	defer file.Close()

	prompt := r.FormValue("prompt")
	if prompt == "" {
		httputil.WriteBadRequest(w, "prompt is required")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	image, err := h.service.Upload(r.Context(), identity.AccountID, header.Filename, prompt, contentType, file)
	if err != nil {
		if errors.Is(err, ErrObjectStoreUnavailable) {
			httputil.WriteErrorMessage(w, http.StatusServiceUnavailable, ErrObjectStoreUnavailable.Error())
			return
		}
		h.log.WithError(err).Error("image upload failed")
		httputil.WriteErrorMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	httputil.WriteCreated(w, image)
}
