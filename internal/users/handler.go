package users

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-crm/meridian/internal/auth"
	"github.com/meridian-crm/meridian/internal/platform/httpx"
)

const maxAvatarBytes = 5 << 20

// Handler wires the profile endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   *auth.Guard
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard *auth.Guard) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers user routes. Callers are expected to have
// applied the guard's Authenticate middleware already.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/me", h.handleMe)
	r.With(h.guard.RequireVerified, h.guard.RequireRole(auth.RoleAdmin)).
		Patch("/me/avatar", h.handleUpdateAvatar)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	httpx.JSON(w, http.StatusOK, principal)
}

func (h *Handler) handleUpdateAvatar(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "expected multipart form with a file field")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "file field is required")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	snap, err := h.service.UpdateAvatar(r.Context(), principal.ID, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		if errors.Is(err, ErrNotImage) {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "file must be an image")
			return
		}
		h.logger.Error("update avatar", slog.Int64("user_id", principal.ID), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, snap)
}
