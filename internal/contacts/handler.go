package contacts

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-crm/meridian/internal/auth"
	"github.com/meridian-crm/meridian/internal/platform/httpx"
)

// Handler wires the contact CRUD endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers contact routes. The router is expected to have
// authenticated and verified the principal already.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.handleCreate)
	r.Get("/", h.handleList)
	r.Get("/upcoming-birthdays", h.handleUpcomingBirthdays)
	r.Get("/{contactID}", h.handleGet)
	r.Put("/{contactID}", h.handlePut)
	r.Patch("/{contactID}", h.handlePatch)
	r.Delete("/{contactID}", h.handleDelete)
}

type contactRequest struct {
	FirstName string `json:"first_name" validate:"required,max=255"`
	LastName  string `json:"last_name" validate:"required,max=255"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required,max=50"`
	Birthday  string `json:"birthday" validate:"required,datetime=2006-01-02"`
	Notes     string `json:"notes" validate:"omitempty"`
}

type contactPatchRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=255"`
	LastName  *string `json:"last_name" validate:"omitempty,max=255"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Phone     *string `json:"phone" validate:"omitempty,max=50"`
	Birthday  *string `json:"birthday" validate:"omitempty,datetime=2006-01-02"`
	Notes     *string `json:"notes"`
}

type contactResponse struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Birthday  string `json:"birthday"`
	Notes     string `json:"notes,omitempty"`
}

type contactListResponse struct {
	Items  []contactResponse `json:"items"`
	Total  int               `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

func newContactResponse(c *Contact) contactResponse {
	return contactResponse{
		ID:        c.ID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Phone:     c.Phone,
		Birthday:  c.Birthday.Format("2006-01-02"),
		Notes:     c.Notes,
	}
}

func principalID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return 0, false
	}
	return principal.ID, true
}

func contactID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "contactID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "contact not found")
		return 0, false
	}
	return id, true
}

func (h *Handler) decodeValid(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return false
	}
	if err := h.validator.Struct(target); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return false
	}
	return true
}

func (h *Handler) respondError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "contact not found")
	case errors.Is(err, ErrEmailExists):
		httpx.Problem(w, http.StatusConflict, "Conflict", "contact email already exists")
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := principalID(w, r)
	if !ok {
		return
	}
	var req contactRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	birthday, _ := time.Parse("2006-01-02", req.Birthday)
	created, err := h.service.Create(r.Context(), Contact{
		UserID:    userID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Birthday:  birthday,
		Notes:     req.Notes,
	})
	if err != nil {
		h.respondError(w, err, "create contact")
		return
	}
	httpx.JSON(w, http.StatusCreated, newContactResponse(created))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := principalID(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	filter := ListFilter{
		Query:     q.Get("q"),
		FirstName: q.Get("first_name"),
		LastName:  q.Get("last_name"),
		Email:     q.Get("email"),
		Limit:     limit,
		Offset:    offset,
	}
	items, total, err := h.service.List(r.Context(), userID, filter)
	if err != nil {
		h.respondError(w, err, "list contacts")
		return
	}
	resp := contactListResponse{
		Items:  make([]contactResponse, len(items)),
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	if resp.Limit <= 0 {
		resp.Limit = 20
	}
	for i := range items {
		resp.Items[i] = newContactResponse(&items[i])
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) handleUpcomingBirthdays(w http.ResponseWriter, r *http.Request) {
	userID, ok := principalID(w, r)
	if !ok {
		return
	}
	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 365 {
			httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", "days must be between 1 and 365")
			return
		}
		days = parsed
	}
	items, err := h.service.UpcomingBirthdays(r.Context(), userID, days, time.Now().UTC())
	if err != nil {
		h.respondError(w, err, "upcoming birthdays")
		return
	}
	resp := make([]contactResponse, len(items))
	for i := range items {
		resp[i] = newContactResponse(&items[i])
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := principalID(w, r)
	if !ok {
		return
	}
	id, ok := contactID(w, r)
	if !ok {
		return
	}
	contact, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		h.respondError(w, err, "get contact")
		return
	}
	httpx.JSON(w, http.StatusOK, newContactResponse(contact))
}

func (h *Handler) handlePut(w http.ResponseWriter, r *http.Request) {
	userID, ok := principalID(w, r)
	if !ok {
		return
	}
	id, ok := contactID(w, r)
	if !ok {
		return
	}
	var req contactRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	birthday, _ := time.Parse("2006-01-02", req.Birthday)
	updated, err := h.service.Update(r.Context(), userID, id, Patch{
		FirstName: &req.FirstName,
		LastName:  &req.LastName,
		Email:     &req.Email,
		Phone:     &req.Phone,
		Birthday:  &birthday,
		Notes:     &req.Notes,
	})
	if err != nil {
		h.respondError(w, err, "update contact")
		return
	}
	httpx.JSON(w, http.StatusOK, newContactResponse(updated))
}

func (h *Handler) handlePatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := principalID(w, r)
	if !ok {
		return
	}
	id, ok := contactID(w, r)
	if !ok {
		return
	}
	var req contactPatchRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	patch := Patch{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Notes:     req.Notes,
	}
	if req.Birthday != nil {
		birthday, _ := time.Parse("2006-01-02", *req.Birthday)
		patch.Birthday = &birthday
	}
	updated, err := h.service.Update(r.Context(), userID, id, patch)
	if err != nil {
		h.respondError(w, err, "patch contact")
		return
	}
	httpx.JSON(w, http.StatusOK, newContactResponse(updated))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := principalID(w, r)
	if !ok {
		return
	}
	id, ok := contactID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		h.respondError(w, err, "delete contact")
		return
	}
	httpx.NoContent(w)
}
