package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/contacts-api/internal/application"
	"github.com/oksasatya/contacts-api/internal/domain/entity"
	"github.com/oksasatya/contacts-api/internal/interface/middleware"
	"github.com/oksasatya/contacts-api/pkg/response"
	"github.com/oksasatya/contacts-api/pkg/validation"
)

const birthdayLayout = "2006-01-02"

type ContactHandler struct {
	Svc    *application.ContactService
	Logger *logrus.Logger
}

func NewContactHandler(svc *application.ContactService, logger *logrus.Logger) *ContactHandler {
	return &ContactHandler{Svc: svc, Logger: logger}
}

type contactRequest struct {
	FirstName      string `json:"first_name" binding:"required,max=100"`
	LastName       string `json:"last_name" binding:"max=100"`
	Email          string `json:"email" binding:"required,email"`
	Phone          string `json:"phone" binding:"required,max=32"`
	Birthday       string `json:"birthday" binding:"required,datetime=2006-01-02"`
	AdditionalData string `json:"additional_data" binding:"max=500"`
}

func (r contactRequest) toInput() application.ContactInput {
	bd, _ := time.Parse(birthdayLayout, r.Birthday)
	return application.ContactInput{
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		Email:          r.Email,
		Phone:          r.Phone,
		Birthday:       bd,
		AdditionalData: r.AdditionalData,
	}
}

func contactPayload(c *entity.Contact) gin.H {
	return gin.H{
		"id":              c.ID,
		"first_name":      c.FirstName,
		"last_name":       c.LastName,
		"email":           c.Email,
		"phone":           c.Phone,
		"birthday":        c.Birthday.Format(birthdayLayout),
		"additional_data": c.AdditionalData,
	}
}

func contactListPayload(list []entity.Contact) []gin.H {
	out := make([]gin.H, 0, len(list))
	for i := range list {
		out = append(out, contactPayload(&list[i]))
	}
	return out
}

func ownerID(c *gin.Context) (int64, bool) {
	u := middleware.UserFromCtx(c)
	if u == nil {
		response.Error[any](c, http.StatusUnauthorized, "unauthorized", nil)
		return 0, false
	}
	return u.ID, true
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error[any](c, http.StatusBadRequest, "invalid contact id", nil)
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, def int) int {
	v := c.Query(name)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// Create POST /api/contacts
func (h *ContactHandler) Create(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	created, err := h.Svc.Create(c.Request.Context(), owner, req.toInput())
	if err != nil {
		response.Error[any](c, statusFor(err), err.Error(), nil)
		return
	}
	response.Success(c, http.StatusCreated, contactPayload(created), "contact created", nil)
}

// List GET /api/contacts?limit=&offset=
func (h *ContactHandler) List(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	limit := queryInt(c, "limit", 10)
	offset := queryInt(c, "offset", 0)
	list, err := h.Svc.List(c.Request.Context(), owner, limit, offset)
	if err != nil {
		response.Error[any](c, statusFor(err), "failed to list contacts", nil)
		return
	}
	response.Success(c, http.StatusOK, contactListPayload(list), "contacts", gin.H{"limit": limit, "offset": offset})
}

// Get GET /api/contacts/:id
func (h *ContactHandler) Get(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	contact, err := h.Svc.Get(c.Request.Context(), id, owner)
	if err != nil {
		response.Error[any](c, statusFor(err), err.Error(), nil)
		return
	}
	response.Success(c, http.StatusOK, contactPayload(contact), "contact", nil)
}

// Update PUT /api/contacts/:id. Full replacement; every field is re-validated.
func (h *ContactHandler) Update(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	updated, err := h.Svc.Update(c.Request.Context(), id, owner, req.toInput())
	if err != nil {
		response.Error[any](c, statusFor(err), err.Error(), nil)
		return
	}
	response.Success(c, http.StatusOK, contactPayload(updated), "contact updated", nil)
}

// Delete DELETE /api/contacts/:id
func (h *ContactHandler) Delete(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), id, owner); err != nil {
		response.Error[any](c, statusFor(err), err.Error(), nil)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"deleted": true}, "contact deleted", nil)
}

// Search GET /api/contacts/search?q=&limit=&offset=
func (h *ContactHandler) Search(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	q := c.Query("q")
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "missing query", nil)
		return
	}
	limit := queryInt(c, "limit", 10)
	offset := queryInt(c, "offset", 0)
	list, err := h.Svc.Search(c.Request.Context(), owner, q, limit, offset)
	if err != nil {
		response.Error[any](c, statusFor(err), "search failed", nil)
		return
	}
	response.Success(c, http.StatusOK, contactListPayload(list), "search results", gin.H{"q": q, "limit": limit, "offset": offset})
}

// UpcomingBirthdays GET /api/contacts/birthdays?days=7
func (h *ContactHandler) UpcomingBirthdays(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	days := queryInt(c, "days", 7)
	list, err := h.Svc.UpcomingBirthdays(c.Request.Context(), owner, days)
	if err != nil {
		response.Error[any](c, statusFor(err), "failed to list birthdays", nil)
		return
	}
	response.Success(c, http.StatusOK, contactListPayload(list), "upcoming birthdays", gin.H{"days": days})
}
