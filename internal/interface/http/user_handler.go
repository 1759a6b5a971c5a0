package handlers

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/profile-hub/internal/application"
	"github.com/oksasatya/profile-hub/internal/domain/entity"
	repo "github.com/oksasatya/profile-hub/internal/domain/repository"
	"github.com/oksasatya/profile-hub/internal/domain/storeerr"
	"github.com/oksasatya/profile-hub/pkg/qr"
	"github.com/oksasatya/profile-hub/pkg/response"
	"github.com/oksasatya/profile-hub/pkg/validation"
)

const maxQRPayloadBytes = 8 << 10

type UserHandler struct {
	Svc    *application.Service
	Logger *logrus.Logger

	DefaultPageSize int
	MaxPageSize     int
}

func NewUserHandler(svc *application.Service, logger *logrus.Logger, defaultPageSize, maxPageSize int) *UserHandler {
	if defaultPageSize <= 0 {
		defaultPageSize = 20
	}
	if maxPageSize <= 0 {
		maxPageSize = 100
	}
	return &UserHandler{Svc: svc, Logger: logger, DefaultPageSize: defaultPageSize, MaxPageSize: maxPageSize}
}

// userResponse is the domain-facing record shape: camelCase fields, optional
// columns as "" when unset.
type userResponse struct {
	ID          string    `json:"id"`
	FullName    string    `json:"fullName"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phoneNumber"`
	Bio         string    `json:"bio"`
	AvatarURL   string    `json:"avatarUrl"`
	DateOfBirth string    `json:"dateOfBirth"`
	Location    string    `json:"location"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type pageResponse struct {
	Users      []userResponse `json:"users"`
	TotalCount int64          `json:"totalCount"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
}

type createUserRequest struct {
	FullName    string `json:"fullName" binding:"required,max=120"`
	Email       string `json:"email" binding:"required,email"`
	PhoneNumber string `json:"phoneNumber" binding:"omitempty,phone"`
	Bio         string `json:"bio" binding:"omitempty,max=2000"`
	AvatarURL   string `json:"avatarUrl" binding:"omitempty,url"`
	DateOfBirth string `json:"dateOfBirth" binding:"omitempty,dob"`
	Location    string `json:"location" binding:"omitempty,max=120"`
}

// updateUserRequest distinguishes "field absent" (nil, leave unchanged) from
// "field present but empty" (clear). Validators only fire on non-empty values,
// so clearing a required field has to be caught in the handler: omitempty
// short-circuits every later tag once the dereferenced value is "".
type updateUserRequest struct {
	FullName    *string `json:"fullName" binding:"omitempty,max=120"`
	Email       *string `json:"email" binding:"omitempty,email"`
	PhoneNumber *string `json:"phoneNumber" binding:"omitempty,phone"`
	Bio         *string `json:"bio" binding:"omitempty,max=2000"`
	AvatarURL   *string `json:"avatarUrl" binding:"omitempty,url"`
	DateOfBirth *string `json:"dateOfBirth" binding:"omitempty,dob"`
	Location    *string `json:"location" binding:"omitempty,max=120"`
}

func toUserResponse(u *entity.UserProfile) userResponse {
	return userResponse{
		ID:          u.ID,
		FullName:    u.FullName,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		Bio:         u.Bio,
		AvatarURL:   u.AvatarURL,
		DateOfBirth: u.DateOfBirth,
		Location:    u.Location,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func toPageResponse(p *application.ProfilePage) pageResponse {
	users := make([]userResponse, 0, len(p.Profiles))
	for i := range p.Profiles {
		users = append(users, toUserResponse(&p.Profiles[i]))
	}
	return pageResponse{Users: users, TotalCount: p.TotalCount, Page: p.Page, PageSize: p.PageSize}
}

func emptyPage(page, size int) pageResponse {
	return pageResponse{Users: []userResponse{}, TotalCount: 0, Page: page, PageSize: size}
}

// failStore writes the uniform failure envelope for a classified store error:
// status and message from the taxonomy, data a typed placeholder.
func failStore[T any](c *gin.Context, err error, placeholder T) {
	se := storeerr.As(err)
	response.Fail(c, se.HTTPStatus(), placeholder, se.Message(), nil)
}

func (h *UserHandler) pagination(c *gin.Context) (page, size int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	size, _ = strconv.Atoi(c.DefaultQuery("pageSize", strconv.Itoa(h.DefaultPageSize)))
	if size < 1 {
		size = h.DefaultPageSize
	}
	if size > h.MaxPageSize {
		size = h.MaxPageSize
	}
	return page, size
}

// List handles GET /users?page=&pageSize=
func (h *UserHandler) List(c *gin.Context) {
	page, size := h.pagination(c)
	result, err := h.Svc.ListProfiles(c.Request.Context(), page, size)
	if err != nil {
		failStore(c, err, emptyPage(page, size))
		return
	}
	response.Success(c, http.StatusOK, toPageResponse(result), "users", nil)
}

// Search handles GET /users/search?q=&page=&pageSize=
func (h *UserHandler) Search(c *gin.Context) {
	page, size := h.pagination(c)
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		response.Fail(c, http.StatusBadRequest, emptyPage(page, size), "search query is required", map[string]string{"q": "is required"})
		return
	}
	result, err := h.Svc.SearchProfiles(c.Request.Context(), q, page, size)
	if err != nil {
		failStore(c, err, emptyPage(page, size))
		return
	}
	response.Success(c, http.StatusOK, toPageResponse(result), "search results", nil)
}

// Get handles GET /users/:id
func (h *UserHandler) Get(c *gin.Context) {
	u, err := h.Svc.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		failStore(c, err, userResponse{})
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u), "user", nil)
}

// Create handles POST /users
func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, userResponse{}, storeerr.MsgValidation, validation.ToDetails(err))
		return
	}
	u, err := h.Svc.CreateProfile(c.Request.Context(), repo.CreateInput{
		FullName:    req.FullName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Bio:         req.Bio,
		AvatarURL:   req.AvatarURL,
		DateOfBirth: req.DateOfBirth,
		Location:    req.Location,
	})
	if err != nil {
		failStore(c, err, userResponse{})
		return
	}
	response.Success(c, http.StatusCreated, toUserResponse(u), "user created", nil)
}

// Update handles PUT /users/:id
func (h *UserHandler) Update(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, userResponse{}, storeerr.MsgValidation, validation.ToDetails(err))
		return
	}
	if req.FullName != nil && strings.TrimSpace(*req.FullName) == "" {
		response.Fail(c, http.StatusBadRequest, userResponse{}, storeerr.MsgValidation, map[string]string{"fullName": "must not be empty"})
		return
	}
	u, err := h.Svc.UpdateProfile(c.Request.Context(), c.Param("id"), repo.UpdateInput{
		FullName:    req.FullName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Bio:         req.Bio,
		AvatarURL:   req.AvatarURL,
		DateOfBirth: req.DateOfBirth,
		Location:    req.Location,
	})
	if err != nil {
		failStore(c, err, userResponse{})
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u), "user updated", nil)
}

// Delete handles DELETE /users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.Svc.DeleteProfile(c.Request.Context(), c.Param("id")); err != nil {
		failStore(c, err, gin.H{"deleted": false})
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true}, "user deleted", nil)
}

// ExportQR handles GET /users/:id/qr and responds with a PNG image.
func (h *UserHandler) ExportQR(c *gin.Context) {
	u, err := h.Svc.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		failStore(c, err, userResponse{})
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(qr.DefaultSize)))
	png, err := qr.EncodePNG(qr.FromProfile(u), size)
	if err != nil {
		h.Logger.WithError(err).WithField("user_id", u.ID).Error("qr encode failed")
		response.Fail(c, http.StatusInternalServerError, userResponse{}, storeerr.MsgUnknown, nil)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// ImportQR handles POST /users/import: the scanned QR payload JSON comes in
// as the request body and creates a fresh profile.
func (h *UserHandler) ImportQR(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxQRPayloadBytes))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, userResponse{}, storeerr.MsgValidation, nil)
		return
	}
	env, err := qr.Decode(raw)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, userResponse{}, "The QR code does not contain a valid user profile.", map[string]string{"payload": err.Error()})
		return
	}
	if env.Data.FullName == "" || env.Data.Email == "" {
		response.Fail(c, http.StatusBadRequest, userResponse{}, storeerr.MsgValidation, map[string]string{"fullName": "is required", "email": "is required"})
		return
	}
	u, err := h.Svc.CreateProfile(c.Request.Context(), repo.CreateInput{
		FullName:    env.Data.FullName,
		Email:       env.Data.Email,
		PhoneNumber: env.Data.PhoneNumber,
		Bio:         env.Data.Bio,
		AvatarURL:   env.Data.AvatarURL,
		DateOfBirth: env.Data.DateOfBirth,
		Location:    env.Data.Location,
	})
	if err != nil {
		failStore(c, err, userResponse{})
		return
	}
	response.Success(c, http.StatusCreated, toUserResponse(u), "user imported", nil)
}

// UploadAvatar handles POST /users/:id/avatar (multipart field "avatar").
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	file, header, err := c.Request.FormFile("avatar")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, userResponse{}, storeerr.MsgValidation, map[string]string{"avatar": "file is required"})
		return
	}
	defer func() { _ = file.Close() }()

	u, err := h.Svc.UploadAvatar(c.Request.Context(), c.Param("id"), file, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		failStore(c, err, userResponse{})
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u), "avatar updated", nil)
}
