package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/profile-hub/internal/application"
	"github.com/oksasatya/profile-hub/internal/domain/entity"
	"github.com/oksasatya/profile-hub/internal/domain/repository"
	"github.com/oksasatya/profile-hub/internal/domain/storeerr"
	handlers "github.com/oksasatya/profile-hub/internal/interface/http"
	"github.com/oksasatya/profile-hub/pkg/cache"
	"github.com/oksasatya/profile-hub/pkg/validation"
)

// stubRepo serves canned results or a canned failure for every operation.
type stubRepo struct {
	profiles    []entity.UserProfile
	failWith    error
	updateCalls int
}

func (s *stubRepo) List(context.Context, int, int) ([]entity.UserProfile, int64, error) {
	if s.failWith != nil {
		return nil, 0, s.failWith
	}
	return s.profiles, int64(len(s.profiles)), nil
}

func (s *stubRepo) Search(context.Context, string, int, int) ([]entity.UserProfile, int64, error) {
	if s.failWith != nil {
		return nil, 0, s.failWith
	}
	return s.profiles, int64(len(s.profiles)), nil
}

func (s *stubRepo) GetByID(_ context.Context, id string) (*entity.UserProfile, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	for i := range s.profiles {
		if s.profiles[i].ID == id {
			return &s.profiles[i], nil
		}
	}
	return nil, storeerr.New(storeerr.KindNotFound, errors.New("no rows"))
}

func (s *stubRepo) Create(_ context.Context, in repository.CreateInput) (*entity.UserProfile, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	return &entity.UserProfile{ID: "fresh-id", FullName: in.FullName, Email: in.Email, CreatedAt: time.Now(), UpdatedAt: time.Now()}, nil
}

func (s *stubRepo) Update(_ context.Context, id string, _ repository.UpdateInput) (*entity.UserProfile, error) {
	s.updateCalls++
	if s.failWith != nil {
		return nil, s.failWith
	}
	return s.GetByID(context.Background(), id)
}

func (s *stubRepo) Delete(context.Context, string) error {
	return s.failWith
}

type envelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   any             `json:"error"`
}

func newRouter(repo repository.UserRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	validation.Init()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	svc := application.NewService(repo, cache.New(), logger, nil, "", time.Minute, time.Minute)
	h := handlers.NewUserHandler(svc, logger, 20, 100)

	r := gin.New()
	api := r.Group("/api")
	api.GET("/users", h.List)
	api.GET("/users/search", h.Search)
	api.GET("/users/:id", h.Get)
	api.GET("/users/:id/qr", h.ExportQR)
	api.POST("/users", h.Create)
	api.POST("/users/import", h.ImportQR)
	api.PUT("/users/:id", h.Update)
	api.DELETE("/users/:id", h.Delete)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body []byte) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func TestListSuccessEnvelope(t *testing.T) {
	r := newRouter(&stubRepo{profiles: []entity.UserProfile{{ID: "u1", FullName: "Ann Lee", Email: "ann@x.com"}}})

	w, env := doJSON(t, r, http.MethodGet, "/api/users?page=1&pageSize=20", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, env.Success)

	var page struct {
		Users      []map[string]any `json:"users"`
		TotalCount int64            `json:"totalCount"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Len(t, page.Users, 1)
	require.EqualValues(t, 1, page.TotalCount)
	require.Equal(t, "Ann Lee", page.Users[0]["fullName"])
}

func TestListFailureCarriesPlaceholderPage(t *testing.T) {
	repo := &stubRepo{failWith: storeerr.New(storeerr.KindConnectivity, errors.New("connection refused"))}
	r := newRouter(repo)

	w, env := doJSON(t, r, http.MethodGet, "/api/users", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.False(t, env.Success)
	require.Equal(t, storeerr.MsgConnectivity, env.Message)

	// data stays a typed empty page, never null
	var page struct {
		Users      []map[string]any `json:"users"`
		TotalCount int64            `json:"totalCount"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.NotNil(t, page.Users)
	require.Empty(t, page.Users)
	require.Zero(t, page.TotalCount)
}

func TestGetNotFoundEnvelope(t *testing.T) {
	r := newRouter(&stubRepo{})

	w, env := doJSON(t, r, http.MethodGet, "/api/users/missing", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.False(t, env.Success)
	require.Equal(t, storeerr.MsgNotFound, env.Message)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &rec))
	require.Equal(t, "", rec["id"])
}

func TestCreateDuplicateEmailEnvelope(t *testing.T) {
	repo := &stubRepo{failWith: &storeerr.Error{
		Kind:        storeerr.KindConflict,
		UserMessage: storeerr.MsgEmailConflict,
		Code:        "23505",
	}}
	r := newRouter(repo)

	body := []byte(`{"fullName":"Ann Lee","email":"ann@x.com"}`)
	w, env := doJSON(t, r, http.MethodPost, "/api/users", body)
	require.Equal(t, http.StatusConflict, w.Code)
	require.False(t, env.Success)
	require.Equal(t, storeerr.MsgEmailConflict, env.Message)
}

func TestCreateValidationEnvelope(t *testing.T) {
	r := newRouter(&stubRepo{})

	body := []byte(`{"fullName":"","email":"not-an-email"}`)
	w, env := doJSON(t, r, http.MethodPost, "/api/users", body)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.False(t, env.Success)
	require.NotNil(t, env.Error)
}

func TestCreateSuccessEnvelope(t *testing.T) {
	r := newRouter(&stubRepo{})

	body := []byte(`{"fullName":"Ann Lee","email":"ann@x.com","location":"Lisbon"}`)
	w, env := doJSON(t, r, http.MethodPost, "/api/users", body)
	require.Equal(t, http.StatusCreated, w.Code)
	require.True(t, env.Success)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &rec))
	require.Equal(t, "fresh-id", rec["id"])
}

func TestUpdateRejectsBlankFullName(t *testing.T) {
	repo := &stubRepo{profiles: []entity.UserProfile{{ID: "u1", FullName: "Ann Lee", Email: "ann@x.com"}}}
	r := newRouter(repo)

	for _, body := range []string{`{"fullName":""}`, `{"fullName":"   "}`} {
		w, env := doJSON(t, r, http.MethodPut, "/api/users/u1", []byte(body))
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.False(t, env.Success)
		require.Equal(t, storeerr.MsgValidation, env.Message)
	}
	require.Zero(t, repo.updateCalls)
}

func TestUpdateClearsOptionalField(t *testing.T) {
	repo := &stubRepo{profiles: []entity.UserProfile{{ID: "u1", FullName: "Ann Lee", Email: "ann@x.com", Bio: "old"}}}
	r := newRouter(repo)

	w, env := doJSON(t, r, http.MethodPut, "/api/users/u1", []byte(`{"bio":""}`))
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, env.Success)
	require.Equal(t, 1, repo.updateCalls)
}

func TestSearchRequiresQuery(t *testing.T) {
	r := newRouter(&stubRepo{})

	w, env := doJSON(t, r, http.MethodGet, "/api/users/search", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.False(t, env.Success)

	w, env = doJSON(t, r, http.MethodGet, "/api/users/search?q=%20%20", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.False(t, env.Success)
}

func TestDeleteSuccessEnvelope(t *testing.T) {
	r := newRouter(&stubRepo{})

	w, env := doJSON(t, r, http.MethodDelete, "/api/users/u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, env.Success)
}

func TestImportRejectsForeignPayload(t *testing.T) {
	r := newRouter(&stubRepo{})

	body := []byte(`{"type":"contact_card","version":"1.0","data":{"fullName":"X","email":"x@x.com"}}`)
	w, env := doJSON(t, r, http.MethodPost, "/api/users/import", body)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.False(t, env.Success)
}

func TestImportCreatesProfile(t *testing.T) {
	r := newRouter(&stubRepo{})

	body := []byte(`{"type":"user_profile","version":"1.0","data":{"fullName":"Ann Lee","email":"ann@x.com"}}`)
	w, env := doJSON(t, r, http.MethodPost, "/api/users/import", body)
	require.Equal(t, http.StatusCreated, w.Code)
	require.True(t, env.Success)
}

func TestExportQRReturnsPNG(t *testing.T) {
	r := newRouter(&stubRepo{profiles: []entity.UserProfile{{ID: "u1", FullName: "Ann Lee", Email: "ann@x.com"}}})

	req := httptest.NewRequest(http.MethodGet, "/api/users/u1/qr", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "image/png", w.Header().Get("Content-Type"))
	require.Equal(t, []byte{0x89, 'P', 'N', 'G'}, w.Body.Bytes()[:4])
}
