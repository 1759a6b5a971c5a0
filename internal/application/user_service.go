package application

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/profile-hub/internal/domain/entity"
	repo "github.com/oksasatya/profile-hub/internal/domain/repository"
	"github.com/oksasatya/profile-hub/internal/domain/storeerr"
	"github.com/oksasatya/profile-hub/pkg/cache"
	"github.com/oksasatya/profile-hub/pkg/helpers"
)

// Cache key prefixes. Mutations invalidate whole prefix classes, not
// individual pages.
const (
	listKeyPrefix   = "users:list:"
	searchKeyPrefix = "users:search:"
	idKeyPrefix     = "users:id:"
)

// Service is the data-access facade over the profile store. Read paths are
// memoized in the injected cache; successful mutations evict the affected key
// classes. It owns no retry or timeout layer: the pgx client bounds hung
// calls and every failure is reported upward exactly once, classified.
type Service struct {
	Repo      repo.UserRepository
	Cache     *cache.Cache
	Logger    *logrus.Logger
	GCS       *storage.Client
	GCSBucket string

	ListTTL   time.Duration
	SearchTTL time.Duration
}

func NewService(r repo.UserRepository, c *cache.Cache, logger *logrus.Logger, gcs *storage.Client, gcsBucket string, listTTL, searchTTL time.Duration) *Service {
	if listTTL <= 0 {
		listTTL = 3 * time.Minute
	}
	if searchTTL <= 0 {
		searchTTL = 2 * time.Minute
	}
	return &Service{
		Repo:      r,
		Cache:     c,
		Logger:    logger,
		GCS:       gcs,
		GCSBucket: gcsBucket,
		ListTTL:   listTTL,
		SearchTTL: searchTTL,
	}
}

// ProfilePage is one window of profiles plus the exact total count for the
// filter criteria, independent of the window.
type ProfilePage struct {
	Profiles   []entity.UserProfile
	TotalCount int64
	Page       int
	PageSize   int
}

func listKey(page, size int) string {
	return fmt.Sprintf("%sp%d:s%d", listKeyPrefix, page, size)
}

func searchKey(q string, page, size int) string {
	return fmt.Sprintf("%sq=%s:p%d:s%d", searchKeyPrefix, q, page, size)
}

func idKey(id string) string {
	return idKeyPrefix + id
}

// offsetFor converts a 1-based page into the zero-based window start.
func offsetFor(page, size int) int {
	return (page - 1) * size
}

// ListProfiles returns page (1-based) of pageSize profiles, newest first.
func (s *Service) ListProfiles(ctx context.Context, page, pageSize int) (*ProfilePage, error) {
	if page < 1 {
		page = 1
	}
	key := listKey(page, pageSize)
	if v, ok := s.Cache.Get(key); ok {
		return v.(*ProfilePage), nil
	}

	profiles, total, err := s.Repo.List(ctx, offsetFor(page, pageSize), pageSize)
	if err != nil {
		return nil, s.reportErr("list profiles", err, logrus.Fields{"page": page, "page_size": pageSize})
	}

	result := &ProfilePage{Profiles: profiles, TotalCount: total, Page: page, PageSize: pageSize}
	s.Cache.SetTTL(key, result, s.ListTTL)
	return result, nil
}

// SearchProfiles matches q as a case-insensitive substring of fullName,
// email, location or bio. The cache key carries the normalized query; the
// shorter TTL reflects the higher churn of search terms.
func (s *Service) SearchProfiles(ctx context.Context, q string, page, pageSize int) (*ProfilePage, error) {
	if page < 1 {
		page = 1
	}
	norm := strings.ToLower(strings.TrimSpace(q))
	key := searchKey(norm, page, pageSize)
	if v, ok := s.Cache.Get(key); ok {
		return v.(*ProfilePage), nil
	}

	profiles, total, err := s.Repo.Search(ctx, norm, offsetFor(page, pageSize), pageSize)
	if err != nil {
		return nil, s.reportErr("search profiles", err, logrus.Fields{"query": norm, "page": page})
	}

	result := &ProfilePage{Profiles: profiles, TotalCount: total, Page: page, PageSize: pageSize}
	s.Cache.SetTTL(key, result, s.SearchTTL)
	return result, nil
}

// GetProfile looks up a single profile. A missing id comes back as a
// storeerr.KindNotFound error, an expected outcome for lookups.
func (s *Service) GetProfile(ctx context.Context, id string) (*entity.UserProfile, error) {
	key := idKey(id)
	if v, ok := s.Cache.Get(key); ok {
		return v.(*entity.UserProfile), nil
	}

	u, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.reportErr("get profile", err, logrus.Fields{"user_id": id})
	}

	s.Cache.Set(key, u)
	return u, nil
}

// CreateProfile inserts a new record. Business validation of the input is the
// HTTP boundary's job; the store still enforces its own constraints (email
// uniqueness surfaces as a conflict). On success every cached list and search
// window is evicted.
func (s *Service) CreateProfile(ctx context.Context, in repo.CreateInput) (*entity.UserProfile, error) {
	u, err := s.Repo.Create(ctx, in)
	if err != nil {
		return nil, s.reportErr("create profile", err, logrus.Fields{"email": in.Email})
	}

	s.invalidateCollections()
	s.Logger.WithFields(logrus.Fields{"user_id": u.ID}).Info("profile created")
	return u, nil
}

// UpdateProfile applies a partial update: nil fields stay unchanged, explicit
// "" clears optional fields. Invalidates list/search windows plus the cached
// record itself.
func (s *Service) UpdateProfile(ctx context.Context, id string, in repo.UpdateInput) (*entity.UserProfile, error) {
	u, err := s.Repo.Update(ctx, id, in)
	if err != nil {
		return nil, s.reportErr("update profile", err, logrus.Fields{"user_id": id})
	}

	s.invalidateCollections()
	s.Cache.Delete(idKey(id))
	s.Logger.WithFields(logrus.Fields{"user_id": id}).Info("profile updated")
	return u, nil
}

// DeleteProfile removes the record with update's invalidation scope.
func (s *Service) DeleteProfile(ctx context.Context, id string) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return s.reportErr("delete profile", err, logrus.Fields{"user_id": id})
	}

	s.invalidateCollections()
	s.Cache.Delete(idKey(id))
	s.Logger.WithFields(logrus.Fields{"user_id": id}).Info("profile deleted")
	return nil
}

// UploadAvatar stores the image in GCS and points the profile's avatarUrl at
// the public object URL.
func (s *Service) UploadAvatar(ctx context.Context, id string, r io.Reader, filename, contentType string) (*entity.UserProfile, error) {
	if s.GCS == nil || s.GCSBucket == "" {
		return nil, storeerr.New(storeerr.KindUnknown, fmt.Errorf("object storage not configured"))
	}
	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := filepath.ToSlash(filepath.Join("avatars", id, uuid.NewString()+ext))
	url, err := helpers.UploadObject(ctx, s.GCS, s.GCSBucket, objectPath, contentType, r)
	if err != nil {
		return nil, s.reportErr("upload avatar", err, logrus.Fields{"user_id": id})
	}
	return s.UpdateProfile(ctx, id, repo.UpdateInput{AvatarURL: &url})
}

func (s *Service) invalidateCollections() {
	s.Cache.DeleteByPrefix(listKeyPrefix)
	s.Cache.DeleteByPrefix(searchKeyPrefix)
}

// reportErr logs the classified failure with its raw detail (logs only, never
// surfaced) and hands the same error upward. Expected not-found outcomes stay
// at debug level.
func (s *Service) reportErr(op string, err error, fields logrus.Fields) error {
	se := storeerr.As(err)
	if fields == nil {
		fields = logrus.Fields{}
	}
	fields["kind"] = se.Kind.String()
	if se.Code != "" {
		fields["code"] = se.Code
	}
	fields["detail"] = se.Detail

	entry := s.Logger.WithFields(fields)
	switch se.Kind {
	case storeerr.KindNotFound:
		entry.Debugf("%s: record not found", op)
	case storeerr.KindConnectivity, storeerr.KindUnknown:
		entry.Errorf("%s failed", op)
	default:
		entry.Warnf("%s rejected", op)
	}
	return se
}
