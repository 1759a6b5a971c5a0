package application_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/profile-hub/internal/application"
	"github.com/oksasatya/profile-hub/internal/domain/entity"
	"github.com/oksasatya/profile-hub/internal/domain/repository"
	"github.com/oksasatya/profile-hub/internal/domain/storeerr"
	"github.com/oksasatya/profile-hub/pkg/cache"
)

// fakeRepo records the calls made against it and serves canned data.
type fakeRepo struct {
	profiles []entity.UserProfile
	failWith error

	listCalls   int
	searchCalls int
	getCalls    int
	lastOffset  int
	lastLimit   int
	lastQuery   string
}

func (f *fakeRepo) List(_ context.Context, offset, limit int) ([]entity.UserProfile, int64, error) {
	f.listCalls++
	f.lastOffset, f.lastLimit = offset, limit
	if f.failWith != nil {
		return nil, 0, f.failWith
	}
	return f.profiles, int64(len(f.profiles)), nil
}

func (f *fakeRepo) Search(_ context.Context, q string, offset, limit int) ([]entity.UserProfile, int64, error) {
	f.searchCalls++
	f.lastQuery = q
	f.lastOffset, f.lastLimit = offset, limit
	if f.failWith != nil {
		return nil, 0, f.failWith
	}
	return f.profiles, int64(len(f.profiles)), nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*entity.UserProfile, error) {
	f.getCalls++
	if f.failWith != nil {
		return nil, f.failWith
	}
	for i := range f.profiles {
		if f.profiles[i].ID == id {
			return &f.profiles[i], nil
		}
	}
	return nil, storeerr.New(storeerr.KindNotFound, errors.New("no rows"))
}

func (f *fakeRepo) Create(_ context.Context, in repository.CreateInput) (*entity.UserProfile, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	u := entity.UserProfile{ID: "new-id", FullName: in.FullName, Email: in.Email, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	f.profiles = append(f.profiles, u)
	return &u, nil
}

func (f *fakeRepo) Update(_ context.Context, id string, in repository.UpdateInput) (*entity.UserProfile, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	u, err := f.GetByID(context.Background(), id)
	if err != nil {
		return nil, err
	}
	if in.FullName != nil {
		u.FullName = *in.FullName
	}
	if in.AvatarURL != nil {
		u.AvatarURL = *in.AvatarURL
	}
	u.UpdatedAt = time.Now()
	return u, nil
}

func (f *fakeRepo) Delete(_ context.Context, id string) error {
	if f.failWith != nil {
		return f.failWith
	}
	for i := range f.profiles {
		if f.profiles[i].ID == id {
			f.profiles = append(f.profiles[:i], f.profiles[i+1:]...)
			return nil
		}
	}
	return storeerr.New(storeerr.KindNotFound, errors.New("no rows"))
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}

func newService(r repository.UserRepository) (*application.Service, *cache.Cache) {
	c := cache.New()
	return application.NewService(r, c, quietLogger(), nil, "", 3*time.Minute, 2*time.Minute), c
}

func seedProfiles(n int) []entity.UserProfile {
	out := make([]entity.UserProfile, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, entity.UserProfile{ID: string(rune('a' + i)), FullName: "User", Email: "u@x.com"})
	}
	return out
}

func TestListComputesOffsetWindow(t *testing.T) {
	repo := &fakeRepo{profiles: seedProfiles(3)}
	svc, _ := newService(repo)

	_, err := svc.ListProfiles(context.Background(), 3, 20)
	require.NoError(t, err)
	require.Equal(t, 40, repo.lastOffset)
	require.Equal(t, 20, repo.lastLimit)

	// page below 1 clamps to the first window
	_, err = svc.ListProfiles(context.Background(), 0, 20)
	require.NoError(t, err)
	require.Equal(t, 0, repo.lastOffset)
}

func TestListServesSecondCallFromCache(t *testing.T) {
	repo := &fakeRepo{profiles: seedProfiles(2)}
	svc, _ := newService(repo)

	first, err := svc.ListProfiles(context.Background(), 1, 20)
	require.NoError(t, err)
	second, err := svc.ListProfiles(context.Background(), 1, 20)
	require.NoError(t, err)

	require.Equal(t, 1, repo.listCalls)
	require.Same(t, first, second)

	// a different window is its own cache entry
	_, err = svc.ListProfiles(context.Background(), 2, 20)
	require.NoError(t, err)
	require.Equal(t, 2, repo.listCalls)
}

func TestListDoesNotCacheFailures(t *testing.T) {
	repo := &fakeRepo{failWith: storeerr.New(storeerr.KindConnectivity, errors.New("connection refused"))}
	svc, c := newService(repo)

	_, err := svc.ListProfiles(context.Background(), 1, 20)
	require.Error(t, err)
	require.True(t, storeerr.IsKind(err, storeerr.KindConnectivity))
	require.Empty(t, c.Keys())

	// next call hits the store again
	_, _ = svc.ListProfiles(context.Background(), 1, 20)
	require.Equal(t, 2, repo.listCalls)
}

func TestSearchNormalizesQueryForCacheAndStore(t *testing.T) {
	repo := &fakeRepo{profiles: seedProfiles(1)}
	svc, _ := newService(repo)

	_, err := svc.SearchProfiles(context.Background(), "  Ann ", 1, 20)
	require.NoError(t, err)
	require.Equal(t, "ann", repo.lastQuery)

	// differently-cased query with padding reuses the same entry
	_, err = svc.SearchProfiles(context.Background(), "ANN", 1, 20)
	require.NoError(t, err)
	require.Equal(t, 1, repo.searchCalls)
}

func TestGetProfileCachesRecord(t *testing.T) {
	repo := &fakeRepo{profiles: []entity.UserProfile{{ID: "u1", FullName: "Ann Lee", Email: "ann@x.com"}}}
	svc, _ := newService(repo)

	u, err := svc.GetProfile(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, "Ann Lee", u.FullName)

	_, err = svc.GetProfile(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, 1, repo.getCalls)
}

func TestGetProfileNotFoundIsExpectedOutcome(t *testing.T) {
	repo := &fakeRepo{}
	svc, c := newService(repo)

	_, err := svc.GetProfile(context.Background(), "missing")
	require.True(t, storeerr.IsKind(err, storeerr.KindNotFound))
	require.Empty(t, c.Keys())
}

func TestCreateInvalidatesListAndSearchWindows(t *testing.T) {
	repo := &fakeRepo{profiles: seedProfiles(1)}
	svc, c := newService(repo)

	_, err := svc.ListProfiles(context.Background(), 1, 20)
	require.NoError(t, err)
	_, err = svc.SearchProfiles(context.Background(), "ann", 1, 20)
	require.NoError(t, err)
	require.Len(t, c.Keys(), 2)

	_, err = svc.CreateProfile(context.Background(), repository.CreateInput{FullName: "Ann Lee", Email: "ann@x.com"})
	require.NoError(t, err)
	require.Empty(t, c.Keys())

	// the next list is a forced miss reflecting the new record
	_, err = svc.ListProfiles(context.Background(), 1, 20)
	require.NoError(t, err)
	require.Equal(t, 2, repo.listCalls)
}

func TestUpdateInvalidatesRecordEntryToo(t *testing.T) {
	repo := &fakeRepo{profiles: []entity.UserProfile{{ID: "u1", FullName: "Ann", Email: "ann@x.com"}}}
	svc, c := newService(repo)

	_, err := svc.GetProfile(context.Background(), "u1")
	require.NoError(t, err)
	_, err = svc.ListProfiles(context.Background(), 1, 20)
	require.NoError(t, err)
	require.Len(t, c.Keys(), 2)

	name := "Ann Lee"
	_, err = svc.UpdateProfile(context.Background(), "u1", repository.UpdateInput{FullName: &name})
	require.NoError(t, err)
	require.Empty(t, c.Keys())
}

func TestDeleteInvalidatesLikeUpdate(t *testing.T) {
	repo := &fakeRepo{profiles: []entity.UserProfile{{ID: "u1", FullName: "Ann", Email: "ann@x.com"}}}
	svc, c := newService(repo)

	_, err := svc.GetProfile(context.Background(), "u1")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProfile(context.Background(), "u1"))
	require.Empty(t, c.Keys())

	err = svc.DeleteProfile(context.Background(), "u1")
	require.True(t, storeerr.IsKind(err, storeerr.KindNotFound))
}

func TestFailedMutationKeepsCache(t *testing.T) {
	repo := &fakeRepo{profiles: seedProfiles(1)}
	svc, c := newService(repo)

	_, err := svc.ListProfiles(context.Background(), 1, 20)
	require.NoError(t, err)

	repo.failWith = storeerr.New(storeerr.KindConflict, errors.New("dup"))
	_, err = svc.CreateProfile(context.Background(), repository.CreateInput{FullName: "X", Email: "u@x.com"})
	require.Error(t, err)
	// failed writes change nothing, so cached reads stay valid
	require.Len(t, c.Keys(), 1)
}
