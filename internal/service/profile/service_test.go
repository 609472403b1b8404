package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hireconnect/hireconnect-backend-go/internal/domain/profile"
	"github.com/hireconnect/hireconnect-backend-go/internal/pkg/backend"
	"github.com/hireconnect/hireconnect-backend-go/internal/pkg/session"
	"github.com/hireconnect/hireconnect-backend-go/internal/pkg/storage"
	"github.com/hireconnect/hireconnect-backend-go/internal/testfixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	mu       sync.Mutex
	profiles map[string]profile.Profile
	err      error
}

func newMemoryRepo(ps ...profile.Profile) *memoryRepo {
	r := &memoryRepo{profiles: make(map[string]profile.Profile)}
	for _, p := range ps {
		r.profiles[p.ID] = p
	}
	return r
}

func (r *memoryRepo) get(id string) (profile.Profile, error) {
	if r.err != nil {
		return profile.Profile{}, r.err
	}
	p, ok := r.profiles[id]
	if !ok {
		return profile.Profile{}, profile.ErrProfileNotFound
	}
	return p, nil
}

func (r *memoryRepo) GetByID(ctx context.Context, id string) (profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.get(id)
}

func (r *memoryRepo) Update(ctx context.Context, id string, req profile.UpdateProfileRequest) (profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.get(id)
	if err != nil {
		return p, err
	}
	if req.FullName != nil {
		p.FullName = *req.FullName
	}
	if req.Location != nil {
		p.Location = *req.Location
	}
	if req.Documents != nil {
		p.Documents = *req.Documents
	}
	p.UpdateCount++
	r.profiles[id] = p
	return p, nil
}

func (r *memoryRepo) UpdateLock(ctx context.Context, id string, lock profile.Lock) (profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.get(id)
	if err != nil {
		return p, err
	}
	p.IsLocked, p.LockedBy, p.LockedAt = lock.IsLocked, lock.LockedBy, lock.LockedAt
	r.profiles[id] = p
	return p, nil
}

func (r *memoryRepo) SetPhoto(ctx context.Context, id string, photo *string) (profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.get(id)
	if err != nil {
		return p, err
	}
	p.Photo = photo
	p.UpdateCount++
	r.profiles[id] = p
	return p, nil
}

type inlineTx struct{}

func (inlineTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	svc     profile.ProfileService
	repo    *memoryRepo
	store   *storage.LocalStorage
	hits    map[string]int
	mu      sync.Mutex
	handler http.HandlerFunc
}

func newFixture(t *testing.T, ps ...profile.Profile) *fixture {
	f := &fixture{repo: newMemoryRepo(ps...), hits: make(map[string]int)}
	f.setHandler(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.hits[r.URL.Path]++
		h := f.handler
		f.mu.Unlock()
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	store, err := storage.NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)
	f.store = store

	clock := testfixtures.NewClock(time.Time{})
	f.svc = NewProfileService(f.repo, inlineTx{}, backend.NewClient("test", srv.URL, time.Second), store, 1024, WithClock(clock.Now))
	return f
}

func (f *fixture) setHandler(h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = h
}

func (f *fixture) hit(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func ctxWithToken() context.Context {
	return session.IntoContext(context.Background(), session.New("tok"))
}

func photoUpload(t *testing.T, id, filename, contentType string, body []byte) profile.UploadPhotoRequest {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="photo"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	part.Write(body)
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, r.ParseMultipartForm(1<<20))
	file, header, err := r.FormFile("photo")
	require.NoError(t, err)
	t.Cleanup(func() { file.Close() })

	return profile.UploadPhotoRequest{EmployeeID: id, File: file, FileHeader: header}
}

func TestGetProfile_InvalidID(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GetProfile(ctxWithToken(), "not-a-uuid")
	assert.ErrorIs(t, err, profile.ErrInvalidEmployeeID)
}

func TestGetProfile_BackendFirst(t *testing.T) {
	id := uuid.NewString()
	f := newFixture(t, profile.Profile{ID: id, FullName: "Local"})
	f.setHandler(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Write([]byte(`{"fullName":"Remote"}`))
	})

	res, err := f.svc.GetProfile(ctxWithToken(), id)
	require.NoError(t, err)
	assert.Equal(t, profile.SourceBackend, res.Source)
	assert.JSONEq(t, `{"fullName":"Remote"}`, string(res.Data.(json.RawMessage)))
}

func TestGetProfile_FallsBackToDatabase(t *testing.T) {
	id := uuid.NewString()
	hash := "bcrypt-hash"
	f := newFixture(t, profile.Profile{ID: id, FullName: "Local", PasswordHash: &hash})
	f.setHandler(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) })

	res, err := f.svc.GetProfile(ctxWithToken(), id)
	require.NoError(t, err)
	assert.Equal(t, profile.SourceLocal, res.Source)

	body, err := json.Marshal(res.Data)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"fullName":"Local"`)
	assert.NotContains(t, string(body), "bcrypt-hash")
	assert.NotContains(t, string(body), "password")
}

func TestGetProfile_NotFoundAnywhere(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GetProfile(ctxWithToken(), uuid.NewString())
	assert.ErrorIs(t, err, profile.ErrProfileNotFound)
}

func TestGetStats(t *testing.T) {
	t.Run("local first", func(t *testing.T) {
		id := uuid.NewString()
		f := newFixture(t, profile.Profile{ID: id, FullName: "Asha", Documents: []string{"cv.pdf"}, UpdateCount: 3})

		res, err := f.svc.GetStats(ctxWithToken(), id)
		require.NoError(t, err)
		assert.Equal(t, profile.SourceLocal, res.Source)
		stats := res.Data.(profile.Stats)
		assert.Equal(t, 12, stats.ProfileCompleted)
		assert.Equal(t, 1, stats.DocumentsUploaded)
		assert.Equal(t, 3, stats.TotalUpdates)
		assert.Equal(t, 0, f.hit(profilePath(id, "/stats")))
	})

	t.Run("backend fallback", func(t *testing.T) {
		id := uuid.NewString()
		f := newFixture(t)
		f.setHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"profileCompleted":40}`))
		})

		res, err := f.svc.GetStats(ctxWithToken(), id)
		require.NoError(t, err)
		assert.Equal(t, profile.SourceBackend, res.Source)
		assert.Equal(t, 1, f.hit(profilePath(id, "/stats")))
	})

	t.Run("neither", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.GetStats(ctxWithToken(), uuid.NewString())
		assert.ErrorIs(t, err, profile.ErrProfileNotFound)
	})

	t.Run("database failure is not masked", func(t *testing.T) {
		f := newFixture(t)
		f.repo.err = errors.New("connection reset")
		_, err := f.svc.GetStats(ctxWithToken(), uuid.NewString())
		require.Error(t, err)
		assert.NotErrorIs(t, err, profile.ErrProfileNotFound)
	})
}

func TestLock(t *testing.T) {
	id := uuid.NewString()
	f := newFixture(t, profile.Profile{ID: id})
	ctx := ctxWithToken()

	state, err := f.svc.GetLock(ctx, id)
	require.NoError(t, err)
	assert.False(t, state.IsLocked)
	assert.True(t, state.CanEdit)

	by := "hr-admin"
	state, err = f.svc.UpdateLock(ctx, id, profile.UpdateLockRequest{IsLocked: true, LockedBy: &by})
	require.NoError(t, err)
	assert.True(t, state.IsLocked)
	assert.False(t, state.CanEdit)

	self := profile.LockedBySelf
	state, err = f.svc.UpdateLock(ctx, id, profile.UpdateLockRequest{IsLocked: true, LockedBy: &self})
	require.NoError(t, err)
	assert.True(t, state.CanEdit)

	_, err = f.svc.GetLock(ctx, uuid.NewString())
	assert.ErrorIs(t, err, profile.ErrProfileNotFound)
}

func TestUploadPhoto_Local(t *testing.T) {
	id := uuid.NewString()
	f := newFixture(t, profile.Profile{ID: id})

	res, err := f.svc.UploadPhoto(ctxWithToken(), photoUpload(t, id, "Me.PNG", "image/png", []byte("png")))
	require.NoError(t, err)
	assert.Equal(t, profile.SourceLocal, res.Source)

	want := "/uploads/profiles/" + id + "_" + itoa(testfixtures.ReferenceTime().UnixMilli()) + ".png"
	assert.Equal(t, want, res.Data.(profile.PhotoResponse).PhotoPath)

	stored := f.repo.profiles[id]
	require.NotNil(t, stored.Photo)
	assert.Equal(t, want, *stored.Photo)
	assert.Equal(t, 1, stored.UpdateCount)

	body, err := os.ReadFile(filepath.Join(f.store.BasePath(), "profiles", id+"_"+itoa(testfixtures.ReferenceTime().UnixMilli())+".png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(body))
}

func TestUploadPhoto_ReplacesOldFile(t *testing.T) {
	id := uuid.NewString()
	f := newFixture(t, profile.Profile{ID: id})
	ctx := ctxWithToken()

	old, err := f.store.Save(ctx, bytes.NewReader([]byte("old")), "profiles/old.png")
	require.NoError(t, err)
	oldPublic := f.store.PublicPath(old)
	f.repo.profiles[id] = profile.Profile{ID: id, Photo: &oldPublic}

	_, err = f.svc.UploadPhoto(ctx, photoUpload(t, id, "new.jpg", "image/jpeg", []byte("new")))
	require.NoError(t, err)

	exists, err := f.store.Exists(ctx, old)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUploadPhoto_Rejections(t *testing.T) {
	id := uuid.NewString()
	f := newFixture(t, profile.Profile{ID: id})
	ctx := ctxWithToken()

	_, err := f.svc.UploadPhoto(ctx, photoUpload(t, id, "cv.pdf", "application/pdf", []byte("pdf")))
	assert.ErrorIs(t, err, profile.ErrPhotoNotImage)

	_, err = f.svc.UploadPhoto(ctx, photoUpload(t, id, "big.png", "image/png", bytes.Repeat([]byte("x"), 2048)))
	assert.ErrorIs(t, err, profile.ErrPhotoTooLarge)

	_, err = f.svc.UploadPhoto(ctx, profile.UploadPhotoRequest{EmployeeID: id})
	assert.ErrorIs(t, err, profile.ErrPhotoRequired)

	assert.Equal(t, 0, f.repo.profiles[id].UpdateCount)
}

func TestUploadPhoto_ForwardsUnknownEmployee(t *testing.T) {
	id := uuid.NewString()
	f := newFixture(t)
	f.setHandler(func(w http.ResponseWriter, r *http.Request) {
		file, _, err := r.FormFile("photo")
		require.NoError(t, err)
		body, _ := io.ReadAll(file)
		assert.Equal(t, "png", string(body))
		w.Write([]byte(`{"message":"stored upstream"}`))
	})

	res, err := f.svc.UploadPhoto(ctxWithToken(), photoUpload(t, id, "me.png", "image/png", []byte("png")))
	require.NoError(t, err)
	assert.Equal(t, profile.SourceBackend, res.Source)
	assert.Equal(t, 1, f.hit(profilePath(id, "/photo")))

	entries, _ := os.ReadDir(filepath.Join(f.store.BasePath(), "profiles"))
	assert.Empty(t, entries, "no local file for a forwarded upload")
}

func TestUploadPhoto_UnknownEverywhere(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.UploadPhoto(ctxWithToken(), photoUpload(t, uuid.NewString(), "me.png", "image/png", []byte("png")))
	assert.ErrorIs(t, err, profile.ErrProfileNotFound)
}

func TestDeletePhoto(t *testing.T) {
	id := uuid.NewString()
	f := newFixture(t, profile.Profile{ID: id})
	ctx := ctxWithToken()

	assert.ErrorIs(t, f.svc.DeletePhoto(ctx, id), profile.ErrNoPhoto)

	key, err := f.store.Save(ctx, bytes.NewReader([]byte("img")), "profiles/me.png")
	require.NoError(t, err)
	public := f.store.PublicPath(key)
	f.repo.profiles[id] = profile.Profile{ID: id, Photo: &public}

	require.NoError(t, f.svc.DeletePhoto(ctx, id))
	assert.Nil(t, f.repo.profiles[id].Photo)
	assert.Equal(t, 1, f.repo.profiles[id].UpdateCount)

	exists, err := f.store.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	assert.ErrorIs(t, f.svc.DeletePhoto(ctx, uuid.NewString()), profile.ErrProfileNotFound)
}

func TestEnhanced(t *testing.T) {
	id := uuid.NewString()
	created := testfixtures.ReferenceTime()
	f := newFixture(t, profile.Profile{ID: id, FullName: "Asha", CreatedAt: created})
	ctx := ctxWithToken()

	loc := "Pune"
	resp, err := f.svc.UpdateEnhanced(ctx, id, profile.UpdateProfileRequest{Location: &loc})
	require.NoError(t, err)
	assert.Equal(t, id, resp.ID)
	assert.Equal(t, "Pune", resp.Location)
	assert.Equal(t, created, resp.CreatedAt)
	assert.Equal(t, 1, resp.UpdateCount)

	bad := "nope"
	_, err = f.svc.UpdateEnhanced(ctx, id, profile.UpdateProfileRequest{Email: &bad})
	assert.Error(t, err)
	assert.Equal(t, 1, f.repo.profiles[id].UpdateCount)

	got, err := f.svc.GetEnhanced(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Pune", got.Location)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
