package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookmarks-api/internal/auth"
	"bookmarks-api/internal/repository/sqlite"
	"bookmarks-api/internal/service"
	"bookmarks-api/internal/storage"
)

type testServer struct {
	t      *testing.T
	router *gin.Engine
	tokens *auth.TokenManager
}

func newTestServer(t *testing.T, exportsEnabled bool) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "bookmarks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = sqlite.Migrate(context.Background(), db)
	require.NoError(t, err)

	users := sqlite.NewUserRepository(db)
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	bookmarks := service.NewBookmarkService(sqlite.NewBookmarkRepository(db))

	opts := service.ExportOptions{KeyPrefix: "exports", URLTTL: time.Minute}
	if exportsEnabled {
		opts.Bucket = "bookmarks"
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	handler := NewHandler(
		service.NewAuthService(users, tokens),
		service.NewUserService(users),
		bookmarks,
		service.NewExportService(bookmarks, storage.NewMemoryService(), opts),
		logger,
	)
	router := gin.New()
	handler.RegisterRoutes(router)

	return &testServer{t: t, router: router, tokens: tokens}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, "/api"+path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) signup(email, password string) string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/auth/signup", "", gin.H{"email": email, "password": password})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[map[string]string](s.t, rec)["access_token"]
}

func (s *testServer) createBookmark(token string, body any) BookmarkResponse {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/bookmarks", token, body)
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[BookmarkResponse](s.t, rec)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func bookmarkPath(id int64) string {
	return "/bookmarks/" + strconv.FormatInt(id, 10)
}

func TestEndToEnd(t *testing.T) {
	s := newTestServer(t, false)
	creds := gin.H{"email": "joe@doe.com", "password": "123"}

	rec := s.do(http.MethodPost, "/auth/signup", "", creds)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/auth/signin", "", creds)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token := decode[map[string]string](t, rec)["access_token"]
	require.NotEmpty(t, token)

	rec = s.do(http.MethodGet, "/users/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[UserResponse](t, rec)
	assert.Equal(t, "joe@doe.com", me.Email)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = s.do(http.MethodPatch, "/users", token, gin.H{"firstName": "Joe", "lastName": "Doe"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Joe")
	assert.Contains(t, rec.Body.String(), "Doe")

	rec = s.do(http.MethodGet, "/bookmarks", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	created := s.createBookmark(token, gin.H{"title": "First Bookmark", "link": "https://example.com/"})
	require.NotZero(t, created.ID)
	assert.Equal(t, me.ID, created.UserID)
	assert.Nil(t, created.Description)

	rec = s.do(http.MethodGet, "/bookmarks", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]BookmarkResponse](t, rec), 1)

	rec = s.do(http.MethodGet, bookmarkPath(created.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[BookmarkResponse](t, rec)
	assert.Equal(t, created, got)

	rec = s.do(http.MethodPatch, bookmarkPath(created.ID), token, gin.H{"title": "My Portfolio", "description": "desc"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	edited := decode[BookmarkResponse](t, rec)
	assert.Equal(t, created.ID, edited.ID)
	assert.Equal(t, "My Portfolio", edited.Title)
	require.NotNil(t, edited.Description)
	assert.Equal(t, "desc", *edited.Description)
	assert.Equal(t, "https://example.com/", edited.Link)

	rec = s.do(http.MethodDelete, bookmarkPath(created.ID), token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = s.do(http.MethodGet, "/bookmarks", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = s.do(http.MethodGet, bookmarkPath(created.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", rec.Body.String())

	rec = s.do(http.MethodDelete, bookmarkPath(created.ID), token, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthValidation(t *testing.T) {
	s := newTestServer(t, false)

	tests := []struct {
		name string
		path string
		body any
	}{
		{name: "signup empty email", path: "/auth/signup", body: gin.H{"password": "123"}},
		{name: "signup empty password", path: "/auth/signup", body: gin.H{"email": "joe@doe.com"}},
		{name: "signup no body", path: "/auth/signup"},
		{name: "signup bad email", path: "/auth/signup", body: gin.H{"email": "joe", "password": "123"}},
		{name: "signin empty email", path: "/auth/signin", body: gin.H{"password": "123"}},
		{name: "signin empty password", path: "/auth/signin", body: gin.H{"email": "joe@doe.com"}},
		{name: "signin no body", path: "/auth/signin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, tt.path, "", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestAuthFailures(t *testing.T) {
	s := newTestServer(t, false)
	s.signup("joe@doe.com", "123")

	rec := s.do(http.MethodPost, "/auth/signup", "", gin.H{"email": "joe@doe.com", "password": "456"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, "/auth/signin", "", gin.H{"email": "joe@doe.com", "password": "456"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRoutesRequireBearerToken(t *testing.T) {
	s := newTestServer(t, true)
	expired := auth.NewTokenManager("test-secret", -time.Minute)
	expiredToken, err := expired.Issue("someone", "x@example.com")
	require.NoError(t, err)
	forged, err := auth.NewTokenManager("other-secret", time.Hour).Issue("someone", "x@example.com")
	require.NoError(t, err)
	ghost, err := s.tokens.Issue("9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d", "ghost@example.com")
	require.NoError(t, err)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/bookmarks"},
		{http.MethodGet, "/bookmarks/1"},
		{http.MethodPost, "/bookmarks"},
		{http.MethodPatch, "/bookmarks/1"},
		{http.MethodDelete, "/bookmarks/1"},
		{http.MethodGet, "/users/me"},
		{http.MethodPatch, "/users"},
		{http.MethodPost, "/exports"},
		{http.MethodGet, "/exports"},
		{http.MethodDelete, "/exports"},
	}
	for _, token := range []string{"", "garbage", expiredToken, forged, ghost} {
		for _, r := range routes {
			rec := s.do(r.method, r.path, token, nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", r.method, r.path)
			assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/bookmarks", nil)
	req.Header.Set("Authorization", "Basic abc")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBookmarkOwnership(t *testing.T) {
	s := newTestServer(t, false)
	joe := s.signup("joe@doe.com", "123")
	ann := s.signup("ann@doe.com", "123")

	b := s.createBookmark(joe, gin.H{"title": "Joe's", "link": "https://example.com/"})

	rec := s.do(http.MethodGet, "/bookmarks", ann, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = s.do(http.MethodGet, bookmarkPath(b.ID), ann, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", rec.Body.String())

	rec = s.do(http.MethodPatch, bookmarkPath(b.ID), ann, gin.H{"title": "mine"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodDelete, bookmarkPath(b.ID), ann, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// a missing bookmark looks exactly like a foreign one
	missing := s.do(http.MethodPatch, bookmarkPath(b.ID+100), ann, gin.H{"title": "mine"})
	assert.Equal(t, http.StatusForbidden, missing.Code)
	assert.Equal(t, rec.Body.String(), missing.Body.String())

	rec = s.do(http.MethodGet, bookmarkPath(b.ID), joe, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Joe's", decode[BookmarkResponse](t, rec).Title)
}

func TestBookmarkValidation(t *testing.T) {
	s := newTestServer(t, false)
	token := s.signup("joe@doe.com", "123")
	b := s.createBookmark(token, gin.H{"title": "First", "link": "https://example.com/"})

	rec := s.do(http.MethodPost, "/bookmarks", token, gin.H{"link": "https://example.com/"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[struct {
		Error  string       `json:"error"`
		Fields []fieldError `json:"fields"`
	}](t, rec)
	assert.Equal(t, "validation failed", body.Error)
	require.Len(t, body.Fields, 1)
	assert.Equal(t, "title", body.Fields[0].Field)

	rec = s.do(http.MethodPost, "/bookmarks", token, gin.H{"title": "x", "link": "not a url"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/bookmarks", token, `{"title":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPatch, bookmarkPath(b.ID), token, gin.H{"title": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPatch, bookmarkPath(b.ID), token, gin.H{"link": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	for _, path := range []string{"/bookmarks/abc", "/bookmarks/0", "/bookmarks/-1"} {
		assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, path, token, nil).Code, path)
		assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPatch, path, token, gin.H{}).Code, path)
		assert.Equal(t, http.StatusBadRequest, s.do(http.MethodDelete, path, token, nil).Code, path)
	}
}

func TestEditWithoutFieldsIsNoop(t *testing.T) {
	s := newTestServer(t, false)
	token := s.signup("joe@doe.com", "123")
	b := s.createBookmark(token, gin.H{"title": "First", "link": "https://example.com/", "description": "d"})

	for _, body := range []any{gin.H{}, nil} {
		rec := s.do(http.MethodPatch, bookmarkPath(b.ID), token, body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, b, decode[BookmarkResponse](t, rec))
	}

	rec := s.do(http.MethodPatch, "/users", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode[UserResponse](t, rec).FirstName)
}

func TestExports(t *testing.T) {
	s := newTestServer(t, true)
	token := s.signup("joe@doe.com", "123")
	s.createBookmark(token, gin.H{"title": "First", "link": "https://example.com/"})

	rec := s.do(http.MethodPost, "/exports", token, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	export := decode[ExportResponse](t, rec)
	assert.Equal(t, 1, export.Count)
	assert.NotEmpty(t, export.URL)

	rec = s.do(http.MethodGet, "/exports", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	objects := decode[[]StorageObjectResponse](t, rec)
	require.Len(t, objects, 1)
	assert.Equal(t, export.Key, objects[0].Key)

	rec = s.do(http.MethodDelete, "/exports", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, "/exports", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestExportsDisabled(t *testing.T) {
	s := newTestServer(t, false)
	token := s.signup("joe@doe.com", "123")

	assert.Equal(t, http.StatusServiceUnavailable, s.do(http.MethodPost, "/exports", token, nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, s.do(http.MethodGet, "/exports", token, nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, s.do(http.MethodDelete, "/exports", token, nil).Code)
}

func TestHealthAndRequestID(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(requestIDHeader, "fixed-id")
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, "fixed-id", rec.Header().Get(requestIDHeader))

	req = httptest.NewRequest(http.MethodOptions, "/api/bookmarks", nil)
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
