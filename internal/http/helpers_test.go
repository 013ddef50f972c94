package http

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"loan-portal/internal/auth"
	"loan-portal/internal/observability"
	"loan-portal/internal/repository"
	"loan-portal/internal/repository/sqlite"
	"loan-portal/internal/service"
	"loan-portal/internal/storage"
)

const (
	testBucket   = "loan-docs"
	testPassword = "secret123"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string]int64
}

func (s *fakeStorage) Upload(_ context.Context, body io.Reader, opts storage.UploadOptions) (string, error) {
	n, err := io.Copy(io.Discard, body)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[opts.Key] = n
	return storage.Location(opts.Bucket, opts.Key), nil
}

func (s *fakeStorage) ListObjects(_ context.Context, _, _ string) ([]storage.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]storage.ObjectInfo, 0, len(s.objects))
	for k, size := range s.objects {
		out = append(out, storage.ObjectInfo{Key: k, Size: size})
	}
	return out, nil
}

func (s *fakeStorage) DeleteObject(_ context.Context, _, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *fakeStorage) GetObjectURL(_ context.Context, bucket, key string, _ time.Duration) (string, error) {
	return fmt.Sprintf("https://%s.example.test/%s?signed=1", bucket, key), nil
}

type testEnv struct {
	router   *gin.Engine
	db       *sql.DB
	users    service.UserService
	userRepo repository.UserRepository
	tokens   *auth.TokenService
	clock    *testClock
	store    *fakeStorage
	metrics  *observability.Metrics
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithLimit(t, RateLimitConfig{Requests: 1000, Window: time.Minute, Burst: 1000})
}

func newTestEnvWithLimit(t *testing.T, limit RateLimitConfig) *testEnv {
	t.Helper()

	db, err := sqlite.OpenAndMigrate(filepath.Join(t.TempDir(), "http.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	clock := &testClock{now: time.Now()}
	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret: "http-test-secret",
		TTL:    time.Hour,
		Now:    clock.Now,
	})
	require.NoError(t, err)

	hasher, err := auth.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)

	userRepo := sqlite.NewUserRepository(db)
	users, err := service.NewUserService(userRepo, hasher)
	require.NoError(t, err)

	denylist := auth.NewMemoryDenylist(0, tokens.TTL())
	store := &fakeStorage{objects: make(map[string]int64)}
	metrics := observability.NewMetrics(prometheus.NewRegistry())

	handler := NewHandler(Dependencies{
		Users:    users,
		Sessions: service.NewSessionService(users, tokens, denylist),
		Loans:    service.NewLoanService(sqlite.NewLoanRepository(db), userRepo),
		Documents: service.NewDocumentService(sqlite.NewDocumentRepository(db), store, service.DocumentConfig{
			Bucket:     testBucket,
			KeyPrefix:  "loan-documents",
			PresignTTL: 10 * time.Minute,
			Logger:     logger,
		}),
		Storage:        store,
		Tokens:         tokens,
		Denylist:       denylist,
		Health:         observability.NewHealthChecker(db, nil, logger),
		Metrics:        metrics,
		Logger:         logger,
		Bucket:         testBucket,
		MaxUploadBytes: 1 << 20,
		PresignTTL:     10 * time.Minute,
		RateLimit:      limit,
	})

	router := gin.New()
	handler.RegisterRoutes(router)

	return &testEnv{
		router:   router,
		db:       db,
		users:    users,
		userRepo: userRepo,
		tokens:   tokens,
		clock:    clock,
		store:    store,
		metrics:  metrics,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) doRaw(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) register(t *testing.T, email string) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/auth/register", gin.H{
		"name":     "Test " + email,
		"email":    email,
		"password": testPassword,
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (e *testEnv) login(t *testing.T, email string) (string, LoginResponse) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/auth/login", gin.H{"email": email, "password": testPassword}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token, resp
}

func (e *testEnv) userToken(t *testing.T, email string) (string, int64) {
	t.Helper()
	e.register(t, email)
	token, resp := e.login(t, email)
	return token, resp.User.ID
}

func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	_, _, err := e.users.EnsureAdmin(context.Background(), "admin@x.com", testPassword)
	require.NoError(t, err)
	token, _ := e.login(t, "admin@x.com")
	return token
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body["error"]
}

func multipartUpload(t *testing.T, docType, fileName string, content []byte, token string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if docType != "" {
		require.NoError(t, w.WriteField("type", docType))
	}
	if fileName != "" {
		part, err := w.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}
