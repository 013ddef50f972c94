package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"loan-portal/internal/auth"
	"loan-portal/internal/repository/sqlite"
	"loan-portal/internal/storage"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sqlite.OpenAndMigrate(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestHasher(t *testing.T) *auth.PasswordHasher {
	t.Helper()
	h, err := auth.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func newTestUserService(t *testing.T, db *sql.DB) UserService {
	t.Helper()
	svc, err := NewUserService(sqlite.NewUserRepository(db), newTestHasher(t))
	require.NoError(t, err)
	return svc
}

func newTestTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	tokens, err := auth.NewTokenService(auth.TokenConfig{Secret: "service-test-secret", TTL: time.Hour})
	require.NoError(t, err)
	return tokens
}

func mustRegister(t *testing.T, svc UserService, email string) int64 {
	t.Helper()
	user, err := svc.Register(context.Background(), RegisterInput{Email: email, Password: "secret123"})
	require.NoError(t, err)
	return user.ID
}

// memoryStorage is an in-process storage.Service used by document tests.
type memoryStorage struct {
	mu        sync.Mutex
	objects   map[string][]byte
	uploadErr error
	deleted   []string
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: make(map[string][]byte)}
}

func (m *memoryStorage) Upload(_ context.Context, body io.Reader, opts storage.UploadOptions) (string, error) {
	if m.uploadErr != nil {
		return "", m.uploadErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[opts.Bucket+"/"+opts.Key] = buf.Bytes()
	return storage.Location(opts.Bucket, opts.Key), nil
}

func (m *memoryStorage) ListObjects(_ context.Context, bucket, _ string) ([]storage.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []storage.ObjectInfo
	for k, v := range m.objects {
		out = append(out, storage.ObjectInfo{Key: k, Size: int64(len(v))})
	}
	return out, nil
}

func (m *memoryStorage) DeleteObject(_ context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, bucket+"/"+key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *memoryStorage) GetObjectURL(_ context.Context, bucket, key string, expires time.Duration) (string, error) {
	return fmt.Sprintf("https://%s.example.test/%s?expires=%d", bucket, key, int(expires.Seconds())), nil
}

var errStoreDown = errors.New("store is down")
