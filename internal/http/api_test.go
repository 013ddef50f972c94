package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-portal/internal/domain"
	"loan-portal/internal/service"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/register", gin.H{
		"name":     "Alice",
		"email":    "alice@x.com",
		"password": testPassword,
		"phone":    "0821234567",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"message":"user registered successfully"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), testPassword)
}

func TestRegister_RoleFieldIsIgnored(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/register", gin.H{
		"email":    "mallory@x.com",
		"password": testPassword,
		"role":     "admin",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	token, resp := env.login(t, "mallory@x.com")
	assert.Equal(t, domain.RoleUser, resp.User.Role)

	rec = env.do(t, http.MethodGet, "/api/admin/stats", nil, token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRegister_Duplicate(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "dup@x.com")

	for _, email := range []string{"dup@x.com", "DUP@x.com"} {
		rec := env.do(t, http.MethodPost, "/api/auth/register", gin.H{"email": email, "password": testPassword}, "")
		require.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "email already registered", errorBody(t, rec))
	}
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body any
		want string
	}{
		{"invalid json", `{"email":`, "invalid request body"},
		{"missing email", gin.H{"password": testPassword}, "email is required"},
		{"missing password", gin.H{"email": "a@x.com"}, "password is required"},
		{"short password", gin.H{"email": "a@x.com", "password": "short"}, "password must be at least 8 characters"},
		{"bad email", gin.H{"email": "not-an-email", "password": testPassword}, "email is not a valid address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/auth/register", tt.body, "")
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, errorBody(t, rec))
		})
	}

	count, err := env.userRepo.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "bob@x.com")

	token, resp := env.login(t, "BOB@x.com")
	assert.Equal(t, "bob@x.com", resp.User.Email)
	assert.Equal(t, domain.RoleUser, resp.User.Role)
	assert.NotZero(t, resp.User.ID)

	claims, err := env.tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.AccountID)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "bob@x.com")

	wrongPassword := env.do(t, http.MethodPost, "/api/auth/login", gin.H{"email": "bob@x.com", "password": "wrong-password"}, "")
	unknownEmail := env.do(t, http.MethodPost, "/api/auth/login", gin.H{"email": "nobody@x.com", "password": testPassword}, "")

	require.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	require.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())
	assert.JSONEq(t, `{"error":"invalid credentials"}`, wrongPassword.Body.String())
}

func TestLogin_MissingFields(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/login", gin.H{"email": "bob@x.com"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "password is required", errorBody(t, rec))

	rec = env.do(t, http.MethodPost, "/api/auth/login", "not json", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogout_RevokesToken(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.userToken(t, "a@x.com")

	rec := env.do(t, http.MethodPost, "/api/auth/logout", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/users/me", nil, token)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, msgInvalidToken, errorBody(t, rec))

	fresh, _ := env.login(t, "a@x.com")
	rec = env.do(t, http.MethodGet, "/api/users/me", nil, fresh)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)
	token, id := env.userToken(t, "me@x.com")

	rec := env.do(t, http.MethodGet, "/api/users/me", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, id, resp.ID)
	assert.Equal(t, "me@x.com", resp.Email)
	assert.NotContains(t, strings.ToLower(rec.Body.String()), "password")
}

func TestLoans(t *testing.T) {
	env := newTestEnv(t)
	token, id := env.userToken(t, "loaner@x.com")

	rec := env.do(t, http.MethodPost, "/api/loans/apply", gin.H{"amount": 1500}, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var loan LoanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loan))
	assert.Equal(t, id, loan.UserID)
	assert.Equal(t, domain.LoanStatusPending, loan.Status)

	invalid := []struct {
		body any
		want string
	}{
		{gin.H{"amount": 100}, "invalid input: amount must be between 300 and 4000"},
		{gin.H{"amount": 4000.5}, "invalid input: amount must be between 300 and 4000"},
		{gin.H{}, "amount is required"},
		{gin.H{"amount": 0}, "amount must be greater than 0"},
		{`{"amount":"lots"}`, "invalid request body"},
	}
	for _, tt := range invalid {
		rec = env.do(t, http.MethodPost, "/api/loans/apply", tt.body, token)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "%v", tt.body)
		assert.Equal(t, tt.want, errorBody(t, rec), "%v", tt.body)
	}

	rec = env.do(t, http.MethodGet, "/api/loans/my", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []LoanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, loan.ID, mine[0].ID)
}

func TestAdminLoanReview(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.userToken(t, "loaner@x.com")
	admin := env.adminToken(t)

	rec := env.do(t, http.MethodPost, "/api/loans/apply", gin.H{"amount": 2000}, user)
	require.Equal(t, http.StatusCreated, rec.Code)
	var loan LoanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loan))

	rec = env.do(t, http.MethodGet, "/api/admin/stats", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"totalUsers":2,"pendingLoans":1,"totalLoanAmount":2000}`, rec.Body.String())

	path := fmt.Sprintf("/api/admin/loans/%d/status", loan.ID)
	rec = env.do(t, http.MethodPut, path, gin.H{"status": "approved"}, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loan))
	assert.Equal(t, domain.LoanStatusApproved, loan.Status)

	rec = env.do(t, http.MethodPut, path, gin.H{"status": "paid"}, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "status must be one of: pending, under-review, approved, rejected", errorBody(t, rec))
	rec = env.do(t, http.MethodPut, path, gin.H{}, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "status is required", errorBody(t, rec))

	rec = env.do(t, http.MethodPut, "/api/admin/loans/9999/status", gin.H{"status": "rejected"}, admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/admin/loans/abc/status", gin.H{"status": "rejected"}, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, path, gin.H{"status": "approved"}, user)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/admin/loans", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	var all []LoanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	require.Len(t, all, 1)
	assert.Equal(t, "loaner@x.com", all[0].ApplicantEmail)
}

func TestAdminUsers(t *testing.T) {
	env := newTestEnv(t)
	env.userToken(t, "a@x.com")
	admin := env.adminToken(t)

	rec := env.do(t, http.MethodGet, "/api/admin/users", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)

	var users []UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	assert.Len(t, users, 2)
	assert.NotContains(t, strings.ToLower(rec.Body.String()), "password")
}

func TestDocuments(t *testing.T) {
	env := newTestEnv(t)
	owner, ownerID := env.userToken(t, "owner@x.com")
	other, _ := env.userToken(t, "other@x.com")
	admin := env.adminToken(t)

	rec := env.doRaw(multipartUpload(t, "payslip", "march.pdf", []byte("%PDF-1.4"), owner))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var doc DocumentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, ownerID, doc.UserID)
	assert.Equal(t, domain.DocumentTypePayslip, doc.Type)
	assert.Equal(t, domain.DocumentStatusPending, doc.Status)
	assert.Equal(t, "march.pdf", doc.FileName)
	assert.True(t, strings.HasPrefix(doc.URL, "s3://"+testBucket+"/"))
	assert.Contains(t, env.store.objects, doc.ObjectKey)

	rec = env.doRaw(multipartUpload(t, "selfie", "me.png", []byte("png"), owner))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.doRaw(multipartUpload(t, "payslip", "", nil, owner))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.doRaw(multipartUpload(t, "payslip", "march.pdf", []byte("x"), ""))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.doRaw(multipartUpload(t, "payslip", "huge.pdf", bytes.Repeat([]byte("a"), 2<<20), owner))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.JSONEq(t, `{"error":"file too large"}`, rec.Body.String())
	assert.Len(t, env.store.objects, 1)

	rec = env.do(t, http.MethodGet, "/api/documents/my-documents", nil, owner)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []DocumentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mine))
	require.Len(t, mine, 1)

	rec = env.do(t, http.MethodGet, "/api/documents/my-documents", nil, other)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	urlPath := fmt.Sprintf("/api/documents/%d/url", doc.ID)
	for _, token := range []string{owner, admin} {
		rec = env.do(t, http.MethodGet, urlPath, nil, token)
		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			URL       string `json:"url"`
			ExpiresIn int    `json:"expiresIn"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Contains(t, body.URL, doc.ObjectKey)
		assert.Equal(t, 600, body.ExpiresIn)
	}

	rec = env.do(t, http.MethodGet, urlPath, nil, other)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/documents/4242/url", nil, owner)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminDocumentReview(t *testing.T) {
	env := newTestEnv(t)
	owner, _ := env.userToken(t, "owner@x.com")
	admin := env.adminToken(t)

	rec := env.doRaw(multipartUpload(t, "idCopy", "id.jpg", []byte("jpeg"), owner))
	require.Equal(t, http.StatusCreated, rec.Code)
	var doc DocumentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))

	path := fmt.Sprintf("/api/admin/documents/%d/status", doc.ID)
	rec = env.do(t, http.MethodPut, path, gin.H{"status": "rejected"}, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, domain.DocumentStatusRejected, doc.Status)

	rec = env.do(t, http.MethodPut, path, gin.H{"status": "misplaced"}, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "status must be one of: pending, approved, rejected", errorBody(t, rec))
	rec = env.do(t, http.MethodPut, path, gin.H{"status": "under-review"}, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.do(t, http.MethodPut, "/api/admin/documents/777/status", gin.H{"status": "approved"}, admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/admin/documents", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	var all []DocumentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	require.Len(t, all, 1)
	assert.Equal(t, "owner@x.com", all[0].OwnerEmail)

	rec = env.do(t, http.MethodGet, "/api/admin/storage/objects?prefix=loan-documents/", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	var objects []StorageObjectResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &objects))
	require.Len(t, objects, 1)
	assert.Equal(t, doc.ObjectKey, objects[0].Key)
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/health", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)

	env.do(t, http.MethodGet, "/api/users/me", nil, "")

	rec = env.do(t, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `loan_portal_auth_failures_total{reason="missing_token"} 1`)
	assert.Contains(t, rec.Body.String(), `route="/api/users/me"`)
}

func TestStorageNotConfigured(t *testing.T) {
	logger, hook := test.NewNullLogger()
	h := NewHandler(Dependencies{Logger: logger})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/admin/storage/objects", nil)
	h.listObjects(c)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"error":"storage service not configured"}`, rec.Body.String())
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.ErrorIs(t, hook.LastEntry().Data[logrus.ErrorKey].(error), service.ErrStorageNotConfigured)
}
