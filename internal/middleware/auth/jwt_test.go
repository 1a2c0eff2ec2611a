package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/plateprep/plateprep/internal/adapter/repository"
	"github.com/plateprep/plateprep/internal/domain/model"
)

// MockUserRepository is a mock user repository implementation.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) WithTx(tx *gorm.DB) repository.UserRepository {
	return m
}

func createValidJWT(t *testing.T, secret string, userID uuid.UUID, email, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID.String(),
		"email": email,
		"role":  role,
		"exp":   time.Now().Add(time.Hour).Unix(),
		"iat":   time.Now().Unix(),
	})
	tokenString, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return tokenString
}

func runMiddleware(t *testing.T, users repository.UserRepository, authHeader string, next echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	middleware := JWTMiddleware(Config{
		Secret: "test-secret",
		Users:  users,
		Logger: zap.NewNop(),
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := middleware(next)(c)
	require.NoError(t, err)
	return rec
}

func TestJWTMiddleware_SuccessfulAuthentication(t *testing.T) {
	userID := uuid.New()
	user := &model.User{ID: userID, Email: "test@example.com", Role: model.RoleAdmin}

	users := new(MockUserRepository)
	users.On("GetByID", mock.Anything, userID).Return(user, nil)

	rec := runMiddleware(t, users, "Bearer "+createValidJWT(t, "test-secret", userID, user.Email, "admin"),
		func(c echo.Context) error {
			got, err := CurrentUser(c)
			assert.NoError(t, err)
			assert.Equal(t, userID, got.ID)
			assert.Equal(t, model.RoleAdmin, got.Role)
			return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
		})

	assert.Equal(t, http.StatusOK, rec.Code)
	users.AssertExpectations(t)
}

func TestJWTMiddleware_MissingAuthorizationHeader(t *testing.T) {
	rec := runMiddleware(t, new(MockUserRepository), "", func(c echo.Context) error {
		t.Fatal("handler must not run")
		return nil
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTMiddleware_InvalidHeaderFormat(t *testing.T) {
	rec := runMiddleware(t, new(MockUserRepository), "Token abc", func(c echo.Context) error {
		t.Fatal("handler must not run")
		return nil
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTMiddleware_WrongSignature(t *testing.T) {
	userID := uuid.New()
	rec := runMiddleware(t, new(MockUserRepository),
		"Bearer "+createValidJWT(t, "other-secret", userID, "x@example.com", "member"),
		func(c echo.Context) error {
			t.Fatal("handler must not run")
			return nil
		})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTMiddleware_UnknownUser(t *testing.T) {
	userID := uuid.New()
	users := new(MockUserRepository)
	users.On("GetByID", mock.Anything, userID).Return(nil, nil)

	rec := runMiddleware(t, users,
		"Bearer "+createValidJWT(t, "test-secret", userID, "gone@example.com", "member"),
		func(c echo.Context) error {
			t.Fatal("handler must not run")
			return nil
		})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole_AllowsMatchingRole(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(userContextKey, &model.User{ID: uuid.New(), Role: model.RoleAdmin})

	err := RequireRole(model.RoleAdmin)(func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRole_RejectsOtherRole(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(userContextKey, &model.User{ID: uuid.New(), Role: model.RoleMember})

	err := RequireRole(model.RoleAdmin)(func(c echo.Context) error {
		t.Fatal("handler must not run")
		return nil
	})(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
