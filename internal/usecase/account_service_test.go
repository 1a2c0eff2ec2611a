package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/plateprep/plateprep/internal/adapter/repository"
	"github.com/plateprep/plateprep/internal/apperrors"
	"github.com/plateprep/plateprep/internal/config"
	"github.com/plateprep/plateprep/internal/domain/model"
)

// memoryOTPStore is a deterministic in-process OTP store for tests.
type memoryOTPStore struct {
	mu    sync.Mutex
	codes map[string]string
}

func newMemoryOTPStore() *memoryOTPStore {
	return &memoryOTPStore{codes: make(map[string]string)}
}

func (s *memoryOTPStore) GenerateCode() (string, error) {
	return "1234", nil
}

func (s *memoryOTPStore) StoreCode(_ context.Context, email, code string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[email] = code
	return nil
}

func (s *memoryOTPStore) GetCode(_ context.Context, email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code, ok := s.codes[email]
	if !ok {
		return "", repository.ErrOTPNotFound
	}
	return code, nil
}

func (s *memoryOTPStore) DeleteCode(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, email)
	return nil
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *recordingMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to)
	return nil
}

func newAccountService(t *testing.T) (*AccountService, *memoryOTPStore, *recordingMailer) {
	t.Helper()
	db := newTestDB(t)
	otp := newMemoryOTPStore()
	mailer := &recordingMailer{}
	svc := NewAccountService(
		repository.NewUserRepository(db, testLogger()),
		otp,
		mailer,
		config.JWTConfig{Secret: "test-secret", TTL: time.Hour},
		testLogger(),
	)
	return svc, otp, mailer
}

func TestRegister_CreatesAccountAndSendsOTP(t *testing.T) {
	svc, otp, mailer := newAccountService(t)

	user, token, err := svc.Register(context.Background(), RegisterInput{
		Email:    "new@example.com",
		Password: "hunter2hunter2",
		FullName: "New Member",
		Role:     model.RoleMember,
	})
	require.NoError(t, err)
	assert.False(t, user.IsEmailVerified)
	assert.NotEqual(t, "hunter2hunter2", user.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter2hunter2")))

	code, err := otp.GetCode(context.Background(), user.Email)
	require.NoError(t, err)
	assert.Equal(t, "1234", code)
	assert.Equal(t, []string{"new@example.com"}, mailer.sent)

	// The issued token carries the user id as subject.
	parsed, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	sub, err := parsed.Claims.GetSubject()
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), sub)
}

func TestRegister_RejectsAdminSelfRegistration(t *testing.T) {
	svc, _, _ := newAccountService(t)

	_, _, err := svc.Register(context.Background(), RegisterInput{
		Email:    "boss@example.com",
		Password: "hunter2hunter2",
		Role:     model.RoleAdmin,
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrInvalidArgument, apperrors.CodeOf(err))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _, _ := newAccountService(t)

	in := RegisterInput{Email: "dup@example.com", Password: "hunter2hunter2", Role: model.RoleChef}
	_, _, err := svc.Register(context.Background(), in)
	require.NoError(t, err)

	_, _, err = svc.Register(context.Background(), in)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrConflict, apperrors.CodeOf(err))
}

func TestVerifyOTP(t *testing.T) {
	svc, otp, _ := newAccountService(t)

	user, _, err := svc.Register(context.Background(), RegisterInput{
		Email:    "verify@example.com",
		Password: "hunter2hunter2",
		Role:     model.RoleMember,
	})
	require.NoError(t, err)

	// Wrong code first.
	err = svc.VerifyOTP(context.Background(), user.Email, "0000")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrInvalidArgument, apperrors.CodeOf(err))

	require.NoError(t, svc.VerifyOTP(context.Background(), user.Email, "1234"))

	// The code is single-use.
	_, err = otp.GetCode(context.Background(), user.Email)
	assert.ErrorIs(t, err, repository.ErrOTPNotFound)

	err = svc.VerifyOTP(context.Background(), user.Email, "1234")
	require.Error(t, err)
}

func TestLogin(t *testing.T) {
	svc, _, _ := newAccountService(t)

	_, _, err := svc.Register(context.Background(), RegisterInput{
		Email:    "login@example.com",
		Password: "hunter2hunter2",
		Role:     model.RoleMember,
	})
	require.NoError(t, err)

	user, token, err := svc.Login(context.Background(), "login@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, "login@example.com", user.Email)
	assert.NotEmpty(t, token)

	_, _, err = svc.Login(context.Background(), "login@example.com", "wrong-password")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrUnauthenticated, apperrors.CodeOf(err))

	_, _, err = svc.Login(context.Background(), "ghost@example.com", "hunter2hunter2")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrUnauthenticated, apperrors.CodeOf(err))
}

func TestResendOTP_AlreadyVerified(t *testing.T) {
	svc, _, _ := newAccountService(t)

	user, _, err := svc.Register(context.Background(), RegisterInput{
		Email:    "done@example.com",
		Password: "hunter2hunter2",
		Role:     model.RoleMember,
	})
	require.NoError(t, err)
	require.NoError(t, svc.VerifyOTP(context.Background(), user.Email, "1234"))

	err = svc.ResendOTP(context.Background(), user.Email)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrInvalidArgument, apperrors.CodeOf(err))
}
