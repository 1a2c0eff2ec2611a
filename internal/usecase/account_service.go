package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/plateprep/plateprep/internal/adapter/repository"
	"github.com/plateprep/plateprep/internal/apperrors"
	"github.com/plateprep/plateprep/internal/config"
	"github.com/plateprep/plateprep/internal/domain/model"
)

const otpTTL = 5 * time.Minute

// Mailer delivers transactional email.
type Mailer interface {
	Send(to, subject, body string) error
}

// RegisterInput carries the registration fields.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
	Role     model.Role
}

// AccountService handles registration, OTP email verification and login.
type AccountService struct {
	users  repository.UserRepository
	otp    repository.OTPStore
	mailer Mailer
	jwtCfg config.JWTConfig
	logger *zap.Logger
}

// NewAccountService creates an account service.
func NewAccountService(users repository.UserRepository, otp repository.OTPStore, mailer Mailer, jwtCfg config.JWTConfig, logger *zap.Logger) *AccountService {
	return &AccountService{
		users:  users,
		otp:    otp,
		mailer: mailer,
		jwtCfg: jwtCfg,
		logger: logger,
	}
}

// Register creates an account, stores a short-lived OTP and emails it.
// Self-registration is limited to chef and member roles.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*model.User, string, error) {
	if in.Role != model.RoleChef && in.Role != model.RoleMember {
		return nil, "", apperrors.NewAppError(apperrors.ErrInvalidArgument, "role must be chef or member", nil)
	}

	existing, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, "", err
	}
	if existing != nil {
		return nil, "", apperrors.NewAppError(apperrors.ErrConflict, "email already registered", nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Email:        in.Email,
		PasswordHash: string(hash),
		FullName:     in.FullName,
		Role:         in.Role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", err
	}

	s.sendVerificationCode(ctx, user)

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// sendVerificationCode generates, stores and emails an OTP. Failures are
// logged only: the account is created either way and the code can be resent.
func (s *AccountService) sendVerificationCode(ctx context.Context, user *model.User) {
	code, err := s.otp.GenerateCode()
	if err != nil {
		s.logger.Error("Failed to generate verification code",
			zap.String("email", user.Email),
			zap.Error(err))
		return
	}

	if err := s.otp.StoreCode(ctx, user.Email, code, otpTTL); err != nil {
		s.logger.Error("Failed to store verification code",
			zap.String("email", user.Email),
			zap.Error(err))
		return
	}

	body := fmt.Sprintf("Your Plateprep verification code is %s. It expires in 5 minutes.", code)
	if err := s.mailer.Send(user.Email, "Verify your email", body); err != nil {
		s.logger.Warn("Failed to send verification email",
			zap.String("email", user.Email),
			zap.Error(err))
	}
}

// ResendOTP issues a fresh verification code.
func (s *AccountService) ResendOTP(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return apperrors.NewAppError(apperrors.ErrNotFound, "user not found", nil)
	}
	if user.IsEmailVerified {
		return apperrors.NewAppError(apperrors.ErrInvalidArgument, "email already verified", nil)
	}

	s.sendVerificationCode(ctx, user)
	return nil
}

// VerifyOTP checks the submitted code and marks the email verified.
func (s *AccountService) VerifyOTP(ctx context.Context, email, code string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return apperrors.NewAppError(apperrors.ErrNotFound, "user not found", nil)
	}

	stored, err := s.otp.GetCode(ctx, email)
	if err != nil {
		if apperrors.Is(err, repository.ErrOTPNotFound) {
			return apperrors.NewAppError(apperrors.ErrInvalidArgument, "verification code not found or expired", nil)
		}
		return err
	}
	if stored != code {
		return apperrors.NewAppError(apperrors.ErrInvalidArgument, "invalid verification code", nil)
	}

	if err := s.users.MarkEmailVerified(ctx, user.ID); err != nil {
		return err
	}
	if err := s.otp.DeleteCode(ctx, email); err != nil {
		s.logger.Warn("Failed to delete verification code",
			zap.String("email", email),
			zap.Error(err))
	}

	return nil
}

// Login verifies credentials and returns the user with an access token.
func (s *AccountService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", apperrors.NewAppError(apperrors.ErrUnauthenticated, "invalid email or password", nil)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", apperrors.NewAppError(apperrors.ErrUnauthenticated, "invalid email or password", nil)
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// IssueToken signs an HS256 access token for the user.
func (s *AccountService) IssueToken(user *model.User) (string, error) {
	ttl := s.jwtCfg.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"role":  string(user.Role),
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	})

	signed, err := token.SignedString([]byte(s.jwtCfg.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
