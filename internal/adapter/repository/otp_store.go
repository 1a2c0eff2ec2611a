package repository

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrOTPNotFound is returned when no code is stored for the email or it expired.
var ErrOTPNotFound = errors.New("verification code not found or expired")

// OTPStore keeps short-lived email verification codes.
type OTPStore interface {
	GenerateCode() (string, error)
	StoreCode(ctx context.Context, email, code string, ttl time.Duration) error
	GetCode(ctx context.Context, email string) (string, error)
	DeleteCode(ctx context.Context, email string) error
}

type redisOTPStore struct {
	client *redis.Client
}

// NewRedisOTPStore creates an OTP store backed by Redis.
func NewRedisOTPStore(client *redis.Client) OTPStore {
	return &redisOTPStore{client: client}
}

// GenerateCode generates a 4-digit verification code
func (s *redisOTPStore) GenerateCode() (string, error) {
	bytes := make([]byte, 2)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	code := 1000 + (int(bytes[0])<<8|int(bytes[1]))%9000
	return fmt.Sprintf("%04d", code), nil
}

func otpKey(email string) string {
	return fmt.Sprintf("email_otp:%s", email)
}

// StoreCode stores a verification code with a TTL
func (s *redisOTPStore) StoreCode(ctx context.Context, email, code string, ttl time.Duration) error {
	return s.client.Set(ctx, otpKey(email), code, ttl).Err()
}

// GetCode returns the stored verification code for the email
func (s *redisOTPStore) GetCode(ctx context.Context, email string) (string, error) {
	code, err := s.client.Get(ctx, otpKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrOTPNotFound
		}
		return "", err
	}
	return code, nil
}

// DeleteCode removes the stored code after successful verification
func (s *redisOTPStore) DeleteCode(ctx context.Context, email string) error {
	return s.client.Del(ctx, otpKey(email)).Err()
}
