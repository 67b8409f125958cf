package service

import (
	"context"
	"time"

	"mailmind/internal/logger"
	"mailmind/internal/model"
	"mailmind/internal/repository"
)

type authService struct {
	userRepo repository.UserRepository
	logger   *logger.Logger
}

func NewAuthService(userRepo repository.UserRepository, logger *logger.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		logger:   logger.With("auth"),
	}
}

// GetOrCreateUser stores the identity returned by the OAuth callback and
// refreshes the bearer credential of a returning user.
func (s *authService) GetOrCreateUser(ctx context.Context, googleID, email, name, accessToken, refreshToken string, tokenExpiry interface{}) (*model.User, error) {
	expiry, hasExpiry := parseExpiry(tokenExpiry)

	existingUser, err := s.userRepo.FindByGoogleID(ctx, googleID)
	if err != nil {
		newUser := model.NewUser(googleID, email, name, accessToken, refreshToken, expiry)
		if err := s.userRepo.Create(ctx, newUser); err != nil {
			s.logger.Error("Failed to create user:", err)
			return nil, err
		}
		s.logger.Info("Created new user:", newUser.ID)
		return newUser, nil
	}

	if accessToken != "" || refreshToken != "" {
		existingUser.AccessToken = accessToken
		if refreshToken != "" {
			existingUser.RefreshToken = refreshToken
		}
		if hasExpiry {
			existingUser.TokenExpiry = expiry
		}
		existingUser.UpdatedAt = time.Now()

		if err := s.userRepo.Update(ctx, existingUser); err != nil {
			s.logger.Error("Failed to update user:", err)
			return nil, err
		}
		s.logger.Info("Updated existing user:", existingUser.ID)
	}

	return existingUser, nil
}

func (s *authService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}

// parseExpiry accepts a time.Time or an RFC 3339 string.
func parseExpiry(v interface{}) (time.Time, bool) {
	switch exp := v.(type) {
	case time.Time:
		return exp, true
	case string:
		if parsed, err := time.Parse(time.RFC3339, exp); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
