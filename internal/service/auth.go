package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/greencart/backend/internal/hash"
	"github.com/greencart/backend/internal/logging"
	"github.com/greencart/backend/internal/models"
	"github.com/greencart/backend/internal/repo"
	"github.com/greencart/backend/internal/tokens"
)

var ErrInvalidCredentials = errors.New("invalid credentials") // 401

type AuthService struct {
	Repo          *repo.GormRepo
	JWTSecret     []byte
	RefreshSecret []byte

	// PostRegister is invoked synchronously after a successful registration
	// (welcome mail, onboarding, ...). Nil means no hook.
	PostRegister func(ctx context.Context, user *models.User)
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	User         models.User
}

type RegisterInput struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
	FarmName string `json:"farm_name"`
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if in.Email == "" || in.Username == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: email, username and password required", ErrValidation)
	}
	if in.Role == "" {
		in.Role = models.RoleConsumer
	}
	if in.Role != models.RoleConsumer && in.Role != models.RoleProducer {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, in.Role)
	}

	if _, err := s.Repo.UserByEmail(ctx, in.Email); err == nil {
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		l.Error("register_error", "reason", "cannot hash password", "error", err)
		return nil, err
	}

	user := &models.User{
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: pwHash,
		Role:         in.Role,
		IsActive:     true,
	}

	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		if err := tx.CreateUser(ctx, user); err != nil {
			return err
		}
		if in.Role == models.RoleProducer {
			return tx.CreateProducerProfile(ctx, &models.ProducerProfile{
				UserID:   user.ID,
				FarmName: in.FarmName,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.PostRegister != nil {
		s.PostRegister(ctx, user)
	}

	l.Info("user registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.Repo.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive || !hash.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	result, err := s.issueTokens(ctx, user)
	if err != nil {
		l.Error("login_error", "error", err)
		return nil, err
	}
	l.Info("login ok", "user_id", user.ID)
	return result, nil
}

// Refresh rotates the token pair: the presented refresh token is revoked and
// a new pair is issued.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	stored, err := s.Repo.RefreshTokenByValue(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if stored.Revoked || time.Now().After(stored.ExpiresAt) {
		return nil, ErrInvalidCredentials
	}

	var userID uint
	if _, err := fmt.Sscanf(claims.Subject, "%d", &userID); err != nil {
		return nil, ErrInvalidCredentials
	}
	user, err := s.Repo.UserByID(ctx, userID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := s.Repo.RevokeRefreshToken(ctx, refreshToken); err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, user)
}

// Logout revokes the refresh token. A missing or unknown token degrades to
// an informational no-op.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.Repo.RevokeRefreshToken(ctx, refreshToken)
}

func (s *AuthService) Profile(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.Repo.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d", ErrNotFound, userID)
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uint, username string) (*models.User, error) {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if username != "" {
		user.Username = username
	}
	if err := s.Repo.SaveUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("%w: new password required", ErrValidation)
	}
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}
	if !hash.CheckPassword(user.PasswordHash, oldPassword) {
		return ErrInvalidCredentials
	}
	pwHash, err := hash.HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = pwHash
	return s.Repo.SaveUser(ctx, user)
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*LoginResult, error) {
	var producerID uint
	if user.Role == models.RoleProducer {
		profile, err := s.Repo.ProducerProfileByUserID(ctx, user.ID)
		if err == nil {
			producerID = profile.ID
		}
	}

	subject := fmt.Sprint(user.ID)
	accessExp := time.Now().Add(tokens.AccessTTL).UTC()
	access, err := tokens.SignAccessToken(subject, user.Role, producerID, s.JWTSecret, accessExp)
	if err != nil {
		return nil, err
	}

	refreshExp := time.Now().Add(tokens.RefreshTTL).UTC()
	refresh, err := tokens.SignRefreshToken(subject, s.RefreshSecret, refreshExp)
	if err != nil {
		return nil, err
	}

	if err := s.Repo.SaveRefreshToken(ctx, refresh, user.ID, refreshExp); err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		User:         *user,
	}, nil
}
