package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bitemebuddy/bitemebuddy-backend/internal/app/model"
	"github.com/bitemebuddy/bitemebuddy-backend/internal/app/repository"
	"github.com/bitemebuddy/bitemebuddy-backend/internal/storage"
	"github.com/bitemebuddy/bitemebuddy-backend/pkg/logger"
	"github.com/bitemebuddy/bitemebuddy-backend/pkg/util"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrPhoneAlreadyExists = errors.New("phone already exists")
	ErrInvalidCredentials = errors.New("invalid phone or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidPhone       = errors.New("invalid phone number")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrMissingFields      = errors.New("required fields are missing")
	ErrInvalidImage       = errors.New("invalid image")
	ErrUploadUnavailable  = errors.New("image upload is not configured")
)

const (
	minPasswordLength = 6
	avatarTransform   = "w_500,h_500,c_fill"
)

type RegisterInput struct {
	FullName        string
	Phone           string
	Email           string
	Location        string
	Password        string
	ConfirmPassword string
}

type ProfileInput struct {
	FullName        string
	Email           string
	Location        string
	NewPassword     string
	ConfirmPassword string
}

type AvatarUpload struct {
	Body        io.Reader
	ContentType string
	Size        int64
}

// ImageUploader is the write side of the image host.
type ImageUploader interface {
	Upload(ctx context.Context, in storage.UploadInput) (*storage.UploadResult, error)
}

// TokenRevoker blacklists a token for ttl.
type TokenRevoker func(ctx context.Context, token string, ttl time.Duration) error

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, *util.TokenPair, error)
	Login(ctx context.Context, phone, password string) (*model.User, *util.TokenPair, error)
	Logout(ctx context.Context, token string, claims *util.Claims) error
	GetUserByID(id uint) (*model.User, error)
	UpdateProfile(ctx context.Context, userID uint, in ProfileInput) (*model.User, error)
	ResetPassword(ctx context.Context, phone, newPassword, confirmPassword string) error
	UploadAvatar(ctx context.Context, userID uint, upload AvatarUpload) (*model.User, error)
}

type authService struct {
	userRepo      repository.UserRepository
	uploader      ImageUploader
	profileFolder string
	revoke        TokenRevoker
	jwtSecret     string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// NewAuthService wires authentication. uploader and revoke may be nil; the
// avatar upload then fails with ErrUploadUnavailable and logout only logs.
func NewAuthService(
	userRepo repository.UserRepository,
	uploader ImageUploader,
	profileFolder string,
	revoke TokenRevoker,
	jwtSecret string,
	accessExpiry, refreshExpiry time.Duration,
) AuthService {
	return &authService{
		userRepo:      userRepo,
		uploader:      uploader,
		profileFolder: profileFolder,
		revoke:        revoke,
		jwtSecret:     jwtSecret,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1
}

func validatePassword(password, confirm string) error {
	if len(password) < minPasswordLength {
		return ErrPasswordTooShort
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	return nil
}

// validPhone requires at least ten digits after normalization.
func validPhone(phone string) bool {
	digits := strings.TrimPrefix(phone, "+")
	return len(digits) >= 10
}

func (s *authService) issueTokens(user *model.User) (*util.TokenPair, error) {
	tokens, err := util.GenerateTokenPair(user.ID, user.Phone, s.jwtSecret, s.accessExpiry, s.refreshExpiry)
	if err != nil {
		logger.Error("Failed to generate tokens", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, err
	}
	return tokens, nil
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*model.User, *util.TokenPair, error) {
	phone := util.NormalizePhone(in.Phone)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	logger.Info("Attempting user registration", map[string]interface{}{
		"phone": phone,
		"email": email,
	})

	if strings.TrimSpace(in.FullName) == "" || phone == "" || email == "" ||
		strings.TrimSpace(in.Location) == "" || in.Password == "" {
		return nil, nil, ErrMissingFields
	}
	if !validPhone(phone) {
		return nil, nil, ErrInvalidPhone
	}
	if !validEmail(email) {
		return nil, nil, ErrInvalidEmail
	}
	if err := validatePassword(in.Password, in.ConfirmPassword); err != nil {
		return nil, nil, err
	}

	exists, err := s.userRepo.PhoneExists(phone)
	if err != nil {
		logger.Error("Failed to check existing phone", err, map[string]interface{}{
			"phone": phone,
		})
		return nil, nil, err
	}
	if exists {
		logger.Warn("Registration failed: phone already exists", map[string]interface{}{
			"phone": phone,
		})
		return nil, nil, ErrPhoneAlreadyExists
	}

	existing, err := s.userRepo.FindByEmail(email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to check existing email", err, map[string]interface{}{
			"email": email,
		})
		return nil, nil, err
	}
	if existing != nil {
		logger.Warn("Registration failed: email already exists", map[string]interface{}{
			"email": email,
		})
		return nil, nil, ErrEmailAlreadyExists
	}

	hashedPassword, err := util.HashPassword(in.Password)
	if err != nil {
		logger.Error("Failed to hash password", err, nil)
		return nil, nil, err
	}

	user := &model.User{
		FullName:     strings.TrimSpace(in.FullName),
		Phone:        phone,
		Email:        email,
		Location:     strings.TrimSpace(in.Location),
		PasswordHash: hashedPassword,
		ProfilePic:   model.DefaultAvatarURL,
	}
	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, nil, ErrPhoneAlreadyExists
		}
		return nil, nil, err
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("User registered successfully", map[string]interface{}{
		"user_id": user.ID,
	})
	return user, tokens, nil
}

func (s *authService) Login(ctx context.Context, phone, password string) (*model.User, *util.TokenPair, error) {
	phone = util.NormalizePhone(phone)
	logger.Info("Login attempt", map[string]interface{}{
		"phone": phone,
	})

	if phone == "" || password == "" {
		return nil, nil, ErrMissingFields
	}

	user, err := s.userRepo.FindByPhone(phone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Login failed: user not found", map[string]interface{}{
				"phone": phone,
			})
			return nil, nil, ErrInvalidCredentials
		}
		logger.Error("Failed to find user", err, map[string]interface{}{
			"phone": phone,
		})
		return nil, nil, err
	}

	if !util.VerifyPassword(user.PasswordHash, password) {
		logger.Warn("Login failed: invalid password", map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, nil, ErrInvalidCredentials
	}

	now := time.Now()
	if err := s.userRepo.UpdateLastLogin(user.ID, now); err != nil {
		logger.Warn("Failed to record last login", map[string]interface{}{
			"user_id": user.ID,
			"error":   err.Error(),
		})
	} else {
		user.LastLoginAt = &now
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("User logged in successfully", map[string]interface{}{
		"user_id": user.ID,
	})
	return user, tokens, nil
}

// Logout revokes token for the rest of its validity.
func (s *authService) Logout(ctx context.Context, token string, claims *util.Claims) error {
	if s.revoke == nil || token == "" || claims == nil {
		return nil
	}

	ttl := claims.RemainingValidity()
	if ttl <= 0 {
		return nil
	}
	if err := s.revoke(ctx, token, ttl); err != nil {
		logger.Error("Failed to revoke token", err, map[string]interface{}{
			"user_id": claims.UserID,
		})
		return err
	}

	logger.Info("User logged out", map[string]interface{}{
		"user_id": claims.UserID,
	})
	return nil
}

func (s *authService) GetUserByID(id uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("User not found", map[string]interface{}{
				"user_id": id,
			})
			return nil, ErrUserNotFound
		}
		logger.Error("Failed to fetch user", err, map[string]interface{}{
			"user_id": id,
		})
		return nil, err
	}
	return user, nil
}

func (s *authService) UpdateProfile(ctx context.Context, userID uint, in ProfileInput) (*model.User, error) {
	logger.Info("Updating user profile", map[string]interface{}{
		"user_id": userID,
	})

	fullName := strings.TrimSpace(in.FullName)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	location := strings.TrimSpace(in.Location)
	if fullName == "" || email == "" || location == "" {
		return nil, ErrMissingFields
	}
	if !validEmail(email) {
		return nil, ErrInvalidEmail
	}
	if in.NewPassword != "" {
		if err := validatePassword(in.NewPassword, in.ConfirmPassword); err != nil {
			return nil, err
		}
	}

	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	taken, err := s.userRepo.EmailTakenByOther(email, userID)
	if err != nil {
		logger.Error("Failed to check email uniqueness", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	if taken {
		return nil, ErrEmailAlreadyExists
	}

	user.FullName = fullName
	user.Email = email
	user.Location = location
	if in.NewPassword != "" {
		hashed, err := util.HashPassword(in.NewPassword)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hashed
	}

	if err := s.userRepo.Update(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}

	logger.Info("User profile updated successfully", map[string]interface{}{
		"user_id":          user.ID,
		"password_changed": in.NewPassword != "",
	})
	return user, nil
}

func (s *authService) ResetPassword(ctx context.Context, phone, newPassword, confirmPassword string) error {
	phone = util.NormalizePhone(phone)
	if phone == "" || newPassword == "" {
		return ErrMissingFields
	}
	if !validPhone(phone) {
		return ErrInvalidPhone
	}
	if err := validatePassword(newPassword, confirmPassword); err != nil {
		return err
	}

	user, err := s.userRepo.FindByPhone(phone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Password reset for unknown phone", map[string]interface{}{
				"phone": phone,
			})
			return ErrUserNotFound
		}
		return err
	}

	hashed, err := util.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(user.ID, hashed); err != nil {
		return err
	}

	logger.Info("Password reset", map[string]interface{}{
		"user_id": user.ID,
	})
	return nil
}

func (s *authService) UploadAvatar(ctx context.Context, userID uint, upload AvatarUpload) (*model.User, error) {
	if s.uploader == nil {
		return nil, ErrUploadUnavailable
	}
	if err := storage.ValidateFileSize(upload.Size, storage.MaxImageSize); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	ext, err := storage.ValidateImageType(upload.ContentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	result, err := s.uploader.Upload(ctx, storage.UploadInput{
		Body:        upload.Body,
		Folder:      s.profileFolder,
		PublicID:    fmt.Sprintf("user_%d_%s", userID, strings.ReplaceAll(uuid.NewString(), "-", "")[:12]),
		Extension:   ext,
		ContentType: upload.ContentType,
		Transform:   avatarTransform,
	})
	if err != nil {
		logger.Error("Failed to upload profile picture", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	user.ProfilePic = result.URL
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}

	logger.Info("Profile picture updated", map[string]interface{}{
		"user_id": userID,
		"key":     result.Key,
	})
	return user, nil
}
