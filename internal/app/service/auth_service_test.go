package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/bitemebuddy/bitemebuddy-backend/internal/app/model"
	"github.com/bitemebuddy/bitemebuddy-backend/internal/app/repository"
	"github.com/bitemebuddy/bitemebuddy-backend/internal/storage"
	"github.com/bitemebuddy/bitemebuddy-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testJWTSecret = "test-secret"

type fakeUploader struct {
	inputs []storage.UploadInput
}

func (f *fakeUploader) Upload(ctx context.Context, in storage.UploadInput) (*storage.UploadResult, error) {
	f.inputs = append(f.inputs, in)
	key := in.Folder + "/" + in.PublicID + in.Extension
	return &storage.UploadResult{URL: "https://img.example.com/" + key, PublicID: in.PublicID, Key: key}, nil
}

type revokedToken struct {
	token string
	ttl   time.Duration
}

func setupAuthServiceTest(t *testing.T) (AuthService, *gorm.DB, *fakeUploader, *[]revokedToken) {
	testDB := setupTestDB(t)
	uploader := &fakeUploader{}
	revoked := &[]revokedToken{}
	revoke := func(ctx context.Context, token string, ttl time.Duration) error {
		*revoked = append(*revoked, revokedToken{token: token, ttl: ttl})
		return nil
	}
	authService := NewAuthService(
		repository.NewUserRepository(testDB),
		uploader,
		"profile_pics",
		revoke,
		testJWTSecret,
		15*time.Minute,
		24*time.Hour,
	)
	return authService, testDB, uploader, revoked
}

func validRegistration() RegisterInput {
	return RegisterInput{
		FullName:        "Asha Rao",
		Phone:           "98765 43210",
		Email:           "Asha@Example.com",
		Location:        "Bengaluru",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		authService, _, _, _ := setupAuthServiceTest(t)

		user, tokens, err := authService.Register(ctx, validRegistration())
		require.NoError(t, err)
		assert.Equal(t, "+919876543210", user.Phone)
		assert.Equal(t, "asha@example.com", user.Email)
		assert.Equal(t, model.DefaultAvatarURL, user.ProfilePic)
		assert.NotEqual(t, "secret1", user.PasswordHash)
		assert.NotEmpty(t, tokens.AccessToken)

		claims, err := util.ValidateToken(tokens.AccessToken, testJWTSecret)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)
	})

	t.Run("Duplicates", func(t *testing.T) {
		authService, _, _, _ := setupAuthServiceTest(t)
		_, _, err := authService.Register(ctx, validRegistration())
		require.NoError(t, err)

		_, _, err = authService.Register(ctx, validRegistration())
		assert.ErrorIs(t, err, ErrPhoneAlreadyExists)

		in := validRegistration()
		in.Phone = "+919999999999"
		_, _, err = authService.Register(ctx, in)
		assert.ErrorIs(t, err, ErrEmailAlreadyExists)
	})

	t.Run("Validation", func(t *testing.T) {
		authService, _, _, _ := setupAuthServiceTest(t)

		in := validRegistration()
		in.Password, in.ConfirmPassword = "abc", "abc"
		_, _, err := authService.Register(ctx, in)
		assert.ErrorIs(t, err, ErrPasswordTooShort)

		in = validRegistration()
		in.ConfirmPassword = "different"
		_, _, err = authService.Register(ctx, in)
		assert.ErrorIs(t, err, ErrPasswordMismatch)

		in = validRegistration()
		in.Email = "not-an-email"
		_, _, err = authService.Register(ctx, in)
		assert.ErrorIs(t, err, ErrInvalidEmail)

		in = validRegistration()
		in.Phone = "12345"
		_, _, err = authService.Register(ctx, in)
		assert.ErrorIs(t, err, ErrInvalidPhone)

		in = validRegistration()
		in.Location = " "
		_, _, err = authService.Register(ctx, in)
		assert.ErrorIs(t, err, ErrMissingFields)
	})
}

func TestAuthService_LoginLogout(t *testing.T) {
	ctx := context.Background()
	authService, testDB, _, revoked := setupAuthServiceTest(t)
	registered, _, err := authService.Register(ctx, validRegistration())
	require.NoError(t, err)

	_, _, err = authService.Login(ctx, "9876543210", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = authService.Login(ctx, "9000000000", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	user, tokens, err := authService.Login(ctx, "9876543210", "secret1")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	require.NotNil(t, user.LastLoginAt)

	var stored model.User
	require.NoError(t, testDB.First(&stored, user.ID).Error)
	assert.NotNil(t, stored.LastLoginAt)

	claims, err := util.ValidateToken(tokens.AccessToken, testJWTSecret)
	require.NoError(t, err)
	require.NoError(t, authService.Logout(ctx, tokens.AccessToken, claims))
	require.Len(t, *revoked, 1)
	assert.Equal(t, tokens.AccessToken, (*revoked)[0].token)
	assert.True(t, (*revoked)[0].ttl > 0)
}

func TestAuthService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	authService, _, _, _ := setupAuthServiceTest(t)
	user, _, err := authService.Register(ctx, validRegistration())
	require.NoError(t, err)

	other := validRegistration()
	other.Phone, other.Email = "9123456789", "other@example.com"
	_, _, err = authService.Register(ctx, other)
	require.NoError(t, err)

	_, err = authService.UpdateProfile(ctx, user.ID, ProfileInput{
		FullName: "Asha R", Email: "other@example.com", Location: "Mysuru",
	})
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)

	_, err = authService.UpdateProfile(ctx, user.ID, ProfileInput{
		FullName: "Asha R", Email: "asha@example.com", Location: "Mysuru",
		NewPassword: "newpass1", ConfirmPassword: "newpass2",
	})
	assert.ErrorIs(t, err, ErrPasswordMismatch)

	updated, err := authService.UpdateProfile(ctx, user.ID, ProfileInput{
		FullName: "Asha R", Email: "asha@example.com", Location: "Mysuru",
		NewPassword: "newpass1", ConfirmPassword: "newpass1",
	})
	require.NoError(t, err)
	assert.Equal(t, "Mysuru", updated.Location)

	_, _, err = authService.Login(ctx, "9876543210", "newpass1")
	assert.NoError(t, err)
}

func TestAuthService_ResetPassword(t *testing.T) {
	ctx := context.Background()
	authService, _, _, _ := setupAuthServiceTest(t)
	_, _, err := authService.Register(ctx, validRegistration())
	require.NoError(t, err)

	assert.ErrorIs(t, authService.ResetPassword(ctx, "9000000000", "another1", "another1"), ErrUserNotFound)
	assert.ErrorIs(t, authService.ResetPassword(ctx, "9876543210", "short", "short"), ErrPasswordTooShort)

	require.NoError(t, authService.ResetPassword(ctx, "9876543210", "another1", "another1"))
	_, _, err = authService.Login(ctx, "+919876543210", "another1")
	assert.NoError(t, err)
}

func TestAuthService_UploadAvatar(t *testing.T) {
	ctx := context.Background()
	authService, _, uploader, _ := setupAuthServiceTest(t)
	user, _, err := authService.Register(ctx, validRegistration())
	require.NoError(t, err)

	_, err = authService.UploadAvatar(ctx, user.ID, AvatarUpload{
		Body: bytes.NewReader([]byte("gif")), ContentType: "application/pdf", Size: 3,
	})
	assert.ErrorIs(t, err, ErrInvalidImage)

	updated, err := authService.UploadAvatar(ctx, user.ID, AvatarUpload{
		Body: bytes.NewReader([]byte("png")), ContentType: "image/png", Size: 3,
	})
	require.NoError(t, err)
	require.Len(t, uploader.inputs, 1)
	assert.Equal(t, "profile_pics", uploader.inputs[0].Folder)
	assert.Equal(t, "w_500,h_500,c_fill", uploader.inputs[0].Transform)
	assert.Equal(t, ".png", uploader.inputs[0].Extension)
	assert.Contains(t, updated.ProfilePic, "https://img.example.com/profile_pics/user_")
}
