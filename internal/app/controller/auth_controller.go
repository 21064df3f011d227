package controller

import (
	"errors"
	"net/http"

	"github.com/bitemebuddy/bitemebuddy-backend/internal/app/model"
	"github.com/bitemebuddy/bitemebuddy-backend/internal/app/service"
	apperrors "github.com/bitemebuddy/bitemebuddy-backend/internal/errors"
	"github.com/bitemebuddy/bitemebuddy-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{
		authService: authService,
	}
}

type RegisterRequest struct {
	FullName        string `json:"full_name" binding:"required"`
	Phone           string `json:"phone" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Location        string `json:"location" binding:"required"`
	Password        string `json:"password" binding:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

type LoginRequest struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	FullName        string `json:"full_name" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Location        string `json:"location" binding:"required"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

type ResetPasswordRequest struct {
	Phone           string `json:"phone" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

func userResponse(user *model.User) gin.H {
	return gin.H{
		"id":            user.ID,
		"full_name":     user.FullName,
		"phone":         user.Phone,
		"email":         user.Email,
		"location":      user.Location,
		"profile_pic":   user.ProfilePic,
		"last_login_at": user.LastLoginAt,
		"created_at":    user.CreatedAt,
	}
}

// respondAuthError maps account errors onto the error envelope. It reports
// false for errors it does not know.
func respondAuthError(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, service.ErrMissingFields):
		apperrors.BadRequest(c, apperrors.ValidationRequired, "All fields are required")
	case errors.Is(err, service.ErrInvalidPhone):
		apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "Invalid phone number")
	case errors.Is(err, service.ErrInvalidEmail):
		apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "Invalid email address")
	case errors.Is(err, service.ErrPasswordTooShort):
		apperrors.BadRequest(c, apperrors.ValidationTooShort, "Password must be at least 6 characters")
	case errors.Is(err, service.ErrPasswordMismatch):
		apperrors.BadRequest(c, apperrors.AuthPasswordMismatch, "Passwords do not match")
	case errors.Is(err, service.ErrPhoneAlreadyExists):
		apperrors.Conflict(c, apperrors.AuthPhoneAlreadyExists, "Phone number already registered")
	case errors.Is(err, service.ErrEmailAlreadyExists):
		apperrors.Conflict(c, apperrors.AuthEmailAlreadyExists, "Email already in use")
	case errors.Is(err, service.ErrUserNotFound):
		apperrors.NotFound(c, apperrors.AuthUserNotFound, "User not found")
	default:
		return false
	}
	return true
}

// Register handles user registration
// POST /api/v1/auth/register
func (ctrl *AuthController) Register(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid registration request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid registration details")
		return
	}

	user, tokens, err := ctrl.authService.Register(c.Request.Context(), service.RegisterInput{
		FullName:        req.FullName,
		Phone:           req.Phone,
		Email:           req.Email,
		Location:        req.Location,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		if respondAuthError(c, err) {
			log.Warn("Registration rejected", map[string]interface{}{
				"error": err.Error(),
			})
			return
		}
		log.Error("Registration failed", err)
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "register user")
		return
	}

	log.Info("User registered successfully", map[string]interface{}{
		"user_id": user.ID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    userResponse(user),
		"tokens":  tokens,
	})
}

// Login handles user login
// POST /api/v1/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid login request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Phone and password are required")
		return
	}

	user, tokens, err := ctrl.authService.Login(c.Request.Context(), req.Phone, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthInvalidCredentials, "Invalid phone or password")
			return
		}
		if respondAuthError(c, err) {
			return
		}
		log.Error("Login failed", err)
		apperrors.InternalError(c, "Failed to log in")
		return
	}

	log.Info("Login successful", map[string]interface{}{
		"user_id": user.ID,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    userResponse(user),
		"tokens":  tokens,
	})
}

// Logout revokes the presented access token
// POST /api/v1/auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	token, claims, ok := middleware.GetTokenClaims(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	if err := ctrl.authService.Logout(c.Request.Context(), token, claims); err != nil {
		log.Error("Logout failed", err, map[string]interface{}{
			"user_id": claims.UserID,
		})
		apperrors.InternalError(c, "Failed to log out")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// GetMe returns current user information
// GET /api/v1/auth/me
func (ctrl *AuthController) GetMe(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		log.Warn("Unauthorized access to GetMe endpoint", nil)
		apperrors.Unauthorized(c, "")
		return
	}

	user, err := ctrl.authService.GetUserByID(userID)
	if err != nil {
		if respondAuthError(c, err) {
			return
		}
		log.Error("Failed to fetch user", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "Failed to fetch user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": userResponse(user),
	})
}

// UpdateMe updates the profile of the current user
// PUT /api/v1/auth/me
func (ctrl *AuthController) UpdateMe(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid profile update request", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid profile details")
		return
	}

	user, err := ctrl.authService.UpdateProfile(c.Request.Context(), userID, service.ProfileInput{
		FullName:        req.FullName,
		Email:           req.Email,
		Location:        req.Location,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		if respondAuthError(c, err) {
			return
		}
		log.Error("Failed to update profile", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "update profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    userResponse(user),
	})
}

// UploadAvatar replaces the profile picture with the multipart "file" part
// POST /api/v1/auth/me/avatar
func (ctrl *AuthController) UploadAvatar(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "Image file is required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		log.Error("Failed to open uploaded file", err)
		apperrors.InternalError(c, "Failed to read uploaded file")
		return
	}
	defer file.Close()

	user, err := ctrl.authService.UploadAvatar(c.Request.Context(), userID, service.AvatarUpload{
		Body:        file,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUploadUnavailable):
			apperrors.RespondWithError(c, http.StatusServiceUnavailable, apperrors.UploadUnavailable, "Image upload is not available")
		case errors.Is(err, service.ErrInvalidImage):
			apperrors.BadRequest(c, apperrors.UploadInvalidFileType, err.Error())
		case respondAuthError(c, err):
		default:
			log.Error("Avatar upload failed", err, map[string]interface{}{
				"user_id": userID,
			})
			apperrors.RespondWithError(c, http.StatusBadGateway, apperrors.UploadFailed, "Failed to upload image")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile picture updated",
		"user":    userResponse(user),
	})
}

// ResetPassword sets a new password for the account of a phone number
// POST /api/v1/auth/reset-password
func (ctrl *AuthController) ResetPassword(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid password reset request")
		return
	}

	if err := ctrl.authService.ResetPassword(c.Request.Context(), req.Phone, req.NewPassword, req.ConfirmPassword); err != nil {
		if respondAuthError(c, err) {
			return
		}
		log.Error("Password reset failed", err)
		apperrors.InternalError(c, "Failed to reset password")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Password reset successfully",
	})
}
