package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/nkiryanov/authservice/internal/apperrors"
	"github.com/nkiryanov/authservice/internal/handlers/render"
	"github.com/nkiryanov/authservice/internal/logger"
	"github.com/nkiryanov/authservice/internal/models"
	"github.com/nkiryanov/authservice/internal/service/email"
)

// Identity collaborator: user records and their credentials
type identityManager interface {
	// Has to return apperrors.ErrUserAlreadyExists if email is taken
	CreateUser(ctx context.Context, email string, password string) (models.User, error)

	// Has to return apperrors.ErrUserNotFound if user not found
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, userID uuid.UUID) (models.User, error)

	VerifyPassword(user models.User, password string) bool

	GenerateEmailConfirmationToken(ctx context.Context, user models.User) (string, error)
	ConfirmEmail(ctx context.Context, user models.User, token string) error

	GeneratePasswordResetToken(ctx context.Context, user models.User) (string, error)
	ResetPassword(ctx context.Context, user models.User, token string, newPassword string) error

	DeleteUser(ctx context.Context, user models.User) error
}

// Token pair issuance for already authenticated users
type tokenService interface {
	IssuePair(ctx context.Context, user models.User) (models.TokenResponse, error)

	// Has to return apperrors.ErrRefreshTokenNotFound for unknown or expired token
	Refresh(ctx context.Context, refresh string) (models.TokenResponse, error)
}

type emailSender interface {
	Send(ctx context.Context, msg email.Message) error
}

type AuthHandler struct {
	identity identityManager
	tokens   tokenService
	email    emailSender

	// Base URL of the frontend app, used to build the verification link
	appURL string

	logger logger.Logger
}

func NewAuth(identity identityManager, tokens tokenService, sender emailSender, appURL string, l logger.Logger) *AuthHandler {
	return &AuthHandler{
		identity: identity,
		tokens:   tokens,
		email:    sender,
		appURL:   appURL,
		logger:   l,
	}
}

func (h *AuthHandler) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /register", h.register)
	mux.HandleFunc("POST /verify-email", h.verifyEmail)
	mux.HandleFunc("POST /login", h.login)
	mux.HandleFunc("POST /forgot-password", h.forgotPassword)
	mux.HandleFunc("POST /reset-password", h.resetPassword)
	mux.HandleFunc("POST /refresh-token", h.refreshToken)
	mux.HandleFunc("DELETE /delete-user", h.deleteUser)

	return mux
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	type RegisterRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
	}
	type RegisterSuccessResponse struct {
		Message string `json:"message"`
	}

	data, err := render.BindAndValidate[RegisterRequest](w, r)
	if err != nil {
		return
	}

	user, err := h.identity.CreateUser(r.Context(), data.Email, data.Password)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUserAlreadyExists):
			render.ServiceError(w, "User already exists", http.StatusBadRequest)
		default:
			h.logger.Error("Failed to create user", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	// Verification email failure must not fail the registration
	// The user can request the link again later
	token, err := h.identity.GenerateEmailConfirmationToken(r.Context(), user)
	if err != nil {
		h.logger.Error("Failed to generate email confirmation token", "user_id", user.ID, "error", err.Error())
	} else {
		err = h.email.Send(r.Context(), email.Message{
			To:      user.Email,
			Subject: "Verify Your Email",
			Body:    "Click the link to verify your email: " + h.verificationLink(user, token),
		})
		if err != nil {
			h.logger.Warn("Failed to send verification email", "user_id", user.ID, "error", err.Error())
		}
	}

	render.JSON(w, RegisterSuccessResponse{Message: "User registered successfully"})
}

func (h *AuthHandler) verificationLink(user models.User, token string) string {
	return h.appURL + "/verify-email?userId=" + user.ID.String() + "&token=" + url.QueryEscape(token)
}

func (h *AuthHandler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	type VerifyEmailRequest struct {
		UserID string `json:"userId" validate:"required,uuid"`
		Token  string `json:"token" validate:"required"`
	}
	type VerifyEmailSuccessResponse struct {
		Message string `json:"message"`
	}

	data, err := render.BindAndValidate[VerifyEmailRequest](w, r)
	if err != nil {
		return
	}

	user, err := h.identity.FindByID(r.Context(), uuid.MustParse(data.UserID))
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.ServiceError(w, "User not found", http.StatusNotFound)
		default:
			h.logger.Error("Failed to find user", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	err = h.identity.ConfirmEmail(r.Context(), user, data.Token)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrPurposeTokenInvalid):
			render.ServiceError(w, "Email verification failed", http.StatusBadRequest)
		default:
			h.logger.Error("Failed to confirm email", "user_id", user.ID, "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, VerifyEmailSuccessResponse{Message: "Email successfully verified"})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	type LoginRequest struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	data, err := render.BindAndValidate[LoginRequest](w, r)
	if err != nil {
		return
	}

	// Bad email and bad password are indistinguishable to the caller
	user, err := h.identity.FindByEmail(r.Context(), data.Email)
	if err != nil && !errors.Is(err, apperrors.ErrUserNotFound) {
		h.logger.Error("Failed to find user", "error", err.Error())
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if err != nil || !h.identity.VerifyPassword(user, data.Password) {
		render.ServiceError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	pair, err := h.tokens.IssuePair(r.Context(), user)
	if err != nil {
		h.logger.Error("Failed to issue token pair", "user_id", user.ID, "error", err.Error())
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	render.JSON(w, pair)
}

func (h *AuthHandler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	type ForgotPasswordRequest struct {
		Email string `json:"email" validate:"required,email"`
	}
	type ForgotPasswordSuccessResponse struct {
		ResetToken string `json:"resetToken"`
	}

	data, err := render.BindAndValidate[ForgotPasswordRequest](w, r)
	if err != nil {
		return
	}

	user, err := h.identity.FindByEmail(r.Context(), data.Email)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.ServiceError(w, "User not found", http.StatusBadRequest)
		default:
			h.logger.Error("Failed to find user", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	token, err := h.identity.GeneratePasswordResetToken(r.Context(), user)
	if err != nil {
		h.logger.Error("Failed to generate password reset token", "user_id", user.ID, "error", err.Error())
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	render.JSON(w, ForgotPasswordSuccessResponse{ResetToken: token})
}

func (h *AuthHandler) resetPassword(w http.ResponseWriter, r *http.Request) {
	type ResetPasswordRequest struct {
		Email       string `json:"email" validate:"required,email"`
		Token       string `json:"token" validate:"required"`
		NewPassword string `json:"newPassword" validate:"required,min=8"`
	}
	type ResetPasswordSuccessResponse struct {
		Message string `json:"message"`
	}

	data, err := render.BindAndValidate[ResetPasswordRequest](w, r)
	if err != nil {
		return
	}

	user, err := h.identity.FindByEmail(r.Context(), data.Email)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.ServiceError(w, "User not found", http.StatusBadRequest)
		default:
			h.logger.Error("Failed to find user", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	err = h.identity.ResetPassword(r.Context(), user, data.Token, data.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrPurposeTokenInvalid):
			render.ServiceError(w, "Password reset failed", http.StatusBadRequest)
		default:
			h.logger.Error("Failed to reset password", "user_id", user.ID, "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, ResetPasswordSuccessResponse{Message: "Password reset successfully"})
}

func (h *AuthHandler) refreshToken(w http.ResponseWriter, r *http.Request) {
	type RefreshRequest struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}

	data, err := render.BindAndValidate[RefreshRequest](w, r)
	if err != nil {
		return
	}

	pair, err := h.tokens.Refresh(r.Context(), data.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrRefreshTokenNotFound):
			// Expected negative: unknown and expired tokens land here, not an internal error
			render.ServiceError(w, "Invalid refresh token", http.StatusUnauthorized)
		default:
			h.logger.Error("Failed to refresh tokens", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, pair)
}

func (h *AuthHandler) deleteUser(w http.ResponseWriter, r *http.Request) {
	type DeleteUserRequest struct {
		Email string `json:"email" validate:"required,email"`
	}
	type DeleteUserSuccessResponse struct {
		Message string `json:"message"`
	}

	data, err := render.BindAndValidate[DeleteUserRequest](w, r)
	if err != nil {
		return
	}

	user, err := h.identity.FindByEmail(r.Context(), data.Email)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.ServiceError(w, "User not found", http.StatusNotFound)
		default:
			h.logger.Error("Failed to find user", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	err = h.identity.DeleteUser(r.Context(), user)
	if err != nil {
		h.logger.Error("Failed to delete user", "user_id", user.ID, "error", err.Error())
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	render.JSON(w, DeleteUserSuccessResponse{Message: "User successfully deleted"})
}
