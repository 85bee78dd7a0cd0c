package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/walletgate/authd/internal/auth"
	"github.com/walletgate/authd/internal/models"
	"github.com/walletgate/authd/internal/services"
	pkgauth "github.com/walletgate/authd/pkg/auth"
	pkghttp "github.com/walletgate/authd/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Signup(ctx context.Context, email, password, firstName string) (*services.OTPPendingResponse, error)
	VerifySignup(ctx context.Context, email, code string) (*services.AuthResponse, error)
	Login(ctx context.Context, email, password string) (*services.OTPPendingResponse, error)
	VerifyLoginOTP(ctx context.Context, email, code string) (*services.AuthResponse, error)
	VerifyOTP(ctx context.Context, email, code string) (*services.AuthResponse, error)
	ResendOTP(ctx context.Context, email, otpType string) (*services.OTPPendingResponse, error)
	ForgotPassword(ctx context.Context, email, method string) (*services.ForgotPasswordResponse, error)
	ResetPassword(ctx context.Context, params services.ResetPasswordParams) error
	Logout(ctx context.Context, userID string) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// Request DTOs

// SignupRequest represents the request body for signup
type SignupRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	FirstName string `json:"first_name" validate:"max=100"`
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// VerifyOTPRequest represents the request body for OTP verification. Type is
// optional; when absent the flow is inferred from server-side state.
type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,numeric,min=4,max=10"`
	Type  string `json:"type" validate:"omitempty,oneof=signup login"`
}

// ResendOTPRequest represents the request body for an OTP resend. Type is
// optional; when absent the flow is inferred the same way verify-otp does.
type ResendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	Type  string `json:"type" validate:"omitempty,oneof=signup login password_reset"`
}

// ForgotPasswordRequest represents the request body for starting a reset
type ForgotPasswordRequest struct {
	Email  string `json:"email" validate:"required,email"`
	Method string `json:"method" validate:"omitempty,oneof=otp link"`
}

// ResetPasswordRequest represents the request body for completing a reset.
// Callers send either token, or email plus otp.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	Email       string `json:"email" validate:"omitempty,email"`
	OTP         string `json:"otp" validate:"omitempty,numeric,min=4,max=10"`
	NewPassword string `json:"new_password" validate:"required"`
}

// Signup stages a registration and emails the verification code
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	resp, err := h.service.Signup(r.Context(), req.Email, req.Password, req.FirstName)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, "Verification code sent. Check your email to complete signup.", resp)
}

// Login checks credentials and emails the second-factor code
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	resp, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, "Login code sent. Verify the code to receive your session token.", resp)
}

// VerifyOTP redeems a code for either flow and returns the session token
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	var resp *services.AuthResponse
	var err error
	switch req.Type {
	case "signup":
		resp, err = h.service.VerifySignup(r.Context(), req.Email, req.OTP)
	case "login":
		resp, err = h.service.VerifyLoginOTP(r.Context(), req.Email, req.OTP)
	default:
		resp, err = h.service.VerifyOTP(r.Context(), req.Email, req.OTP)
	}
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, "Verification successful.", resp)
}

// ResendOTP issues a fresh code for whichever flow is in flight
func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req ResendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	resp, err := h.service.ResendOTP(r.Context(), req.Email, req.Type)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, "A new code has been sent.", resp)
}

// ForgotPassword starts a password reset
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	resp, err := h.service.ForgotPassword(r.Context(), req.Email, req.Method)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, "Password reset instructions sent.", resp)
}

// ResetPassword completes a password reset
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	err := h.service.ResetPassword(r.Context(), services.ResetPasswordParams{
		Email:       req.Email,
		OTP:         req.OTP,
		Token:       req.Token,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, "Password has been reset. You can now log in.", nil)
}

// Logout ends the session. Requires a valid bearer token; the token itself
// stays valid until expiry, the client is expected to discard it.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	if err := h.service.Logout(r.Context(), claims.UserID); err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, "Logged out.", nil)
}

// writeServiceError maps service errors onto the response envelope. OTP
// failures keep their specific messages; credential failures stay merged so
// nothing distinguishes a wrong password from an unknown email.
func (h *AuthHandler) writeServiceError(w http.ResponseWriter, err error) {
	var pwErr *pkgauth.PasswordValidationError
	var lockedErr *models.AccountLockedError

	switch {
	case errors.As(err, &pwErr):
		pkghttp.WriteBadRequest(w, pwErr.Error())
	case errors.Is(err, models.ErrValidation):
		pkghttp.WriteBadRequest(w, err.Error())
	case errors.As(err, &lockedErr):
		pkghttp.WriteLocked(w, lockedErr.Error())
	case errors.Is(err, models.ErrAccountLocked):
		pkghttp.WriteLocked(w, "Account is temporarily locked. Try again later.")
	case errors.Is(err, models.ErrInvalidCredentials):
		pkghttp.WriteUnauthorized(w, "Invalid email or password")
	case errors.Is(err, models.ErrOTPNotFound):
		pkghttp.WriteBadRequest(w, "No verification code found. Request a new one.")
	case errors.Is(err, models.ErrOTPExpired):
		pkghttp.WriteBadRequest(w, "The code has expired. Request a new one.")
	case errors.Is(err, models.ErrOTPExhausted):
		pkghttp.WriteBadRequest(w, "Too many incorrect attempts. Request a new code.")
	case errors.Is(err, models.ErrOTPMismatch):
		pkghttp.WriteBadRequest(w, "Invalid verification code.")
	case errors.Is(err, models.ErrResetTokenInvalid):
		pkghttp.WriteBadRequest(w, "Invalid or expired reset token.")
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteConflict(w, "An account with this email already exists.")
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "No account found with this email.")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, "Bad request")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}
