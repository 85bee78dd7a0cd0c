package handlers

import (
	"context"

	"github.com/walletgate/authd/internal/services"
)

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	SignupFunc         func(ctx context.Context, email, password, firstName string) (*services.OTPPendingResponse, error)
	VerifySignupFunc   func(ctx context.Context, email, code string) (*services.AuthResponse, error)
	LoginFunc          func(ctx context.Context, email, password string) (*services.OTPPendingResponse, error)
	VerifyLoginOTPFunc func(ctx context.Context, email, code string) (*services.AuthResponse, error)
	VerifyOTPFunc      func(ctx context.Context, email, code string) (*services.AuthResponse, error)
	ResendOTPFunc      func(ctx context.Context, email, otpType string) (*services.OTPPendingResponse, error)
	ForgotPasswordFunc func(ctx context.Context, email, method string) (*services.ForgotPasswordResponse, error)
	ResetPasswordFunc  func(ctx context.Context, params services.ResetPasswordParams) error
	LogoutFunc         func(ctx context.Context, userID string) error
}

func (m *MockAuthService) Signup(ctx context.Context, email, password, firstName string) (*services.OTPPendingResponse, error) {
	if m.SignupFunc != nil {
		return m.SignupFunc(ctx, email, password, firstName)
	}
	return &services.OTPPendingResponse{Email: email, EmailSent: true}, nil
}

func (m *MockAuthService) VerifySignup(ctx context.Context, email, code string) (*services.AuthResponse, error) {
	if m.VerifySignupFunc != nil {
		return m.VerifySignupFunc(ctx, email, code)
	}
	return &services.AuthResponse{Token: "token"}, nil
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*services.OTPPendingResponse, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return &services.OTPPendingResponse{Email: email, EmailSent: true}, nil
}

func (m *MockAuthService) VerifyLoginOTP(ctx context.Context, email, code string) (*services.AuthResponse, error) {
	if m.VerifyLoginOTPFunc != nil {
		return m.VerifyLoginOTPFunc(ctx, email, code)
	}
	return &services.AuthResponse{Token: "token"}, nil
}

func (m *MockAuthService) VerifyOTP(ctx context.Context, email, code string) (*services.AuthResponse, error) {
	if m.VerifyOTPFunc != nil {
		return m.VerifyOTPFunc(ctx, email, code)
	}
	return &services.AuthResponse{Token: "token"}, nil
}

func (m *MockAuthService) ResendOTP(ctx context.Context, email, otpType string) (*services.OTPPendingResponse, error) {
	if m.ResendOTPFunc != nil {
		return m.ResendOTPFunc(ctx, email, otpType)
	}
	return &services.OTPPendingResponse{Email: email, EmailSent: true}, nil
}

func (m *MockAuthService) ForgotPassword(ctx context.Context, email, method string) (*services.ForgotPasswordResponse, error) {
	if m.ForgotPasswordFunc != nil {
		return m.ForgotPasswordFunc(ctx, email, method)
	}
	return &services.ForgotPasswordResponse{Email: email, EmailSent: true}, nil
}

func (m *MockAuthService) ResetPassword(ctx context.Context, params services.ResetPasswordParams) error {
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(ctx, params)
	}
	return nil
}

func (m *MockAuthService) Logout(ctx context.Context, userID string) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, userID)
	}
	return nil
}
