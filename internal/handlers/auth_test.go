package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walletgate/authd/internal/auth"
	"github.com/walletgate/authd/internal/models"
	"github.com/walletgate/authd/internal/services"
	pkgauth "github.com/walletgate/authd/pkg/auth"
	pkghttp "github.com/walletgate/authd/pkg/http"
)

func postJSON(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) pkghttp.Envelope {
	t.Helper()
	var env pkghttp.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestSignupHandler(t *testing.T) {
	t.Run("accepts a valid signup", func(t *testing.T) {
		h := NewAuthHandler(&MockAuthService{})
		rec := postJSON(t, h.Signup, `{"email":"ada@example.com","password":"Val1d$Password","first_name":"Ada"}`)

		assert.Equal(t, http.StatusCreated, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.True(t, env.Success)
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		h := NewAuthHandler(&MockAuthService{})
		rec := postJSON(t, h.Signup, `{"email":`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.False(t, decodeEnvelope(t, rec).Success)
	})

	t.Run("rejects a bad email before the service is called", func(t *testing.T) {
		called := false
		h := NewAuthHandler(&MockAuthService{
			SignupFunc: func(ctx context.Context, email, password, firstName string) (*services.OTPPendingResponse, error) {
				called = true
				return nil, nil
			},
		})
		rec := postJSON(t, h.Signup, `{"email":"not-an-email","password":"Val1d$Password"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.False(t, called)
	})

	t.Run("maps a weak password to 400 with details", func(t *testing.T) {
		h := NewAuthHandler(&MockAuthService{
			SignupFunc: func(ctx context.Context, email, password, firstName string) (*services.OTPPendingResponse, error) {
				return nil, &pkgauth.PasswordValidationError{Errors: []string{"must contain at least one uppercase letter"}}
			},
		})
		rec := postJSON(t, h.Signup, `{"email":"ada@example.com","password":"weakpassword1!"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeEnvelope(t, rec).Message, "uppercase")
	})

	t.Run("maps conflict to 409", func(t *testing.T) {
		h := NewAuthHandler(&MockAuthService{
			SignupFunc: func(ctx context.Context, email, password, firstName string) (*services.OTPPendingResponse, error) {
				return nil, models.ErrConflict
			},
		})
		rec := postJSON(t, h.Signup, `{"email":"ada@example.com","password":"Val1d$Password"}`)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestLoginHandler(t *testing.T) {
	t.Run("returns the otp-pending payload", func(t *testing.T) {
		h := NewAuthHandler(&MockAuthService{
			LoginFunc: func(ctx context.Context, email, password string) (*services.OTPPendingResponse, error) {
				return &services.OTPPendingResponse{Email: email, EmailSent: true, ExpiresAt: time.Now().Add(10 * time.Minute).Format(time.RFC3339)}, nil
			},
		})
		rec := postJSON(t, h.Login, `{"email":"ada@example.com","password":"Val1d$Password"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.True(t, env.Success)
		data := env.Data.(map[string]interface{})
		assert.Equal(t, true, data["email_sent"])
	})

	t.Run("maps invalid credentials to 401", func(t *testing.T) {
		h := NewAuthHandler(&MockAuthService{
			LoginFunc: func(ctx context.Context, email, password string) (*services.OTPPendingResponse, error) {
				return nil, models.ErrInvalidCredentials
			},
		})
		rec := postJSON(t, h.Login, `{"email":"ada@example.com","password":"wrong"}`)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid email or password", decodeEnvelope(t, rec).Message)
	})

	t.Run("maps a lockout to 423 with the remaining time", func(t *testing.T) {
		h := NewAuthHandler(&MockAuthService{
			LoginFunc: func(ctx context.Context, email, password string) (*services.OTPPendingResponse, error) {
				return nil, &models.AccountLockedError{Remaining: 17 * time.Minute}
			},
		})
		rec := postJSON(t, h.Login, `{"email":"ada@example.com","password":"Val1d$Password"}`)

		assert.Equal(t, http.StatusLocked, rec.Code)
		assert.Contains(t, decodeEnvelope(t, rec).Message, "17 minutes")
	})
}

func TestVerifyOTPHandler(t *testing.T) {
	t.Run("explicit signup type routes to VerifySignup", func(t *testing.T) {
		signupCalled := false
		h := NewAuthHandler(&MockAuthService{
			VerifySignupFunc: func(ctx context.Context, email, code string) (*services.AuthResponse, error) {
				signupCalled = true
				return &services.AuthResponse{Token: "tok"}, nil
			},
		})
		rec := postJSON(t, h.VerifyOTP, `{"email":"ada@example.com","otp":"482913","type":"signup"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, signupCalled)
	})

	t.Run("missing type auto-detects", func(t *testing.T) {
		autoCalled := false
		h := NewAuthHandler(&MockAuthService{
			VerifyOTPFunc: func(ctx context.Context, email, code string) (*services.AuthResponse, error) {
				autoCalled = true
				return &services.AuthResponse{Token: "tok"}, nil
			},
		})
		rec := postJSON(t, h.VerifyOTP, `{"email":"ada@example.com","otp":"482913"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, autoCalled)
	})

	t.Run("rejects a non-numeric code", func(t *testing.T) {
		h := NewAuthHandler(&MockAuthService{})
		rec := postJSON(t, h.VerifyOTP, `{"email":"ada@example.com","otp":"48a913"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("maps otp failures to 400 with distinct messages", func(t *testing.T) {
		cases := []struct {
			err     error
			message string
		}{
			{models.ErrOTPNotFound, "No verification code found. Request a new one."},
			{models.ErrOTPExpired, "The code has expired. Request a new one."},
			{models.ErrOTPExhausted, "Too many incorrect attempts. Request a new code."},
			{models.ErrOTPMismatch, "Invalid verification code."},
		}
		for _, tc := range cases {
			h := NewAuthHandler(&MockAuthService{
				VerifyOTPFunc: func(ctx context.Context, email, code string) (*services.AuthResponse, error) {
					return nil, tc.err
				},
			})
			rec := postJSON(t, h.VerifyOTP, `{"email":"ada@example.com","otp":"482913"}`)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tc.message, decodeEnvelope(t, rec).Message)
		}
	})
}

func TestResendOTPHandler(t *testing.T) {
	t.Run("maps unknown email to 404", func(t *testing.T) {
		h := NewAuthHandler(&MockAuthService{
			ResendOTPFunc: func(ctx context.Context, email, otpType string) (*services.OTPPendingResponse, error) {
				return nil, models.ErrNotFound
			},
		})
		rec := postJSON(t, h.ResendOTP, `{"email":"ghost@example.com"}`)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("passes the type through", func(t *testing.T) {
		var gotType string
		h := NewAuthHandler(&MockAuthService{
			ResendOTPFunc: func(ctx context.Context, email, otpType string) (*services.OTPPendingResponse, error) {
				gotType = otpType
				return &services.OTPPendingResponse{Email: email, EmailSent: true}, nil
			},
		})
		rec := postJSON(t, h.ResendOTP, `{"email":"ada@example.com","type":"password_reset"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "password_reset", gotType)
	})

	t.Run("rejects an unknown type", func(t *testing.T) {
		h := NewAuthHandler(&MockAuthService{})
		rec := postJSON(t, h.ResendOTP, `{"email":"ada@example.com","type":"fax"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestForgotPasswordHandler(t *testing.T) {
	t.Run("passes the method through", func(t *testing.T) {
		var gotMethod string
		h := NewAuthHandler(&MockAuthService{
			ForgotPasswordFunc: func(ctx context.Context, email, method string) (*services.ForgotPasswordResponse, error) {
				gotMethod = method
				return &services.ForgotPasswordResponse{Email: email, EmailSent: true}, nil
			},
		})
		rec := postJSON(t, h.ForgotPassword, `{"email":"ada@example.com","method":"link"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "link", gotMethod)
	})

	t.Run("rejects an unknown method", func(t *testing.T) {
		h := NewAuthHandler(&MockAuthService{})
		rec := postJSON(t, h.ForgotPassword, `{"email":"ada@example.com","method":"carrier-pigeon"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestResetPasswordHandler(t *testing.T) {
	t.Run("forwards both proof shapes", func(t *testing.T) {
		var got services.ResetPasswordParams
		h := NewAuthHandler(&MockAuthService{
			ResetPasswordFunc: func(ctx context.Context, params services.ResetPasswordParams) error {
				got = params
				return nil
			},
		})

		rec := postJSON(t, h.ResetPassword, `{"email":"ada@example.com","otp":"482913","new_password":"N3w$Password!"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "482913", got.OTP)

		rec = postJSON(t, h.ResetPassword, `{"token":"opaque","new_password":"N3w$Password!"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "opaque", got.Token)
	})

	t.Run("maps an invalid token to 400", func(t *testing.T) {
		h := NewAuthHandler(&MockAuthService{
			ResetPasswordFunc: func(ctx context.Context, params services.ResetPasswordParams) error {
				return models.ErrResetTokenInvalid
			},
		})
		rec := postJSON(t, h.ResetPassword, `{"token":"stale","new_password":"N3w$Password!"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("maps a missing proof to 400", func(t *testing.T) {
		h := NewAuthHandler(&MockAuthService{
			ResetPasswordFunc: func(ctx context.Context, params services.ResetPasswordParams) error {
				return &models.ValidationError{Message: "either a reset token or an email and code are required"}
			},
		})
		rec := postJSON(t, h.ResetPassword, `{"new_password":"N3w$Password!"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLogoutHandler(t *testing.T) {
	t.Run("requires claims in context", func(t *testing.T) {
		h := NewAuthHandler(&MockAuthService{})
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		rec := httptest.NewRecorder()
		h.Logout(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("logs out the authenticated account", func(t *testing.T) {
		var loggedOut string
		h := NewAuthHandler(&MockAuthService{
			LogoutFunc: func(ctx context.Context, userID string) error {
				loggedOut = userID
				return nil
			},
		})

		claims := &auth.TokenClaims{Type: auth.TokenTypeSession, UserID: "acc_1"}
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req = req.WithContext(context.WithValue(req.Context(), auth.UserContextKey, claims))
		rec := httptest.NewRecorder()
		h.Logout(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "acc_1", loggedOut)
	})
}
