package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/walletgate/authd/pkg/logger"
)

// OTPPurpose selects the copy for an OTP email.
type OTPPurpose string

const (
	PurposeSignup        OTPPurpose = "signup"
	PurposeLogin         OTPPurpose = "login"
	PurposePasswordReset OTPPurpose = "password_reset"
)

// EmailService defines the interface for sending account emails
type EmailService interface {
	SendOTPEmail(ctx context.Context, email string, purpose OTPPurpose, code string, expiresAt time.Time) error
	SendPasswordResetLink(ctx context.Context, email, token string, expiresAt time.Time) error
}

// AWSSESEmailService sends emails using AWS SES
type AWSSESEmailService struct {
	sesClient    *ses.Client
	fromAddress  string
	resetBaseURL string
	sendTimeout  time.Duration
	logger       *slog.Logger
}

// NewAWSSESEmailService creates a new AWS SES email service
func NewAWSSESEmailService(region, fromAddress, resetBaseURL string, sendTimeout time.Duration, log *slog.Logger) (*AWSSESEmailService, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSESEmailService{
		sesClient:    ses.NewFromConfig(cfg),
		fromAddress:  fromAddress,
		resetBaseURL: resetBaseURL,
		sendTimeout:  sendTimeout,
		logger:       log,
	}, nil
}

func otpSubject(purpose OTPPurpose) string {
	switch purpose {
	case PurposeLogin:
		return "Your login code"
	case PurposePasswordReset:
		return "Your password reset code"
	default:
		return "Verify your email address"
	}
}

func otpIntro(purpose OTPPurpose) string {
	switch purpose {
	case PurposeLogin:
		return "Use the code below to finish signing in to your account:"
	case PurposePasswordReset:
		return "Use the code below to reset your account password:"
	default:
		return "Thank you for creating an account. Enter the code below to verify your email address:"
	}
}

// SendOTPEmail delivers a one-time code for signup verification, login, or a
// password reset.
func (s *AWSSESEmailService) SendOTPEmail(ctx context.Context, email string, purpose OTPPurpose, code string, expiresAt time.Time) error {
	minutes := int(time.Until(expiresAt).Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #f8f9fa; padding: 20px; text-align: center; border-radius: 4px; }
        .content { padding: 20px 0; }
        .code { font-size: 32px; letter-spacing: 8px; font-weight: bold; text-align: center; padding: 16px; background-color: #f1f3f5; border-radius: 4px; }
        .footer { color: #666; font-size: 12px; margin-top: 20px; padding-top: 20px; border-top: 1px solid #eee; }
        .warning { background-color: #fff3cd; padding: 10px; border-left: 4px solid #ffc107; margin: 10px 0; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>%s</h1>
        </div>
        <div class="content">
            <p>%s</p>
            <p class="code">%s</p>
            <div class="warning">
                <strong>Security Notice:</strong> This code will expire in %d minutes. Never share it with anyone.
            </div>
            <p><strong>Didn't request this?</strong><br>
            If this wasn't you, you can ignore this email.</p>
        </div>
        <div class="footer">
            <p>This is an automated message. Please do not reply to this email.</p>
        </div>
    </div>
</body>
</html>
`, otpSubject(purpose), otpIntro(purpose), code, minutes)

	textBody := fmt.Sprintf(`%s

%s

    %s

Security Notice: This code will expire in %d minutes. Never share it with anyone.

Didn't request this?
If this wasn't you, you can ignore this email.

This is an automated message. Please do not reply to this email.
`, otpSubject(purpose), otpIntro(purpose), code, minutes)

	return s.send(ctx, email, otpSubject(purpose), htmlBody, textBody, string(purpose))
}

// SendPasswordResetLink delivers a single-use reset link for clients that
// prefer the link flow over the emailed code.
func (s *AWSSESEmailService) SendPasswordResetLink(ctx context.Context, email, token string, expiresAt time.Time) error {
	minutes := int(time.Until(expiresAt).Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}

	resetLink := fmt.Sprintf("%s/reset-password?token=%s", s.resetBaseURL, token)

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #f8f9fa; padding: 20px; text-align: center; border-radius: 4px; }
        .content { padding: 20px 0; }
        .button { display: inline-block; background-color: #0066cc; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px; margin: 20px 0; }
        .footer { color: #666; font-size: 12px; margin-top: 20px; padding-top: 20px; border-top: 1px solid #eee; }
        .warning { background-color: #fff3cd; padding: 10px; border-left: 4px solid #ffc107; margin: 10px 0; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Reset Your Password</h1>
        </div>
        <div class="content">
            <p>We received a request to reset the password for your account. Click the link below to choose a new password:</p>
            <p><a href="%s" class="button">Reset Password</a></p>
            <p>Or copy and paste this link in your browser:<br>
            <code>%s</code></p>
            <div class="warning">
                <strong>Security Notice:</strong> This link will expire in %d minutes and can be used once.
            </div>
            <p><strong>Didn't request this?</strong><br>
            If you didn't ask to reset your password, you can ignore this email. Your password will not change.</p>
        </div>
        <div class="footer">
            <p>This is an automated message. Please do not reply to this email.</p>
        </div>
    </div>
</body>
</html>
`, resetLink, resetLink, minutes)

	textBody := fmt.Sprintf(`Reset Your Password

We received a request to reset the password for your account. Open the link below to choose a new password:

%s

Security Notice: This link will expire in %d minutes and can be used once.

Didn't request this?
If you didn't ask to reset your password, you can ignore this email. Your password will not change.

This is an automated message. Please do not reply to this email.
`, resetLink, minutes)

	return s.send(ctx, email, "Reset your password", htmlBody, textBody, "password_reset_link")
}

func (s *AWSSESEmailService) send(ctx context.Context, email, subject, htmlBody, textBody, kind string) error {
	if s.sendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.sendTimeout)
		defer cancel()
	}

	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{email},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(subject),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data: aws.String(htmlBody),
				},
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	result, err := s.sesClient.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("failed to send email via SES",
			slog.String("email", logger.SanitizedEmail(email)),
			slog.String("kind", kind),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("email sent",
		slog.String("email", logger.SanitizedEmail(email)),
		slog.String("kind", kind),
		slog.String("message_id", *result.MessageId))

	return nil
}
