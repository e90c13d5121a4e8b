// Package auth define los DTOs del flujo de autenticación.
package auth

// Outcome discriminates the result of a password login.
type Outcome string

const (
	OutcomeSucceeded         Outcome = "succeeded"
	OutcomeRequiresTwoFactor Outcome = "requires_two_factor"
	OutcomeLockedOut         Outcome = "locked_out"
)

type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
	ReturnURL  string `json:"return_url,omitempty"`
}

type LoginResponse struct {
	Status Outcome `json:"status"`

	// Sólo cuando Status == succeeded.
	AccessToken  string `json:"access_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	SessionToken string `json:"session_token,omitempty"`
	ReturnURL    string `json:"return_url,omitempty"`

	// Sólo cuando Status == requires_two_factor.
	TwoFactorToken string `json:"two_factor_token,omitempty"`
}

type RegisterRequest struct {
	Email           string   `json:"email"`
	Name            string   `json:"name,omitempty"`
	Password        string   `json:"password"`
	ConfirmPassword string   `json:"confirm_password"`
	Roles           []string `json:"roles,omitempty"`
}

type RegisterResponse struct {
	UserID           string `json:"user_id"`
	Email            string `json:"email"`
	ConfirmationSent bool   `json:"confirmation_sent"`
}

// RegisterOptionsResponse describe qué acepta el alta: si se pueden
// elegir roles y cuáles existen hoy.
type RegisterOptionsResponse struct {
	AllowRoleSelection bool     `json:"allow_role_selection"`
	Roles              []string `json:"roles,omitempty"`
}

type ConfirmEmailRequest struct {
	UserID string `json:"user_id"`
	Code   string `json:"code"`
}

type VerifyTwoFactorRequest struct {
	TwoFactorToken string `json:"two_factor_token"`
	Code           string `json:"code"`
	RememberMe     bool   `json:"remember_me"`
}

type EnrollTwoFactorResponse struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauth_url"`
}

type ActivateTwoFactorRequest struct {
	Code string `json:"code"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest identifica la cuenta por user_id (viene en el
// link del mail) o por email; alcanza con uno de los dos.
type ResetPasswordRequest struct {
	UserID          string `json:"user_id,omitempty"`
	Email           string `json:"email,omitempty"`
	Code            string `json:"code"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type LogoutRequest struct {
	SessionToken string `json:"session_token"`
}

type MeResponse struct {
	UserID           string   `json:"user_id"`
	Email            string   `json:"email"`
	Name             string   `json:"name,omitempty"`
	EmailVerified    bool     `json:"email_verified"`
	TwoFactorEnabled bool     `json:"two_factor_enabled"`
	Roles            []string `json:"roles"`
}
