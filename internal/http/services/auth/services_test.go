package auth

import (
	"context"
	"net/url"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/idmanager/internal/cache"
	"github.com/dropDatabas3/idmanager/internal/domain/repository"
	"github.com/dropDatabas3/idmanager/internal/email"
	dto "github.com/dropDatabas3/idmanager/internal/http/dto/auth"
	jwtx "github.com/dropDatabas3/idmanager/internal/jwt"
	"github.com/dropDatabas3/idmanager/internal/security/password"
	tokens "github.com/dropDatabas3/idmanager/internal/security/token"
	"github.com/dropDatabas3/idmanager/internal/security/totp"
	"github.com/dropDatabas3/idmanager/internal/store/memory"
)

// captureSender guarda el último mail enviado para que los tests puedan
// extraer el código del link.
type captureSender struct {
	To, Subject, Text string
	Sent              int
}

func (s *captureSender) Send(to, subject, htmlBody, textBody string) error {
	s.To, s.Subject, s.Text = to, subject, textBody
	s.Sent++
	return nil
}

var linkRe = regexp.MustCompile(`https?://[^\s]+`)

// lastCode extrae el query param code del último link enviado.
func (s *captureSender) lastCode(t *testing.T) string {
	t.Helper()
	raw := linkRe.FindString(s.Text)
	require.NotEmpty(t, raw, "no link in email body")
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u.Query().Get("code")
}

type testEnv struct {
	services *Services
	store    *memory.Store
	cache    cache.Client
	sender   *captureSender
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st := memory.New()
	c, err := cache.New(cache.Config{Driver: "memory"})
	require.NoError(t, err)

	ks, err := jwtx.LoadOrGenerate("")
	require.NoError(t, err)

	sender := &captureSender{}
	svcs := New(Deps{
		Store:              st,
		Cache:              c,
		Issuer:             jwtx.NewIssuer("idmanager-test", ks, 15*time.Minute),
		Mailer:             email.NewMailer(sender, "http://localhost:8080"),
		Policy:             password.Policy{MinLength: 8},
		SessionTTL:         func(bool) time.Duration { return time.Hour },
		LockoutMaxAttempts: 3,
		LockoutDuration:    5 * time.Minute,
		TOTPIssuer:         "idmanager-test",
	})
	return &testEnv{services: svcs, store: st, cache: c, sender: sender}
}

func (e *testEnv) register(t *testing.T, emailAddr, pass string) *dto.RegisterResponse {
	t.Helper()
	resp, err := e.services.Register.Register(context.Background(), dto.RegisterRequest{
		Email:           emailAddr,
		Name:            "Test User",
		Password:        pass,
		ConfirmPassword: pass,
	})
	require.NoError(t, err)
	return resp
}

func TestRegister_MismatchedConfirmationCreatesNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.services.Register.Register(ctx, dto.RegisterRequest{
		Email:           "nadie@example.com",
		Name:            "Nadie",
		Password:        "valid-password-1",
		ConfirmPassword: "different-password",
	})
	require.ErrorIs(t, err, ErrPasswordMismatch)

	_, err = env.store.Users().GetByEmail(ctx, "nadie@example.com")
	require.True(t, repository.IsNotFound(err), "no user should exist after a failed register")
	require.Zero(t, env.sender.Sent, "no email should go out")
}

func TestRegister_BlankNameRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.services.Register.Register(ctx, dto.RegisterRequest{
		Email:           "sinnombre@example.com",
		Name:            "   ",
		Password:        "una-password-larga",
		ConfirmPassword: "una-password-larga",
	})
	require.ErrorIs(t, err, ErrMissingFields)

	_, err = env.store.Users().GetByEmail(ctx, "sinnombre@example.com")
	require.True(t, repository.IsNotFound(err), "no user should exist without a display name")
	require.Zero(t, env.sender.Sent)
}

func TestRegister_OptionsFollowRoleSelectionFlag(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	opts, err := env.services.Register.Options(ctx)
	require.NoError(t, err)
	require.False(t, opts.AllowRoleSelection)
	require.Empty(t, opts.Roles)

	// con selección habilitada se lista el catálogo vigente
	_, err = env.store.Roles().Create(ctx, "editor")
	require.NoError(t, err)
	deps := Deps{
		Store:              env.store,
		Cache:              env.cache,
		AllowRoleSelection: true,
	}
	opts, err = New(deps).Register.Options(ctx)
	require.NoError(t, err)
	require.True(t, opts.AllowRoleSelection)
	require.Equal(t, []string{"editor"}, opts.Roles)
}

func TestRegister_WeakPasswordReported(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.services.Register.Register(context.Background(), dto.RegisterRequest{
		Email:           "weak@example.com",
		Name:            "Weak",
		Password:        "short",
		ConfirmPassword: "short",
	})
	var weak *WeakPasswordError
	require.ErrorAs(t, err, &weak)
	require.Contains(t, weak.Reasons, "too_short")
}

func TestRegister_ConfirmEmail_LoginSucceeds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	reg := env.register(t, "ana@example.com", "una-password-larga")
	require.True(t, reg.ConfirmationSent)

	code := env.sender.lastCode(t)
	require.NotEmpty(t, code)

	err := env.services.Email.ConfirmEmail(ctx, dto.ConfirmEmailRequest{UserID: reg.UserID, Code: code})
	require.NoError(t, err)

	u, err := env.store.Users().GetByID(ctx, reg.UserID)
	require.NoError(t, err)
	require.True(t, u.EmailVerified)

	resp, err := env.services.Login.LoginPassword(ctx, dto.LoginRequest{
		Email:    "ana@example.com",
		Password: "una-password-larga",
	})
	require.NoError(t, err)
	require.Equal(t, dto.OutcomeSucceeded, resp.Status)
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.SessionToken)
}

func TestConfirmEmail_WrongCodeRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	reg := env.register(t, "mal@example.com", "una-password-larga")

	err := env.services.Email.ConfirmEmail(ctx, dto.ConfirmEmailRequest{UserID: reg.UserID, Code: "not-the-code"})
	require.ErrorIs(t, err, ErrTokenInvalid)

	u, _ := env.store.Users().GetByID(ctx, reg.UserID)
	require.False(t, u.EmailVerified)
}

func TestLogin_InvalidCredentialsAndLockout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "lock@example.com", "una-password-larga")

	for i := 0; i < 2; i++ {
		_, err := env.services.Login.LoginPassword(ctx, dto.LoginRequest{Email: "lock@example.com", Password: "wrong"})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}
	// tercer intento fallido bloquea
	_, err := env.services.Login.LoginPassword(ctx, dto.LoginRequest{Email: "lock@example.com", Password: "wrong"})
	require.ErrorIs(t, err, ErrLockedOut)

	// con password correcta sigue bloqueado: el lockout manda
	_, err = env.services.Login.LoginPassword(ctx, dto.LoginRequest{Email: "lock@example.com", Password: "una-password-larga"})
	require.ErrorIs(t, err, ErrLockedOut)
}

func TestLogin_UnknownUserLooksLikeBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.services.Login.LoginPassword(context.Background(), dto.LoginRequest{
		Email:    "fantasma@example.com",
		Password: "whatever-1234",
	})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_RejectsExternalReturnURL(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "ret@example.com", "una-password-larga")

	for _, bad := range []string{"http://evil.example.com", "//evil.example.com", "/\\evil", "relative/path"} {
		_, err := env.services.Login.LoginPassword(context.Background(), dto.LoginRequest{
			Email:     "ret@example.com",
			Password:  "una-password-larga",
			ReturnURL: bad,
		})
		require.ErrorIs(t, err, ErrInvalidReturnURL, "return_url %q should be rejected", bad)
	}

	resp, err := env.services.Login.LoginPassword(context.Background(), dto.LoginRequest{
		Email:     "ret@example.com",
		Password:  "una-password-larga",
		ReturnURL: "/dashboard",
	})
	require.NoError(t, err)
	require.Equal(t, "/dashboard", resp.ReturnURL)
}

func enrollAndActivate(t *testing.T, env *testEnv, userID string) []byte {
	t.Helper()
	ctx := context.Background()

	enroll, err := env.services.TwoFactor.Enroll(ctx, userID, "2fa@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, enroll.Secret)
	require.Contains(t, enroll.OTPAuthURL, "otpauth://totp/")

	raw, err := totp.DecodeSecret(enroll.Secret)
	require.NoError(t, err)

	err = env.services.TwoFactor.Activate(ctx, userID, totp.GenerateCode(raw, time.Now()))
	require.NoError(t, err)
	return raw
}

func TestTwoFactor_GatesLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	reg := env.register(t, "2fa@example.com", "una-password-larga")
	secret := enrollAndActivate(t, env, reg.UserID)

	// login ahora queda pendiente del segundo paso, sin sesión
	resp, err := env.services.Login.LoginPassword(ctx, dto.LoginRequest{
		Email:    "2fa@example.com",
		Password: "una-password-larga",
	})
	require.NoError(t, err)
	require.Equal(t, dto.OutcomeRequiresTwoFactor, resp.Status)
	require.NotEmpty(t, resp.TwoFactorToken)
	require.Empty(t, resp.AccessToken)
	require.Empty(t, resp.SessionToken)

	// código inválido no completa el login
	_, err = env.services.TwoFactor.VerifyChallenge(ctx, dto.VerifyTwoFactorRequest{
		TwoFactorToken: resp.TwoFactorToken,
		Code:           "000000",
	})
	require.ErrorIs(t, err, ErrInvalidTwoFactorCode)

	// código válido sí
	done, err := env.services.TwoFactor.VerifyChallenge(ctx, dto.VerifyTwoFactorRequest{
		TwoFactorToken: resp.TwoFactorToken,
		Code:           totp.GenerateCode(secret, time.Now()),
	})
	require.NoError(t, err)
	require.Equal(t, dto.OutcomeSucceeded, done.Status)
	require.NotEmpty(t, done.AccessToken)

	// el challenge se consumió: el token no sirve dos veces
	_, err = env.services.TwoFactor.VerifyChallenge(ctx, dto.VerifyTwoFactorRequest{
		TwoFactorToken: resp.TwoFactorToken,
		Code:           totp.GenerateCode(secret, time.Now()),
	})
	require.ErrorIs(t, err, ErrTwoFactorTokenInvalid)
}

func TestTwoFactor_InvalidActivationKeepsPendingSecret(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	reg := env.register(t, "pend@example.com", "una-password-larga")

	enroll, err := env.services.TwoFactor.Enroll(ctx, reg.UserID, "pend@example.com")
	require.NoError(t, err)

	err = env.services.TwoFactor.Activate(ctx, reg.UserID, "000000")
	require.ErrorIs(t, err, ErrInvalidTwoFactorCode)

	// el secreto pendiente sigue ahí y un código válido lo activa
	raw, _ := totp.DecodeSecret(enroll.Secret)
	err = env.services.TwoFactor.Activate(ctx, reg.UserID, totp.GenerateCode(raw, time.Now()))
	require.NoError(t, err)

	u, _ := env.store.Users().GetByID(ctx, reg.UserID)
	require.True(t, u.TwoFactorEnabled())
}

func TestTwoFactor_RemoveIsUnconditional(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	reg := env.register(t, "rm@example.com", "una-password-larga")
	enrollAndActivate(t, env, reg.UserID)

	require.NoError(t, env.services.TwoFactor.Remove(ctx, reg.UserID))

	u, _ := env.store.Users().GetByID(ctx, reg.UserID)
	require.False(t, u.TwoFactorEnabled())

	// el próximo login vuelve a ser de un solo paso
	resp, err := env.services.Login.LoginPassword(ctx, dto.LoginRequest{
		Email:    "rm@example.com",
		Password: "una-password-larga",
	})
	require.NoError(t, err)
	require.Equal(t, dto.OutcomeSucceeded, resp.Status)
}

func TestForgotPassword_UniformResponse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "real@example.com", "una-password-larga")
	env.sender.Sent = 0

	// cuenta existente: manda mail, sin error
	require.NoError(t, env.services.Email.ForgotPassword(ctx, dto.ForgotPasswordRequest{Email: "real@example.com"}))
	require.Equal(t, 1, env.sender.Sent)

	// cuenta inexistente: mismo resultado hacia afuera, sin mail
	require.NoError(t, env.services.Email.ForgotPassword(ctx, dto.ForgotPasswordRequest{Email: "fake@example.com"}))
	require.Equal(t, 1, env.sender.Sent)
}

func TestResetPassword_FlowRevokesSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	reg := env.register(t, "reset@example.com", "una-password-larga")

	login, err := env.services.Login.LoginPassword(ctx, dto.LoginRequest{
		Email:    "reset@example.com",
		Password: "una-password-larga",
	})
	require.NoError(t, err)

	require.NoError(t, env.services.Email.ForgotPassword(ctx, dto.ForgotPasswordRequest{Email: "reset@example.com"}))
	code := env.sender.lastCode(t)

	err = env.services.Email.ResetPassword(ctx, dto.ResetPasswordRequest{
		UserID:          reg.UserID,
		Code:            code,
		Password:        "otra-password-larga",
		ConfirmPassword: "otra-password-larga",
	})
	require.NoError(t, err)

	// password nueva funciona, la vieja no
	_, err = env.services.Login.LoginPassword(ctx, dto.LoginRequest{Email: "reset@example.com", Password: "una-password-larga"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = env.services.Login.LoginPassword(ctx, dto.LoginRequest{Email: "reset@example.com", Password: "otra-password-larga"})
	require.NoError(t, err)

	// la sesión previa quedó revocada
	_, err = env.store.Sessions().GetByHash(ctx, tokens.SHA256Base64URL(login.SessionToken))
	require.True(t, repository.IsNotFound(err), "old session should be gone, got %v", err)

	// el código de reset no se reusa
	err = env.services.Email.ResetPassword(ctx, dto.ResetPasswordRequest{
		UserID:          reg.UserID,
		Code:            code,
		Password:        "tercera-password",
		ConfirmPassword: "tercera-password",
	})
	require.Error(t, err)
}

func TestResetPassword_AcceptsEmailIdentifier(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "byemail@example.com", "una-password-larga")

	require.NoError(t, env.services.Email.ForgotPassword(ctx, dto.ForgotPasswordRequest{Email: "byemail@example.com"}))
	code := env.sender.lastCode(t)

	err := env.services.Email.ResetPassword(ctx, dto.ResetPasswordRequest{
		Email:           "ByEmail@Example.com",
		Code:            code,
		Password:        "otra-password-larga",
		ConfirmPassword: "otra-password-larga",
	})
	require.NoError(t, err)

	// email desconocido se ve igual que un token inválido
	err = env.services.Email.ResetPassword(ctx, dto.ResetPasswordRequest{
		Email:           "nadie@example.com",
		Code:            "whatever",
		Password:        "otra-password-larga",
		ConfirmPassword: "otra-password-larga",
	})
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestLogout_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "out@example.com", "una-password-larga")

	login, err := env.services.Login.LoginPassword(ctx, dto.LoginRequest{
		Email:    "out@example.com",
		Password: "una-password-larga",
	})
	require.NoError(t, err)

	require.NoError(t, env.services.Logout.Logout(ctx, login.SessionToken))
	require.NoError(t, env.services.Logout.Logout(ctx, login.SessionToken))
	require.NoError(t, env.services.Logout.Logout(ctx, "token-que-no-existe"))
}

func TestProfile_Me(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	reg := env.register(t, "me@example.com", "una-password-larga")
	_, err := env.store.Roles().Create(ctx, "editor")
	require.NoError(t, err)
	require.NoError(t, env.store.Roles().AddUserRoles(ctx, reg.UserID, []string{"editor"}))

	me, err := env.services.Profile.Me(ctx, reg.UserID)
	require.NoError(t, err)
	require.Equal(t, "me@example.com", me.Email)
	require.Equal(t, []string{"editor"}, me.Roles)
}
