package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/idmanager/internal/cache"
	"github.com/dropDatabas3/idmanager/internal/domain/repository"
	dto "github.com/dropDatabas3/idmanager/internal/http/dto/auth"
	"github.com/dropDatabas3/idmanager/internal/observability/logger"
	"github.com/dropDatabas3/idmanager/internal/security/totp"
)

// TwoFactorService maneja el enrolamiento y la verificación TOTP.
type TwoFactorService interface {
	// Enroll genera (o regenera) el secreto TOTP del usuario y lo guarda
	// cifrado, sin confirmar. Repetir el enroll pisa el secreto anterior.
	Enroll(ctx context.Context, userID, accountEmail string) (*dto.EnrollTwoFactorResponse, error)

	// Activate confirma el enrolamiento con un código válido. Un código
	// inválido deja el secreto pendiente tal como estaba.
	Activate(ctx context.Context, userID, code string) error

	// Remove desactiva TOTP sin pedir código.
	Remove(ctx context.Context, userID string) error

	// VerifyChallenge completa el segundo paso del login y emite la
	// sesión. El challenge se consume aunque el código sea inválido sólo
	// cuando el resultado es lockout.
	VerifyChallenge(ctx context.Context, in dto.VerifyTwoFactorRequest) (*dto.LoginResponse, error)
}

// Errores TOTP
var (
	ErrTwoFactorTokenInvalid = fmt.Errorf("two-factor token invalid or expired")
	ErrInvalidTwoFactorCode  = fmt.Errorf("invalid two-factor code")
	ErrTwoFactorNotEnrolled  = fmt.Errorf("two-factor not enrolled")
)

// totpWindowSteps tolera un step de clock drift hacia cada lado.
const totpWindowSteps = 1

type twoFactorService struct {
	deps Deps
}

func (s *twoFactorService) Enroll(ctx context.Context, userID, accountEmail string) (*dto.EnrollTwoFactorResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.totp"),
		logger.Op("Enroll"),
		logger.UserID(userID),
	)

	_, b32, err := totp.GenerateSecret()
	if err != nil {
		log.Error("failed to generate totp secret", logger.Err(err))
		return nil, err
	}

	enc := b32
	if s.deps.Box != nil {
		enc, err = s.deps.Box.Encrypt(b32)
		if err != nil {
			log.Error("failed to encrypt totp secret", logger.Err(err))
			return nil, err
		}
	}
	if err := s.deps.Store.Users().SetTOTPSecret(ctx, userID, enc); err != nil {
		log.Error("failed to store totp secret", logger.Err(err))
		return nil, err
	}

	log.Info("totp enrollment started")
	return &dto.EnrollTwoFactorResponse{
		Secret:     b32,
		OTPAuthURL: totp.OTPAuthURL(s.deps.TOTPIssuer, accountEmail, b32),
	}, nil
}

func (s *twoFactorService) Activate(ctx context.Context, userID, code string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.totp"),
		logger.Op("Activate"),
		logger.UserID(userID),
	)

	code = strings.TrimSpace(code)
	if code == "" {
		return ErrMissingFields
	}

	user, err := s.deps.Store.Users().GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.TOTPSecretEnc == "" {
		return ErrTwoFactorNotEnrolled
	}

	secretRaw, err := s.decodeStoredSecret(user.TOTPSecretEnc)
	if err != nil {
		log.Error("failed to decode totp secret", logger.Err(err))
		return err
	}

	ok, _ := totp.Verify(secretRaw, code, time.Now().UTC(), totpWindowSteps, nil)
	if !ok {
		// el secreto pendiente queda intacto, el usuario puede reintentar
		return ErrInvalidTwoFactorCode
	}

	if err := s.deps.Store.Users().ConfirmTOTP(ctx, userID); err != nil {
		log.Error("failed to confirm totp", logger.Err(err))
		return err
	}
	log.Info("totp activated")
	return nil
}

func (s *twoFactorService) Remove(ctx context.Context, userID string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.totp"),
		logger.Op("Remove"),
		logger.UserID(userID),
	)
	if err := s.deps.Store.Users().ClearTOTP(ctx, userID); err != nil {
		log.Error("failed to clear totp", logger.Err(err))
		return err
	}
	log.Info("totp removed")
	return nil
}

func (s *twoFactorService) VerifyChallenge(ctx context.Context, in dto.VerifyTwoFactorRequest) (*dto.LoginResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.totp"),
		logger.Op("VerifyChallenge"),
	)

	in.TwoFactorToken = strings.TrimSpace(in.TwoFactorToken)
	in.Code = strings.TrimSpace(in.Code)
	if in.TwoFactorToken == "" || in.Code == "" {
		return nil, ErrMissingFields
	}

	// El challenge pendiente vive en cache, atado al token opaco que
	// devolvió el login. Nunca hay estado de login "global".
	key := twoFactorKeyPrefix + in.TwoFactorToken
	payload, err := s.deps.Cache.Get(ctx, key)
	if err != nil {
		if cache.IsNotFound(err) {
			return nil, ErrTwoFactorTokenInvalid
		}
		log.Error("failed to read two-factor challenge", logger.Err(err))
		return nil, err
	}
	var ch pendingChallenge
	if err := json.Unmarshal([]byte(payload), &ch); err != nil {
		log.Error("corrupt two-factor challenge", logger.Err(err))
		return nil, ErrTwoFactorTokenInvalid
	}

	log = log.With(logger.UserID(ch.UserID))

	user, err := s.deps.Store.Users().GetByID(ctx, ch.UserID)
	if err != nil {
		if repository.IsNotFound(err) {
			_ = s.deps.Cache.Delete(ctx, key)
			return nil, ErrTwoFactorTokenInvalid
		}
		return nil, err
	}

	now := time.Now().UTC()
	if user.LockedOut(now) {
		_ = s.deps.Cache.Delete(ctx, key)
		return nil, ErrLockedOut
	}
	if !user.TwoFactorEnabled() {
		_ = s.deps.Cache.Delete(ctx, key)
		return nil, ErrTwoFactorTokenInvalid
	}

	secretRaw, err := s.decodeStoredSecret(user.TOTPSecretEnc)
	if err != nil {
		log.Error("failed to decode totp secret", logger.Err(err))
		return nil, err
	}

	// Anti-replay: un counter ya usado no vale dos veces.
	var last *int64
	if user.TOTPLastUsedAt != nil {
		c := user.TOTPLastUsedAt.Unix() / 30
		last = &c
	}
	ok, counter := totp.Verify(secretRaw, in.Code, now, totpWindowSteps, last)
	if !ok {
		lockedNow, ferr := s.deps.Store.Users().RecordLoginFailure(ctx, user.ID, s.deps.LockoutMaxAttempts, s.deps.LockoutDuration)
		if ferr != nil {
			log.Error("failed to record totp failure", logger.Err(ferr))
		}
		if lockedNow {
			_ = s.deps.Cache.Delete(ctx, key)
			log.Warn("account locked after repeated totp failures")
			return nil, ErrLockedOut
		}
		return nil, ErrInvalidTwoFactorCode
	}

	if err := s.deps.Store.Users().UpdateTOTPUsedAt(ctx, user.ID, time.Unix(counter*30, 0).UTC()); err != nil {
		log.Warn("failed to record totp usage", logger.Err(err))
	}

	// Challenge consumido: de acá en más el token no sirve.
	_ = s.deps.Cache.Delete(ctx, key)

	remember := ch.RememberMe || in.RememberMe
	resp, err := finalizeLogin(ctx, s.deps, user, remember, ch.ReturnURL)
	if err != nil {
		return nil, err
	}
	log.Info("two-factor login succeeded")
	return resp, nil
}

func (s *twoFactorService) decodeStoredSecret(enc string) ([]byte, error) {
	b32 := enc
	if s.deps.Box != nil {
		dec, err := s.deps.Box.Decrypt(enc)
		if err != nil {
			return nil, err
		}
		b32 = dec
	}
	return totp.DecodeSecret(b32)
}
