package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/library-gateway/internal/api/dto"
	"github.com/spec-kit/library-gateway/internal/domain"
	apperrors "github.com/spec-kit/library-gateway/pkg/util"
)

const (
	mePath       = "/api/auth/me"
	loginPath    = "/api/auth/login"
	registerPath = "/api/auth/register"
	logoutPath   = "/api/auth/logout"
)

// AuthAPI talks to the identity and credential-issuing endpoints. It
// implements session.IdentityFetcher and session.CredentialIssuer.
type AuthAPI struct {
	baseURL    string
	cookieName string
	timeout    time.Duration
	logger     *zap.Logger
}

// Options configures an AuthAPI.
type Options struct {
	BaseURL    string
	CookieName string
	Timeout    time.Duration
	Logger     *zap.Logger
}

// NewAuthAPI builds a client rooted at opts.BaseURL.
func NewAuthAPI(opts Options) *AuthAPI {
	cookieName := opts.CookieName
	if cookieName == "" {
		cookieName = "token"
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthAPI{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		cookieName: cookieName,
		timeout:    opts.Timeout,
		logger:     logger,
	}
}

// CurrentIdentity asks the identity service who owns credential.
func (a *AuthAPI) CurrentIdentity(ctx context.Context, credential string) (*domain.Identity, error) {
	agent := fiber.Get(a.baseURL+mePath).Cookie(a.cookieName, credential)

	status, body, err := a.do(ctx, agent)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, decodeError(status, body)
	}

	var envelope dto.SessionResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode identity response: %w", err)
	}
	if envelope.Data.User == nil {
		return nil, errors.New("identity response has no user")
	}
	return envelope.Data.User, nil
}

// Login exchanges email and password for a credential.
func (a *AuthAPI) Login(ctx context.Context, email, password string) (*domain.IssuedCredential, error) {
	agent := fiber.Post(a.baseURL + loginPath).JSON(dto.LoginRequest{Email: email, Password: password})
	return a.issue(ctx, agent)
}

// Register opens an account and returns its first credential.
func (a *AuthAPI) Register(ctx context.Context, registration domain.Registration) (*domain.IssuedCredential, error) {
	agent := fiber.Post(a.baseURL + registerPath).JSON(registration)
	return a.issue(ctx, agent)
}

// Logout revokes credential on the issuing side.
func (a *AuthAPI) Logout(ctx context.Context, credential string) error {
	agent := fiber.Post(a.baseURL+logoutPath).Cookie(a.cookieName, credential)

	status, body, err := a.do(ctx, agent)
	if err != nil {
		return err
	}
	if status >= http.StatusBadRequest {
		return decodeError(status, body)
	}
	return nil
}

func (a *AuthAPI) issue(ctx context.Context, agent *fiber.Agent) (*domain.IssuedCredential, error) {
	status, body, err := a.do(ctx, agent)
	if err != nil {
		return nil, err
	}
	if status >= http.StatusBadRequest {
		return nil, decodeIssuanceError(status, body)
	}

	var envelope dto.SessionResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, apperrors.NewIssuanceError("malformed issuance response", http.StatusBadGateway, nil)
	}
	if envelope.Data.User == nil || envelope.Data.Auth == nil || envelope.Data.Auth.Token == "" {
		return nil, apperrors.NewIssuanceError("issuance response is missing the credential", http.StatusBadGateway, nil)
	}
	return &domain.IssuedCredential{
		Identity:   envelope.Data.User,
		Credential: envelope.Data.Auth.Token,
		ExpiresAt:  envelope.Data.Auth.ExpiresAt,
	}, nil
}

// do sends the request, bounded by both the client timeout and the
// context deadline.
func (a *AuthAPI) do(ctx context.Context, agent *fiber.Agent) (int, []byte, error) {
	if err := ctx.Err(); err != nil {
		fiber.ReleaseAgent(agent)
		return 0, nil, err
	}

	timeout := a.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); timeout <= 0 || remaining < timeout {
			timeout = remaining
		}
	}
	if timeout > 0 {
		agent.Timeout(timeout)
	}

	uri := string(agent.Request().URI().FullURI())
	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		return 0, nil, fmt.Errorf("prepare request %s: %w", uri, err)
	}

	start := time.Now()
	status, body, errs := agent.Bytes()
	a.logger.Debug("auth api call",
		zap.String("uri", uri),
		zap.Int("status", status),
		zap.Duration("duration", time.Since(start)),
	)
	if len(errs) > 0 {
		return 0, nil, fmt.Errorf("call %s: %w", uri, errors.Join(errs...))
	}
	return status, body, nil
}

func parseErrorEnvelope(body []byte) (dto.ErrorResponse, bool) {
	var envelope dto.ErrorResponse
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error.Message == "" {
		return envelope, false
	}
	return envelope, true
}

func decodeError(status int, body []byte) error {
	envelope, ok := parseErrorEnvelope(body)
	if !ok {
		return apperrors.NewDomainError(fmt.Sprintf("HTTP_%d", status), http.StatusText(status), status, nil)
	}
	code := envelope.Error.Code
	if code == "" {
		code = fmt.Sprintf("HTTP_%d", status)
	}
	return apperrors.NewDomainError(code, envelope.Error.Message, status, envelope.Error.Details)
}

// decodeIssuanceError keeps the issuer's message verbatim; it is shown to
// the user as is.
func decodeIssuanceError(status int, body []byte) error {
	envelope, ok := parseErrorEnvelope(body)
	if !ok {
		return apperrors.NewIssuanceError(http.StatusText(status), status, nil)
	}
	return apperrors.NewIssuanceError(envelope.Error.Message, status, envelope.Error.Details)
}
