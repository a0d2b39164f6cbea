package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/library-gateway/internal/auth"
	"github.com/spec-kit/library-gateway/internal/domain"
	"github.com/spec-kit/library-gateway/internal/repository"
	apperrors "github.com/spec-kit/library-gateway/pkg/util"
)

const identityKeyPrefix = "identity:"

// IdentityService resolves verified claims into the stored identity. Active
// identities are cached in Redis for a short TTL.
type IdentityService struct {
	users  repository.UserRepository
	cache  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewIdentityService builds the service. A nil cache or a non-positive ttl
// disables caching.
func NewIdentityService(users repository.UserRepository, cache *redis.Client, ttl time.Duration, logger *zap.Logger) *IdentityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdentityService{users: users, cache: cache, ttl: ttl, logger: logger}
}

var _ auth.IdentityResolver = (*IdentityService)(nil)

// Resolve loads the identity named by the claims' subject. Unknown and
// suspended users are unauthorized.
func (s *IdentityService) Resolve(ctx context.Context, claims *auth.Claims) (*domain.Identity, error) {
	if claims == nil || strings.TrimSpace(claims.Subject) == "" {
		return nil, apperrors.NewUnauthorized("credential has no subject")
	}
	userID := claims.Subject

	if identity, ok := s.cached(ctx, userID); ok {
		return identity, nil
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("unknown user")
		}
		return nil, apperrors.NewInternalError(err)
	}
	if user.Status == domain.UserStatusSuspended {
		return nil, apperrors.NewUnauthorized("account suspended")
	}

	identity := user.Identity()
	if identity.Role != claims.Role {
		s.logger.Info("credential role differs from stored role",
			zap.String("user_id", userID),
			zap.String("claim_role", string(claims.Role)),
			zap.String("stored_role", string(identity.Role)),
		)
	}
	s.store(ctx, identity)
	return identity, nil
}

func (s *IdentityService) cacheEnabled() bool {
	return s.cache != nil && s.ttl > 0
}

func (s *IdentityService) cached(ctx context.Context, userID string) (*domain.Identity, bool) {
	if !s.cacheEnabled() {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, identityKeyPrefix+userID).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("identity cache read failed", zap.String("user_id", userID), zap.Error(err))
		}
		return nil, false
	}
	var identity domain.Identity
	if err := json.Unmarshal(raw, &identity); err != nil {
		s.logger.Warn("identity cache entry corrupt", zap.String("user_id", userID), zap.Error(err))
		return nil, false
	}
	return &identity, true
}

func (s *IdentityService) store(ctx context.Context, identity *domain.Identity) {
	if !s.cacheEnabled() {
		return
	}
	raw, err := json.Marshal(identity)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, identityKeyPrefix+identity.ID, raw, s.ttl).Err(); err != nil {
		s.logger.Warn("identity cache write failed", zap.String("user_id", identity.ID), zap.Error(err))
	}
}
