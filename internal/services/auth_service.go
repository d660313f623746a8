package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/frosty888/eProtokoll/internal/apperrors"
	"github.com/frosty888/eProtokoll/internal/db/models"
	"github.com/frosty888/eProtokoll/internal/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AuthService verifies credentials and tracks sessions in memory. The rest
// of the application only ever sees the resolved identity (id, role,
// department); services never look at the session store themselves.
type AuthService struct {
	db       *gorm.DB
	ttl      time.Duration
	logger   *zap.Logger
	mu       sync.RWMutex
	sessions map[string]session
}

type session struct {
	userID  uint
	expires time.Time
}

func NewAuthService(db *gorm.DB, ttl time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		db:       db,
		ttl:      ttl,
		logger:   logger.With(zap.String("service", "auth_service")),
		sessions: make(map[string]session),
	}
}

// Login checks the password and returns a fresh session token.
func (as *AuthService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	const op = "auth.login"

	var user models.User
	if err := as.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, apperrors.Permission(op, username)
		}
		return "", nil, apperrors.Persistence(op, username, err)
	}
	if !user.IsActive {
		return "", nil, apperrors.Permission(op, username)
	}
	if !utils.VerifyPassword(user.PasswordHash, password) {
		as.logger.Warn("Failed login attempt", zap.String("username", username))
		return "", nil, apperrors.Permission(op, username)
	}

	token := uuid.New().String()
	as.mu.Lock()
	as.sessions[token] = session{userID: user.ID, expires: time.Now().Add(as.ttl)}
	as.mu.Unlock()

	as.logger.Info("User logged in", zap.String("username", username), zap.Uint("user_id", user.ID))
	return token, &user, nil
}

// Resolve maps a session token back to a user id.
func (as *AuthService) Resolve(token string) (uint, bool) {
	as.mu.RLock()
	s, ok := as.sessions[token]
	as.mu.RUnlock()

	if !ok {
		return 0, false
	}
	if time.Now().After(s.expires) {
		as.mu.Lock()
		delete(as.sessions, token)
		as.mu.Unlock()
		return 0, false
	}
	return s.userID, true
}

// Logout drops the session; expired tokens are dropped lazily by Resolve.
func (as *AuthService) Logout(token string) {
	as.mu.Lock()
	delete(as.sessions, token)
	as.mu.Unlock()
}
