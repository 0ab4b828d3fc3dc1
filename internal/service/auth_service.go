package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"huddle/config"
	"huddle/internal/auth"
	"huddle/internal/domain"
	"huddle/internal/models"
	"huddle/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// publicIDSalt derives the externally visible user ID from the login
// ID. Stable across restarts so stored message authorship stays valid.
const publicIDSalt = "huddle-public-id-v1"

const recoveryCodeSalt = "huddle-recovery-v1"

type AuthService struct {
	cfg   *config.Config
	users *repository.UserRepository
}

func NewAuthService(cfg *config.Config, users *repository.UserRepository) *AuthService {
	return &AuthService{cfg: cfg, users: users}
}

// TokenPair carries an access token and, for non-temporary accounts, a
// refresh token.
type TokenPair struct {
	Access  string `json:"access_token"`
	Refresh string `json:"refresh_token,omitempty"`
}

// Register creates a permanent account. The returned recovery code is
// shown exactly once; it is the only way to reset a lost password.
func (s *AuthService) Register(nickname, password string) (*models.User, string, *TokenPair, error) {
	if err := validateNickname(nickname); err != nil {
		return nil, "", nil, err
	}
	if len(password) < 6 {
		return nil, "", nil, fmt.Errorf("%w: password must be at least 6 characters", domain.ErrValidation)
	}
	if _, err := s.users.GetByNickname(nickname); err == nil {
		return nil, "", nil, fmt.Errorf("%w: nickname already registered", domain.ErrConflict)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", nil, err
	}
	id := uuid.NewString()
	recovery := deriveCode(recoveryCodeSalt, id, password)
	hashStr := string(hash)
	u := &models.User{
		ID:           id,
		PublicID:     deriveCode(publicIDSalt, id, ""),
		Nickname:     nickname,
		PasswordHash: &hashStr,
		RecoveryCode: &recovery,
		IsTemporary:  false,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(u); err != nil {
		return nil, "", nil, err
	}
	pair, err := s.tokens(u)
	if err != nil {
		return nil, "", nil, err
	}
	return u, recovery, pair, nil
}

// CreateTemporary creates a throwaway account with no credentials and a
// short-lived access token.
func (s *AuthService) CreateTemporary(nickname string) (*models.User, *TokenPair, error) {
	if err := validateNickname(nickname); err != nil {
		return nil, nil, err
	}
	id := uuid.NewString()
	u := &models.User{
		ID:          id,
		PublicID:    deriveCode(publicIDSalt, id, ""),
		Nickname:    nickname,
		IsTemporary: true,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.users.Create(u); err != nil {
		return nil, nil, err
	}
	access, err := auth.GenerateAccessToken(&s.cfg.JWT, u.ID, u.Nickname, true)
	if err != nil {
		return nil, nil, err
	}
	return u, &TokenPair{Access: access}, nil
}

// Login authenticates a permanent account by nickname and password.
func (s *AuthService) Login(nickname, password string) (*models.User, *TokenPair, error) {
	u, err := s.users.GetByNickname(nickname)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: invalid nickname or password", domain.ErrUnauthorized)
	}
	if u.PasswordHash == nil ||
		bcrypt.CompareHashAndPassword([]byte(*u.PasswordHash), []byte(password)) != nil {
		return nil, nil, fmt.Errorf("%w: invalid nickname or password", domain.ErrUnauthorized)
	}
	pair, err := s.tokens(u)
	if err != nil {
		return nil, nil, err
	}
	return u, pair, nil
}

// Refresh exchanges a valid refresh token for a new access token.
func (s *AuthService) Refresh(refreshToken string) (*TokenPair, error) {
	userID, err := auth.ParseRefreshToken(&s.cfg.JWT, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid refresh token", domain.ErrUnauthorized)
	}
	u, err := s.users.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid refresh token", domain.ErrUnauthorized)
	}
	return s.tokens(u)
}

func (s *AuthService) UpdateNickname(userID, nickname string) error {
	if err := validateNickname(nickname); err != nil {
		return err
	}
	return s.users.UpdateNickname(userID, nickname)
}

// ChangePassword verifies the current password before replacing it.
func (s *AuthService) ChangePassword(userID, current, next string) error {
	if len(next) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", domain.ErrValidation)
	}
	u, err := s.users.GetByID(userID)
	if err != nil {
		return err
	}
	if u.IsTemporary || u.PasswordHash == nil {
		return fmt.Errorf("%w: temporary accounts have no password", domain.ErrValidation)
	}
	if bcrypt.CompareHashAndPassword([]byte(*u.PasswordHash), []byte(current)) != nil {
		return fmt.Errorf("%w: current password incorrect", domain.ErrUnauthorized)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePasswordHash(userID, string(hash))
}

// ResetPassword sets a new password for the account whose recovery code
// matches. Used when the password is lost.
func (s *AuthService) ResetPassword(nickname, recoveryCode, next string) error {
	if len(next) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", domain.ErrValidation)
	}
	u, err := s.users.GetByNickname(nickname)
	if err != nil {
		return fmt.Errorf("%w: invalid recovery code", domain.ErrUnauthorized)
	}
	if u.RecoveryCode == nil || *u.RecoveryCode != recoveryCode {
		return fmt.Errorf("%w: invalid recovery code", domain.ErrUnauthorized)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePasswordHash(u.ID, string(hash))
}

func (s *AuthService) tokens(u *models.User) (*TokenPair, error) {
	access, err := auth.GenerateAccessToken(&s.cfg.JWT, u.ID, u.Nickname, u.IsTemporary)
	if err != nil {
		return nil, err
	}
	if u.IsTemporary {
		return &TokenPair{Access: access}, nil
	}
	refresh, err := auth.GenerateRefreshToken(&s.cfg.JWT, u.ID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

func validateNickname(nickname string) error {
	n := strings.TrimSpace(nickname)
	if n == "" || len(n) > 64 {
		return fmt.Errorf("%w: nickname must be 1-64 characters", domain.ErrValidation)
	}
	return nil
}

func deriveCode(salt, id, extra string) string {
	sum := sha256.Sum256([]byte(salt + ":" + id + ":" + extra))
	return hex.EncodeToString(sum[:8])
}
