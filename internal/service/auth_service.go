package service

import (
	"strings"

	"golang.org/x/crypto/bcrypt"

	"intelhub/internal/core"
)

type AuthService struct {
	userRepo core.UserRepository
}

func NewAuthService(userRepo core.UserRepository) *AuthService {
	return &AuthService{userRepo: userRepo}
}

// Register hashes the password and creates the user. bcrypt generates a fresh
// random salt per call, so the same plaintext never produces the same stored
// hash twice.
func (s *AuthService) Register(username, password, role string) (*core.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, core.ErrInvalidInput
	}
	if role == "" {
		role = core.RoleUser
	}
	if !core.ValidRole(role) {
		return nil, core.NewValidationError("role", "must be one of "+strings.Join(core.Roles, ", "))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return s.userRepo.CreateUser(username, string(hash), role)
}

// Authenticate verifies credentials and returns a session identity. The two
// failure modes stay distinct here for logging; handlers must collapse them
// into one generic message so responses don't reveal which usernames exist.
func (s *AuthService) Authenticate(username, password string) (*core.Session, error) {
	user, err := s.userRepo.GetUserByUsername(username)
	if err != nil {
		// Burn a comparable amount of time so a missing user is not
		// distinguishable from a wrong password by response latency.
		bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, core.ErrUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, core.ErrInvalidPassword
	}

	return &core.Session{Username: user.Username, Role: user.Role}, nil
}

// dummyHash is a valid bcrypt digest of an unguessable throwaway value.
var dummyHash = func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("intelhub-timing-pad"), bcrypt.DefaultCost)
	return h
}()

// SetupAdmin creates the first admin account, only allowed while no users exist.
func (s *AuthService) SetupAdmin(username, password string) error {
	count, err := s.userRepo.CountUsers()
	if err != nil {
		return err
	}
	if count > 0 {
		return core.ErrSetupDone
	}
	_, err = s.Register(username, password, core.RoleAdmin)
	return err
}

// HasUsers checks whether first-run setup has completed.
func (s *AuthService) HasUsers() (bool, error) {
	count, err := s.userRepo.CountUsers()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ResetPassword rehashes and stores a new password for an existing user.
func (s *AuthService) ResetPassword(username, newPassword string) error {
	if newPassword == "" {
		return core.ErrInvalidInput
	}
	if _, err := s.userRepo.GetUserByUsername(username); err != nil {
		return core.ErrUserNotFound
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.userRepo.UpdatePassword(username, string(hash))
}
