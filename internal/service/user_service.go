package service

import (
	"errors"
	"strconv"
	"time"

	"appnexus-chat/backend/internal/models"
	"appnexus-chat/backend/internal/repository"
	"appnexus-chat/backend/pkg/cache"
	"appnexus-chat/backend/pkg/jwt"

	"gorm.io/gorm"
)

var (
	ErrUserAlreadyExists  = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrMissingIdentity    = errors.New("uid and email are required")
)

// UserService is the user directory: account creation, login, identity
// provider sync, and the read-side lookups the chat layer needs.
type UserService struct {
	repo       repository.UserRepository
	jwtService *jwt.Service
	names      *cache.Cache
}

func NewUserService(repo repository.UserRepository, jwtService *jwt.Service) *UserService {
	return &UserService{
		repo:       repo,
		jwtService: jwtService,
		names:      cache.NewCache(),
	}
}

// Signup creates a local password account. The password is hashed by the
// model's BeforeCreate hook.
func (s *UserService) Signup(req *models.SignupRequest) (*models.User, string, error) {
	if _, err := s.repo.GetByEmail(req.Email); err == nil {
		return nil, "", ErrUserAlreadyExists
	}

	user := &models.User{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Provider: "password",
	}
	if err := s.repo.Create(user); err != nil {
		return nil, "", err
	}

	token, err := s.jwtService.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login authenticates a local account, refreshes its last-seen timestamp
// and returns a signed session token.
func (s *UserService) Login(req *models.LoginRequest) (*models.User, string, error) {
	user, err := s.repo.GetByEmail(req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if !models.CheckPasswordHash(req.Password, user.Password) {
		return nil, "", ErrInvalidCredentials
	}

	user.LastSeen = time.Now()
	if err := s.repo.Save(user); err != nil {
		return nil, "", err
	}

	token, err := s.jwtService.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Sync upserts a profile snapshot from the identity provider. Existing
// accounts are matched by the provider subject first; an unlinked local
// account with the same email is linked instead of duplicated.
func (s *UserService) Sync(req *models.SyncRequest) (*models.User, bool, error) {
	if req.UID == "" || req.Email == "" {
		return nil, false, ErrMissingIdentity
	}

	user, err := s.repo.GetByIdentitySubject(req.UID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	if user == nil || errors.Is(err, gorm.ErrRecordNotFound) {
		// Link an existing local account before creating a fresh one.
		user, err = s.repo.GetByEmail(req.Email)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, false, err
			}
			created := &models.User{
				IdentitySubject: &req.UID,
				FullName:        req.FullName,
				Email:           req.Email,
				PhotoURL:        req.PhotoURL,
				Provider:        defaultProvider(req.Provider),
				LastSeen:        time.Now(),
			}
			if err := s.repo.Create(created); err != nil {
				return nil, false, err
			}
			return created, true, nil
		}
		user.IdentitySubject = &req.UID
	}

	if req.FullName != "" {
		user.FullName = req.FullName
	}
	if req.PhotoURL != "" {
		user.PhotoURL = req.PhotoURL
	}
	if req.Provider != "" {
		user.Provider = req.Provider
	}
	user.LastSeen = time.Now()

	if err := s.repo.Save(user); err != nil {
		return nil, false, err
	}
	s.names.Delete("name:" + req.UID)
	return user, false, nil
}

// GetByID resolves a user by storage ID first, then by identity subject,
// mirroring how clients address each other with either identifier.
func (s *UserService) GetByID(id string) (*models.User, error) {
	if numeric, convErr := strconv.ParseUint(id, 10, 64); convErr == nil {
		if user, err := s.repo.GetByID(uint(numeric)); err == nil {
			return user, nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	user, err := s.repo.GetByIdentitySubject(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// List returns every user in the directory.
func (s *UserService) List() ([]models.User, error) {
	return s.repo.List()
}

// DisplayName resolves a chat identifier to a human-readable name for
// payload enrichment. Lookups are cached; a miss or storage failure simply
// reports not-found so delivery is never blocked on the directory.
func (s *UserService) DisplayName(id string) (string, bool) {
	key := "name:" + id
	if cached, ok := s.names.Get(key); ok {
		name, _ := cached.(string)
		return name, name != ""
	}

	user, err := s.GetByID(id)
	if err != nil {
		return "", false
	}
	s.names.Set(key, user.FullName)
	return user.FullName, user.FullName != ""
}

func defaultProvider(p string) string {
	if p == "" {
		return "password"
	}
	return p
}
