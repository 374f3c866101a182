package service_test

import (
	"testing"
	"time"

	"appnexus-chat/backend/internal/models"
	"appnexus-chat/backend/internal/service"
	"appnexus-chat/backend/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) Save(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(id uint) (*models.User, error) {
	args := m.Called(id)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) GetByEmail(email string) (*models.User, error) {
	args := m.Called(email)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) GetByIdentitySubject(subject string) (*models.User, error) {
	args := m.Called(subject)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) List() ([]models.User, error) {
	args := m.Called()
	if users := args.Get(0); users != nil {
		return users.([]models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func newUserService(repo *MockUserRepository) *service.UserService {
	return service.NewUserService(repo, jwt.NewService("test-secret", time.Hour))
}

func TestSignupCreatesAccountWithToken(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("GetByEmail", "new@example.com").Return(nil, gorm.ErrRecordNotFound).Once()
	repo.On("Create", mock.AnythingOfType("*models.User")).Return(nil).Once()

	svc := newUserService(repo)
	user, token, err := svc.Signup(&models.SignupRequest{
		FullName: "New User",
		Email:    "new@example.com",
		Password: "hunter22",
	})

	require.NoError(t, err)
	assert.Equal(t, "new@example.com", user.Email)
	assert.Equal(t, "password", user.Provider)
	assert.NotEmpty(t, token)
	repo.AssertExpectations(t)
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("GetByEmail", "taken@example.com").Return(&models.User{ID: 1}, nil).Once()

	svc := newUserService(repo)
	_, _, err := svc.Signup(&models.SignupRequest{
		FullName: "Dup",
		Email:    "taken@example.com",
		Password: "hunter22",
	})

	assert.ErrorIs(t, err, service.ErrUserAlreadyExists)
	repo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestLoginSucceedsAndRefreshesLastSeen(t *testing.T) {
	hash, err := models.HashPassword("hunter22")
	require.NoError(t, err)

	stored := &models.User{ID: 7, Email: "a@example.com", Password: hash}
	repo := new(MockUserRepository)
	repo.On("GetByEmail", "a@example.com").Return(stored, nil).Once()
	repo.On("Save", stored).Return(nil).Once()

	svc := newUserService(repo)
	user, token, err := svc.Login(&models.LoginRequest{Email: "a@example.com", Password: "hunter22"})

	require.NoError(t, err)
	assert.Equal(t, uint(7), user.ID)
	assert.False(t, user.LastSeen.IsZero())
	assert.NotEmpty(t, token)
	repo.AssertExpectations(t)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	hash, err := models.HashPassword("hunter22")
	require.NoError(t, err)

	repo := new(MockUserRepository)
	repo.On("GetByEmail", "a@example.com").
		Return(&models.User{ID: 7, Email: "a@example.com", Password: hash}, nil).Once()

	svc := newUserService(repo)
	_, _, err = svc.Login(&models.LoginRequest{Email: "a@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestLoginRejectsUnknownEmail(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("GetByEmail", "ghost@example.com").Return(nil, gorm.ErrRecordNotFound).Once()

	svc := newUserService(repo)
	_, _, err := svc.Login(&models.LoginRequest{Email: "ghost@example.com", Password: "x"})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestSyncRequiresIdentity(t *testing.T) {
	svc := newUserService(new(MockUserRepository))

	_, _, err := svc.Sync(&models.SyncRequest{Email: "a@example.com"})
	assert.ErrorIs(t, err, service.ErrMissingIdentity)

	_, _, err = svc.Sync(&models.SyncRequest{UID: "sub-1"})
	assert.ErrorIs(t, err, service.ErrMissingIdentity)
}

func TestSyncCreatesNewAccount(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("GetByIdentitySubject", "sub-1").Return(nil, gorm.ErrRecordNotFound).Once()
	repo.On("GetByEmail", "fresh@example.com").Return(nil, gorm.ErrRecordNotFound).Once()
	repo.On("Create", mock.AnythingOfType("*models.User")).Return(nil).Once()

	svc := newUserService(repo)
	user, created, err := svc.Sync(&models.SyncRequest{
		UID:      "sub-1",
		Email:    "fresh@example.com",
		FullName: "Fresh User",
		Provider: "google",
	})

	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, user.IdentitySubject)
	assert.Equal(t, "sub-1", *user.IdentitySubject)
	assert.Equal(t, "google", user.Provider)
	repo.AssertExpectations(t)
}

func TestSyncUpdatesExistingAccount(t *testing.T) {
	subject := "sub-1"
	existing := &models.User{ID: 3, IdentitySubject: &subject, Email: "a@example.com", FullName: "Old Name"}

	repo := new(MockUserRepository)
	repo.On("GetByIdentitySubject", "sub-1").Return(existing, nil).Once()
	repo.On("Save", existing).Return(nil).Once()

	svc := newUserService(repo)
	user, created, err := svc.Sync(&models.SyncRequest{
		UID:      "sub-1",
		Email:    "a@example.com",
		FullName: "New Name",
	})

	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "New Name", user.FullName)
	repo.AssertExpectations(t)
}

func TestSyncLinksUnlinkedAccountByEmail(t *testing.T) {
	local := &models.User{ID: 4, Email: "local@example.com", FullName: "Local"}

	repo := new(MockUserRepository)
	repo.On("GetByIdentitySubject", "sub-9").Return(nil, gorm.ErrRecordNotFound).Once()
	repo.On("GetByEmail", "local@example.com").Return(local, nil).Once()
	repo.On("Save", local).Return(nil).Once()

	svc := newUserService(repo)
	user, created, err := svc.Sync(&models.SyncRequest{UID: "sub-9", Email: "local@example.com"})

	require.NoError(t, err)
	assert.False(t, created)
	require.NotNil(t, user.IdentitySubject)
	assert.Equal(t, "sub-9", *user.IdentitySubject)
	repo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestGetByIDResolvesNumericThenSubject(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("GetByID", uint(12)).Return(&models.User{ID: 12}, nil).Once()
	svc := newUserService(repo)

	user, err := svc.GetByID("12")
	require.NoError(t, err)
	assert.Equal(t, uint(12), user.ID)

	// Non-numeric identifiers fall through to the subject lookup.
	subject := "sub-abc"
	repo.On("GetByIdentitySubject", "sub-abc").
		Return(&models.User{ID: 5, IdentitySubject: &subject}, nil).Once()

	user, err = svc.GetByID("sub-abc")
	require.NoError(t, err)
	assert.Equal(t, uint(5), user.ID)
}

func TestGetByIDNotFound(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("GetByIdentitySubject", "nope").Return(nil, gorm.ErrRecordNotFound).Once()
	svc := newUserService(repo)

	_, err := svc.GetByID("nope")
	assert.ErrorIs(t, err, service.ErrUserNotFound)
}

func TestDisplayNameCachesLookups(t *testing.T) {
	subject := "sub-1"
	repo := new(MockUserRepository)
	repo.On("GetByIdentitySubject", "sub-1").
		Return(&models.User{ID: 2, IdentitySubject: &subject, FullName: "Alice Liddell"}, nil).Once()

	svc := newUserService(repo)

	name, ok := svc.DisplayName("sub-1")
	require.True(t, ok)
	assert.Equal(t, "Alice Liddell", name)

	// Second lookup is served from the cache; the Once expectation above
	// fails the test if the repository is hit again.
	name, ok = svc.DisplayName("sub-1")
	require.True(t, ok)
	assert.Equal(t, "Alice Liddell", name)
	repo.AssertExpectations(t)
}

func TestDisplayNameMissNeverErrors(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("GetByIdentitySubject", "ghost").Return(nil, gorm.ErrRecordNotFound).Once()

	svc := newUserService(repo)
	name, ok := svc.DisplayName("ghost")
	assert.False(t, ok)
	assert.Empty(t, name)
}
