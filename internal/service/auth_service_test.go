package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"cashbook/internal/auth"
	apperrors "cashbook/internal/errors"
	"cashbook/internal/logging"
	"cashbook/internal/model"
)

func newTestAuthService(repo *MockUserRepository, store auth.TokenStoreInterface) AuthService {
	return NewAuthService(
		repo,
		auth.NewHasher(bcrypt.MinCost),
		auth.NewSessionIssuer("test-secret", store),
		logging.Discard(),
	)
}

func TestAuthService_Signup(t *testing.T) {
	tests := []struct {
		name          string
		username      string
		password      string
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name:     "successful signup",
			username: "alice",
			password: "pw1",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByUsername", mock.Anything, "alice").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
					return u.Username == "alice" && strings.HasPrefix(u.Password, "$2")
				})).Return(nil)
			},
		},
		{
			name:     "username taken",
			username: "alice",
			password: "pw1",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByUsername", mock.Anything, "alice").Return(&model.User{ID: uuid.New(), Username: "alice"}, nil)
			},
			expectedError: apperrors.ErrUserAlreadyExists,
		},
		{
			name:     "lost race on insert",
			username: "alice",
			password: "pw1",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByUsername", mock.Anything, "alice").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.Anything).Return(gorm.ErrDuplicatedKey)
			},
			expectedError: apperrors.ErrUserAlreadyExists,
		},
		{
			name:          "missing password",
			username:      "alice",
			password:      "",
			setupMock:     func(m *MockUserRepository) {},
			expectedError: apperrors.ErrValidation,
		},
		{
			name:          "password over the bcrypt byte limit",
			username:      "alice",
			password:      strings.Repeat("€", 30),
			setupMock:     func(m *MockUserRepository) {},
			expectedError: apperrors.ErrValidation,
		},
		{
			name:          "blank username",
			username:      "   ",
			password:      "pw1",
			setupMock:     func(m *MockUserRepository) {},
			expectedError: apperrors.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			session, err := newTestAuthService(mockRepo, nil).Signup(context.Background(), tt.username, tt.password)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, session)
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, session.Token)
				assert.Equal(t, tt.username, session.User.Username)
				assert.NotEqual(t, uuid.Nil, session.User.ID)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_SignupStoreFailure(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockRepo.On("FindByUsername", mock.Anything, "alice").Return(nil, errors.New("connection refused"))

	_, err := newTestAuthService(mockRepo, nil).Signup(context.Background(), "alice", "pw1")

	assert.Error(t, err)
	assert.Equal(t, 500, apperrors.MapErrorToHTTP(err).StatusCode)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_Login(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("pw1"), bcrypt.MinCost)
	require.NoError(t, err)
	userID := uuid.New()

	tests := []struct {
		name          string
		username      string
		password      string
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name:     "hashed credential",
			username: "alice",
			password: "pw1",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByUsername", mock.Anything, "alice").Return(&model.User{ID: userID, Username: "alice", Password: string(hashed)}, nil)
			},
		},
		{
			name:     "username is trimmed",
			username: "  alice ",
			password: "pw1",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByUsername", mock.Anything, "alice").Return(&model.User{ID: userID, Username: "alice", Password: string(hashed)}, nil)
			},
		},
		{
			name:     "wrong password",
			username: "alice",
			password: "nope",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByUsername", mock.Anything, "alice").Return(&model.User{ID: userID, Username: "alice", Password: string(hashed)}, nil)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
		{
			name:     "unknown user",
			username: "mallory",
			password: "pw1",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByUsername", mock.Anything, "mallory").Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
		{
			name:     "wrong legacy password is not upgraded",
			username: "bob",
			password: "nope",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByUsername", mock.Anything, "bob").Return(&model.User{ID: userID, Username: "bob", Password: "pw1"}, nil)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			session, err := newTestAuthService(mockRepo, nil).Login(context.Background(), tt.username, tt.password)

			if tt.expectedError != nil {
				assert.Equal(t, tt.expectedError, err)
				assert.Nil(t, session)
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, session.Token)
				assert.Equal(t, userID, session.User.ID)
			}

			mockRepo.AssertExpectations(t)
			mockRepo.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestAuthService_LoginUpgradesLegacyPlaintext(t *testing.T) {
	userID := uuid.New()
	var stored string

	mockRepo := new(MockUserRepository)
	mockRepo.On("FindByUsername", mock.Anything, "bob").Return(&model.User{ID: userID, Username: "bob", Password: "pw1"}, nil).Once()
	mockRepo.On("UpdatePassword", mock.Anything, userID, mock.MatchedBy(func(p string) bool {
		return strings.HasPrefix(p, "$2")
	})).Run(func(args mock.Arguments) {
		stored = args.String(2)
	}).Return(nil).Once()

	svc := newTestAuthService(mockRepo, nil)
	session, err := svc.Login(context.Background(), "bob", "pw1")
	require.NoError(t, err)
	assert.Equal(t, stored, session.User.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored), []byte("pw1")))

	// second login sees the upgraded hash and writes nothing
	mockRepo.On("FindByUsername", mock.Anything, "bob").Return(&model.User{ID: userID, Username: "bob", Password: stored}, nil).Once()
	_, err = svc.Login(context.Background(), "bob", "pw1")
	require.NoError(t, err)

	mockRepo.AssertExpectations(t)
	mockRepo.AssertNumberOfCalls(t, "UpdatePassword", 1)
}

func TestAuthService_LoginUpgradeFailureFailsLogin(t *testing.T) {
	userID := uuid.New()
	mockRepo := new(MockUserRepository)
	mockRepo.On("FindByUsername", mock.Anything, "bob").Return(&model.User{ID: userID, Username: "bob", Password: "pw1"}, nil)
	mockRepo.On("UpdatePassword", mock.Anything, userID, mock.Anything).Return(errors.New("read-only replica"))

	session, err := newTestAuthService(mockRepo, nil).Login(context.Background(), "bob", "pw1")

	assert.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrInvalidCredentials)
	assert.Nil(t, session)
}

func TestAuthService_AuthenticateAndLogout(t *testing.T) {
	userID := uuid.New()
	hashed, err := bcrypt.GenerateFromPassword([]byte("pw1"), bcrypt.MinCost)
	require.NoError(t, err)

	mockRepo := new(MockUserRepository)
	mockRepo.On("FindByUsername", mock.Anything, "alice").Return(&model.User{ID: userID, Username: "alice", Password: string(hashed)}, nil)

	mockStore := new(MockTokenStore)
	mockStore.On("IsRevoked", mock.Anything, mock.Anything).Return(false, nil).Once()
	mockStore.On("Revoke", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("time.Duration")).Return(nil).Once()
	mockStore.On("IsRevoked", mock.Anything, mock.Anything).Return(true, nil).Once()

	svc := newTestAuthService(mockRepo, mockStore)
	ctx := context.Background()

	session, err := svc.Login(ctx, "alice", "pw1")
	require.NoError(t, err)

	identity, err := svc.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, userID, identity.UserID)
	assert.Equal(t, "alice", identity.Username)

	require.NoError(t, svc.Logout(ctx, session.Token))

	_, err = svc.Authenticate(ctx, session.Token)
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredential)

	_, err = svc.Authenticate(ctx, "")
	assert.ErrorIs(t, err, apperrors.ErrMissingCredential)

	mockStore.AssertExpectations(t)
}
