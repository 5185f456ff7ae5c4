package user_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"github.com/MrJamesThe3rd/tabungan/internal/user"
)

func TestService_Register(t *testing.T) {
	type args struct {
		email    string
		password string
	}

	type testCase struct {
		name      string
		args      args
		setupMock func(m *user.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name: "Success",
			args: args{email: "  Budi@Example.com ", password: "rahasia"},
			setupMock: func(m *user.MockRepository) {
				m.EXPECT().
					CreateUser(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, u *user.User) error {
						u.ID = uuid.New()
						return nil
					})
			},
		},
		{
			name:    "InvalidEmail",
			args:    args{email: "not-an-email", password: "rahasia"},
			wantErr: user.ErrInvalid,
		},
		{
			name:    "ShortPassword",
			args:    args{email: "budi@example.com", password: "123"},
			wantErr: user.ErrInvalid,
		},
		{
			name: "EmailTaken",
			args: args{email: "budi@example.com", password: "rahasia"},
			setupMock: func(m *user.MockRepository) {
				m.EXPECT().
					CreateUser(gomock.Any(), gomock.Any()).
					Return(user.ErrEmailTaken)
			},
			wantErr: user.ErrEmailTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := user.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := user.NewService(repo)
			got, err := svc.Register(context.Background(), tt.args.email, tt.args.password)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, got.ID)
			assert.Equal(t, "budi@example.com", got.Email)
			assert.Equal(t, user.RoleStudent, got.Role)
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(got.PasswordHash), []byte(tt.args.password)))
		})
	}
}

func TestService_Authenticate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("rahasia"), bcrypt.MinCost)
	require.NoError(t, err)

	stored := &user.User{ID: uuid.New(), Email: "budi@example.com", Role: user.RoleStudent, PasswordHash: string(hash)}

	type testCase struct {
		name      string
		password  string
		setupMock func(m *user.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name:     "Success",
			password: "rahasia",
			setupMock: func(m *user.MockRepository) {
				m.EXPECT().GetUserByEmail(gomock.Any(), "budi@example.com").Return(stored, nil)
			},
		},
		{
			name:     "WrongPassword",
			password: "salah",
			setupMock: func(m *user.MockRepository) {
				m.EXPECT().GetUserByEmail(gomock.Any(), "budi@example.com").Return(stored, nil)
			},
			wantErr: user.ErrInvalidCredentials,
		},
		{
			name:     "UnknownEmail",
			password: "rahasia",
			setupMock: func(m *user.MockRepository) {
				m.EXPECT().GetUserByEmail(gomock.Any(), "budi@example.com").Return(nil, user.ErrNotFound)
			},
			wantErr: user.ErrInvalidCredentials,
		},
		{
			name:     "StoreError",
			password: "rahasia",
			setupMock: func(m *user.MockRepository) {
				m.EXPECT().GetUserByEmail(gomock.Any(), "budi@example.com").Return(nil, errors.New("db down"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := user.NewMockRepository(ctrl)
			tt.setupMock(repo)

			svc := user.NewService(repo)
			got, err := svc.Authenticate(context.Background(), "Budi@example.com", tt.password)

			switch {
			case tt.name == "StoreError":
				assert.Error(t, err)
				assert.NotErrorIs(t, err, user.ErrInvalidCredentials)
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			default:
				require.NoError(t, err)
				assert.Equal(t, stored.ID, got.ID)
			}
		})
	}
}

func TestService_IsAdmin(t *testing.T) {
	adminID := uuid.New()
	studentID := uuid.New()
	ghostID := uuid.New()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := user.NewMockRepository(ctrl)
	repo.EXPECT().GetUser(gomock.Any(), adminID).Return(&user.User{ID: adminID, Role: user.RoleAdmin}, nil)
	repo.EXPECT().GetUser(gomock.Any(), studentID).Return(&user.User{ID: studentID, Role: user.RoleStudent}, nil)
	repo.EXPECT().GetUser(gomock.Any(), ghostID).Return(nil, user.ErrNotFound)

	svc := user.NewService(repo)
	ctx := context.Background()

	ok, err := svc.IsAdmin(ctx, adminID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.IsAdmin(ctx, studentID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.IsAdmin(ctx, ghostID)
	require.NoError(t, err)
	assert.False(t, ok)
}
