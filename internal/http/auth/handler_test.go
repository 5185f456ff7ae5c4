package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/tabungan/internal/auth"
	"github.com/MrJamesThe3rd/tabungan/internal/auth/store"
	authhttp "github.com/MrJamesThe3rd/tabungan/internal/http/auth"
	"github.com/MrJamesThe3rd/tabungan/internal/user"
)

func setup(t *testing.T) (*auth.Service, *auth.MockUsers, http.Handler) {
	t.Helper()

	ctrl := gomock.NewController(t)
	users := auth.NewMockUsers(ctrl)
	svc := auth.NewService(users, store.NewMemory(), auth.Options{Secret: "s", Issuer: "tabungan", TTL: time.Hour})

	r := chi.NewRouter()
	r.Route("/auth", authhttp.NewHandler(svc).Routes)
	r.Group(func(r chi.Router) {
		r.Use(authhttp.Middleware(svc))
		r.Get("/me", func(w http.ResponseWriter, r *http.Request) {
			id, ok := authhttp.IdentityFrom(r.Context())
			require.True(t, ok)
			_, _ = w.Write([]byte(id.Email))
		})
	})

	return svc, users, r
}

func do(h http.Handler, method, target, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func TestHandler_LoginMeLogout(t *testing.T) {
	_, users, h := setup(t)

	u := &user.User{ID: uuid.New(), Email: "budi@example.com", Role: user.RoleStudent}
	users.EXPECT().Authenticate(gomock.Any(), "budi@example.com", "rahasia").Return(u, nil)

	rec := do(h, http.MethodPost, "/auth/login", "", `{"email":"budi@example.com","password":"rahasia"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Token string `json:"token"`
		User  struct {
			Role string `json:"role"`
		} `json:"user"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "student", body.User.Role)

	rec = do(h, http.MethodGet, "/me", body.Token, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "budi@example.com", rec.Body.String())

	rec = do(h, http.MethodGet, "/me?access_token="+body.Token, "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(h, http.MethodPost, "/auth/logout", body.Token, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(h, http.MethodGet, "/me", body.Token, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_LoginBadCredentials(t *testing.T) {
	_, users, h := setup(t)

	users.EXPECT().Authenticate(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, user.ErrInvalidCredentials)

	rec := do(h, http.MethodPost, "/auth/login", "", `{"email":"x@example.com","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_Register(t *testing.T) {
	type testCase struct {
		name      string
		body      string
		setupMock func(m *auth.MockUsers)
		want      int
	}

	tests := []testCase{
		{
			name: "Created",
			body: `{"email":"ani@example.com","password":"rahasia"}`,
			setupMock: func(m *auth.MockUsers) {
				m.EXPECT().Register(gomock.Any(), "ani@example.com", "rahasia").
					Return(&user.User{ID: uuid.New(), Email: "ani@example.com", Role: user.RoleStudent}, nil)
			},
			want: http.StatusCreated,
		},
		{
			name: "Duplicate",
			body: `{"email":"ani@example.com","password":"rahasia"}`,
			setupMock: func(m *auth.MockUsers) {
				m.EXPECT().Register(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, user.ErrEmailTaken)
			},
			want: http.StatusConflict,
		},
		{
			name: "ShortPassword",
			body: `{"email":"ani@example.com","password":"123"}`,
			setupMock: func(m *auth.MockUsers) {
				m.EXPECT().Register(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, user.ErrInvalid)
			},
			want: http.StatusBadRequest,
		},
		{
			name: "BadJSON",
			body: `{`,
			want: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, users, h := setup(t)
			if tt.setupMock != nil {
				tt.setupMock(users)
			}

			rec := do(h, http.MethodPost, "/auth/register", "", tt.body)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestMiddleware_Rejects(t *testing.T) {
	_, _, h := setup(t)

	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodGet, "/me", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodGet, "/me", "garbage", "").Code)
}

func TestIdentityFrom_Empty(t *testing.T) {
	_, ok := authhttp.IdentityFrom(context.Background())
	assert.False(t, ok)
}
