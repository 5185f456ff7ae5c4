package respond_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/tabungan/internal/auth"
	"github.com/MrJamesThe3rd/tabungan/internal/http/respond"
	"github.com/MrJamesThe3rd/tabungan/internal/student"
	"github.com/MrJamesThe3rd/tabungan/internal/transaction"
	"github.com/MrJamesThe3rd/tabungan/internal/user"
)

func TestStatusOf(t *testing.T) {
	type testCase struct {
		err  error
		want int
	}

	tests := []testCase{
		{fmt.Errorf("%w: amount", transaction.ErrInvalid), http.StatusBadRequest},
		{user.ErrInvalid, http.StatusBadRequest},
		{auth.ErrRevoked, http.StatusUnauthorized},
		{user.ErrInvalidCredentials, http.StatusUnauthorized},
		{transaction.ErrForbidden, http.StatusForbidden},
		{student.ErrNotFound, http.StatusNotFound},
		{transaction.ErrNotFound, http.StatusNotFound},
		{transaction.ErrAlreadyApproved, http.StatusConflict},
		{user.ErrEmailTaken, http.StatusConflict},
		{fmt.Errorf("%w: student S1", transaction.ErrOverflow), http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: commit: %w", transaction.ErrStore, errors.New("conn reset")), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, respond.StatusOf(tt.err))
		})
	}
}

func TestError_HidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)

	respond.Error(rec, req, errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error\n", rec.Body.String())
}

func TestError_StoreUnavailable(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/x", nil)

	respond.Error(rec, req, fmt.Errorf("%w: begin", transaction.ErrStore))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}
