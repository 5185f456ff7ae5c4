package transaction_test

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

	"github.com/MrJamesThe3rd/tabungan/internal/auth"
	"github.com/MrJamesThe3rd/tabungan/internal/balance"
	authhttp "github.com/MrJamesThe3rd/tabungan/internal/http/auth"
	txhttp "github.com/MrJamesThe3rd/tabungan/internal/http/transaction"
	"github.com/MrJamesThe3rd/tabungan/internal/student"
	"github.com/MrJamesThe3rd/tabungan/internal/transaction"
	"github.com/MrJamesThe3rd/tabungan/internal/user"
)

type fakeService struct {
	submitted  *transaction.SubmitParams
	filter     transaction.ListFilter
	approveErr error
	getErr     error
}

func (f *fakeService) Submit(_ context.Context, p transaction.SubmitParams) (*transaction.Transaction, error) {
	f.submitted = &p
	if p.Amount <= 0 {
		return nil, transaction.ErrInvalid
	}

	return &transaction.Transaction{
		ID: uuid.New(), StudentID: p.StudentID, Amount: p.Amount, Type: p.Type,
		Status: transaction.StatusPending, CreatedBy: p.SubmittedBy, CreatedAt: time.Now(),
	}, nil
}

func (f *fakeService) Approve(_ context.Context, id, approverID uuid.UUID) (*transaction.Approval, error) {
	if f.approveErr != nil {
		return nil, f.approveErr
	}

	now := time.Now()

	return &transaction.Approval{
		Transaction: &transaction.Transaction{
			ID: id, StudentID: "S1", Amount: 50000, Type: transaction.TypeDeposit,
			Status: transaction.StatusApproved, ApprovedBy: &approverID, ApprovedAt: &now,
		},
		Balance: balance.Balance{StudentID: "S1", Balance: 150000},
		Delta:   50000,
	}, nil
}

func (f *fakeService) Get(_ context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}

	return &transaction.Transaction{ID: id, StudentID: "S1", Amount: 1000, Status: transaction.StatusPending}, nil
}

func (f *fakeService) List(_ context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, error) {
	f.filter = filter
	return []*transaction.Transaction{{ID: uuid.New()}}, nil
}

type fakeStudents map[string]bool

func (f fakeStudents) Get(_ context.Context, id string) (*student.Student, error) {
	if !f[id] {
		return nil, student.ErrNotFound
	}

	return &student.Student{ID: id}, nil
}

var caller = &auth.Identity{UserID: uuid.New(), Email: "guru@example.com", Role: user.RoleAdmin}

func setup(svc *fakeService) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(authhttp.WithIdentity(r.Context(), caller)))
		})
	})
	r.Route("/transactions", txhttp.NewHandler(svc, fakeStudents{"S1": true}).Routes)

	return r
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func TestHandler_Submit(t *testing.T) {
	type testCase struct {
		name string
		body string
		want int
	}

	tests := []testCase{
		{name: "Created", body: `{"student_id":"S1","amount":50000,"type":"deposit","note":"minggu 1"}`, want: http.StatusCreated},
		{name: "UnknownStudent", body: `{"student_id":"S9","amount":50000,"type":"deposit"}`, want: http.StatusBadRequest},
		{name: "MissingStudent", body: `{"amount":50000,"type":"deposit"}`, want: http.StatusBadRequest},
		{name: "InvalidAmount", body: `{"student_id":"S1","amount":0,"type":"deposit"}`, want: http.StatusBadRequest},
		{name: "BadJSON", body: `{"student_id":`, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			rec := do(setup(svc), http.MethodPost, "/transactions", tt.body)
			assert.Equal(t, tt.want, rec.Code)

			if tt.want == http.StatusCreated {
				require.NotNil(t, svc.submitted)
				assert.Equal(t, caller.UserID, svc.submitted.SubmittedBy)

				var body map[string]any
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
				assert.Equal(t, "pending", body["status"])
				assert.Equal(t, "Rp 50.000", body["amount_display"])
			}
		})
	}
}

func TestHandler_List(t *testing.T) {
	svc := &fakeService{}

	rec := do(setup(svc), http.MethodGet, "/transactions?status=pending&student_id=S1&limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, svc.filter.Status)
	assert.Equal(t, transaction.StatusPending, *svc.filter.Status)
	assert.Equal(t, "S1", *svc.filter.StudentID)
	assert.Equal(t, 5, svc.filter.Limit)

	rec = do(setup(svc), http.MethodGet, "/transactions?limit=many", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Get(t *testing.T) {
	assert.Equal(t, http.StatusOK, do(setup(&fakeService{}), http.MethodGet, "/transactions/"+uuid.NewString(), "").Code)
	assert.Equal(t, http.StatusBadRequest, do(setup(&fakeService{}), http.MethodGet, "/transactions/nope", "").Code)

	missing := &fakeService{getErr: transaction.ErrNotFound}
	assert.Equal(t, http.StatusNotFound, do(setup(missing), http.MethodGet, "/transactions/"+uuid.NewString(), "").Code)
}

func TestHandler_Approve(t *testing.T) {
	type testCase struct {
		name string
		err  error
		want int
	}

	tests := []testCase{
		{name: "Approved", want: http.StatusOK},
		{name: "Forbidden", err: transaction.ErrForbidden, want: http.StatusForbidden},
		{name: "NotFound", err: transaction.ErrNotFound, want: http.StatusNotFound},
		{name: "Conflict", err: transaction.ErrAlreadyApproved, want: http.StatusConflict},
		{name: "StoreDown", err: transaction.ErrStore, want: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(setup(&fakeService{approveErr: tt.err}), http.MethodPost, "/transactions/"+uuid.NewString()+"/approve", "")
			assert.Equal(t, tt.want, rec.Code)

			if tt.want == http.StatusOK {
				var body struct {
					Balance        int64  `json:"balance"`
					BalanceDisplay string `json:"balance_display"`
					Delta          int64  `json:"delta"`
					Transaction    struct {
						ApprovedBy string `json:"approved_by"`
					} `json:"transaction"`
				}
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
				assert.Equal(t, int64(150000), body.Balance)
				assert.Equal(t, "Rp 150.000", body.BalanceDisplay)
				assert.Equal(t, int64(50000), body.Delta)
				assert.Equal(t, caller.UserID.String(), body.Transaction.ApprovedBy)
			}
		})
	}
}
