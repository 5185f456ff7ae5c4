package student

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/tabungan/internal/balance"
	"github.com/MrJamesThe3rd/tabungan/internal/http/respond"
	txhttp "github.com/MrJamesThe3rd/tabungan/internal/http/transaction"
	"github.com/MrJamesThe3rd/tabungan/internal/money"
	"github.com/MrJamesThe3rd/tabungan/internal/statement"
	"github.com/MrJamesThe3rd/tabungan/internal/student"
)

type Students interface {
	List(ctx context.Context) ([]*student.Student, error)
	Get(ctx context.Context, id string) (*student.Student, error)
}

type Balances interface {
	Lookup(ctx context.Context, studentID string) (int64, error)
	Reconcile(ctx context.Context, studentID string) (*balance.Reconciliation, error)
}

type Statements interface {
	Build(ctx context.Context, studentID string) (*statement.Statement, error)
}

type Handler struct {
	students   Students
	balances   Balances
	statements Statements
}

func NewHandler(students Students, balances Balances, statements Statements) *Handler {
	return &Handler{students: students, balances: balances, statements: statements}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Get("/{id}/balance", h.balance)
	r.Get("/{id}/statement", h.statement)
	r.Get("/{id}/reconcile", h.reconcile)
}

type studentResponse struct {
	ID    string `json:"id"`
	NIS   string `json:"nis,omitempty"`
	Name  string `json:"name"`
	Class string `json:"class,omitempty"`
}

type balanceResponse struct {
	StudentID string `json:"student_id"`
	Balance   int64  `json:"balance"`
	Display   string `json:"balance_display"`
}

type lineResponse struct {
	Transaction txhttp.Response `json:"transaction"`
	Delta       int64           `json:"delta"`
	Running     int64           `json:"running"`
}

type statementResponse struct {
	Student     studentResponse `json:"student"`
	Lines       []lineResponse  `json:"lines"`
	Closing     int64           `json:"closing"`
	Drift       int64           `json:"drift"`
	GeneratedAt time.Time       `json:"generated_at"`
}

type reconcileResponse struct {
	StudentID  string `json:"student_id"`
	Stored     int64  `json:"stored"`
	Computed   int64  `json:"computed"`
	Drift      int64  `json:"drift"`
	Consistent bool   `json:"consistent"`
}

func toStudentResponse(s *student.Student) studentResponse {
	return studentResponse{ID: s.ID, NIS: s.NIS, Name: s.Name, Class: s.Class}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	students, err := h.students.List(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := make([]studentResponse, len(students))
	for i, s := range students {
		resp[i] = toStudentResponse(s)
	}

	respond.JSON(w, http.StatusOK, resp)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	s, err := h.students.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toStudentResponse(s))
}

func (h *Handler) balance(w http.ResponseWriter, r *http.Request) {
	s, err := h.students.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	amount, err := h.balances.Lookup(r.Context(), s.ID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, balanceResponse{
		StudentID: s.ID,
		Balance:   amount,
		Display:   money.Format(amount),
	})
}

func (h *Handler) statement(w http.ResponseWriter, r *http.Request) {
	st, err := h.statements.Build(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	switch r.URL.Query().Get("format") {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "tabungan-"+st.Student.ID+".csv"))

		if err := statement.WriteCSV(w, st); err != nil {
			respond.Error(w, r, err)
		}
	case "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(statement.Summary(st)))
	case "", "json":
		resp := statementResponse{
			Student:     toStudentResponse(st.Student),
			Lines:       make([]lineResponse, len(st.Lines)),
			Closing:     st.Closing,
			GeneratedAt: st.GeneratedAt,
		}
		for i, l := range st.Lines {
			resp.Lines[i] = lineResponse{Transaction: txhttp.ToResponse(l.Transaction), Delta: l.Delta, Running: l.Running}
		}

		if st.Reconciliation != nil {
			resp.Drift = st.Reconciliation.Drift
		}

		respond.JSON(w, http.StatusOK, resp)
	default:
		http.Error(w, "format must be json, csv or text", http.StatusBadRequest)
	}
}

func (h *Handler) reconcile(w http.ResponseWriter, r *http.Request) {
	s, err := h.students.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	rec, err := h.balances.Reconcile(r.Context(), s.ID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, reconcileResponse{
		StudentID:  rec.StudentID,
		Stored:     rec.Stored,
		Computed:   rec.Computed,
		Drift:      rec.Drift,
		Consistent: rec.Consistent(),
	})
}
