package transaction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	authhttp "github.com/MrJamesThe3rd/tabungan/internal/http/auth"
	"github.com/MrJamesThe3rd/tabungan/internal/http/respond"
	"github.com/MrJamesThe3rd/tabungan/internal/student"
	"github.com/MrJamesThe3rd/tabungan/internal/transaction"
)

type Service interface {
	Submit(ctx context.Context, params transaction.SubmitParams) (*transaction.Transaction, error)
	Approve(ctx context.Context, id, approverID uuid.UUID) (*transaction.Approval, error)
	Get(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error)
	List(ctx context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, error)
}

type Students interface {
	Get(ctx context.Context, id string) (*student.Student, error)
}

type Handler struct {
	svc      Service
	students Students
}

func NewHandler(svc Service, students Students) *Handler {
	return &Handler{svc: svc, students: students}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.submit)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Post("/{id}/approve", h.approve)
}

type submitRequest struct {
	StudentID string           `json:"student_id"`
	Amount    int64            `json:"amount"`
	Type      transaction.Type `json:"type"`
	Note      string           `json:"note"`
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	id, ok := authhttp.IdentityFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := CheckStudent(r.Context(), h.students, req.StudentID); err != nil {
		respond.Error(w, r, err)
		return
	}

	tx, err := h.svc.Submit(r.Context(), transaction.SubmitParams{
		StudentID:   req.StudentID,
		Amount:      req.Amount,
		Type:        req.Type,
		Note:        req.Note,
		SubmittedBy: id.UserID,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, ToResponse(tx))
}

// CheckStudent turns an unknown student into a validation error.
func CheckStudent(ctx context.Context, students Students, id string) error {
	if id == "" {
		return fmt.Errorf("%w: student_id is required", transaction.ErrInvalid)
	}

	if _, err := students.Get(ctx, id); err != nil {
		if errors.Is(err, student.ErrNotFound) {
			return fmt.Errorf("%w: unknown student %s", transaction.ErrInvalid, id)
		}

		return err
	}

	return nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := transaction.ListFilter{}

	if s := r.URL.Query().Get("status"); s != "" {
		filter.Status = new(transaction.Status(s))
	}

	if s := r.URL.Query().Get("student_id"); s != "" {
		filter.StudentID = new(s)
	}

	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}

		filter.Limit = n
	}

	txs, err := h.svc.List(r.Context(), filter)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, ToResponseList(txs))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	tx, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, ToResponse(tx))
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	identity, ok := authhttp.IdentityFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	approval, err := h.svc.Approve(r.Context(), id, identity.UserID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toApprovalResponse(approval))
}
