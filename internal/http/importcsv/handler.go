package importcsv

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	authhttp "github.com/MrJamesThe3rd/tabungan/internal/http/auth"
	"github.com/MrJamesThe3rd/tabungan/internal/http/respond"
	txhttp "github.com/MrJamesThe3rd/tabungan/internal/http/transaction"
	"github.com/MrJamesThe3rd/tabungan/internal/student"
	"github.com/MrJamesThe3rd/tabungan/internal/transaction"
)

const maxUpload = 10 << 20

type Parser interface {
	Roster(r io.Reader) ([]student.Student, error)
	Slips(r io.Reader) ([]transaction.SubmitParams, error)
}

type Students interface {
	Get(ctx context.Context, id string) (*student.Student, error)
	Upsert(ctx context.Context, students []student.Student) (int, error)
}

type Transactions interface {
	SubmitBatch(ctx context.Context, params []transaction.SubmitParams) ([]*transaction.Transaction, error)
}

type Admins interface {
	IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
}

type Handler struct {
	parser       Parser
	students     Students
	transactions Transactions
	admins       Admins
}

func NewHandler(parser Parser, students Students, transactions Transactions, admins Admins) *Handler {
	return &Handler{
		parser:       parser,
		students:     students,
		transactions: transactions,
		admins:       admins,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/roster", h.importRoster)
	r.Post("/slips", h.importSlips)
}

type rosterResponse struct {
	Imported int `json:"imported"`
}

type slipsResponse struct {
	Imported     int               `json:"imported"`
	Transactions []txhttp.Response `json:"transactions"`
}

// openFile returns the multipart "file" field of the request.
func openFile(w http.ResponseWriter, r *http.Request) (io.ReadCloser, bool) {
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return nil, false
	}

	return file, true
}

func (h *Handler) importRoster(w http.ResponseWriter, r *http.Request) {
	id, ok := authhttp.IdentityFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	admin, err := h.admins.IsAdmin(r.Context(), id.UserID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if !admin {
		http.Error(w, "only administrators can import the roster", http.StatusForbidden)
		return
	}

	file, ok := openFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	students, err := h.parser.Roster(file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	n, err := h.students.Upsert(r.Context(), students)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, rosterResponse{Imported: n})
}

func (h *Handler) importSlips(w http.ResponseWriter, r *http.Request) {
	id, ok := authhttp.IdentityFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	file, ok := openFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	params, err := h.parser.Slips(file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	for i := range params {
		if err := txhttp.CheckStudent(r.Context(), h.students, params[i].StudentID); err != nil {
			respond.Error(w, r, fmt.Errorf("row %d: %w", i+1, err))
			return
		}

		params[i].SubmittedBy = id.UserID
	}

	txs, err := h.transactions.SubmitBatch(r.Context(), params)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, slipsResponse{
		Imported:     len(txs),
		Transactions: txhttp.ToResponseList(txs),
	})
}
