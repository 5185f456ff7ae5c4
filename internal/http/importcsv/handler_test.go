package importcsv_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/tabungan/internal/auth"
	authhttp "github.com/MrJamesThe3rd/tabungan/internal/http/auth"
	"github.com/MrJamesThe3rd/tabungan/internal/http/importcsv"
	"github.com/MrJamesThe3rd/tabungan/internal/importer"
	"github.com/MrJamesThe3rd/tabungan/internal/student"
	"github.com/MrJamesThe3rd/tabungan/internal/transaction"
)

type fakeStudents struct {
	known    map[string]bool
	upserted []student.Student
}

func (f *fakeStudents) Get(_ context.Context, id string) (*student.Student, error) {
	if !f.known[id] {
		return nil, student.ErrNotFound
	}

	return &student.Student{ID: id}, nil
}

func (f *fakeStudents) Upsert(_ context.Context, students []student.Student) (int, error) {
	f.upserted = students
	return len(students), nil
}

type fakeTransactions struct {
	params []transaction.SubmitParams
}

func (f *fakeTransactions) SubmitBatch(_ context.Context, params []transaction.SubmitParams) ([]*transaction.Transaction, error) {
	f.params = params

	txs := make([]*transaction.Transaction, len(params))
	for i, p := range params {
		txs[i] = &transaction.Transaction{
			ID: uuid.New(), StudentID: p.StudentID, Amount: p.Amount, Type: p.Type,
			Status: transaction.StatusPending, CreatedBy: p.SubmittedBy, CreatedAt: time.Now(),
		}
	}

	return txs, nil
}

type fakeAdmins map[uuid.UUID]bool

func (f fakeAdmins) IsAdmin(_ context.Context, id uuid.UUID) (bool, error) {
	return f[id], nil
}

var (
	admin   = &auth.Identity{UserID: uuid.New(), Email: "admin@example.com"}
	member = &auth.Identity{UserID: uuid.New(), Email: "guru@example.com"}
)

func setup(as *auth.Identity, students *fakeStudents, txs *fakeTransactions) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(authhttp.WithIdentity(r.Context(), as)))
		})
	})

	h := importcsv.NewHandler(importer.NewService(), students, txs, fakeAdmins{admin.UserID: true})
	r.Route("/import", h.Routes)

	return r
}

func upload(t *testing.T, h http.Handler, target, content string) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer

	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "upload.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

const roster = "id;nis;nama;kelas\nS1;1001;Budi;4A\nS2;1002;Sari;4B\n"

func TestHandler_Roster(t *testing.T) {
	t.Run("Admin", func(t *testing.T) {
		students := &fakeStudents{}

		rec := upload(t, setup(admin, students, &fakeTransactions{}), "/import/roster", roster)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{"imported":2}`, rec.Body.String())
		require.Len(t, students.upserted, 2)
		assert.Equal(t, "Sari", students.upserted[1].Name)
	})

	t.Run("NotAdmin", func(t *testing.T) {
		students := &fakeStudents{}

		rec := upload(t, setup(member, students, &fakeTransactions{}), "/import/roster", roster)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Nil(t, students.upserted)
	})

	t.Run("MissingFile", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/import/roster", nil)
		rec := httptest.NewRecorder()
		setup(admin, &fakeStudents{}, &fakeTransactions{}).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_Slips(t *testing.T) {
	type testCase struct {
		name      string
		content   string
		wantCode  int
		wantCount int
	}

	tests := []testCase{
		{
			name:      "Imported",
			content:   "id siswa,jumlah,jenis,keterangan\nS1,\"50.000\",setor,minggu 1\nS1,20000,tarik,\n",
			wantCode:  http.StatusCreated,
			wantCount: 2,
		},
		{
			name:     "UnknownStudent",
			content:  "id siswa,jumlah,jenis\nS1,1000,setor\nS9,1000,setor\n",
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "Unparseable",
			content:  "foo,bar\n1,2\n",
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txs := &fakeTransactions{}

			rec := upload(t, setup(member, &fakeStudents{known: map[string]bool{"S1": true}}, txs), "/import/slips", tt.content)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())

			if tt.wantCode != http.StatusCreated {
				assert.Nil(t, txs.params)
				return
			}

			var body struct {
				Imported int `json:"imported"`
			}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.wantCount, body.Imported)

			for _, p := range txs.params {
				assert.Equal(t, member.UserID, p.SubmittedBy)
			}
			assert.Equal(t, transaction.TypeWithdrawal, txs.params[1].Type)
		})
	}
}
