package transaction

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/tabungan/internal/money"
	"github.com/MrJamesThe3rd/tabungan/internal/transaction"
)

type Response struct {
	ID         uuid.UUID          `json:"id"`
	StudentID  string             `json:"student_id"`
	Amount     int64              `json:"amount"`
	Display    string             `json:"amount_display"`
	Type       transaction.Type   `json:"type"`
	Note       string             `json:"note,omitempty"`
	Status     transaction.Status `json:"status"`
	CreatedAt  time.Time          `json:"created_at"`
	CreatedBy  uuid.UUID          `json:"created_by"`
	ApprovedBy *uuid.UUID         `json:"approved_by,omitempty"`
	ApprovedAt *time.Time         `json:"approved_at,omitempty"`
}

type approvalResponse struct {
	Transaction    Response `json:"transaction"`
	Balance        int64    `json:"balance"`
	BalanceDisplay string   `json:"balance_display"`
	Delta          int64    `json:"delta"`
}

func ToResponse(tx *transaction.Transaction) Response {
	return Response{
		ID:         tx.ID,
		StudentID:  tx.StudentID,
		Amount:     tx.Amount,
		Display:    money.Format(tx.Amount),
		Type:       tx.Type,
		Note:       tx.Note,
		Status:     tx.Status,
		CreatedAt:  tx.CreatedAt,
		CreatedBy:  tx.CreatedBy,
		ApprovedBy: tx.ApprovedBy,
		ApprovedAt: tx.ApprovedAt,
	}
}

func ToResponseList(txs []*transaction.Transaction) []Response {
	resp := make([]Response, len(txs))
	for i, tx := range txs {
		resp[i] = ToResponse(tx)
	}

	return resp
}

func toApprovalResponse(a *transaction.Approval) approvalResponse {
	return approvalResponse{
		Transaction:    ToResponse(a.Transaction),
		Balance:        a.Balance.Balance,
		BalanceDisplay: money.Format(a.Balance.Balance),
		Delta:          a.Delta,
	}
}
