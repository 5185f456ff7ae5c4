package slip

import (
	"fmt"
	"io"
	"strings"

	"github.com/MrJamesThe3rd/tabungan/internal/importer/sheet"
	"github.com/MrJamesThe3rd/tabungan/internal/money"
	"github.com/MrJamesThe3rd/tabungan/internal/transaction"
)

var columns = []sheet.Column{
	{Key: "student", Aliases: []string{"student_id", "id siswa", "id"}, Required: true},
	{Key: "amount", Aliases: []string{"amount", "jumlah", "nominal"}, Required: true},
	{Key: "type", Aliases: []string{"type", "jenis"}},
	{Key: "note", Aliases: []string{"note", "keterangan", "catatan"}},
}

var typeWords = map[string]transaction.Type{
	"":           transaction.TypeDeposit,
	"deposit":    transaction.TypeDeposit,
	"setor":      transaction.TypeDeposit,
	"setoran":    transaction.TypeDeposit,
	"withdrawal": transaction.TypeWithdrawal,
	"tarik":      transaction.TypeWithdrawal,
	"penarikan":  transaction.TypeWithdrawal,
}

// Parser reads a batch of paper deposit slips typed into a spreadsheet.
// Rows without a type are deposits.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse returns one SubmitParams per slip. SubmittedBy is left for the caller.
func (p *Parser) Parse(r io.Reader) ([]transaction.SubmitParams, error) {
	rows, err := sheet.Read(r)
	if err != nil {
		return nil, err
	}

	ix, headerIdx, err := sheet.FindHeader(rows, columns)
	if err != nil {
		return nil, err
	}

	var params []transaction.SubmitParams

	for i, row := range rows[headerIdx+1:] {
		rowNum := headerIdx + i + 2

		if sheet.Blank(row) {
			continue
		}

		studentID := ix.Cell(row, "student")
		if studentID == "" {
			return nil, fmt.Errorf("row %d: missing student id", rowNum)
		}

		amount, err := money.Parse(ix.Cell(row, "amount"))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}

		word := strings.ToLower(ix.Cell(row, "type"))

		typ, ok := typeWords[word]
		if !ok {
			return nil, fmt.Errorf("row %d: unknown transaction type %q", rowNum, word)
		}

		params = append(params, transaction.SubmitParams{
			StudentID: studentID,
			Amount:    amount,
			Type:      typ,
			Note:      ix.Cell(row, "note"),
		})
	}

	return params, nil
}
