package roster

import (
	"fmt"
	"io"

	"github.com/MrJamesThe3rd/tabungan/internal/importer/sheet"
	"github.com/MrJamesThe3rd/tabungan/internal/student"
)

var columns = []sheet.Column{
	{Key: "id", Aliases: []string{"id", "id siswa", "kode"}, Required: true},
	{Key: "nis", Aliases: []string{"nis", "nisn"}},
	{Key: "name", Aliases: []string{"nama", "name", "nama siswa"}, Required: true},
	{Key: "class", Aliases: []string{"kelas", "class"}},
}

// Parser reads a student roster exported from a spreadsheet.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) ([]student.Student, error) {
	rows, err := sheet.Read(r)
	if err != nil {
		return nil, err
	}

	ix, headerIdx, err := sheet.FindHeader(rows, columns)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]int)

	var students []student.Student

	for i, row := range rows[headerIdx+1:] {
		rowNum := headerIdx + i + 2

		if sheet.Blank(row) {
			continue
		}

		st := student.Student{
			ID:    ix.Cell(row, "id"),
			NIS:   ix.Cell(row, "nis"),
			Name:  ix.Cell(row, "name"),
			Class: ix.Cell(row, "class"),
		}

		if st.ID == "" {
			return nil, fmt.Errorf("row %d: missing student id", rowNum)
		}

		if st.Name == "" {
			return nil, fmt.Errorf("row %d: missing name for %s", rowNum, st.ID)
		}

		if prev, ok := seen[st.ID]; ok {
			return nil, fmt.Errorf("row %d: student %s already listed on row %d", rowNum, st.ID, prev)
		}

		seen[st.ID] = rowNum

		students = append(students, st)
	}

	return students, nil
}
