package importer

import (
	"io"

	"github.com/MrJamesThe3rd/tabungan/internal/student"
	"github.com/MrJamesThe3rd/tabungan/internal/transaction"
)

// Kind names the kind of file being imported.
type Kind string

const (
	KindRoster Kind = "roster"
	KindSlips  Kind = "slips"
)

type RosterParser interface {
	Parse(r io.Reader) ([]student.Student, error)
}

type SlipParser interface {
	Parse(r io.Reader) ([]transaction.SubmitParams, error)
}
