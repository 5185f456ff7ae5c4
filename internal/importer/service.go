package importer

import (
	"fmt"
	"io"

	"github.com/MrJamesThe3rd/tabungan/internal/importer/roster"
	"github.com/MrJamesThe3rd/tabungan/internal/importer/slip"
	"github.com/MrJamesThe3rd/tabungan/internal/student"
	"github.com/MrJamesThe3rd/tabungan/internal/transaction"
)

type Service struct {
	roster RosterParser
	slips  SlipParser
}

func NewService() *Service {
	return &Service{
		roster: roster.NewParser(),
		slips:  slip.NewParser(),
	}
}

func (s *Service) Roster(r io.Reader) ([]student.Student, error) {
	students, err := s.roster.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", KindRoster, err)
	}

	return students, nil
}

func (s *Service) Slips(r io.Reader) ([]transaction.SubmitParams, error) {
	params, err := s.slips.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", KindSlips, err)
	}

	return params, nil
}
