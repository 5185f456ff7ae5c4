package student

import (
	"context"
	"fmt"
	"strings"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=student
type Repository interface {
	ListStudents(ctx context.Context) ([]*Student, error)
	GetStudent(ctx context.Context, id string) (*Student, error)
	UpsertStudents(ctx context.Context, students []Student) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns every student ordered by name.
func (s *Service) List(ctx context.Context) ([]*Student, error) {
	return s.repo.ListStudents(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*Student, error) {
	return s.repo.GetStudent(ctx, strings.TrimSpace(id))
}

// Upsert writes a roster. Rows without an ID or a name are rejected before
// anything is stored.
func (s *Service) Upsert(ctx context.Context, students []Student) (int, error) {
	if len(students) == 0 {
		return 0, nil
	}

	for i, st := range students {
		if strings.TrimSpace(st.ID) == "" || strings.TrimSpace(st.Name) == "" {
			return 0, fmt.Errorf("row %d: student id and name are required", i+1)
		}
	}

	if err := s.repo.UpsertStudents(ctx, students); err != nil {
		return 0, err
	}

	return len(students), nil
}
