package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MrJamesThe3rd/tabungan/internal/student"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) ListStudents(ctx context.Context) ([]*student.Student, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, nis, name, class FROM students ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing students: %w", err)
	}
	defer rows.Close()

	var students []*student.Student

	for rows.Next() {
		var st student.Student
		if err := rows.Scan(&st.ID, &st.NIS, &st.Name, &st.Class); err != nil {
			return nil, fmt.Errorf("scanning student: %w", err)
		}

		students = append(students, &st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating student rows: %w", err)
	}

	return students, nil
}

func (s *Store) GetStudent(ctx context.Context, id string) (*student.Student, error) {
	var st student.Student

	err := s.db.QueryRowContext(ctx, `SELECT id, nis, name, class FROM students WHERE id = $1`, id).
		Scan(&st.ID, &st.NIS, &st.Name, &st.Class)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, student.ErrNotFound
		}

		return nil, fmt.Errorf("getting student: %w", err)
	}

	return &st, nil
}

// UpsertStudents writes the whole roster in one database transaction.
func (s *Store) UpsertStudents(ctx context.Context, students []student.Student) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	query := `
		INSERT INTO students (id, nis, name, class)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET nis = EXCLUDED.nis, name = EXCLUDED.name, class = EXCLUDED.class
	`

	for _, st := range students {
		if _, err := dbTx.ExecContext(ctx, query, st.ID, st.NIS, st.Name, st.Class); err != nil {
			return fmt.Errorf("upserting student %s: %w", st.ID, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}
