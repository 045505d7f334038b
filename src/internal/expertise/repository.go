package expertise

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mentoring-svc/src/internal/dbx"
	"mentoring-svc/src/internal/models"
)

type Repository interface {
	Catalog(ctx context.Context) ([]Subject, error)
	UpsertSubjects(ctx context.Context, subjects []Subject) error
	ForUser(ctx context.Context, username string) (*Expertise, error)
	// Replace sets the user's year group and swaps the whole subject set in one transaction.
	Replace(ctx context.Context, username string, subjectIDs []string, yearGroup string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Catalog(ctx context.Context) ([]Subject, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT subject_id, subject_name FROM subjects ORDER BY subject_name`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrDatabaseQuery, err)
	}
	return scanSubjects(rows)
}

func (r *repository) UpsertSubjects(ctx context.Context, subjects []Subject) error {
	return dbx.WithTx(ctx, r.db, func(ctx context.Context, tx dbx.DBTX) error {
		for _, s := range subjects {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO subjects (subject_id, subject_name) VALUES (?, ?)
				 ON CONFLICT(subject_id) DO UPDATE SET subject_name = excluded.subject_name`,
				s.ID, s.Name)
			if err != nil {
				return fmt.Errorf("%w: %v", models.ErrDatabaseInsert, err)
			}
		}
		return nil
	})
}

func (r *repository) ForUser(ctx context.Context, username string) (*Expertise, error) {
	var year sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT year_group FROM users WHERE username = ?`, username).Scan(&year)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", models.ErrDatabaseQuery, err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT s.subject_id, s.subject_name
		 FROM subject_associations a JOIN subjects s ON s.subject_id = a.subject_id
		 WHERE a.username = ? ORDER BY s.subject_name`, username)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrDatabaseQuery, err)
	}
	subjects, err := scanSubjects(rows)
	if err != nil {
		return nil, err
	}

	return &Expertise{Subjects: subjects, YearGroup: year.String}, nil
}

func (r *repository) Replace(ctx context.Context, username string, subjectIDs []string, yearGroup string) error {
	return dbx.WithTx(ctx, r.db, func(ctx context.Context, tx dbx.DBTX) error {
		res, err := tx.ExecContext(ctx, `UPDATE users SET year_group = ? WHERE username = ?`,
			sql.NullString{String: yearGroup, Valid: yearGroup != ""}, username)
		if err != nil {
			return fmt.Errorf("%w: %v", models.ErrDatabaseUpdate, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("%w: %v", models.ErrDatabaseUpdate, err)
		}
		switch {
		case n == 0:
			return models.ErrUserNotFound
		case n > 1:
			return models.RowCountError("update year group", n)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM subject_associations WHERE username = ?`, username); err != nil {
			return fmt.Errorf("%w: %v", models.ErrDatabaseDelete, err)
		}

		for _, id := range subjectIDs {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO subject_associations (username, subject_id) VALUES (?, ?)`, username, id)
			if err != nil {
				return fmt.Errorf("%w: %v", models.ErrDatabaseInsert, err)
			}
		}
		return nil
	})
}

func scanSubjects(rows *sql.Rows) ([]Subject, error) {
	defer rows.Close()

	subjects := []Subject{}
	for rows.Next() {
		var s Subject
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrDatabaseQuery, err)
		}
		subjects = append(subjects, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrDatabaseQuery, err)
	}
	return subjects, nil
}
