package meeting

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mentoring-svc/src/internal/models"
)

type Repository interface {
	Insert(ctx context.Context, m *Meeting) (int64, error)
	Get(ctx context.Context, mid int64) (*Meeting, error)
	// ClaimMentee fills an open slot and reports how many rows it touched.
	ClaimMentee(ctx context.Context, mid int64, username string) (int64, error)
	// DeleteByMentor deletes the meeting and returns the mentees of the deleted rows.
	DeleteByMentor(ctx context.Context, mid int64, mentor string) ([]string, error)
	ClearMentee(ctx context.Context, mid int64, mentee string) (int64, error)
	ListByMentor(ctx context.Context, username string) ([]*Listing, error)
	ListByMentee(ctx context.Context, username string) ([]*Listing, error)
	// ListOpen lists unfilled meetings of other mentors. A zero endsAfter disables the time filter.
	ListOpen(ctx context.Context, username string, endsAfter time.Time) ([]*Listing, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, m *Meeting) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO meetings (mentor, time_start, time_end, notes) VALUES (?, ?, ?, ?)`,
		m.Mentor, m.Start.Unix(), m.End.Unix(), m.Notes)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", models.ErrDatabaseInsert, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", models.ErrDatabaseInsert, err)
	}
	return id, nil
}

func (r *repository) Get(ctx context.Context, mid int64) (*Meeting, error) {
	var (
		m          Meeting
		start, end int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT mid, mentor, COALESCE(mentee, ''), time_start, time_end, notes FROM meetings WHERE mid = ?`, mid).
		Scan(&m.ID, &m.Mentor, &m.Mentee, &start, &end, &m.Notes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrMeetingNotFound
		}
		return nil, fmt.Errorf("%w: %v", models.ErrDatabaseQuery, err)
	}

	m.Start = time.Unix(start, 0)
	m.End = time.Unix(end, 0)
	return &m, nil
}

func (r *repository) ClaimMentee(ctx context.Context, mid int64, username string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE meetings SET mentee = ? WHERE mid = ? AND mentee IS NULL AND mentor <> ?`,
		username, mid, username)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", models.ErrDatabaseUpdate, err)
	}
	return rowsAffected(res)
}

func (r *repository) DeleteByMentor(ctx context.Context, mid int64, mentor string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`DELETE FROM meetings WHERE mid = ? AND mentor = ? RETURNING COALESCE(mentee, '')`, mid, mentor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrDatabaseDelete, err)
	}
	defer rows.Close()

	var mentees []string
	for rows.Next() {
		var mentee string
		if err := rows.Scan(&mentee); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrDatabaseDelete, err)
		}
		mentees = append(mentees, mentee)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrDatabaseDelete, err)
	}
	return mentees, nil
}

func (r *repository) ClearMentee(ctx context.Context, mid int64, mentee string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE meetings SET mentee = NULL WHERE mid = ? AND mentee = ?`, mid, mentee)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", models.ErrDatabaseUpdate, err)
	}
	return rowsAffected(res)
}

const listingColumns = `SELECT m.mid, m.time_start, m.time_end, m.notes,
       COALESCE(u.username, ''), COALESCE(u.lastname, ''), COALESCE(u.firstname, ''), COALESCE(u.middlename, '')
FROM meetings m`

func (r *repository) ListByMentor(ctx context.Context, username string) ([]*Listing, error) {
	return r.list(ctx,
		listingColumns+` LEFT JOIN users u ON u.username = m.mentee WHERE m.mentor = ? ORDER BY m.time_start, m.mid`,
		username)
}

func (r *repository) ListByMentee(ctx context.Context, username string) ([]*Listing, error) {
	return r.list(ctx,
		listingColumns+` LEFT JOIN users u ON u.username = m.mentor WHERE m.mentee = ? ORDER BY m.time_start, m.mid`,
		username)
}

func (r *repository) ListOpen(ctx context.Context, username string, endsAfter time.Time) ([]*Listing, error) {
	query := listingColumns + ` LEFT JOIN users u ON u.username = m.mentor WHERE m.mentee IS NULL AND m.mentor <> ?`
	args := []any{username}
	if !endsAfter.IsZero() {
		query += ` AND m.time_end > ?`
		args = append(args, endsAfter.Unix())
	}
	query += ` ORDER BY m.time_start, m.mid`

	return r.list(ctx, query, args...)
}

func (r *repository) list(ctx context.Context, query string, args ...any) ([]*Listing, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrDatabaseQuery, err)
	}
	defer rows.Close()

	listings := []*Listing{}
	for rows.Next() {
		var (
			l                             Listing
			start, end                    int64
			username, last, first, middle string
		)
		if err := rows.Scan(&l.ID, &start, &end, &l.Notes, &username, &last, &first, &middle); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrDatabaseQuery, err)
		}
		l.Start = time.Unix(start, 0)
		l.End = time.Unix(end, 0)
		l.Counterpart = party(username, last, first, middle)
		l.Unfilled = username == ""
		listings = append(listings, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrDatabaseQuery, err)
	}
	return listings, nil
}

func rowsAffected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", models.ErrDatabaseUpdate, err)
	}
	return n, nil
}
