package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mentoring-svc/src/internal/database"
	"mentoring-svc/src/internal/dbx"
	"mentoring-svc/src/internal/models"

	"github.com/sirupsen/logrus"
)

type Repository interface {
	// Store binds token to username, replacing and returning the previous token.
	Store(ctx context.Context, username, token string, issuedAt time.Time) (string, error)
	Lookup(ctx context.Context, token string) (*models.Session, error)
	// Current reports whether token is still the one bound to username.
	Current(ctx context.Context, username, token string) (bool, error)
	// Clear unbinds the user's token and returns it.
	Clear(ctx context.Context, username string) (string, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Store(ctx context.Context, username, token string, issuedAt time.Time) (string, error) {
	var previous string

	err := dbx.WithTx(ctx, r.db, func(ctx context.Context, tx dbx.DBTX) error {
		prev, err := currentToken(ctx, tx, username)
		if err != nil {
			return err
		}
		previous = prev

		res, err := tx.ExecContext(ctx,
			`UPDATE users SET session_token = ?, session_issued_at = ? WHERE username = ?`,
			token, issuedAt.UnixNano(), username)
		if err != nil {
			if errors.Is(database.WrapDuplicate(err), models.ErrDuplicateRecord) {
				return models.NewInvariantError("duplicate session token", err)
			}
			return fmt.Errorf("%w: %v", models.ErrDatabaseUpdate, err)
		}

		return expectOneRow(res, "store session for "+username)
	})
	if err != nil {
		return "", err
	}

	return previous, nil
}

func (r *repository) Lookup(ctx context.Context, token string) (*models.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT username, session_issued_at FROM users WHERE session_token = ?`, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrDatabaseQuery, err)
	}
	defer rows.Close()

	var found []*models.Session
	for rows.Next() {
		var (
			username string
			issued   sql.NullInt64
		)
		if err := rows.Scan(&username, &issued); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrDatabaseQuery, err)
		}
		if !issued.Valid {
			return nil, models.NewInvariantError("session token without issue time for "+username, nil)
		}
		found = append(found, &models.Session{
			Token:    token,
			Username: username,
			IssuedAt: time.Unix(0, issued.Int64),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrDatabaseQuery, err)
	}

	switch len(found) {
	case 0:
		return nil, models.ErrAuthentication
	case 1:
		return found[0], nil
	}

	logrus.WithField("matches", len(found)).Error("Session token bound to more than one user")
	return nil, models.NewInvariantError(fmt.Sprintf("session token matches %d users", len(found)), nil)
}

func (r *repository) Current(ctx context.Context, username, token string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM users WHERE username = ? AND session_token = ?`, username, token).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", models.ErrDatabaseQuery, err)
	}
	return true, nil
}

func (r *repository) Clear(ctx context.Context, username string) (string, error) {
	var previous string

	err := dbx.WithTx(ctx, r.db, func(ctx context.Context, tx dbx.DBTX) error {
		prev, err := currentToken(ctx, tx, username)
		if err != nil {
			return err
		}
		previous = prev

		res, err := tx.ExecContext(ctx,
			`UPDATE users SET session_token = NULL, session_issued_at = NULL WHERE username = ?`, username)
		if err != nil {
			return fmt.Errorf("%w: %v", models.ErrDatabaseUpdate, err)
		}
		return expectOneRow(res, "clear session for "+username)
	})
	if err != nil {
		return "", err
	}

	return previous, nil
}

func currentToken(ctx context.Context, tx dbx.DBTX, username string) (string, error) {
	var token sql.NullString
	err := tx.QueryRowContext(ctx, `SELECT session_token FROM users WHERE username = ?`, username).Scan(&token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", models.ErrUserNotFound
		}
		return "", fmt.Errorf("%w: %v", models.ErrDatabaseQuery, err)
	}
	return token.String, nil
}

func expectOneRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrDatabaseUpdate, err)
	}
	if n != 1 {
		return models.RowCountError(op, n)
	}
	return nil
}
