package credential

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mentoring-svc/src/internal/database"
	"mentoring-svc/src/internal/dbx"
	"mentoring-svc/src/internal/models"

	"github.com/sirupsen/logrus"
)

type Repository interface {
	Get(ctx context.Context, username string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	Insert(ctx context.Context, user *User) error
	UpsertExternal(ctx context.Context, user *User) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const selectUser = `SELECT username, password_hash, lastname, firstname, middlename, COALESCE(year_group, '')
FROM users`

func (r *repository) Get(ctx context.Context, username string) (*User, error) {
	row := r.db.QueryRowContext(ctx, selectUser+` WHERE username = ?`, username)

	var u User
	err := row.Scan(&u.Username, &u.PasswordHash, &u.LastName, &u.FirstName, &u.MiddleName, &u.YearGroup)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		logrus.WithError(err).WithField("username", username).Error("Failed to get user")
		return nil, fmt.Errorf("%w: %v", models.ErrDatabaseQuery, err)
	}
	return &u, nil
}

func (r *repository) List(ctx context.Context) ([]*User, error) {
	rows, err := r.db.QueryContext(ctx, selectUser+` ORDER BY lastname, firstname, username`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrDatabaseQuery, err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.Username, &u.PasswordHash, &u.LastName, &u.FirstName, &u.MiddleName, &u.YearGroup); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrDatabaseQuery, err)
		}
		users = append(users, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrDatabaseQuery, err)
	}
	return users, nil
}

func (r *repository) Insert(ctx context.Context, user *User) error {
	return insertUser(ctx, r.db, user)
}

// UpsertExternal overwrites the verifier and names of an existing user or creates it.
func (r *repository) UpsertExternal(ctx context.Context, user *User) error {
	return dbx.WithTx(ctx, r.db, func(ctx context.Context, tx dbx.DBTX) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE users SET password_hash = ?, lastname = ?, firstname = ?, middlename = ? WHERE username = ?`,
			user.PasswordHash, user.LastName, user.FirstName, user.MiddleName, user.Username)
		if err != nil {
			return fmt.Errorf("%w: %v", models.ErrDatabaseUpdate, err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("%w: %v", models.ErrDatabaseUpdate, err)
		}
		switch {
		case n == 1:
			return nil
		case n > 1:
			return models.RowCountError("update user "+user.Username, n)
		}

		return insertUser(ctx, tx, user)
	})
}

func insertUser(ctx context.Context, db dbx.DBTX, user *User) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, lastname, firstname, middlename) VALUES (?, ?, ?, ?, ?)`,
		user.Username, user.PasswordHash, user.LastName, user.FirstName, user.MiddleName)
	if err != nil {
		err = database.WrapDuplicate(err)
		if errors.Is(err, models.ErrDuplicateRecord) {
			return err
		}
		return fmt.Errorf("%w: %v", models.ErrDatabaseInsert, err)
	}
	return nil
}
