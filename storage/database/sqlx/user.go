package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mzalendo/kazi/core"
	"github.com/mzalendo/kazi/core/user"
)

type userRepository struct {
	exec core.DBExecutor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{exec: exec}
}

type userRow struct {
	ID           string      `db:"id"`
	Username     string      `db:"username"`
	RealName     string      `db:"real_name"`
	StudentNo    null.String `db:"student_no"`
	Role         string      `db:"role"`
	Phone        null.String `db:"phone"`
	Email        null.String `db:"email"`
	IsActive     null.Bool   `db:"is_active"`
	PasswordHash null.Bytes  `db:"password_hash"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
	LastLogin    null.Time   `db:"last_login"`
}

func (repo userRepository) row(usr user.User) userRow {
	return userRow{
		ID:           usr.ID,
		Username:     usr.Username,
		RealName:     usr.RealName,
		StudentNo:    null.NewString(usr.StudentNo, usr.StudentNo != ""),
		Role:         usr.Role,
		Phone:        null.NewString(usr.Phone, usr.Phone != ""),
		Email:        null.NewString(usr.Email, usr.Email != ""),
		IsActive:     null.BoolFromPtr(usr.IsActive),
		PasswordHash: null.BytesFrom(usr.PasswordHash),
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
		LastLogin:    null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
}

func (repo userRepository) unrow(row userRow) user.User {
	return user.User{
		ID:           row.ID,
		Username:     row.Username,
		RealName:     row.RealName,
		StudentNo:    row.StudentNo.String,
		Role:         row.Role,
		Phone:        row.Phone.String,
		Email:        row.Email.String,
		IsActive:     row.IsActive.Ptr(),
		PasswordHash: row.PasswordHash.Bytes,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
		LastLogin:    row.LastLogin.Time,
	}
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	q := `SELECT EXISTS (SELECT 1 FROM "user" WHERE (username = ? OR email = ?)`
	args := []interface{}{username, email}
	if len(excludedUsers) > 0 {
		ids := make([]interface{}, 0, len(excludedUsers))
		q += " AND id NOT IN ("
		for i, u := range excludedUsers {
			if i > 0 {
				q += ","
			}
			q += "?"
			ids = append(ids, u.ID)
		}
		q += ")"
		args = append(args, ids...)
	}
	q += ")"

	var exists bool
	if err := repo.exec.GetContext(ctx, &exists, repo.exec.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	if exists {
		return user.ErrUserExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	row := repo.row(usr)

	const q = `INSERT INTO "user"
		(id, username, real_name, student_no, role, phone, email, is_active, password_hash, created_at, updated_at, last_login)
		VALUES (:id, :username, :real_name, :student_no, :role, :phone, :email, :is_active, :password_hash, :created_at, :updated_at, :last_login)`
	if _, err := repo.exec.NamedExecContext(ctx, q, row); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return repo.unrow(row), nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var row userRow

	if filter.ID != "" {
		if _, err := uuid.Parse(filter.ID); err != nil {
			return user.User{}, user.ErrNotFound
		}
		if err := repo.exec.GetContext(ctx, &row, `SELECT * FROM "user" WHERE id = $1`, filter.ID); err != nil {
			return user.User{}, repo.trapNoRowsErr(err, "finding user by ID")
		}
		return repo.unrow(row), nil
	}

	var q string
	var arg string
	if filter.Username != "" {
		q, arg = `SELECT * FROM "user" WHERE username = $1`, filter.Username
	} else if filter.Email != "" {
		q, arg = `SELECT * FROM "user" WHERE email = $1`, filter.Email
	} else {
		return user.User{}, user.ErrNotFound
	}
	if err := repo.exec.GetContext(ctx, &row, q, arg); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user")
	}
	return repo.unrow(row), nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.UpdatedAt = time.Now().UTC()
	row := repo.row(usr)

	const q = `UPDATE "user" SET
		username = :username, real_name = :real_name, student_no = :student_no, role = :role, phone = :phone,
		email = :email, is_active = :is_active, password_hash = :password_hash, updated_at = :updated_at,
		last_login = :last_login
		WHERE id = :id`
	res, err := repo.exec.NamedExecContext(ctx, q, row)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.unrow(row), nil
}
