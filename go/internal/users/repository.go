package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/mcdev12/eventrelay/go/internal/models"
	"github.com/mcdev12/eventrelay/go/internal/sqlutil"
	"github.com/mcdev12/eventrelay/go/internal/users/db"
)

const uniqueViolation = "23505"

// Querier defines what the repository needs from the database layer for reads
type Querier interface {
	ListUsers(ctx context.Context, arg db.ListUsersParams) ([]db.User, error)
}

// Repository implements user data access operations
type Repository struct {
	queries Querier
	db      *sql.DB
}

// NewRepository creates a new users repository. Writes run in their own transaction on database.
func NewRepository(querier Querier, database *sql.DB) *Repository {
	return &Repository{
		queries: querier,
		db:      database,
	}
}

// CreateUser inserts a user unless the username or email is taken.
func (r *Repository) CreateUser(ctx context.Context, user NewUser) (*models.User, error) {
	var created db.User
	err := sqlutil.Run(ctx, r.db, r.withTx, func(q *db.Queries) error {
		existing, err := q.FindUserByUsernameOrEmail(ctx, db.FindUserByUsernameOrEmailParams{
			Username: user.Username,
			Email:    user.Email,
		})
		switch {
		case err == nil:
			return conflictFor(existing, user)
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("failed to look up user: %w", err)
		}

		created, err = q.CreateUser(ctx, db.CreateUserParams{
			ID:           uuid.New(),
			Username:     user.Username,
			Email:        user.Email,
			PasswordHash: user.PasswordHash,
		})
		return err
	})
	if err != nil {
		return nil, mapUniqueViolation(err)
	}

	return r.dbUserToModel(created), nil
}

// ListUsers returns users ordered by creation time
func (r *Repository) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if limit < 0 || limit > math.MaxInt32 || offset < 0 || offset > math.MaxInt32 {
		return nil, fmt.Errorf("%w: limit %d offset %d out of range", ErrInvalidRequest, limit, offset)
	}
	rows, err := r.queries.ListUsers(ctx, db.ListUsersParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]*models.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, r.dbUserToModel(row))
	}
	return users, nil
}

func conflictFor(existing db.User, user NewUser) error {
	if existing.Username == user.Username {
		return ErrUsernameExists
	}
	return ErrEmailExists
}

// mapUniqueViolation covers two concurrent inserts that both passed the lookup.
func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return err
	}
	switch pqErr.Constraint {
	case "users_username_key":
		return ErrUsernameExists
	case "users_email_key":
		return ErrEmailExists
	}
	return err
}

func (r *Repository) withTx(tx *sql.Tx) *db.Queries {
	return db.New(tx)
}

// dbUserToModel converts a database user to domain model
func (r *Repository) dbUserToModel(dbUser db.User) *models.User {
	return &models.User{
		ID:           dbUser.ID,
		Username:     dbUser.Username,
		Email:        dbUser.Email,
		PasswordHash: dbUser.PasswordHash,
		CreatedAt:    dbUser.CreatedAt,
	}
}
