package users

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/eventrelay/go/internal/models"
	"golang.org/x/crypto/bcrypt"
)

type fakeRepo struct {
	mu    sync.Mutex
	users []*models.User
	err   error
}

func (f *fakeRepo) CreateUser(_ context.Context, u NewUser) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, existing := range f.users {
		if existing.Username == u.Username {
			return nil, ErrUsernameExists
		}
		if existing.Email == u.Email {
			return nil, ErrEmailExists
		}
	}
	user := &models.User{
		ID:           uuid.New(),
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    time.Date(2024, 8, 27, 14, 55, 0, 0, time.UTC),
	}
	f.users = append(f.users, user)
	return user, nil
}

func (f *fakeRepo) ListUsers(_ context.Context, limit, offset int) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*models.User, 0, limit)
	for i := offset; i < len(f.users) && len(out) < limit; i++ {
		out = append(out, f.users[i])
	}
	return out, nil
}

func newTestApp(repo UsersRepository) *App {
	app := NewApp(repo)
	app.bcryptCost = bcrypt.MinCost
	return app
}
