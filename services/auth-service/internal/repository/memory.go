package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vasapolrittideah/clinidoc-api/services/auth-service/internal/model"
)

// userMemoryRepository keeps users in process memory. It enforces the same
// uniqueness rules as the mongo repository and hands out copies so callers
// never share a record.
type userMemoryRepository struct {
	mu        sync.RWMutex
	users     map[string]*model.User
	byEmail   map[string]string
	bySubject map[string]string
}

// NewUserMemoryRepository returns an empty in-memory repository.
func NewUserMemoryRepository() UserRepository {
	return &userMemoryRepository{
		users:     make(map[string]*model.User),
		byEmail:   make(map[string]string),
		bySubject: make(map[string]string),
	}
}

func (r *userMemoryRepository) CreateUser(_ context.Context, user *model.User) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if _, ok := r.users[user.ID]; ok {
		return nil, ErrDuplicateKey
	}
	if _, ok := r.byEmail[user.Email]; ok {
		return nil, ErrDuplicateKey
	}
	if user.OAuthSubject != "" {
		if _, ok := r.bySubject[user.OAuthSubject]; ok {
			return nil, ErrDuplicateKey
		}
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := clone(user)
	r.users[stored.ID] = stored
	r.byEmail[stored.Email] = stored.ID
	if stored.OAuthSubject != "" {
		r.bySubject[stored.OAuthSubject] = stored.ID
	}

	return clone(stored), nil
}

func (r *userMemoryRepository) GetUser(_ context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.get(id)
}

func (r *userMemoryRepository) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.get(r.byEmail[email])
}

func (r *userMemoryRepository) GetUserByOAuthSubject(_ context.Context, subject string) (*model.User, error) {
	if subject == "" {
		return nil, ErrUserNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.get(r.bySubject[subject])
}

func (r *userMemoryRepository) UpdateUser(_ context.Context, id string, params UpdateUserParams) (*model.User, error) {
	if params.empty() {
		return nil, ErrNoUpdate
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}

	updated := clone(current)
	params.apply(updated)

	if updated.Email != current.Email {
		if _, taken := r.byEmail[updated.Email]; taken {
			return nil, ErrDuplicateKey
		}
	}
	if updated.OAuthSubject != current.OAuthSubject && updated.OAuthSubject != "" {
		if _, taken := r.bySubject[updated.OAuthSubject]; taken {
			return nil, ErrDuplicateKey
		}
	}

	delete(r.byEmail, current.Email)
	r.byEmail[updated.Email] = id
	if current.OAuthSubject != "" {
		delete(r.bySubject, current.OAuthSubject)
	}
	if updated.OAuthSubject != "" {
		r.bySubject[updated.OAuthSubject] = id
	}

	updated.UpdatedAt = time.Now().UTC()
	r.users[id] = updated

	return clone(updated), nil
}

func (r *userMemoryRepository) get(id string) (*model.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return clone(user), nil
}

func clone(user *model.User) *model.User {
	c := *user
	if user.LastLogin != nil {
		t := *user.LastLogin
		c.LastLogin = &t
	}
	return &c
}
