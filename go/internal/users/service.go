package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/mcdev12/eventrelay/go/internal/httputil"
	"github.com/mcdev12/eventrelay/go/internal/models"
)

var errMalformedBody = errors.New("malformed request body")

// UsersApp defines what the service layer needs from the users application
type UsersApp interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error)
	ListUsers(ctx context.Context, req ListUsersRequest) ([]*models.User, error)
}

// Service exposes the users HTTP API
type Service struct {
	app    UsersApp
	errors *httputil.ErrorMapper
}

// NewService creates a new users HTTP service
func NewService(app UsersApp) *Service {
	return &Service{
		app: app,
		errors: httputil.NewErrorMapper().
			WithMapping(ErrUsernameExists, http.StatusBadRequest, "Username already exists").
			WithMapping(ErrEmailExists, http.StatusBadRequest, "Email already exists").
			WithMapping(errMalformedBody, http.StatusBadRequest, "Malformed request body").
			WithMapping(ErrInvalidRequest, http.StatusUnprocessableEntity, "Invalid request"),
	}
}

// RegisterRoutes binds POST /users and GET /users
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /users", s.CreateUser)
	mux.HandleFunc("GET /users", s.ListUsers)
}

// CreateUser creates a new user
func (s *Service) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: %w", errMalformedBody, err))
		return
	}

	user, err := s.app.CreateUser(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, user)
}

// ListUsers returns a page of users, ?limit=10&offset=0 by default
func (s *Service) ListUsers(w http.ResponseWriter, r *http.Request) {
	req := ListUsersRequest{Limit: DefaultListLimit}
	var verr ValidationError
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			verr.Errors = append(verr.Errors, FieldError{Field: "limit", Message: "must be an integer"})
		}
		req.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			verr.Errors = append(verr.Errors, FieldError{Field: "offset", Message: "must be an integer"})
		}
		req.Offset = n
	}
	if len(verr.Errors) > 0 {
		s.writeError(w, &verr)
		return
	}

	users, err := s.app.ListUsers(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, UserList{Users: users})
}

func (s *Service) writeError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		s.errors.WriteError(w, err, verr.Errors)
		return
	}
	s.errors.WriteError(w, err, nil)
}
