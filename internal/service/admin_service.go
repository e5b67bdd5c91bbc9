package service

import (
	"context"

	"github.com/spec-kit/todo-service/internal/domain"
	"github.com/spec-kit/todo-service/internal/repository"
)

// AdminService exposes account administration reads.
type AdminService struct {
	users repository.UserRepository
}

// NewAdminService builds the service.
func NewAdminService(users repository.UserRepository) *AdminService {
	return &AdminService{users: users}
}

// ListUsers returns every registered account. Password hashes never leave the
// service layer; the handler maps to a DTO without them.
func (s *AdminService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}
