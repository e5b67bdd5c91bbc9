package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/todo-service/internal/api/dto"
	"github.com/spec-kit/todo-service/internal/service"
)

// AdminHandler exposes account administration endpoints.
type AdminHandler struct {
	admin *service.AdminService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{admin: adminService}
}

// ListUsers GET /admin/users.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.admin.ListUsers(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.UserDTO, 0, len(users))
	for i := range users {
		items = append(items, dto.FromUser(&users[i]))
	}
	return c.JSON(items)
}
