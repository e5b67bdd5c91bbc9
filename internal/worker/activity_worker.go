package worker

import (
	"github.com/spec-kit/todo-service/internal/service"
)

// StartActivityWorker registers notification handlers for task activity.
func StartActivityWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
