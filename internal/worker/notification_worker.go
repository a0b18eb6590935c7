package worker

import (
	"github.com/spec-kit/eco-exchange/internal/service"
)

// StartEventWorkers registers event-driven background handlers.
func StartEventWorkers(notifications *service.NotificationService, reputation *service.ReputationService) {
	if notifications != nil {
		notifications.RegisterHandlers()
	}
	if reputation != nil {
		reputation.RegisterHandlers()
	}
}
