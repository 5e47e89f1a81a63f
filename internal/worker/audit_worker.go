package worker

import (
	"github.com/suporte-ops/ticket-desk/internal/service"
)

// StartAuditWorker registers the history and logging handlers for domain events.
func StartAuditWorker(auditService *service.AuditService) {
	if auditService == nil {
		return
	}
	auditService.RegisterHandlers()
}
