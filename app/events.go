package app

import "github.com/procsys/appcore/observability"

// Application event types emitted during the host lifecycle.
const (
	EventAppStart     observability.EventType = "app.start"
	EventAppStop      observability.EventType = "app.stop"
	EventModuleStart  observability.EventType = "app.module.start"
	EventModuleStop   observability.EventType = "app.module.stop"
	EventModuleError  observability.EventType = "app.module.error"
	EventControlWrite observability.EventType = "app.control.write"
)
