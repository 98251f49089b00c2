package api

// NotificationConfigRequest is the body of
// POST /api/projects/{projectID}/notification-config.
type NotificationConfigRequest struct {
	Email     string `json:"email" validate:"omitempty,max=320"`
	Frequency string `json:"frequency" validate:"required"`
	SendAlert bool   `json:"sendAlert"`
}

// NotificationConfigResponse acknowledges an accepted config change.
type NotificationConfigResponse struct {
	ProjectID int64  `json:"projectId"`
	Email     string `json:"email"`
	Frequency string `json:"frequency"`
	SendAlert bool   `json:"sendAlert"`
}

// TaskProgressResponse is returned after recalculating a task's progress.
type TaskProgressResponse struct {
	TaskID   int64   `json:"taskId"`
	Progress float64 `json:"progress"`
}
