package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/latewatch/internal/domain"
)

// Queue names. Both queues are declared durable.
const (
	QueueLateTasks     = "late-tasks"
	QueueConfigUpdates = "config-updates"
)

// Queues lists every queue the pipeline publishes to.
var Queues = []string{QueueLateTasks, QueueConfigUpdates}

// ErrMalformedMessage is returned when a message body cannot be decoded or
// fails validation. Retrying such a message can never succeed.
var ErrMalformedMessage = errors.New("malformed message")

var validate = validator.New()

// LateTaskRecord describes one late assignment inside a LateTasksEvent.
type LateTaskRecord struct {
	TaskID       int64                   `json:"taskId" validate:"required,gt=0"`
	TaskName     string                  `json:"taskName"`
	EmployeeName string                  `json:"employeeName"`
	ProjectName  string                  `json:"projectName"`
	ProjectID    int64                   `json:"projectId"`
	EndDate      time.Time               `json:"endDate"`
	Progress     float64                 `json:"progress" validate:"gte=0,lte=100"`
	Status       domain.AssignmentStatus `json:"status" validate:"oneof=PENDING IN_PROGRESS COMPLETED BEHIND_SCHEDULE"`
	EstimateTime float64                 `json:"estimateTime" validate:"gte=0"`
}

// LateTasksEvent is published once per project per classifier run when the
// project has at least one late assignment.
type LateTasksEvent struct {
	ProjectID   int64            `json:"projectId" validate:"required,gt=0"`
	ProjectName string           `json:"projectName"`
	Tasks       []LateTaskRecord `json:"tasks" validate:"dive"`
}

// ConfigUpdateEvent carries a project's full notification config. The
// newest event for a project always replaces the previous one.
type ConfigUpdateEvent struct {
	ProjectID int64  `json:"projectId" validate:"required,gt=0"`
	Email     string `json:"email" validate:"omitempty,email"`
	Frequency string `json:"frequency"`
	SendAlert bool   `json:"sendAlert"`
}

// NewConfigUpdateEvent converts a domain config to its message form.
func NewConfigUpdateEvent(cfg domain.NotificationConfig) ConfigUpdateEvent {
	return ConfigUpdateEvent{
		ProjectID: cfg.ProjectID,
		Email:     cfg.Email,
		Frequency: string(cfg.Frequency),
		SendAlert: cfg.SendAlert,
	}
}

// Config converts the event back to a domain config. The frequency is
// carried through as-is; unknown values get the default throttle window.
func (e ConfigUpdateEvent) Config() domain.NotificationConfig {
	return domain.NotificationConfig{
		ProjectID: e.ProjectID,
		Email:     e.Email,
		Frequency: domain.Frequency(e.Frequency),
		SendAlert: e.SendAlert,
	}
}

// DecodeLateTasks parses and validates a late-tasks message body.
func DecodeLateTasks(body []byte) (*LateTasksEvent, error) {
	var event LateTasksEvent
	if err := decode(body, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// DecodeConfigUpdate parses and validates a config-updates message body.
func DecodeConfigUpdate(body []byte) (*ConfigUpdateEvent, error) {
	var event ConfigUpdateEvent
	if err := decode(body, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func decode(body []byte, v interface{}) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	return nil
}

// Publisher defines an interface for components that put messages on a
// named durable queue. Payloads are JSON encoded by the implementation.
type Publisher interface {
	// Publish sends payload to queue as a persistent message.
	// Returns an error if the message could not be handed to the broker;
	// the caller may retry.
	Publish(ctx context.Context, queue string, payload interface{}) error
}
