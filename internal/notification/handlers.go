package notification

import (
	"context"

	"github.com/phrazzld/latewatch/internal/events"
)

// HandleLateTasksMessage decodes a late-tasks message body and runs it
// through the engine. Undecodable bodies return events.ErrMalformedMessage.
func (e *Engine) HandleLateTasksMessage(ctx context.Context, body []byte) error {
	event, err := events.DecodeLateTasks(body)
	if err != nil {
		e.observer.ObserveNotification("malformed")
		return err
	}
	_, err = e.HandleLateTasks(ctx, event)
	return err
}

// HandleConfigUpdateMessage decodes a config-updates message body and
// stores the config. Undecodable bodies return events.ErrMalformedMessage.
func (e *Engine) HandleConfigUpdateMessage(ctx context.Context, body []byte) error {
	event, err := events.DecodeConfigUpdate(body)
	if err != nil {
		return err
	}
	return e.ApplyConfigUpdate(ctx, event)
}
