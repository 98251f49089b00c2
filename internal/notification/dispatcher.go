package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/phrazzld/latewatch/internal/events"
)

// Email is a rendered plain-text message.
type Email struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers an email through a provider.
// Implementations return errors wrapping ErrDispatch.
type Sender interface {
	Send(ctx context.Context, email Email) error
}

// Dispatcher renders late-task batches and hands them to a Sender.
type Dispatcher struct {
	sender Sender
}

// NewDispatcher creates a Dispatcher that sends through s.
func NewDispatcher(s Sender) *Dispatcher {
	return &Dispatcher{sender: s}
}

// Dispatch sends one email listing every task in event to recipient.
func (d *Dispatcher) Dispatch(ctx context.Context, recipient string, event *events.LateTasksEvent) error {
	if strings.TrimSpace(recipient) == "" {
		return fmt.Errorf("%w: %w: project %d", ErrDispatch, ErrNoRecipient, event.ProjectID)
	}
	email := RenderEmail(recipient, event)
	if err := d.sender.Send(ctx, email); err != nil {
		return fmt.Errorf("%w: project %d: %w", ErrDispatch, event.ProjectID, err)
	}
	return nil
}

// projectName picks a display name for the batch.
func projectName(event *events.LateTasksEvent) string {
	if event.ProjectName != "" {
		return event.ProjectName
	}
	for _, t := range event.Tasks {
		if t.ProjectName != "" {
			return t.ProjectName
		}
	}
	return fmt.Sprintf("project %d", event.ProjectID)
}

// RenderEmail formats the notification for event.
func RenderEmail(recipient string, event *events.LateTasksEvent) Email {
	name := projectName(event)

	var b strings.Builder
	fmt.Fprintf(&b, "The following tasks in %s are behind schedule:\n", name)
	for _, t := range event.Tasks {
		b.WriteString("\n")
		fmt.Fprintf(&b, "Task: %s\n", t.TaskName)
		fmt.Fprintf(&b, "Assignee: %s\n", t.EmployeeName)
		fmt.Fprintf(&b, "Due date: %s\n", t.EndDate.UTC().Format("2006-01-02"))
		fmt.Fprintf(&b, "Progress: %.2f%%\n", t.Progress)
		fmt.Fprintf(&b, "Status: %s\n", t.Status)
		fmt.Fprintf(&b, "Estimate: %.2f hours\n", t.EstimateTime)
	}

	return Email{
		To:      recipient,
		Subject: "Task Delay Notification for " + name,
		Body:    b.String(),
	}
}
