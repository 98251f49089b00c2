// Package service contains the application-specific use cases of the
// classifier process. It orchestrates interactions between domain logic and
// the repositories defined in internal/store, and publishes the resulting
// events through an events.Publisher.
//
// Key components:
//
//   - DelayClassifier: evaluates every assignment, persists status changes and
//     publishes one late-tasks message per project with late work
//   - ProgressService: recomputes a task's effort-weighted progress
//   - NotificationConfigService: validates and publishes notification config changes
//
// Services receive dependencies through constructor injection and never
// depend on concrete infrastructure.
package service
