// Package notification turns late-task batches into throttled email alerts.
//
// The notifier process keeps two pieces of per-project state: the latest
// notification config received on the config-updates queue (ConfigStore)
// and the time of the last successful send (ThrottleStore). Engine combines
// them for every late-tasks message and calls the Dispatcher only when the
// project has alerting enabled and its throttle window has elapsed.
//
// Both stores are process-local by default. Running more than one notifier
// requires implementations backed by a shared store.
package notification
