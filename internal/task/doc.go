// Package task schedules and runs background jobs, such as the weekly delay
// classification. A Scheduler triggers registered jobs from cron specs and
// guarantees that a job never overlaps itself: a trigger that arrives while
// the previous run is still active is skipped, and an optional Locker extends
// that guarantee across processes. Each run gets its own timeout.
package task
