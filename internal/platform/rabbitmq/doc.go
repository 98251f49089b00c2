// Package rabbitmq connects the classifier and notifier processes to the
// message broker. Client publishes JSON messages to durable work queues and
// redials lazily after a failure. Consumer runs a supervised consume loop that
// reconnects with capped exponential backoff and applies a RedeliveryPolicy
// to every delivery: ack on success, bounded republish on transient failure,
// and a per-queue dead-letter queue for malformed or exhausted messages.
package rabbitmq
