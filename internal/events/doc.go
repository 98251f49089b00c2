// Package events defines the messages exchanged between the classifier and
// the notifier through the broker.
//
// The primary components are:
// - LateTasksEvent: one project's late assignments found by a classifier run
// - ConfigUpdateEvent: a project's complete notification preferences
// - Publisher: interface for components that put messages on a named queue
//
// Both messages are JSON encoded. Decoding validates the payload so that
// consumers can tell a poison message (ErrMalformedMessage) from a transient
// processing failure.
package events
