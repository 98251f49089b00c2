// Package domain contains the core business entities, value objects, and
// domain logic of the delay-tracking pipeline: task assignments and their
// status, weighted task progress, and per-project notification preferences.
// It is independent of any storage engine, broker, or delivery mechanism.
package domain
