// Package api handles incoming HTTP requests, routing, request validation,
// and response formatting for the classifier process. It acts as an adapter
// between the CRUD application and operators on one side and the internal
// services on the other, translating HTTP concerns to business operations.
//
// Handlers depend on small consumer-side interfaces so they can be tested
// with httptest and simple fakes.
package api
