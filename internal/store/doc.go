// Package store defines interfaces for data persistence operations.
// These interfaces abstract the relational store that holds projects, tasks
// and assignments from the classifier and progress logic, so that business
// rules stay independent of the database technology.
package store
