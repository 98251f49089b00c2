// Package postgres provides PostgreSQL-specific implementations for the data
// storage interfaces defined in the internal/store package, the goose schema
// migrations for the tracking tables, and a session-scoped advisory lock used
// to keep classifier runs exclusive across processes.
//
// Connections are opened through the pgx database/sql driver.
package postgres
