// Package postgres implements the service repository interfaces
// against PostgreSQL using database/sql and lib/pq.
package postgres
