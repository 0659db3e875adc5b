// Package storage provides order.Repository backends.
//
// MemoryRepository is the default for tests and single-process runs.
// SQLiteRepository provides durable storage for deployments that must
// survive restarts.
package storage
