// Package storage provides session.Store backends.
//
// MemoryStore keeps sessions in a map with lazy counter expiry and
// optional periodic compaction of long-idle records. SQLiteStore persists
// sessions for deployments that must survive restarts.
package storage
