// Package storage provides checkpoint store implementations.
//
// Implementations:
//   - file: JSON snapshot on disk with write-to-temp-then-rename
//   - redis: JSON snapshot under a keyed Redis entry with TTL
//
// The AutoSaver in this package binds any store to the event fabric so
// snapshots are taken automatically on selected event kinds.
package storage
