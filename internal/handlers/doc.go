// Package handlers exposes the gallery engine over HTTP: state reads,
// explicit refresh, sorting, selection, cursor movement, bulk deletion,
// and thumbnail serving. Commands are serialized through a mutex since
// the index is a single-session object; thumbnail generation runs
// outside the lock.
package handlers
