// Package watcher flags gallery staleness from filesystem events. It
// deliberately does nothing but set a flag: refreshing the index is
// always an explicit client action, so the sequence never shifts under
// a client mid-interaction.
package watcher
