// Package metrics defines the Prometheus collectors for the gallery
// viewer: HTTP traffic, directory scans, thumbnail cache activity,
// deletions, catalog queries, and the filesystem watcher.
//
// Collectors are registered with the default registry via promauto at
// package load; expose them with promhttp.Handler().
package metrics
