// Package thumbcache implements the persistent thumbnail store.
// Thumbnails are plain JPEG files keyed by content fingerprint,
// published atomically via temp-file rename. Concurrent requests for
// the same fingerprint collapse into a single generation, a weighted
// semaphore bounds decode parallelism, and terminal generation
// failures are cached in the catalog so broken sources are not
// re-decoded until they change.
package thumbcache
