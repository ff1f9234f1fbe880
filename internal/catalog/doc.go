// Package catalog persists bookkeeping for the on-disk thumbnail
// cache in a small SQLite database: which fingerprints are stored for
// which source paths, and which fingerprints failed to decode. The
// thumbnail bytes themselves live as plain files; the catalog only
// answers eviction and negative-result queries.
package catalog
