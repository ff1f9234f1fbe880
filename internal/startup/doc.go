// Package startup handles application initialization: configuration
// loading from environment variables, directory validation, and
// structured startup/shutdown logging.
package startup
