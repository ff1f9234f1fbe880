// Package middleware provides HTTP middleware for the gallery viewer:
// request logging in W3C Extended Log Format and Prometheus request
// metrics, with filtering for high-volume paths like thumbnail fetches.
package middleware
