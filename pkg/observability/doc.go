// Package observability provides structured logging, Prometheus metrics,
// and health check endpoints shared by all components of the service.
package observability
