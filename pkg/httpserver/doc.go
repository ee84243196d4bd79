// Package httpserver runs the service's HTTP listener with graceful shutdown.
//
// Run blocks until its context is cancelled or the process receives SIGINT
// or SIGTERM. On shutdown the server first cancels the base context shared
// by all requests, which ends open notification streams, then waits for
// handlers and finally runs stop hooks such as draining the notification
// dispatcher.
//
// LivenessHandler and ReadinessHandler back /healthz and /readyz.
package httpserver
