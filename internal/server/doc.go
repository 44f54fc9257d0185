// Package server exposes the HTTP API for session control, monitoring
// and export.
package server
