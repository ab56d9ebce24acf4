// Package http exposes the problem registry and the manipulation operations
// as JSON over HTTP, routed with chi.
//
// Failed calls answer {"error": kind, "message": text} with a status derived
// from the error kind (see StatusOf).
package http
