// Package middleware contains HTTP middleware for the Fiber application.
//
// It provides the cross-cutting concerns that sit between a request and
// its handler.
//
// # Components
//
//   - Auth: API key validation protecting mutating endpoints.
//   - RayID: a unique request id injected into the context and response
//     headers so log lines can be traced per request.
//
// The components are registered globally in the server setup.
package middleware
