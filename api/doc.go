// Package api defines the gateway's HTTP surface: request/response types,
// the router and the middleware chain. Handlers live in api/handlers.
package api
