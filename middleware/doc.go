// Package middleware provides request filters for server.Server.Use.
//
// A middleware sees each request before routing and either returns nil to
// continue or a response that ends dispatch.
package middleware
