// Package delivery defines the contract every serving surface implements.
package delivery

import "context"

// Delivery is a long-running serving surface (HTTP server, queue worker,
// ticker). Serve blocks until the context is canceled or a fatal error
// occurs.
type Delivery interface {
	Serve(ctx context.Context) error
}
