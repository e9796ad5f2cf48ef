package port

import "context"

// ConnectionRegistry reports live viewers of a room
type ConnectionRegistry interface {
	CountLiveConnections(ctx context.Context, roomSlug string) (int, error)
}
