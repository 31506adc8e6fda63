// Package server exposes the chat bridge over HTTP. Two streaming surfaces
// are provided: Server-Sent Events for plain HTTP clients and WebSocket for
// bidirectional clients. Both carry the same JSON chunk format and both end
// every stream with exactly one terminal chunk.
package server
