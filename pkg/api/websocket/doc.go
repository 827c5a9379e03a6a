// Package websocket provides real-time chat streaming via WebSocket.
//
// Clients connect to /api/v1/chat/ws, send chat requests as JSON text
// messages and receive the streamed response as delta frames followed
// by a finish frame.
package websocket
