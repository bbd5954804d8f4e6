// Package server exposes the relay over HTTP with gin.
//
// Routes
//
//	POST /api/v1/sessions                          create, 201 with the chat
//	GET  /api/v1/sessions/:id                      200 chat, 404 if gone
//	POST /api/v1/sessions/:id/terminate            204, idempotent
//	GET  /api/v1/sessions/:id/participants         {"count": n}
//	PUT  /api/v1/sessions/:id/participants/:anon   204, 409 when full
//	POST /api/v1/sessions/:id/messages             201 with the stored row
//	GET  /api/v1/sessions/:id/messages             {"messages": [...]}, oldest first
//	GET  /ws?session_id=:id                        websocket stream of events
//	GET  /healthz, GET /metrics
//
// Error bodies are {"error": "..."}. A missing, terminated or expired session
// is 404; a full one is 409; a rejected write is 400; a database failure is 503.
package server
