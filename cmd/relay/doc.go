// Package main runs the burna relay: the persistent store, the realtime
// channel and the reaper that participants share.
//
// The relay only ever sees ciphertext, anonymous ids and timestamps. Session
// keys travel between participants in link fragments and never reach it.
//
// Configuration comes from the environment, optionally via a .env file:
//
//	RELAY_PORT               listen port (8080)
//	DATABASE_DRIVER          sqlite, postgres or mysql (sqlite)
//	DATABASE_DSN             driver DSN (file:burna.db?_foreign_keys=on for sqlite)
//	APP_ENV                  dev for console logs, anything else for JSON (dev)
//	LOG_LEVEL                zerolog level name
//	REAP_INTERVAL            how often expired rows are deleted (30s)
//	SESSION_LIFETIME         lifetime of a session from creation (24h)
//	MAX_PARTICIPANTS_LIMIT   largest capacity a session may ask for (50)
//	MAX_MESSAGE_TTL_SECONDS  longest message TTL a session may ask for (604800)
//	RATE_LIMIT_PER_SECOND    requests per second per client and route (20)
//	RATE_LIMIT_BURST         burst per client and route (40)
//
// The HTTP API is documented in package server.
package main
