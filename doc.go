// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the pollcast API server.

pollcast is a live poll service: anyone can create a poll with up to ten
options, visitors vote once (or repeatedly, if the poll allows it) and every
open results page updates as votes arrive.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=file:pollcast.db IP_HASH_SALT=change-me go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." --ip-salt change-me

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite path, PostgreSQL or MongoDB connection string
  - IP_HASH_SALT (--ip-salt): Secret for hashing voter IP addresses

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite, postgres or mongo (default: sqlite)
  - MONGO_DATABASE: Database name when using mongo (default: pollcast)
  - REDIS_URL (--redis): Enables the Redis relay so several instances share
    live updates
  - REDIS_CHANNEL_PREFIX: Relay channel prefix (default: pollcast:poll:)
  - STORE_TIMEOUT: Per-operation storage timeout (default: 5s)
  - STREAM_KEEPALIVE: Ping interval on live result streams (default: 25s)
  - CORS_ORIGIN (--cors-origin): Allowed origin; empty allows any origin without credentials

A .env file in the working directory is loaded first.

# Architecture

  - handlers: HTTP request handlers (polls, results, votes, streams)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - voting: Vote submission rules, poll management, result percentages
  - broadcast: In-process hub and Redis relay for live updates
  - store: Storage interfaces and the SQL implementation
  - mongostore: MongoDB implementation of the storage interfaces
  - origin: Salted IP hashing and request audit metadata
  - models: Domain, request and response types
  - db: Connections and schema creation
  - cliparse: Configuration parsing

On SIGINT or SIGTERM the hub is stopped, which ends every live stream, and
the server drains in-flight requests before exiting.

See package documentation for each component.
*/
package main
