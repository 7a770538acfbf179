// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

Values are resolved in three layers, later layers winning:

 1. A .env file in the working directory, loaded with godotenv
 2. Environment variables, decoded with envconfig
 3. Command-line flags

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: SQL DSN or MongoDB URI (required)
  - DatabaseType: sqlite, postgres or mongo (default: sqlite)
  - MongoDatabase: MongoDB database name (default: pollcast)
  - RedisURL: enables the cross-instance broadcast relay (optional)
  - RedisChannelPrefix: relay channel prefix (default: pollcast:poll:)
  - IPHashSalt: secret for hashing voter IP addresses (required)
  - StoreTimeout: deadline for each storage call (default: 5s)
  - StreamKeepalive: interval between stream pings (default: 25s)
  - CORSOrigin: allowed browser origin (optional)

# CLI Flags

	-p            Server port
	-d            Database URL
	-t            Database type
	--redis       Redis URL
	--cors-origin Allowed CORS origin
	--ip-salt     IP hash salt

# Environment Variables

	PORT                 → -p
	DATABASE_URL         → -d
	DATABASE_TYPE        → -t
	REDIS_URL            → --redis
	CORS_ORIGIN          → --cors-origin
	IP_HASH_SALT         → --ip-salt
	MONGO_DATABASE
	REDIS_CHANNEL_PREFIX
	STORE_TIMEOUT
	STREAM_KEEPALIVE

CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error if:

  - DATABASE_URL is missing
  - IP_HASH_SALT is missing
  - DATABASE_TYPE is not sqlite, postgres or mongo
  - a numeric or duration variable does not parse
*/
package cliparse
