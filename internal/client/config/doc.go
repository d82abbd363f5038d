// Package config loads runtime configuration for the wellbeing client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-d  string  record store DSN (PostgreSQL)
//	-l  string  local SQLite file holding the session snapshot
//	-s  string  secret used to verify session tokens (HS256)
//	-o  string  object backend: "s3" or "cloudinary"
//	-u  string  S3 access key
//	-p  string  S3 secret key
//	-b  string  avatars bucket
//	-g  string  S3 region
//	-e  string  S3 base endpoint
//	-cn string  Cloudinary cloud name
//	-ck string  Cloudinary API key
//	-cs string  Cloudinary API secret
//	-t  int     profile fetch timeout, seconds
//	-v  string  log level (debug, info, warn, error)
//	-k  string  passphrase sealing the stored session token (off when empty)
//
// # JSON schema
//
// Durations use timex.Duration, so they can be strings like "10s" or
// integer nanoseconds:
//
//	{
//	  "database_dsn": "postgres://...",
//	  "object_backend": "s3",
//	  "fetch_timeout": "10s"
//	}
package config
