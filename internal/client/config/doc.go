// Package config loads runtime configuration for the groupsync CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags bound by the CLI, which override earlier values.
//
// # JSON schema
//
// Durations are either strings like "2s" or integer nanoseconds:
//
//	{
//	  "service_url": "http://127.0.0.1:8080",
//	  "account_endpoint_addr": "127.0.0.1:50051",
//	  "database_dsn": "groupsync.db",
//	  "server_public_params": "<64 hex chars>",
//	  "credential_cache_size": 16,
//	  "max_retries": 3,
//	  "retry_base_delay": "200ms",
//	  "retry_max_delay": "2s",
//	  "request_timeout": "10s",
//	  "log_level": "warn"
//	}
package config
