package config

import "time"

// Config holds runtime settings for the groupsync CLI.
//
// Fields:
//   - ServiceURL: base URL of the group HTTP API.
//   - AccountEndpointAddr: host:port of the account/profile gRPC service.
//   - DatabaseDSN: SQLite database holding the local identity, contacts
//     and group states.
//   - ServerPublicParams: hex server public params used to verify
//     credentials and signed changes.
//   - CredentialCacheSize: auth credentials kept in memory; 0 disables the
//     cache.
//   - MaxRetries, RetryBaseDelay, RetryMaxDelay: retries of idempotent
//     group requests on network errors.
//   - RequestTimeout: per-request HTTP timeout.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	ServiceURL          string
	AccountEndpointAddr string
	DatabaseDSN         string
	ServerPublicParams  string
	CredentialCacheSize int
	MaxRetries          uint64
	RetryBaseDelay      time.Duration
	RetryMaxDelay       time.Duration
	RequestTimeout      time.Duration
	LogLevel            string
}

// LoadDefaults populates c with development defaults.
func (c *Config) LoadDefaults() {
	c.ServiceURL = "http://127.0.0.1:8080"
	c.AccountEndpointAddr = "127.0.0.1:50051"
	c.DatabaseDSN = "groupsync.db"
	c.ServerPublicParams = ""
	c.CredentialCacheSize = 16
	c.MaxRetries = 3
	c.RetryBaseDelay = 200 * time.Millisecond
	c.RetryMaxDelay = 2 * time.Second
	c.RequestTimeout = 10 * time.Second
	c.LogLevel = "warn"
}

// LoadConfig applies defaults and then the JSON file named by -c/-config
// in args, if any. Command-line flags are bound on top by the CLI.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
