package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/gophgroups/internal/flagx"
	"github.com/dmitrijs2005/gophgroups/internal/timex"
)

// JsonConfig is the on-disk form of Config. Durations accept strings such
// as "2s" or integer nanoseconds. Pointers tell an absent field from a
// zero one.
type JsonConfig struct {
	ServiceURL          string         `json:"service_url"`
	AccountEndpointAddr string         `json:"account_endpoint_addr"`
	DatabaseDSN         string         `json:"database_dsn"`
	ServerPublicParams  string         `json:"server_public_params"`
	CredentialCacheSize *int           `json:"credential_cache_size"`
	MaxRetries          *uint64        `json:"max_retries"`
	RetryBaseDelay      timex.Duration `json:"retry_base_delay"`
	RetryMaxDelay       timex.Duration `json:"retry_max_delay"`
	RequestTimeout      timex.Duration `json:"request_timeout"`
	LogLevel            string         `json:"log_level"`
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration > 0 {
		*dst = v.Duration
	}
}

// parseJson overlays cfg with the file named by -c/-config in args. Fields
// absent from the file keep their current value.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&cfg.ServiceURL, jc.ServiceURL)
	setString(&cfg.AccountEndpointAddr, jc.AccountEndpointAddr)
	setString(&cfg.DatabaseDSN, jc.DatabaseDSN)
	setString(&cfg.ServerPublicParams, jc.ServerPublicParams)
	if jc.CredentialCacheSize != nil {
		cfg.CredentialCacheSize = *jc.CredentialCacheSize
	}
	if jc.MaxRetries != nil {
		cfg.MaxRetries = *jc.MaxRetries
	}
	setDuration(&cfg.RetryBaseDelay, jc.RetryBaseDelay)
	setDuration(&cfg.RetryMaxDelay, jc.RetryMaxDelay)
	setDuration(&cfg.RequestTimeout, jc.RequestTimeout)
	setString(&cfg.LogLevel, jc.LogLevel)
	return nil
}
