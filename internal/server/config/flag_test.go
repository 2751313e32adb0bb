package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"cmd",
				"-a", "127.0.0.1:9090", "-w", ":8081", "-x", "http://groups.example", "-k", "00ff",
				"-t", "48", "-v", "5", "-u", "user", "-p", "password", "-b", "bucket", "-g", "us-west-1", "-e", "http://endpoint",
			},
			expected: &Config{
				EndpointAddrGRPC:          "127.0.0.1:9090",
				EndpointAddrHTTP:          ":8081",
				PublicURL:                 "http://groups.example",
				ServerSecretSeed:          "00ff",
				ProfileCredentialValidity: 48 * time.Hour,
				AvatarURLValidity:         5 * time.Minute,
				S3RootUser:                "user",
				S3RootPassword:            "password",
				S3Bucket:                  "bucket",
				S3Region:                  "us-west-1",
				S3BaseEndpoint:            "http://endpoint",
			},
		},
		{
			name:        "invalid validity",
			args:        []string{"cmd", "-t", "abc"},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			config := &Config{}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config) })
				return
			}
			require.NotPanics(t, func() { parseFlags(config) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
