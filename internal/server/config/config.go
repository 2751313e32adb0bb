// Package config handles configuration for the reference group server,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the group server.
//
// Fields:
//   - EndpointAddrGRPC: bind address of the account/profile gRPC service.
//   - EndpointAddrHTTP: bind address of the group HTTP API.
//   - PublicURL: externally visible base URL of the HTTP API, used for
//     local avatar upload URLs.
//   - ServerSecretSeed: hex seed of the server signing key. Empty means a
//     fresh key per process.
//   - ProfileCredentialValidity: lifetime of issued profile key credentials.
//   - AvatarURLValidity: lifetime of presigned avatar upload URLs.
//   - S3*: object storage for avatars. An empty S3Bucket keeps avatars in
//     memory.
type Config struct {
	EndpointAddrGRPC          string
	EndpointAddrHTTP          string
	PublicURL                 string
	ServerSecretSeed          string
	ProfileCredentialValidity time.Duration
	AvatarURLValidity         time.Duration
	S3RootUser                string
	S3RootPassword            string
	S3Bucket                  string
	S3Region                  string
	S3BaseEndpoint            string
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.EndpointAddrGRPC = ":50051"
	c.EndpointAddrHTTP = ":8080"
	c.PublicURL = "http://127.0.0.1:8080"
	c.ServerSecretSeed = ""
	c.ProfileCredentialValidity = 7 * 24 * time.Hour
	c.AvatarURLValidity = 15 * time.Minute
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = ""
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
