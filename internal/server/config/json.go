package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophgroups/internal/flagx"
	"github.com/dmitrijs2005/gophgroups/internal/timex"
)

// JsonConfig is the on-disk form of Config. Durations accept strings such
// as "15m" or integer nanoseconds.
type JsonConfig struct {
	EndpointAddrGRPC          string         `json:"endpoint_addr_grpc"`
	EndpointAddrHTTP          string         `json:"endpoint_addr_http"`
	PublicURL                 string         `json:"public_url"`
	ServerSecretSeed          string         `json:"server_secret_seed"`
	ProfileCredentialValidity timex.Duration `json:"profile_credential_validity"`
	AvatarURLValidity         timex.Duration `json:"avatar_url_validity"`
	S3RootUser                string         `json:"s3_root_user"`
	S3RootPassword            string         `json:"s3_root_password"`
	S3Bucket                  string         `json:"s3_bucket"`
	S3Region                  string         `json:"s3_region"`
	S3BaseEndpoint            string         `json:"s3_base_endpoint"`
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// parseJson overlays values from the file named by -c/-config. Fields
// absent from the file keep their current value. An unreadable or invalid
// file panics.
func parseJson(config *Config) {
	path := flagx.ConfigPath(os.Args[1:])
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.PublicURL, c.PublicURL)
	setString(&config.ServerSecretSeed, c.ServerSecretSeed)
	if c.ProfileCredentialValidity.Duration > 0 {
		config.ProfileCredentialValidity = c.ProfileCredentialValidity.Duration
	}
	if c.AvatarURLValidity.Duration > 0 {
		config.AvatarURLValidity = c.AvatarURLValidity.Duration
	}
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
}
