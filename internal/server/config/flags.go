package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/gophgroups/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-w string   HTTP bind address (e.g., ":8080")
//	-x string   public base URL of the HTTP API
//	-k string   hex server secret seed
//	-t int      profile key credential validity, hours
//	-v int      avatar upload URL validity, minutes
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-w", "-x", "-k", "-t", "-v", "-u", "-p", "-b", "-g", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "gRPC address and port")
	fs.StringVar(&config.EndpointAddrHTTP, "w", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.PublicURL, "x", config.PublicURL, "public base URL")
	fs.StringVar(&config.ServerSecretSeed, "k", config.ServerSecretSeed, "server secret seed (hex)")

	credentialValidity := fs.Int("t", int(config.ProfileCredentialValidity.Hours()), "profile credential validity (in hours)")
	avatarURLValidity := fs.Int("v", int(config.AvatarURLValidity.Minutes()), "avatar upload URL validity (in minutes)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.ProfileCredentialValidity = time.Duration(*credentialValidity) * time.Hour
	config.AvatarURLValidity = time.Duration(*avatarURLValidity) * time.Minute
}
