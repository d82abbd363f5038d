package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/wellbeing/internal/flagx"
)

var knownFlags = []string{
	"-d", "-l", "-s", "-o", "-u", "-p", "-b", "-g", "-e",
	"-cn", "-ck", "-cs", "-t", "-v", "-k",
}

// parseFlags populates Config fields from command-line flags. args is
// filtered first so flags owned by other components (-c, -m) don't make
// parsing fail. The fetch timeout is given in whole seconds.
func parseFlags(cfg *Config, args []string) {
	fs := flag.NewFlagSet("client", flag.ContinueOnError)

	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "record store DSN")
	fs.StringVar(&cfg.LocalDBPath, "l", cfg.LocalDBPath, "local session database file")
	fs.StringVar(&cfg.JWTSecret, "s", cfg.JWTSecret, "session token secret")
	fs.StringVar(&cfg.ObjectBackend, "o", cfg.ObjectBackend, "object backend (s3|cloudinary)")
	fs.StringVar(&cfg.S3RootUser, "u", cfg.S3RootUser, "S3 access key")
	fs.StringVar(&cfg.S3RootPassword, "p", cfg.S3RootPassword, "S3 secret key")
	fs.StringVar(&cfg.S3Bucket, "b", cfg.S3Bucket, "avatars bucket")
	fs.StringVar(&cfg.S3Region, "g", cfg.S3Region, "S3 region")
	fs.StringVar(&cfg.S3BaseEndpoint, "e", cfg.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&cfg.CloudinaryCloudName, "cn", cfg.CloudinaryCloudName, "Cloudinary cloud name")
	fs.StringVar(&cfg.CloudinaryAPIKey, "ck", cfg.CloudinaryAPIKey, "Cloudinary API key")
	fs.StringVar(&cfg.CloudinaryAPISecret, "cs", cfg.CloudinaryAPISecret, "Cloudinary API secret")
	fetchTimeout := fs.Int("t", int(cfg.FetchTimeout.Seconds()), "profile fetch timeout (in seconds)")
	fs.StringVar(&cfg.LogLevel, "v", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.SnapshotPassphrase, "k", cfg.SnapshotPassphrase, "passphrase sealing the stored session")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		panic(err)
	}

	cfg.FetchTimeout = time.Duration(*fetchTimeout) * time.Second
}
