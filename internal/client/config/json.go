package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/wellbeing/internal/flagx"
	"github.com/dmitrijs2005/wellbeing/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields distinguish "absent" from "empty", so a partial file only
// overrides the keys it mentions.
type JsonConfig struct {
	DatabaseDSN         *string         `json:"database_dsn"`
	LocalDBPath         *string         `json:"local_db_path"`
	JWTSecret           *string         `json:"jwt_secret"`
	ObjectBackend       *string         `json:"object_backend"`
	S3RootUser          *string         `json:"s3_root_user"`
	S3RootPassword      *string         `json:"s3_root_password"`
	S3Bucket            *string         `json:"s3_bucket"`
	S3Region            *string         `json:"s3_region"`
	S3BaseEndpoint      *string         `json:"s3_base_endpoint"`
	CloudinaryCloudName *string         `json:"cloudinary_cloud_name"`
	CloudinaryAPIKey    *string         `json:"cloudinary_api_key"`
	CloudinaryAPISecret *string         `json:"cloudinary_api_secret"`
	FetchTimeout        *timex.Duration `json:"fetch_timeout"`
	LogLevel            *string         `json:"log_level"`
	SnapshotPassphrase  *string         `json:"snapshot_passphrase"`
}

// parseJson overlays cfg with the JSON file named by -c/-config in args.
// Panics on read or unmarshal errors: a broken config file is a startup
// failure.
func parseJson(cfg *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.DatabaseDSN, jc.DatabaseDSN)
	setString(&cfg.LocalDBPath, jc.LocalDBPath)
	setString(&cfg.JWTSecret, jc.JWTSecret)
	setString(&cfg.ObjectBackend, jc.ObjectBackend)
	setString(&cfg.S3RootUser, jc.S3RootUser)
	setString(&cfg.S3RootPassword, jc.S3RootPassword)
	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	setString(&cfg.CloudinaryCloudName, jc.CloudinaryCloudName)
	setString(&cfg.CloudinaryAPIKey, jc.CloudinaryAPIKey)
	setString(&cfg.CloudinaryAPISecret, jc.CloudinaryAPISecret)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.SnapshotPassphrase, jc.SnapshotPassphrase)
	if jc.FetchTimeout != nil {
		cfg.FetchTimeout = jc.FetchTimeout.Duration
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
