package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/sitecheck/internal/flagx"
	"github.com/dmitrijs2005/sitecheck/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "30s"
// or as integer nanoseconds. After parsing, values are copied into the
// runtime Config (which uses time.Duration).
type JsonConfig struct {
	LocalDBPath  string         `json:"local_db_path"`
	BlobDir      string         `json:"blob_dir"`
	RemoteDSN    string         `json:"remote_dsn"`
	SyncInterval timex.Duration `json:"sync_interval"`
	LogLevel     string         `json:"log_level"`

	S3Endpoint      string `json:"s3_endpoint"`
	S3Region        string `json:"s3_region"`
	S3Bucket        string `json:"s3_bucket"`
	S3AccessKey     string `json:"s3_access_key"`
	S3SecretKey     string `json:"s3_secret_key"`
	S3PublicBaseURL string `json:"s3_public_base_url"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// The file path comes from the -c or -config flags via flagx.JsonConfigFlags;
// when neither flag is given no JSON is loaded. Only fields present in the
// file override the existing values. Intended usage is:
// defaults -> parseJson -> parseFlags, where later stages override earlier ones.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.LocalDBPath != "" {
		cfg.LocalDBPath = jc.LocalDBPath
	}
	if jc.BlobDir != "" {
		cfg.BlobDir = jc.BlobDir
	}
	if jc.RemoteDSN != "" {
		cfg.RemoteDSN = jc.RemoteDSN
	}
	if jc.SyncInterval.Duration != 0 {
		cfg.SyncInterval = time.Duration(jc.SyncInterval.Duration)
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}

	if jc.S3Endpoint != "" {
		cfg.S3.Endpoint = jc.S3Endpoint
	}
	if jc.S3Region != "" {
		cfg.S3.Region = jc.S3Region
	}
	if jc.S3Bucket != "" {
		cfg.S3.Bucket = jc.S3Bucket
	}
	if jc.S3AccessKey != "" {
		cfg.S3.AccessKey = jc.S3AccessKey
	}
	if jc.S3SecretKey != "" {
		cfg.S3.SecretKey = jc.S3SecretKey
	}
	if jc.S3PublicBaseURL != "" {
		cfg.S3.PublicBaseURL = jc.S3PublicBaseURL
	}
}
