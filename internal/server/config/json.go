package config

import (
	"encoding/json"
	"os"

	"filerelay/internal/flagx"
	"filerelay/internal/timex"
)

// JsonConfig is the intermediate DTO used only for reading JSON
// configuration files. Interval fields use timex.Duration, which parses
// both string values such as "30s" and integer nanoseconds. After
// unmarshalling, set fields are copied into the runtime Config.
type JsonConfig struct {
	EndpointAddrHTTP            string          `json:"endpoint_addr_http"`
	DatabaseDSN                 string          `json:"database_dsn"`
	SecretKey                   string          `json:"secret_key"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	Workers                     []string        `json:"workers"`
	WorkerPort                  *int            `json:"worker_port"`
	WorkerTimeout               *timex.Duration `json:"worker_timeout"`
	MaxDownloadSize             *int64          `json:"max_download_size"`
	UploadDir                   string          `json:"upload_dir"`
	PublicKeyPath               string          `json:"public_key_path"`
	S3RootUser                  string          `json:"s3_root_user"`
	S3RootPassword              string          `json:"s3_root_password"`
	S3Bucket                    string          `json:"s3_bucket"`
	S3Region                    string          `json:"s3_region"`
	S3BaseEndpoint              string          `json:"s3_base_endpoint"`
	AdminUser                   string          `json:"admin_user"`
	AdminPassword               string          `json:"admin_password"`
}

// parseJson loads configuration values from the JSON file named by the
// -c / -config flag into the provided Config. Without the flag no file is
// loaded. Only fields present in the file override the current values.
// An unreadable or invalid file panics; startup must not continue with a
// half-applied config.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFileFlag()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddrHTTP != "" {
		config.EndpointAddrHTTP = c.EndpointAddrHTTP
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if len(c.Workers) > 0 {
		config.Workers = c.Workers
	}
	if c.WorkerPort != nil {
		config.WorkerPort = *c.WorkerPort
	}
	if c.WorkerTimeout != nil {
		config.WorkerTimeout = c.WorkerTimeout.Duration
	}
	if c.MaxDownloadSize != nil {
		config.MaxDownloadSize = *c.MaxDownloadSize
	}
	if c.UploadDir != "" {
		config.UploadDir = c.UploadDir
	}
	if c.PublicKeyPath != "" {
		config.PublicKeyPath = c.PublicKeyPath
	}
	if c.S3RootUser != "" {
		config.S3RootUser = c.S3RootUser
	}
	if c.S3RootPassword != "" {
		config.S3RootPassword = c.S3RootPassword
	}
	if c.S3Bucket != "" {
		config.S3Bucket = c.S3Bucket
	}
	if c.S3Region != "" {
		config.S3Region = c.S3Region
	}
	if c.S3BaseEndpoint != "" {
		config.S3BaseEndpoint = c.S3BaseEndpoint
	}
	if c.AdminUser != "" {
		config.AdminUser = c.AdminUser
	}
	if c.AdminPassword != "" {
		config.AdminPassword = c.AdminPassword
	}
}
