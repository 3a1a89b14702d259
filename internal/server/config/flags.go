package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"filerelay/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8102")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-w string   comma-separated worker hosts
//	-wp int     worker API port
//	-wt int     worker call timeout, seconds
//	-m int      max downloadable file size, bytes
//	-u string   upload staging directory
//	-k string   SSH public key path
//	-su/-sp/-sb/-sg/-se  S3 user/password/bucket/region/endpoint
//	-au/-ap     bootstrap admin user/password
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components. Duration
// flags are accepted as integers and converted to time.Duration values.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-d", "-s", "-t", "-w", "-wp", "-wt", "-m", "-u", "-k",
		"-su", "-sp", "-sb", "-sg", "-se", "-au", "-ap",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidityMinutes := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	workers := fs.String("w", strings.Join(config.Workers, ","), "comma-separated worker hosts")
	fs.IntVar(&config.WorkerPort, "wp", config.WorkerPort, "worker API port")
	workerTimeoutSeconds := fs.Int("wt", int(config.WorkerTimeout.Seconds()), "worker call timeout (in seconds)")
	fs.Int64Var(&config.MaxDownloadSize, "m", config.MaxDownloadSize, "max downloadable file size (in bytes)")
	fs.StringVar(&config.UploadDir, "u", config.UploadDir, "upload staging directory")
	fs.StringVar(&config.PublicKeyPath, "k", config.PublicKeyPath, "SSH public key path")

	fs.StringVar(&config.S3RootUser, "su", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "sp", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "sb", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "sg", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "se", config.S3BaseEndpoint, "S3 base endpoint")

	fs.StringVar(&config.AdminUser, "au", config.AdminUser, "bootstrap admin user")
	fs.StringVar(&config.AdminPassword, "ap", config.AdminPassword, "bootstrap admin password")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityMinutes) * time.Minute
	config.WorkerTimeout = time.Duration(*workerTimeoutSeconds) * time.Second
	if *workers != "" {
		config.Workers = strings.Split(*workers, ",")
	}
}
