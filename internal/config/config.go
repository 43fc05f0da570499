// Package config reads server settings from flags, the environment and an
// optional .env file, in increasing order of precedence: .env, environment,
// flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/erazemk/orodjarna/internal/pictures"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "ORODJARNA_"

// Config holds the server settings.
type Config struct {
	DBPath     string
	Addr       string
	LogPath    string
	SecretFile string
	PictureDir string
	Minio      pictures.MinioConfig
	TLSCert    string
	TLSKey     string
}

const usage = `Usage: orodjarna [serve|init|hash-secret] [flags]

Commands:
  serve         run the API server (default)
  init          create the database and a shared secret file
  hash-secret   read a secret on stdin and print its bcrypt hash

Flags (each also read from ORODJARNA_<NAME>, e.g. ORODJARNA_DB):
  -db <path>                SQLite database path (default: orodjarna.sqlite3)
  -addr <host:port>         listen address (default: :8080)
  -log <path>               log file path (default: stdout/stderr only)
  -secret-file <path>       shared secret file, plain or bcrypt (default: secret.txt)
  -pictures <dir>           picture directory (default: pictures)
  -minio-endpoint <host>    store pictures in MinIO instead of -pictures
  -minio-access-key <key>
  -minio-secret-key <key>
  -minio-bucket <name>      (default: orodjarna-pictures)
  -minio-ssl                use TLS for MinIO
  -tls-cert <path>          serve HTTPS with this certificate
  -tls-key <path>           and this key
  -h, -help                 show this help and exit
`

// Load parses args, falling back to the environment for anything not given
// on the command line. A missing .env file is not an error.
func Load(args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := &Config{}
	f := flag.NewFlagSet("orodjarna", flag.ContinueOnError)
	f.Usage = func() { fmt.Fprint(f.Output(), usage) }

	f.StringVar(&cfg.DBPath, "db", env("DB", "orodjarna.sqlite3"), "")
	f.StringVar(&cfg.Addr, "addr", env("ADDR", ":8080"), "")
	f.StringVar(&cfg.LogPath, "log", env("LOG", ""), "")
	f.StringVar(&cfg.SecretFile, "secret-file", env("SECRET_FILE", "secret.txt"), "")
	f.StringVar(&cfg.PictureDir, "pictures", env("PICTURES", "pictures"), "")
	f.StringVar(&cfg.Minio.Endpoint, "minio-endpoint", env("MINIO_ENDPOINT", ""), "")
	f.StringVar(&cfg.Minio.AccessKey, "minio-access-key", env("MINIO_ACCESS_KEY", ""), "")
	f.StringVar(&cfg.Minio.SecretKey, "minio-secret-key", env("MINIO_SECRET_KEY", ""), "")
	f.StringVar(&cfg.Minio.Bucket, "minio-bucket", env("MINIO_BUCKET", "orodjarna-pictures"), "")
	f.BoolVar(&cfg.Minio.UseSSL, "minio-ssl", envBool("MINIO_SSL"), "")
	f.StringVar(&cfg.TLSCert, "tls-cert", env("TLS_CERT", ""), "")
	f.StringVar(&cfg.TLSKey, "tls-key", env("TLS_KEY", ""), "")

	if err := f.Parse(args); err != nil {
		return nil, err
	}
	if f.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument: %s", f.Arg(0))
	}
	return cfg, nil
}

// Validate checks settings that only matter when serving.
func (c *Config) Validate() error {
	if c.SecretFile == "" {
		return errors.New("a shared secret file is required")
	}
	if (c.TLSCert == "") != (c.TLSKey == "") {
		return errors.New("-tls-cert and -tls-key must be given together")
	}
	if c.UseMinio() && c.Minio.Bucket == "" {
		return errors.New("-minio-bucket is required with -minio-endpoint")
	}
	return nil
}

// UseMinio reports whether pictures go to MinIO rather than the local directory.
func (c *Config) UseMinio() bool {
	return c.Minio.Endpoint != ""
}

// UseTLS reports whether the server should serve HTTPS.
func (c *Config) UseTLS() bool {
	return c.TLSCert != "" && c.TLSKey != ""
}

func env(name, fallback string) string {
	if v, ok := os.LookupEnv(EnvPrefix + name); ok {
		return v
	}
	return fallback
}

func envBool(name string) bool {
	v, _ := strconv.ParseBool(os.Getenv(EnvPrefix + name))
	return v
}
