package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Debug            bool   `envconfig:"debug"`
	Env              string `envconfig:"env"`
	Port             int    `envconfig:"port" default:"8080"`
	BaseUrl          string `envconfig:"base_url"`
	PostgresHost     string `envconfig:"postgres_host"`
	PostgresUser     string `envconfig:"postgres_user"`
	PostgresPassword string `envconfig:"postgres_password"`
	PostgresDB       string `envconfig:"postgres_db"`
	PostgresPort     int    `envconfig:"postgres_port"`
	JWTSecret        string `envconfig:"jwt_secret"`

	// Profile picture storage. When AWSBucket is set uploads go to S3,
	// otherwise to UploadsDir on local disk.
	MaxUploadSize      int64  `envconfig:"max_upload_size" default:"2097152"`
	UploadsDir         string `envconfig:"uploads_dir" default:"uploads"`
	AWSRegion          string `envconfig:"aws_region"`
	AWSBucket          string `envconfig:"aws_bucket"`
	AWSAccessKeyID     string `envconfig:"aws_access_key_id"`
	AWSSecretAccessKey string `envconfig:"aws_secret_access_key"`

	GoogleClientID     string `envconfig:"google_client_id"`
	GoogleClientSecret string `envconfig:"google_client_secret"`
	GoogleRedirectURL  string `envconfig:"google_redirect_url"`
}

func Load() (*Config, error) {
	env := os.Getenv("GIN_MODE")
	if env != "release" {
		if err := godotenv.Load("./.env"); err != nil {
			log.Printf("couldn't load env vars: %v", err)
		}
	}

	c := &Config{}
	err := envconfig.Process("converse", c)
	if err != nil {
		return nil, err
	}
	return c, nil
}
