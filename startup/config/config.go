package config

import "os"

type Config struct {
	Port             string
	ListingDBHost    string
	ListingDBPort    string
	SessionCacheHost string
	SessionCachePort string
	ImageCacheHost   string
	ImageCachePort   string
	HDFSUri          string
	ImageBaseURL     string
	JaegerAddress    string
}

func NewConfig() *Config {
	return &Config{
		Port:             os.Getenv("NIVAAS_SERVICE_PORT"),
		ListingDBHost:    os.Getenv("LISTING_DB_HOST"),
		ListingDBPort:    os.Getenv("LISTING_DB_PORT"),
		SessionCacheHost: os.Getenv("SESSION_CACHE_HOST"),
		SessionCachePort: os.Getenv("SESSION_CACHE_PORT"),
		ImageCacheHost:   os.Getenv("IMAGE_CACHE_HOST"),
		ImageCachePort:   os.Getenv("IMAGE_CACHE_PORT"),
		HDFSUri:          os.Getenv("HDFS_URI"),
		ImageBaseURL:     os.Getenv("IMAGE_BASE_URL"),
		JaegerAddress:    os.Getenv("JAEGER_ADDRESS"),
	}
}
