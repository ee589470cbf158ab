package config

import "strings"

// S3Config describes the source bucket and how to reach it.
type S3Config struct {
	// SourceURI is the s3://bucket/prefix scanned by the ingest loop.
	SourceURI string `env:"SOURCE_URI"`
	Region    string `env:"REGION"           envDefault:"us-east-1"`
	// Endpoint overrides the S3 endpoint, for MinIO or LocalStack.
	Endpoint       string `env:"ENDPOINT"`
	ForcePathStyle bool   `env:"FORCE_PATH_STYLE" envDefault:"false"`
	ListPageSize   int32  `env:"LIST_PAGE_SIZE"   envDefault:"1000"`
	MaxLineBytes   int    `env:"MAX_LINE_BYTES"   envDefault:"8388608"`
}

// Sanitize trims values and clamps the page sizes to what S3 accepts.
func (c *S3Config) Sanitize() {
	c.SourceURI = strings.TrimSpace(c.SourceURI)
	c.Region = strings.TrimSpace(c.Region)
	c.Endpoint = strings.TrimSpace(c.Endpoint)
	if c.ListPageSize < 1 || c.ListPageSize > 1000 {
		c.ListPageSize = 1000
	}
	if c.MaxLineBytes < 1024 {
		c.MaxLineBytes = 1024
	}
}
