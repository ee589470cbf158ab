package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/target/review-ingest/config"
)

// ConnectS3 builds an S3 client from the default AWS credential chain. Endpoint and
// ForcePathStyle let the client talk to MinIO or LocalStack.
func ConnectS3(ctx context.Context, cfg config.S3Config, logger *slog.Logger) (*s3.Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})

	if logger != nil {
		logger.Info("s3 client configured",
			"region", awsCfg.Region,
			"endpoint", cfg.Endpoint,
			"path_style", cfg.ForcePathStyle,
		)
	}
	return client, nil
}
