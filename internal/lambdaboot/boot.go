// Package lambdaboot provides shared AWS cold-start bootstrap logic.
//
// The Lambda entry point, and the local server when AWS resources are
// configured, need some subset of: AWS config, SSM-backed credentials,
// DynamoDB session snapshots, S3 storyboard archiving, and startup
// logging. Each helper is a short, fatal-on-misconfiguration step so main
// stays a flat composition.
package lambdaboot

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"

	"github.com/fpang/tubescript-ai/internal/credential"
	"github.com/fpang/tubescript-ai/internal/imagegen"
	"github.com/fpang/tubescript-ai/internal/logging"
	"github.com/fpang/tubescript-ai/internal/store"
)

// AWSClients holds the core AWS SDK config and clients.
type AWSClients struct {
	Config aws.Config
	SSM    *ssm.Client
}

// S3Clients holds S3 client, presigner, and bucket name.
type S3Clients struct {
	Client    *s3.Client
	Presigner *s3.PresignClient
	Bucket    string
}

// InitAWS loads the default AWS config and returns it along with common clients.
func InitAWS() AWSClients {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load AWS config")
	}
	log.Debug().Str("region", cfg.Region).Msg("AWS config loaded")
	return AWSClients{
		Config: cfg,
		SSM:    ssm.NewFromConfig(cfg),
	}
}

// InitS3 creates an S3 client and presigner for bucket. Returns nil when
// bucket is empty.
func InitS3(cfg aws.Config, bucket string) *S3Clients {
	if bucket == "" {
		log.Warn().Msg("STORYBOARD_BUCKET not set, scene images stay inline")
		return nil
	}
	client := s3.NewFromConfig(cfg)
	return &S3Clients{
		Client:    client,
		Presigner: s3.NewPresignClient(client),
		Bucket:    bucket,
	}
}

// ArchiveWrapper returns a backend wrapper that uploads scene images to
// the bucket, or nil when s3c is nil.
func ArchiveWrapper(s3c *S3Clients) func(imagegen.Backend) imagegen.Backend {
	if s3c == nil {
		return nil
	}
	return func(b imagegen.Backend) imagegen.Backend {
		return imagegen.NewS3Archive(b, s3c.Client, s3c.Presigner, s3c.Bucket)
	}
}

// InitDynamo creates a DynamoDB snapshot store for tableName. Fatals if
// the table name is empty.
func InitDynamo(cfg aws.Config, tableName string) *store.DynamoStore {
	if tableName == "" {
		log.Fatal().Str("envVar", "SESSION_TABLE_NAME").Msg("DynamoDB table environment variable is required")
	}
	return store.NewDynamoStore(dynamodb.NewFromConfig(cfg), tableName)
}

// InitCredentials returns an SSM-backed credential store under prefix.
func InitCredentials(ssmClient *ssm.Client, prefix string) *credential.SSMStore {
	log.Debug().Str("prefix", prefix).Msg("Credentials stored in SSM Parameter Store")
	return credential.NewSSMStore(ssmClient, prefix)
}

// StartupLog is a convenience wrapper for the startup logger.
func StartupLog(name string, initStart time.Time) *logging.StartupLogger {
	return logging.NewStartupLogger(name).InitDuration(time.Since(initStart))
}
