// Package main provides the Lambda entry point for the TubeScript API.
//
// It serves the same gin routes as `tubescript serve` behind API Gateway
// (HTTP API, payload v2). State lives outside the container:
//   - Saved API keys in SSM Parameter Store (SSM_CREDENTIAL_PREFIX)
//   - Session snapshots in DynamoDB (SESSION_TABLE_NAME), 24h TTL
//   - Scene images in S3 (STORYBOARD_BUCKET), returned as presigned URLs
//
// Storyboard generation responds only after every scene image is resolved,
// because a frozen container cannot keep filling in the background.
package main

import (
	"context"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/rs/zerolog/log"

	"github.com/fpang/tubescript-ai/internal/app"
	"github.com/fpang/tubescript-ai/internal/config"
	"github.com/fpang/tubescript-ai/internal/lambdaboot"
	"github.com/fpang/tubescript-ai/internal/logging"
	"github.com/fpang/tubescript-ai/internal/server"
)

// commitHash is injected at build time via -ldflags.
var commitHash = "dev"

var adapter *httpadapter.HandlerAdapterV2

func init() {
	initStart := time.Now()
	logging.Init()
	cfg := config.Load()

	awsClients := lambdaboot.InitAWS()
	creds := lambdaboot.InitCredentials(awsClients.SSM, cfg.SSMCredentialPrefix)
	snapshots := lambdaboot.InitDynamo(awsClients.Config, cfg.SessionTableName)
	s3c := lambdaboot.InitS3(awsClients.Config, cfg.StoryboardBucket)

	services := app.New(cfg, app.Options{
		CredentialStore: creds,
		WrapBackend:     lambdaboot.ArchiveWrapper(s3c),
	})
	reg := server.NewRegistry(snapshots, services.NewMachine)
	// Warm containers keep sessions in memory; DynamoDB holds the truth.
	go reg.Sweep(context.Background(), time.Minute, server.DefaultIdleTimeout)
	srv := server.New(server.Options{
		Registry:      reg,
		Credentials:   services.Credentials,
		KeyChecker:    services.Client,
		WaitForImages: true,
	})
	adapter = httpadapter.NewV2(srv.Router())

	lambdaboot.StartupLog("tubescript-lambda", initStart).
		CommitHash(commitHash).
		Config("model", services.Client.Model()).
		Config("imageBackend", services.Images.Backend().Name()).
		Config("sceneDelay", cfg.SceneImageDelay.String()).
		Resource("dynamoTables", "sessions", cfg.SessionTableName).
		Resource("s3Buckets", "storyboards", cfg.StoryboardBucket).
		Resource("ssmParams", "credentialPrefix", cfg.SSMCredentialPrefix).
		Feature("s3Archive", s3c != nil).
		Feature("metrics", cfg.MetricsEnabled).
		Log()
	log.Debug().Msg("Lambda handler initialized")
}

func main() {
	lambda.Start(adapter.ProxyWithContext)
}
