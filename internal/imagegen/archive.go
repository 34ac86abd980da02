package imagegen

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fpang/tubescript-ai/internal/s3util"
	"github.com/fpang/tubescript-ai/internal/storyboard"
)

// DefaultArchiveExpiry is how long presigned scene links stay valid.
const DefaultArchiveExpiry = 24 * time.Hour

// S3Archive uploads inline images to S3 and replaces them with presigned
// links, keeping session payloads small.
type S3Archive struct {
	Backend
	client    s3util.PutObjectAPI
	presigner s3util.PresignAPI
	bucket    string
	expiry    time.Duration
}

// NewS3Archive wraps backend.
func NewS3Archive(backend Backend, client s3util.PutObjectAPI, presigner s3util.PresignAPI, bucket string) *S3Archive {
	return &S3Archive{
		Backend:   backend,
		client:    client,
		presigner: presigner,
		bucket:    bucket,
		expiry:    DefaultArchiveExpiry,
	}
}

// Generate delegates to the wrapped backend, then archives the bytes. An
// archive failure is logged and the inline image is returned instead.
func (a *S3Archive) Generate(ctx context.Context, apiKey, prompt, model string, ratio storyboard.AspectRatio) (Image, error) {
	img, err := a.Backend.Generate(ctx, apiKey, prompt, model, ratio)
	if err != nil || len(img.Data) == 0 {
		return img, err
	}

	key := archiveKey(ctx, img.MIMEType)
	if err := s3util.UploadBytes(ctx, a.client, a.bucket, key, img.Data, img.MIMEType); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Scene image archive failed, returning inline image")
		return img, nil
	}
	url, err := s3util.GeneratePresignedURL(ctx, a.presigner, a.bucket, key, a.expiry)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Scene image presign failed, returning inline image")
		return img, nil
	}
	log.Debug().Str("key", key).Msg("Scene image archived")
	return Image{URL: url, MIMEType: img.MIMEType}, nil
}

// archiveKey is <session>/storyboard/<batch>/scene-NNN.<ext>. Without a
// scene ref the image lands under unsorted/ with a random name.
func archiveKey(ctx context.Context, mime string) string {
	ext := extension(mime)
	ref, ok := storyboard.RefFrom(ctx)
	if !ok {
		return fmt.Sprintf("unsorted/%s.%s", uuid.NewString(), ext)
	}
	session := ref.Session
	if session == "" {
		session = "local"
	}
	return fmt.Sprintf("%s/storyboard/%d/scene-%03d.%s", session, ref.Batch, ref.Scene, ext)
}

func extension(mime string) string {
	switch strings.ToLower(mime) {
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/webp":
		return "webp"
	default:
		return "png"
	}
}
