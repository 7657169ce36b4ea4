package services

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go/logging"
	"github.com/gruhabuddy/backend/internal/config"
)

// S3Service mirrors uploaded media to an S3-compatible bucket. Local disk
// stays the serving copy; the bucket is durable backup for room photos and
// generated designs.
type S3Service struct {
	mediaClient *s3.Client
	cfg         *config.Config
}

func NewS3Service(cfg *config.Config) (*S3Service, error) {
	client, err := buildClient(cfg.MediaS3Endpoint, cfg.MediaS3Region, cfg.MediaS3AccessKeyID, cfg.MediaS3SecretAccessKey, cfg.MediaS3UsePathStyle)
	if err != nil {
		return nil, err
	}
	return &S3Service{mediaClient: client, cfg: cfg}, nil
}

func buildClient(endpoint, region, key, secret string, pathStyle bool) (*s3.Client, error) {
	resolver := awsconfig.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(
		func(service, rgn string, options ...interface{}) (aws.Endpoint, error) {
			if endpoint != "" {
				return aws.Endpoint{URL: endpoint, SigningRegion: region}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		}))
	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(key, secret, "")),
		resolver,
		awsconfig.WithLogger(logging.NewStandardLogger(nil)),
	)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = pathStyle
		if endpoint != "" {
			o.BaseEndpoint = &endpoint
		}
	})
	return client, nil
}

// UploadMedia uploads an object to the media bucket
func (s *S3Service) UploadMedia(ctx context.Context, key string, body io.Reader, ctype string) error {
	uploader := manager.NewUploader(s.mediaClient)
	in := &s3.PutObjectInput{
		Bucket:      &s.cfg.MediaBucket,
		Key:         &key,
		Body:        body,
		ContentType: &ctype,
		ACL:         s3types.ObjectCannedACLPrivate,
	}
	_, err := uploader.Upload(ctx, in, func(u *manager.Uploader) { u.PartSize = 10 * 1024 * 1024 })
	return err
}
