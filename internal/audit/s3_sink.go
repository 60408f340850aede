package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string // S3-compatible stores; empty means AWS
	AccessKey string
	SecretKey string
}

// S3Sink archives each event as one JSON object, keyed by day.
type S3Sink struct {
	client *s3.Client
	bucket string
}

func NewS3Sink(cfg S3Config) *S3Sink {
	awsCfg := aws.Config{
		Region: cfg.Region,
	}
	if cfg.AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Sink{client: client, bucket: cfg.Bucket}
}

type archivedEvent struct {
	UserID   *string `json:"user_id,omitempty"`
	Action   string  `json:"action"`
	Entity   string  `json:"entity"`
	EntityID *string `json:"entity_id,omitempty"`
	Metadata any     `json:"metadata,omitempty"`
	At       string  `json:"at"`
}

func (s *S3Sink) Log(ctx context.Context, ev Event) error {
	body, err := json.Marshal(archivedEvent{
		UserID:   ev.UserID,
		Action:   ev.Action,
		Entity:   ev.Entity,
		EntityID: ev.EntityID,
		Metadata: ev.Metadata,
		At:       ev.At.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}

	key := path.Join("audit", ev.At.UTC().Format("2006/01/02"), ev.Action+"-"+uuid.NewString()+".json")

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put audit object: %w", err)
	}
	return nil
}
