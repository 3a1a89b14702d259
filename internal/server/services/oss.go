package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"filerelay/internal/common"
	"filerelay/internal/server/models"
)

// Seams for the AWS SDK so error paths can be exercised in tests.
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

const presignValidity = 15 * time.Minute

func (s *FileService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(s.cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.cfg.S3RootUser,
			s.cfg.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.cfg.S3BaseEndpoint)
		}
	})
	return newS3PresignClient(client), nil
}

// PresignedPutURL signs a PUT for the object key of a transferred file.
func (s *FileService) PresignedPutURL(ctx context.Context, key string) (string, error) {
	pc, err := s.getPresignClient(ctx)
	if err != nil {
		return "", err
	}
	req, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
		Bucket: &s.cfg.S3Bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignValidity))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

// PresignedGetURL signs a GET for the object key of a replicated file.
func (s *FileService) PresignedGetURL(ctx context.Context, key string) (string, error) {
	pc, err := s.getPresignClient(ctx)
	if err != nil {
		return "", err
	}
	req, err := presignGetObject(pc, ctx, &s3.GetObjectInput{
		Bucket: &s.cfg.S3Bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignValidity))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

// OSSUpload asks the worker holding a transferred file to replicate it into
// object storage through a presigned PUT. The internal name doubles as the
// object key.
func (s *FileService) OSSUpload(ctx context.Context, user *models.User, name string) error {
	file, err := s.repos.Files(s.db).Get(ctx, name)
	if err != nil {
		return err
	}
	if err := assertFileAvailable(file); err != nil {
		return err
	}
	if err := checkReadPermission(user, file); err != nil {
		return err
	}
	if !file.TransferState.Transferred() {
		return fmt.Errorf("%w: %s", common.ErrNotTransferred, name)
	}

	putURL, err := s.PresignedPutURL(ctx, name)
	if err != nil {
		return fmt.Errorf("presigning put for %s: %w", name, err)
	}

	query := url.Values{}
	query.Set(common.FileNameParam, name)
	query.Set("url", putURL)
	status, body, err := s.worker.Forward(ctx, file.HostIP, http.MethodPost, "/ossUpload", query)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return fmt.Errorf("%w: status %d: %s", common.ErrUpstreamFailure, status, body)
	}
	return nil
}

// OSSUploadProgress relays the worker's report on a running replication.
func (s *FileService) OSSUploadProgress(ctx context.Context, user *models.User, name string) ([]byte, error) {
	file, err := s.repos.Files(s.db).Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := assertFileAvailable(file); err != nil {
		return nil, err
	}
	if err := checkReadPermission(user, file); err != nil {
		return nil, err
	}
	if !file.TransferState.Transferred() {
		return nil, fmt.Errorf("%w: %s", common.ErrNotTransferred, name)
	}

	query := url.Values{}
	query.Set(common.FileNameParam, name)
	status, body, err := s.worker.Forward(ctx, file.HostIP, http.MethodGet, "/ossUploadProgress", query)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", common.ErrUpstreamFailure, status, body)
	}
	return body, nil
}
