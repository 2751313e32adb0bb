package services

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/gophgroups/internal/common"
	sc "github.com/dmitrijs2005/gophgroups/internal/server/config"
)

// Presigner hands out URLs that accept a single PUT of an avatar object.
type Presigner interface {
	PresignPut(ctx context.Context, key string) (string, error)
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

// S3Presigner presigns avatar uploads against an S3 compatible store.
type S3Presigner struct {
	config *sc.Config
}

func NewS3Presigner(cfg *sc.Config) *S3Presigner {
	return &S3Presigner{config: cfg}
}

func (p *S3Presigner) presignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(p.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			p.config.S3RootUser,
			p.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(p.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})
	return newS3PresignClient(client), nil
}

func (p *S3Presigner) PresignPut(ctx context.Context, key string) (string, error) {
	pc, err := p.presignClient(ctx)
	if err != nil {
		return "", fmt.Errorf("s3 config: %w", err)
	}

	bucket := p.config.S3Bucket
	req, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(p.config.AvatarURLValidity))
	if err != nil {
		return "", fmt.Errorf("presign avatar upload: %w", err)
	}
	return req.URL, nil
}

// LocalAvatarStore keeps avatars in memory and serves uploads itself. It
// backs the server when no bucket is configured.
type LocalAvatarStore struct {
	baseURL  string
	validity time.Duration
	now      func() time.Time

	mu      sync.RWMutex
	pending map[string]time.Time
	objects map[string][]byte
}

// AvatarUploadPath is where LocalAvatarStore expects uploads, relative to
// the public base URL.
const AvatarUploadPath = "/v1/avatars/"

func NewLocalAvatarStore(baseURL string, validity time.Duration, now func() time.Time) *LocalAvatarStore {
	if now == nil {
		now = time.Now
	}
	return &LocalAvatarStore{
		baseURL:  baseURL,
		validity: validity,
		now:      now,
		pending:  map[string]time.Time{},
		objects:  map[string][]byte{},
	}
}

func (l *LocalAvatarStore) PresignPut(ctx context.Context, key string) (string, error) {
	u, err := url.JoinPath(l.baseURL, AvatarUploadPath, key)
	if err != nil {
		return "", err
	}
	l.mu.Lock()
	l.pending[key] = l.now().Add(l.validity)
	l.mu.Unlock()
	return u, nil
}

// Put stores an upload for a key handed out by PresignPut. Each key accepts
// one upload before it expires.
func (l *LocalAvatarStore) Put(key string, data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	expires, ok := l.pending[key]
	if !ok || !l.now().Before(expires) {
		return fmt.Errorf("%w: no pending upload for %s", ErrForbidden, key)
	}
	delete(l.pending, key)
	l.objects[key] = append([]byte(nil), data...)
	return nil
}

func (l *LocalAvatarStore) Get(key string) ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	data, ok := l.objects[key]
	if !ok {
		return nil, fmt.Errorf("avatar %s: %w", key, common.ErrorNotFound)
	}
	return data, nil
}
