package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/gophgroups/internal/common"
	sc "github.com/dmitrijs2005/gophgroups/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubS3(t *testing.T) {
	t.Helper()
	origLoad, origNewS3, origNewPre, origPut := loadDefaultAWSConfig, newS3ClientFromConfig, newS3PresignClient, presignPutObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
		presignPutObject = origPut
	})
}

func TestS3Presigner_PresignPut(t *testing.T) {
	stubS3(t)
	cfg := &sc.Config{
		S3Region:          "eu-north-1",
		S3RootUser:        "minioadmin",
		S3RootPassword:    "minioadmin",
		S3BaseEndpoint:    "http://127.0.0.1:9000",
		S3Bucket:          "avatars",
		AvatarURLValidity: 5 * time.Minute,
	}

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "eu-north-1", lo.Region)
		return aws.Config{}, nil
	}
	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &s3.Client{}
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return &s3.PresignClient{}
	}
	var gotBucket, gotKey string
	var gotExpires time.Duration
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		gotBucket, gotKey = *in.Bucket, *in.Key
		var po s3.PresignOptions
		for _, fn := range optFns {
			fn(&po)
		}
		gotExpires = po.Expires
		return &v4.PresignedHTTPRequest{URL: "http://127.0.0.1:9000/avatars/" + *in.Key + "?sig"}, nil
	}

	u, err := NewS3Presigner(cfg).PresignPut(context.Background(), "groups/g/1")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9000/avatars/groups/g/1?sig", u)
	assert.Equal(t, "avatars", gotBucket)
	assert.Equal(t, "groups/g/1", gotKey)
	assert.Equal(t, 5*time.Minute, gotExpires)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)
}

func TestS3Presigner_Errors(t *testing.T) {
	stubS3(t)
	p := NewS3Presigner(&sc.Config{S3Bucket: "avatars"})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}
	_, err := p.PresignPut(context.Background(), "k")
	require.ErrorContains(t, err, "load-fail")

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client { return &s3.Client{} }
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient { return &s3.PresignClient{} }
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("presign-fail")
	}
	_, err = p.PresignPut(context.Background(), "k")
	require.ErrorContains(t, err, "presign-fail")
}

func TestLocalAvatarStore(t *testing.T) {
	now := testNow
	store := NewLocalAvatarStore("http://localhost:8080", time.Minute, func() time.Time { return now })
	ctx := context.Background()

	u, err := store.PresignPut(ctx, "groups/a/1")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/v1/avatars/groups/a/1", u)

	require.ErrorIs(t, store.Put("groups/a/unknown", []byte("x")), ErrForbidden)
	require.NoError(t, store.Put("groups/a/1", []byte("blob")))
	got, err := store.Get("groups/a/1")
	require.NoError(t, err)
	assert.Equal(t, []byte("blob"), got)

	_, err = store.PresignPut(ctx, "groups/a/2")
	require.NoError(t, err)
	now = now.Add(2 * time.Minute)
	require.ErrorIs(t, store.Put("groups/a/2", []byte("late")), ErrForbidden)
	_, err = store.Get("groups/a/2")
	require.ErrorIs(t, err, common.ErrorNotFound)
}
