// Package s3 implements a bucket-backed remote store. Items live under
// <prefix>/<container>/<class>/<name>; the logical modification time
// travels in object metadata because S3's own timestamp is upload time.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/forkedapp/forked/internal/content"
	"github.com/forkedapp/forked/internal/creds"
	"github.com/forkedapp/forked/internal/provider"
	"github.com/forkedapp/forked/internal/store"
	"github.com/forkedapp/forked/internal/utils"
)

const ProviderName = "s3"

// metaLastModified is the object metadata key holding the logical
// modification time in ms. The SDK prefixes it with x-amz-meta-.
const metaLastModified = "lastmodified-ms"

// Config carries the bucket settings. AccessKey/SecretKey are optional;
// when empty the ambient AWS credential chain (env, shared config,
// instance role) applies.
type Config struct {
	Bucket    string `json:"bucket,omitempty" mapstructure:"bucket"`
	Region    string `json:"region,omitempty" mapstructure:"region"`
	Prefix    string `json:"prefix,omitempty" mapstructure:"prefix"`
	AccessKey string `json:"access_key,omitempty" mapstructure:"access_key"`
	SecretKey string `json:"secret_key,omitempty" mapstructure:"secret_key"`
	Endpoint  string `json:"endpoint,omitempty" mapstructure:"endpoint"`
}

func (c *Config) Validate() error {
	if c.Bucket == "" {
		return fmt.Errorf("bucket required")
	}
	if c.Region == "" {
		return fmt.Errorf("region required")
	}
	return nil
}

// S3 syncs content against one bucket. There is no interactive sign-in:
// authorization comes from the AWS credential chain or static keys.
type S3 struct {
	client *s3.Client
	cfg    Config
	store  *store.Store
}

var _ provider.Provider = (*S3)(nil)

func New(ctx context.Context, cfg Config, st *store.Store) (*S3, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("s3 config: %w", err)
	}

	httpClient := &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			MaxIdleConns:          200,
			MaxIdleConnsPerHost:   100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			ForceAttemptHTTP2:     true,
		},
		Timeout: 30 * time.Second,
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithHTTPClient(httpClient),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewWithClient(client, cfg, st), nil
}

// NewWithClient wires a pre-built client, used by tests against fake
// S3 endpoints.
func NewWithClient(client *s3.Client, cfg Config, st *store.Store) *S3 {
	return &S3{client: client, cfg: cfg, store: st}
}

// Factory adapts a Config into a registry constructor.
func Factory(cfg Config) provider.Factory {
	return func(deps provider.Deps) (provider.Provider, error) {
		return New(context.Background(), cfg, deps.Store)
	}
}

func (s *S3) Name() string {
	return ProviderName
}

func (s *S3) List(ctx context.Context, class content.Class) ([]provider.RemoteItem, error) {
	container, err := s.container()
	if err != nil {
		return nil, err
	}

	prefix := s.classPrefix(container, class)
	var items []provider.RemoteItem

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: &s.cfg.Bucket,
		Prefix: &prefix,
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classify(err, "list objects")
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			name := strings.TrimPrefix(key, prefix)
			if name == "" || strings.Contains(name, "/") {
				continue
			}

			lastModified, err := s.objectLastModified(ctx, key, obj.LastModified)
			if err != nil {
				return nil, err
			}

			items = append(items, provider.RemoteItem{
				RemoteID:     key,
				Name:         name,
				LastModified: lastModified,
				Size:         aws.ToInt64(obj.Size),
			})
		}
	}

	return items, nil
}

func (s *S3) Fetch(ctx context.Context, remoteID string) (*provider.RemoteContent, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.cfg.Bucket,
		Key:    &remoteID,
	})
	if err != nil {
		return nil, classify(err, "get object")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read object body: %w", err)
	}

	return &provider.RemoteContent{
		Name:         path.Base(remoteID),
		Content:      data,
		LastModified: metaTimestamp(resp.Metadata, resp.LastModified),
	}, nil
}

func (s *S3) Put(ctx context.Context, class content.Class, item content.Item) (*provider.PutResult, error) {
	container, err := s.container()
	if err != nil {
		return nil, err
	}

	// The key is derived from the name, so re-putting the same name
	// overwrites in place.
	key := s.classPrefix(container, class) + item.Name
	contentType := utils.ContentType(item.Name)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &s.cfg.Bucket,
		Key:           &key,
		Body:          bytes.NewReader(item.Content),
		ContentLength: aws.Int64(int64(len(item.Content))),
		ContentType:   &contentType,
		Metadata: map[string]string{
			metaLastModified: strconv.FormatInt(item.LastModified, 10),
		},
	})
	if err != nil {
		return nil, classify(err, "put object")
	}

	return &provider.PutResult{RemoteID: key}, nil
}

func (s *S3) Remove(ctx context.Context, remoteID string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.cfg.Bucket,
		Key:    &remoteID,
	})
	if err != nil {
		return classify(err, "delete object")
	}
	return nil
}

// AuthCheck verifies the bucket accepts our credentials.
func (s *S3) AuthCheck(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &s.cfg.Bucket})
	if err != nil {
		return classify(err, "head bucket")
	}
	return nil
}

// SignIn is a no-op: bucket access is granted by the AWS credential
// chain, not an interactive flow.
func (s *S3) SignIn(ctx context.Context, prompt creds.ConsentPrompt) error {
	return s.AuthCheck(ctx)
}

func (s *S3) SignOut(ctx context.Context) error {
	return nil
}

func (s *S3) Status(ctx context.Context) (*provider.Status, error) {
	st := &provider.Status{}
	if err := s.AuthCheck(ctx); err == nil {
		st.Online = true
		st.Authenticated = true
	}
	if s.store != nil {
		if last, ok, err := s.store.LastSyncTime(); err == nil && ok {
			st.LastSync = last
		}
	}
	return st, nil
}

// Containers lists the key segments directly under the configured
// prefix. A container in a bucket is purely a naming convention.
func (s *S3) Containers(ctx context.Context) ([]provider.Container, error) {
	prefix := s.rootPrefix()
	delimiter := "/"

	var containers []provider.Container
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    &s.cfg.Bucket,
		Prefix:    &prefix,
		Delimiter: &delimiter,
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classify(err, "list containers")
		}

		for _, cp := range page.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), prefix), "/")
			if name == "" {
				continue
			}
			containers = append(containers, provider.Container{ID: name, Name: name})
		}
	}

	return containers, nil
}

// EnsureContainer needs no remote call: key prefixes spring into
// existence with their first object.
func (s *S3) EnsureContainer(ctx context.Context, name string) (*provider.Container, error) {
	if name == "" || strings.Contains(name, "/") {
		return nil, fmt.Errorf("invalid container name %q", name)
	}
	if err := s.AuthCheck(ctx); err != nil {
		return nil, err
	}
	return &provider.Container{ID: name, Name: name}, nil
}

// VerifyContainer only checks the bucket itself: an empty prefix is a
// valid, empty container.
func (s *S3) VerifyContainer(ctx context.Context, id string) error {
	if id == "" || strings.Contains(id, "/") {
		return fmt.Errorf("container %q: %w", id, provider.ErrSelectionRequired)
	}

	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &s.cfg.Bucket})
	if err != nil {
		err = classify(err, "head bucket")
		if errors.Is(err, provider.ErrNotFound) {
			return fmt.Errorf("bucket %q: %w", s.cfg.Bucket, provider.ErrSelectionRequired)
		}
		return err
	}
	return nil
}

// objectLastModified reads the logical timestamp of one object,
// falling back to the S3 upload time for objects written without it.
func (s *S3) objectLastModified(ctx context.Context, key string, uploaded *time.Time) (int64, error) {
	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &s.cfg.Bucket,
		Key:    &key,
	})
	if err != nil {
		return 0, classify(err, "head object")
	}
	return metaTimestamp(head.Metadata, uploaded), nil
}

func (s *S3) container() (string, error) {
	id, err := s.store.ContainerID()
	if err != nil {
		return "", fmt.Errorf("read selected container: %w", err)
	}
	if id == "" {
		return "", provider.ErrSelectionRequired
	}
	return id, nil
}

func (s *S3) rootPrefix() string {
	if s.cfg.Prefix == "" {
		return ""
	}
	return strings.TrimSuffix(s.cfg.Prefix, "/") + "/"
}

func (s *S3) classPrefix(container string, class content.Class) string {
	return s.rootPrefix() + container + "/" + class.String() + "/"
}

func metaTimestamp(metadata map[string]string, uploaded *time.Time) int64 {
	if v, ok := metadata[metaLastModified]; ok {
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
			return ms
		}
	}
	if uploaded != nil {
		return uploaded.UnixMilli()
	}
	return 0
}

// classify maps SDK failures onto the provider error taxonomy. Missing
// objects and buckets become ErrNotFound, rejected credentials become
// creds.ErrUnauthorized, anything else stays transient.
func classify(err error, operation string) error {
	var noKey *types.NoSuchKey
	var noBucket *types.NoSuchBucket
	var notFound *types.NotFound
	if errors.As(err, &noKey) || errors.As(err, &noBucket) || errors.As(err, &notFound) {
		return fmt.Errorf("%s: %w", operation, provider.ErrNotFound)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NoSuchBucket", "NotFound":
			return fmt.Errorf("%s: %w", operation, provider.ErrNotFound)
		// HEAD responses carry no error body; the SDK derives the code
		// from the status text, hence Forbidden next to AccessDenied.
		case "AccessDenied", "Forbidden", "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken":
			return fmt.Errorf("%s: %w", operation, creds.ErrUnauthorized)
		}
	}

	return fmt.Errorf("%s: %w", operation, err)
}
