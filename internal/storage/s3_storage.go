package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ImageHost is the blob store holding catalog photos and avatars.
type ImageHost interface {
	Upload(ctx context.Context, in UploadInput) (*UploadResult, error)
	ListByFolder(ctx context.Context, folder string) ([]ImageObject, error)
	SearchByNamePrefix(ctx context.Context, folder, query string) ([]ImageObject, error)
}

type UploadInput struct {
	Body        io.Reader
	Folder      string
	PublicID    string // object name without extension
	Extension   string // e.g. ".jpg"
	ContentType string
	Transform   string // e.g. "w_500,h_500,c_fill", recorded as metadata
}

type UploadResult struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
	Key      string `json:"key"`
}

type ImageObject struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
}

type PresignedURLResponse struct {
	UploadURL string `json:"upload_url"`
	FileURL   string `json:"file_url"`
	Key       string `json:"key"`
}

type S3Storage struct {
	client   *s3.Client
	lister   s3.ListObjectsV2APIClient
	uploader *manager.Uploader
	bucket   string
	baseURL  string
	region   string
}

func NewS3Storage(region, bucket, accessKeyID, secretAccessKey, baseURL string) *S3Storage {
	var cfg aws.Config
	var err error

	if accessKeyID != "" && secretAccessKey != "" {
		cfg = aws.Config{
			Region:      region,
			Credentials: credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		}
	} else {
		// Environment, shared config or instance role.
		cfg, err = config.LoadDefaultConfig(context.TODO(), config.WithRegion(region))
		if err != nil {
			cfg = aws.Config{Region: region}
		}
	}

	client := s3.NewFromConfig(cfg)
	s := newS3Storage(client, manager.NewUploader(client), bucket, baseURL, region)
	s.client = client
	return s
}

func newS3Storage(lister s3.ListObjectsV2APIClient, uploader *manager.Uploader, bucket, baseURL, region string) *S3Storage {
	return &S3Storage{
		lister:   lister,
		uploader: uploader,
		bucket:   bucket,
		baseURL:  strings.TrimRight(baseURL, "/"),
		region:   region,
	}
}

func (s *S3Storage) objectURL(key string) string {
	if s.baseURL != "" {
		return fmt.Sprintf("%s/%s", s.baseURL, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

// Upload stores the object at folder/publicID+ext and returns its public URL.
func (s *S3Storage) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	publicID := in.PublicID
	if publicID == "" {
		publicID = uuid.NewString()
	}
	key := publicID + in.Extension
	if in.Folder != "" {
		key = in.Folder + "/" + key
	}

	metadata := map[string]string{"public-id": publicID}
	if in.Transform != "" {
		metadata["transform"] = in.Transform
	}

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        in.Body,
		ContentType: aws.String(in.ContentType),
		Metadata:    metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", key, err)
	}

	return &UploadResult{URL: s.objectURL(key), PublicID: publicID, Key: key}, nil
}

// ListByFolder returns every object under folder/.
func (s *S3Storage) ListByFolder(ctx context.Context, folder string) ([]ImageObject, error) {
	prefix := strings.TrimSuffix(folder, "/") + "/"
	paginator := s3.NewListObjectsV2Paginator(s.lister, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	var objects []ImageObject
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, "/") {
				continue
			}
			objects = append(objects, ImageObject{PublicID: PublicIDFromKey(key), URL: s.objectURL(key)})
		}
	}
	return objects, nil
}

// SearchByNamePrefix lists folder and keeps objects whose display name
// starts with query, ignoring case. Exact matches sort first.
func (s *S3Storage) SearchByNamePrefix(ctx context.Context, folder, query string) ([]ImageObject, error) {
	objects, err := s.ListByFolder(ctx, folder)
	if err != nil {
		return nil, err
	}
	return FilterByNamePrefix(objects, query), nil
}

// GeneratePresignedURLWithFolder generates a pre-signed PUT URL for a
// direct browser upload into folder.
func (s *S3Storage) GeneratePresignedURLWithFolder(ctx context.Context, filename, contentType, folder string) (*PresignedURLResponse, error) {
	if s.client == nil {
		return nil, fmt.Errorf("presigning requires an S3 client")
	}
	key := fmt.Sprintf("%s/%s%s", folder, uuid.NewString(), strings.ToLower(filepath.Ext(filename)))

	presignClient := s3.NewPresignClient(s.client)
	presignedReq, err := presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return &PresignedURLResponse{
		UploadURL: presignedReq.URL,
		FileURL:   s.objectURL(key),
		Key:       key,
	}, nil
}

// PublicIDFromKey strips the folder and extension from an object key.
func PublicIDFromKey(key string) string {
	base := filepath.Base(key)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DisplayName turns a public ID such as "home_cleaning" into the lower-case
// name "home cleaning" used for catalog matching.
func DisplayName(publicID string) string {
	return strings.ToLower(strings.TrimSpace(strings.ReplaceAll(publicID, "_", " ")))
}

// FilterByNamePrefix keeps objects whose display name starts with query.
func FilterByNamePrefix(objects []ImageObject, query string) []ImageObject {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var matches []ImageObject
	for _, obj := range objects {
		if strings.HasPrefix(DisplayName(obj.PublicID), q) {
			matches = append(matches, obj)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return DisplayName(matches[i].PublicID) == q && DisplayName(matches[j].PublicID) != q
	})
	return matches
}
