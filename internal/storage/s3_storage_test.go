package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	keys    []string
	listErr error
	puts    []*s3.PutObjectInput
	bodies  [][]byte
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	prefix := aws.ToString(in.Prefix)
	for _, k := range f.keys {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
		}
	}
	return out, nil
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, _ := io.ReadAll(in.Body)
	f.puts = append(f.puts, in)
	f.bodies = append(f.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) UploadPart(context.Context, *s3.UploadPartInput, ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	return nil, errors.New("multipart not expected")
}

func (f *fakeS3) CreateMultipartUpload(context.Context, *s3.CreateMultipartUploadInput, ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	return nil, errors.New("multipart not expected")
}

func (f *fakeS3) CompleteMultipartUpload(context.Context, *s3.CompleteMultipartUploadInput, ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	return nil, errors.New("multipart not expected")
}

func (f *fakeS3) AbortMultipartUpload(context.Context, *s3.AbortMultipartUploadInput, ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	return &s3.AbortMultipartUploadOutput{}, nil
}

func newFakeStorage(f *fakeS3, baseURL string) *S3Storage {
	return newS3Storage(f, manager.NewUploader(f), "bucket", baseURL, "ap-south-1")
}

func TestS3Storage_Upload(t *testing.T) {
	f := &fakeS3{}
	s := newFakeStorage(f, "https://cdn.example.com/")

	res, err := s.Upload(context.Background(), UploadInput{
		Body:        bytes.NewReader([]byte("img")),
		Folder:      "profile_pics",
		PublicID:    "user_abc",
		Extension:   ".jpg",
		ContentType: "image/jpeg",
		Transform:   "w_500,h_500,c_fill",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/profile_pics/user_abc.jpg", res.URL)
	assert.Equal(t, "user_abc", res.PublicID)

	require.Len(t, f.puts, 1)
	assert.Equal(t, "profile_pics/user_abc.jpg", aws.ToString(f.puts[0].Key))
	assert.Equal(t, "w_500,h_500,c_fill", f.puts[0].Metadata["transform"])
	assert.Equal(t, []byte("img"), f.bodies[0])
}

func TestS3Storage_ListAndSearch(t *testing.T) {
	f := &fakeS3{keys: []string{
		"services/",
		"services/Home_Cleaning.jpg",
		"services/home_cleaning_deluxe.png",
		"services/ac_repair.jpg",
		"menu_items/pizza.jpg",
	}}
	s := newFakeStorage(f, "")

	all, err := s.ListByFolder(context.Background(), "services")
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "https://bucket.s3.ap-south-1.amazonaws.com/services/ac_repair.jpg", all[2].URL)

	matches, err := s.SearchByNamePrefix(context.Background(), "services", "home cleaning")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "Home_Cleaning", matches[0].PublicID)

	none, err := s.SearchByNamePrefix(context.Background(), "services", "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestS3Storage_ListError(t *testing.T) {
	s := newFakeStorage(&fakeS3{listErr: errors.New("access denied")}, "")
	_, err := s.SearchByNamePrefix(context.Background(), "menu_items", "pizza")
	assert.Error(t, err)
}

func TestFilterByNamePrefix_ExactFirst(t *testing.T) {
	objects := []ImageObject{
		{PublicID: "pizza_margherita"},
		{PublicID: "PIZZA"},
		{PublicID: "pasta"},
	}
	got := FilterByNamePrefix(objects, "Pizza")
	require.Len(t, got, 2)
	assert.Equal(t, "PIZZA", got[0].PublicID)
	assert.Equal(t, "pizza_margherita", got[1].PublicID)
}

func TestValidateImage(t *testing.T) {
	ext, err := ValidateImageType("image/png")
	require.NoError(t, err)
	assert.Equal(t, ".png", ext)

	_, err = ValidateImageType("application/pdf")
	assert.Error(t, err)

	assert.NoError(t, ValidateFileSize(1024, MaxImageSize))
	assert.Error(t, ValidateFileSize(MaxImageSize+1, MaxImageSize))
}
