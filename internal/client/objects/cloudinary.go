package objects

import (
	"bytes"
	"context"
	"fmt"
	pathpkg "path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/dmitrijs2005/wellbeing/internal/common"
)

type uploadAPI interface {
	Upload(ctx context.Context, file interface{}, uploadParams uploader.UploadParams) (*uploader.UploadResult, error)
}

// CloudinaryStore keeps images in Cloudinary. The bucket and path become
// the asset's public id, which makes overwrite-in-place possible.
type CloudinaryStore struct {
	cld      *cloudinary.Cloudinary
	uploader uploadAPI
}

func NewCloudinaryStore(cloudName, apiKey, apiSecret string) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true

	return &CloudinaryStore{cld: cld, uploader: &cld.Upload}, nil
}

// publicID drops the file extension: Cloudinary derives the format itself.
func publicID(bucket, path string) string {
	return bucket + "/" + strings.TrimSuffix(path, pathpkg.Ext(path))
}

func (s *CloudinaryStore) Put(ctx context.Context, obj Object, upsert bool) error {
	res, err := s.uploader.Upload(ctx, bytes.NewReader(obj.Data), uploader.UploadParams{
		PublicID:     publicID(obj.Bucket, obj.Path),
		Overwrite:    api.Bool(upsert),
		Invalidate:   api.Bool(true),
		ResourceType: "image",
	})
	if err != nil {
		return fmt.Errorf("failed to upload to Cloudinary: %w: %w", common.ErrorTransient, err)
	}
	if res != nil && res.Error.Message != "" {
		return fmt.Errorf("failed to upload to Cloudinary: %w: %s", common.ErrorTransient, res.Error.Message)
	}
	return nil
}

func (s *CloudinaryStore) PublicURL(bucket, path string) (string, error) {
	img, err := s.cld.Image(publicID(bucket, path))
	if err != nil {
		return "", err
	}
	return img.String()
}
