package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/lumina/internal/log"
)

// S3Options 描述 S3 兼容存储的连接参数。
type S3Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL 为空时使用 endpoint/bucket 拼接访问地址。
	PublicURL string
	Prefix    string
}

// objectPutter 是 minio 客户端中用到的方法子集。
type objectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader,
		objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// S3Storage 将图片上传到 S3 兼容的对象存储。
type S3Storage struct {
	client    objectPutter
	bucket    string
	prefix    string
	publicURL string
}

// NewS3Storage 创建 minio 客户端。
func NewS3Storage(opts S3Options) (*S3Storage, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "new minio client")
	}

	return newS3Storage(client, opts), nil
}

func newS3Storage(client objectPutter, opts S3Options) *S3Storage {
	publicURL := strings.TrimSuffix(opts.PublicURL, "/")
	if publicURL == "" {
		scheme := "http"
		if opts.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, opts.Endpoint, opts.Bucket)
	}

	return &S3Storage{
		client:    client,
		bucket:    opts.Bucket,
		prefix:    strings.Trim(opts.Prefix, "/"),
		publicURL: publicURL,
	}
}

func (s *S3Storage) Save(ctx context.Context, name string, img Image) (string, error) {
	objkey := name
	if s.prefix != "" {
		objkey = s.prefix + "/" + name
	}

	_, err := s.client.PutObject(ctx,
		s.bucket,
		objkey,
		bytes.NewReader(img.Data),
		int64(len(img.Data)),
		minio.PutObjectOptions{
			ContentType: img.ContentType,
		},
	)
	if err != nil {
		return "", errors.Wrapf(err, "put object %s", objkey)
	}

	log.Logger.Info("upload to s3", zap.String("objkey", objkey), zap.Int("size", len(img.Data)))
	return s.publicURL + "/" + objkey, nil
}
