package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
)

// UploadRetainer 保存原始上传文件。
type UploadRetainer interface {
	Retain(ctx context.Context, storageID string, data []byte) error
}

// MinioUploadRetainer 以 uploads/<storageId> 为对象名保存原始 PDF。
type MinioUploadRetainer struct {
	client *minio.Client
	bucket string
}

// NewMinioUploadRetainer 创建一个新的 MinioUploadRetainer 实例。
func NewMinioUploadRetainer(client *minio.Client, bucket string) *MinioUploadRetainer {
	return &MinioUploadRetainer{client: client, bucket: bucket}
}

// Retain 实现 UploadRetainer。
func (r *MinioUploadRetainer) Retain(ctx context.Context, storageID string, data []byte) error {
	_, err := r.client.PutObject(ctx, r.bucket, "uploads/"+storageID,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/pdf"})
	if err != nil {
		return fmt.Errorf("retain upload %s: %w", storageID, err)
	}
	return nil
}
