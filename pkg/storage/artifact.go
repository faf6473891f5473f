package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"smart-pdf-chatbot/internal/model"
	"smart-pdf-chatbot/pkg/log"

	"github.com/minio/minio-go/v7"
)

// URLPrefix 是对比报告对外暴露的路径前缀。
const URLPrefix = "/dashboards/"

const artifactObjectPrefix = "dashboards/"

// ArtifactStore 持久化对比报告并返回可访问的 URL。
type ArtifactStore interface {
	Write(ctx context.Context, artifact model.ComparisonArtifact) (string, error)
}

// ArtifactURL 返回报告的公开路径。
func ArtifactURL(artifact model.ComparisonArtifact) string {
	return URLPrefix + artifact.FileName()
}

// LocalArtifactStore 把报告写入由 gin 静态托管的目录。
type LocalArtifactStore struct {
	dir string
}

// NewLocalArtifactStore 创建目录（若不存在）并返回 LocalArtifactStore。
func NewLocalArtifactStore(dir string) (*LocalArtifactStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir %s: %w", dir, err)
	}
	return &LocalArtifactStore{dir: dir}, nil
}

// Dir 返回报告目录。
func (s *LocalArtifactStore) Dir() string {
	return s.dir
}

// Write 先写临时文件再 rename，读者不会看到写了一半的报告。
func (s *LocalArtifactStore) Write(_ context.Context, artifact model.ComparisonArtifact) (string, error) {
	tmp, err := os.CreateTemp(s.dir, "."+artifact.ID+"-*.tmp")
	if err != nil {
		return "", &model.ArtifactWriteError{ID: artifact.ID, Err: err}
	}
	tmpName := tmp.Name()
	if _, err := io.WriteString(tmp, artifact.HTMLBody); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", &model.ArtifactWriteError{ID: artifact.ID, Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", &model.ArtifactWriteError{ID: artifact.ID, Err: err}
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return "", &model.ArtifactWriteError{ID: artifact.ID, Err: err}
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, artifact.FileName())); err != nil {
		_ = os.Remove(tmpName)
		return "", &model.ArtifactWriteError{ID: artifact.ID, Err: err}
	}
	log.Infof("[ArtifactStore] 对比报告已写入本地目录, ID: %s", artifact.ID)
	return ArtifactURL(artifact), nil
}

// MinioArtifactStore 把报告保存为存储桶中的对象，由 handler 转发读取。
type MinioArtifactStore struct {
	client *minio.Client
	bucket string
}

// NewMinioArtifactStore 创建一个新的 MinioArtifactStore 实例。
func NewMinioArtifactStore(client *minio.Client, bucket string) *MinioArtifactStore {
	return &MinioArtifactStore{client: client, bucket: bucket}
}

// Write 实现 ArtifactStore。
func (s *MinioArtifactStore) Write(ctx context.Context, artifact model.ComparisonArtifact) (string, error) {
	body := []byte(artifact.HTMLBody)
	_, err := s.client.PutObject(ctx, s.bucket, artifactObjectPrefix+artifact.FileName(),
		bytes.NewReader(body), int64(len(body)),
		minio.PutObjectOptions{ContentType: "text/html; charset=utf-8"})
	if err != nil {
		log.Errorf("[ArtifactStore] 上传对比报告到 MinIO 失败, ID: %s, Error: %v", artifact.ID, err)
		return "", &model.ArtifactWriteError{ID: artifact.ID, Err: err}
	}
	log.Infof("[ArtifactStore] 对比报告已上传到 MinIO, ID: %s", artifact.ID)
	return ArtifactURL(artifact), nil
}

// Open 读取存储桶中的报告。fileName 形如 "<id>.html"。
func (s *MinioArtifactStore) Open(ctx context.Context, fileName string) (io.ReadCloser, int64, error) {
	if fileName == "" || strings.ContainsAny(fileName, "/\\") || !strings.HasSuffix(fileName, ".html") {
		return nil, 0, fmt.Errorf("invalid artifact name %q", fileName)
	}
	obj, err := s.client.GetObject(ctx, s.bucket, artifactObjectPrefix+fileName, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, err
	}
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, 0, err
	}
	return obj, info.Size, nil
}
