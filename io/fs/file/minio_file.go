package file

import (
	"bytes"
	"context"

	"github.com/minio/minio-go/v7"
)

var _ File = (*MinioFile)(nil)

// MinioFile buffers writes in memory and uploads the object on Close.
// Reads go to the existing object, if any.
type MinioFile struct {
	*minio.Object
	writer     *MemoryFile
	client     *minio.Client
	fileName   string
	bucketName string
}

func (f *MinioFile) Write(b []byte) (int, error) {
	if f.writer == nil {
		f.writer = NewMemoryFile(nil)
	}
	return f.writer.Write(b)
}

func (f *MinioFile) Close() error {
	if f.writer == nil {
		if f.Object != nil {
			return f.Object.Close()
		}
		return nil
	}
	if f.Object != nil {
		f.Object.Close()
	}
	content := f.writer.Bytes()
	if err := f.writer.Close(); err != nil {
		return err
	}
	_, err := f.client.PutObject(context.TODO(), f.bucketName, f.fileName, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{})
	return err
}

func NewMinioFile(client *minio.Client, fileName string, bucketName string) (*MinioFile, error) {
	_, err := client.StatObject(context.TODO(), bucketName, fileName, minio.StatObjectOptions{})
	if err != nil {
		eresp := minio.ToErrorResponse(err)
		if eresp.Code != "NoSuchKey" {
			return nil, err
		}
		return &MinioFile{
			writer:     NewMemoryFile(nil),
			client:     client,
			fileName:   fileName,
			bucketName: bucketName,
		}, nil
	}

	object, err := client.GetObject(context.TODO(), bucketName, fileName, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}

	return &MinioFile{
		Object:     object,
		client:     client,
		fileName:   fileName,
		bucketName: bucketName,
	}, nil
}
