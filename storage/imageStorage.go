package storage

import (
	"context"
	"fmt"
	"path"

	"github.com/colinmarc/hdfs/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/swastisunder/Nivaas/domain"
)

const hdfsRoot = "/listings"

// ImageStorage keeps listing images in HDFS. The stored file name is the
// key later used to destroy the asset; the URL is where the image handler
// serves it from.
type ImageStorage struct {
	client  *hdfs.Client
	baseURL string
	logger  *logrus.Logger
	tracer  trace.Tracer
}

func New(hdfsURI, baseURL string, logger *logrus.Logger, tracer trace.Tracer) (*ImageStorage, error) {
	client, err := hdfs.New(hdfsURI)
	if err != nil {
		logger.Errorf("Error connecting to image storage at %s: %v", hdfsURI, err)
		return nil, err
	}

	return &ImageStorage{
		client:  client,
		baseURL: baseURL,
		logger:  logger,
		tracer:  tracer,
	}, nil
}

func (fs *ImageStorage) Close() {
	// Close all underlying connections to the HDFS server
	fs.client.Close()
}

func (fs *ImageStorage) CreateDirectoriesStart() error {
	err := fs.client.MkdirAll(hdfsRoot, 0644)
	if err != nil {
		fs.logger.Println(err)
		return err
	}
	return nil
}

// Upload stores the image content under a generated file name and returns
// the asset reference to embed in the listing.
func (fs *ImageStorage) Upload(ctx context.Context, content []byte) (*domain.Image, error) {
	ctx, span := fs.tracer.Start(ctx, "ImageStorage.Upload")
	defer span.End()

	fileName := uuid.New().String()
	imagePath := path.Join(hdfsRoot, fileName)

	file, err := fs.client.Create(imagePath)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		fs.logger.Printf("Error creating file %s: %v", imagePath, err)
		return nil, err
	}

	if _, err := file.Write(content); err != nil {
		span.SetStatus(codes.Error, err.Error())
		fs.logger.Printf("Error writing image content: %v", err)
		_ = file.Close()
		return nil, err
	}
	if err := file.Close(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		fs.logger.Printf("Error closing file: %v", err)
		return nil, err
	}

	return &domain.Image{
		URL:      fmt.Sprintf("%s/%s", fs.baseURL, fileName),
		FileName: fileName,
	}, nil
}

// Get reads the raw image content back by its file name.
func (fs *ImageStorage) Get(ctx context.Context, fileName string) ([]byte, error) {
	ctx, span := fs.tracer.Start(ctx, "ImageStorage.Get")
	defer span.End()

	imagePath := path.Join(hdfsRoot, fileName)
	content, err := fs.client.ReadFile(imagePath)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		fs.logger.Println(err)
		return nil, err
	}
	return content, nil
}

// Destroy removes the asset by its file name. Removing an absent file is
// a no-op.
func (fs *ImageStorage) Destroy(ctx context.Context, fileName string) error {
	ctx, span := fs.tracer.Start(ctx, "ImageStorage.Destroy")
	defer span.End()

	imagePath := path.Join(hdfsRoot, fileName)
	err := fs.client.Remove(imagePath)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		fs.logger.Printf("Error removing file %s: %v", imagePath, err)
		return err
	}
	return nil
}
