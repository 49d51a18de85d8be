package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/voxlog/voxlog/internal/video/models"
	"github.com/voxlog/voxlog/internal/video/repository"
)

type StoreMock struct {
	mock.Mock
}

func (m *StoreMock) Create(ctx context.Context, v *models.Video) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *StoreMock) GetByID(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.Video), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StoreMock) List(ctx context.Context, f repository.ListFilter) ([]*models.Video, error) {
	args := m.Called(ctx, f)
	if v := args.Get(0); v != nil {
		return v.([]*models.Video), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StoreMock) AllTags(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StoreMock) ClaimForProcessing(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.Video), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StoreMock) UpdateResult(ctx context.Context, id uuid.UUID, res models.TaggingResult, transcript string, processedAt time.Time) (*models.Video, error) {
	args := m.Called(ctx, id, res, transcript, processedAt)
	if v := args.Get(0); v != nil {
		return v.(*models.Video), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StoreMock) MarkFailed(ctx context.Context, id uuid.UUID, processedAt time.Time) (*models.Video, error) {
	args := m.Called(ctx, id, processedAt)
	if v := args.Get(0); v != nil {
		return v.(*models.Video), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StoreMock) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type BlobMock struct {
	mock.Mock
}

func (m *BlobMock) SignedURL(path string, ttl time.Duration) (string, error) {
	args := m.Called(path, ttl)
	return args.String(0), args.Error(1)
}

func (m *BlobMock) DownloadToTemp(ctx context.Context, path string) (string, error) {
	args := m.Called(ctx, path)
	return args.String(0), args.Error(1)
}

func (m *BlobMock) Delete(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

type ExtractorMock struct {
	mock.Mock
}

func (m *ExtractorMock) Extract(ctx context.Context, videoPath string) (string, error) {
	args := m.Called(ctx, videoPath)
	return args.String(0), args.Error(1)
}

type TranscriberMock struct {
	mock.Mock
}

func (m *TranscriberMock) Transcribe(ctx context.Context, audioPath string) (string, error) {
	args := m.Called(ctx, audioPath)
	return args.String(0), args.Error(1)
}

type TaggerMock struct {
	mock.Mock
}

func (m *TaggerMock) Tag(ctx context.Context, transcript string) models.TaggingResult {
	args := m.Called(ctx, transcript)
	return args.Get(0).(models.TaggingResult)
}

type SinkMock struct {
	mock.Mock
}

func (m *SinkMock) Append(ctx context.Context, v *models.Video) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}
