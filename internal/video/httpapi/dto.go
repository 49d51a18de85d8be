package httpapi

import (
	"time"

	"github.com/google/uuid"

	"github.com/voxlog/voxlog/internal/video/models"
)

type LoginRequest struct {
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type VideoResponse struct {
	ID          uuid.UUID  `json:"id"`
	Filename    string     `json:"filename"`
	Title       string     `json:"title,omitempty"`
	Tags        []string   `json:"tags"`
	Transcript  string     `json:"transcript,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	StorageURL  string     `json:"storage_url,omitempty"`
}

type VideoListResponse struct {
	Videos []VideoResponse `json:"videos"`
}

type TagsResponse struct {
	Tags []string `json:"tags"`
}

func toVideoResponse(v *models.Video) VideoResponse {
	tags := v.Tags
	if tags == nil {
		tags = models.Tags{}
	}
	return VideoResponse{
		ID:          v.ID,
		Filename:    v.Filename,
		Title:       v.Title,
		Tags:        tags,
		Transcript:  v.Transcript,
		Status:      string(v.Status),
		CreatedAt:   v.CreatedAt,
		ProcessedAt: v.ProcessedAt,
		StorageURL:  v.StorageURL,
	}
}

func toVideoListResponse(videos []*models.Video) VideoListResponse {
	out := VideoListResponse{Videos: make([]VideoResponse, 0, len(videos))}
	for _, v := range videos {
		out.Videos = append(out.Videos, toVideoResponse(v))
	}
	return out
}
