package youtube

import (
	"context"
	"time"

	"github.com/EvgeniQwerty/ai-clip-cutter/internal/utils"

	"google.golang.org/api/youtube/v3"
)

// YouTubeService defines the interface for YouTube service operations
type YouTubeService interface {
	// InitializeYouTubeService creates a YouTube service client
	InitializeYouTubeService(ctx context.Context, credentialsPath string) (*youtube.Service, error)

	// ReadScheduledVideos retrieves all scheduled videos from the channel
	ReadScheduledVideos(ctx context.Context, service *youtube.Service) ([]ScheduledVideo, error)

	// ListScheduledVideos displays the list of scheduled videos
	ListScheduledVideos(videos []ScheduledVideo)

	// UploadVideo uploads clip videos to YouTube
	UploadVideo(ctx context.Context, service *youtube.Service, videoUploads []VideoUpload, privacyStatus string, categoryID string, clipsDir string) error

	// FindAvailability finds available time slots for clip uploads
	FindAvailability(scheduledVideos []ScheduledVideo, data *utils.HighlightsData, opts ScheduleOptions) ([]VideoUpload, error)

	// ListAvailableTimes displays the list of available time slots
	ListAvailableTimes(videoUploads []VideoUpload)
}

// ScheduledVideo represents a scheduled video on YouTube
type ScheduledVideo struct {
	Title       string
	PublishAt   string
	Description string
	Privacy     string
	VideoID     string
}

// VideoUpload represents the information needed to upload a clip
type VideoUpload struct {
	FileName    string    // The clip file name inside the clips directory
	Title       string    // The title of the clip
	Description string    // The description of the clip
	PublishTime time.Time // The scheduled publish time
	PlaylistID  string    // Optional playlist the clip is added to
	Tags        string    // Comma-separated tags
}

// ScheduleOptions controls how publish slots are assigned
type ScheduleOptions struct {
	Periodicity  int    // Days between consecutive clips
	ScheduleTime string // Time of day in HH:MM (UTC)
	MaxAttempts  int    // How many slots to try before giving up
	StartDate    string // Earliest publish date, YYYY-MM-DD
	PlaylistID   string // Optional playlist for every clip
	Tags         string // Comma-separated tags applied to every clip
}

// Ensure Service implements YouTubeService
var _ YouTubeService = (*Service)(nil)
