// Package upload schedules produced clips onto a YouTube channel
package upload

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/EvgeniQwerty/ai-clip-cutter/internal/mod"
	youtubesvc "github.com/EvgeniQwerty/ai-clip-cutter/internal/services/youtube"
	"github.com/EvgeniQwerty/ai-clip-cutter/internal/utils"
)

// Module implements the YouTube clip upload functionality
type Module struct {
	youtubeService youtubesvc.YouTubeService
}

// Params contains the parameters for YouTube upload operations
type Params struct {
	Input               string `json:"input"`               // Path to the highlights YAML file
	ClipsDir            string `json:"clipsDir"`            // Path where the clip videos are stored
	Credentials         string `json:"credentials"`         // Path to Google credentials file
	PlaylistID          string `json:"playlistId"`          // Optional: YouTube playlist ID
	PrivacyStatus       string `json:"privacyStatus"`       // Video privacy status (private, unlisted, public)
	CategoryID          string `json:"categoryId"`          // Video category ID
	SchedulePeriodicity int    `json:"schedulePeriodicity"` // Schedule clips every N days
	ScheduleTime        string `json:"scheduleTime"`        // Time to schedule clips (24-hour format)
	MaxAttempts         int    `json:"maxAttempts"`         // Maximum number of days to search for available slots
	StartDate           string `json:"startDate"`           // Start date for scheduling (YYYY-MM-DD)
	Tags                string `json:"tags"`                // Comma-separated tags applied to every clip
	ListOnly            bool   `json:"listOnly"`            // Print the schedule without uploading
}

// New creates a new upload module
func New() mod.Module {
	return &Module{
		youtubeService: &youtubesvc.Service{},
	}
}

// NewWithService creates an upload module with a custom YouTube service
func NewWithService(service youtubesvc.YouTubeService) mod.Module {
	return &Module{
		youtubeService: service,
	}
}

// Name returns the module name
func (m *Module) Name() string {
	return "upload"
}

// Validate checks if the parameters are valid
func (m *Module) Validate(params map[string]interface{}) error {
	var p Params
	if err := mod.ParseParams(params, &p); err != nil {
		return err
	}

	if err := utils.ValidateInputPath(p.Input); err != nil {
		return err
	}

	if p.ClipsDir == "" {
		return fmt.Errorf("clipsDir is required")
	}

	if p.Credentials == "" {
		p.Credentials = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
		if p.Credentials == "" {
			return fmt.Errorf("credentials file path is required")
		}
	}

	expandedCredentials, err := utils.ExpandHomeDir(p.Credentials)
	if err != nil {
		return fmt.Errorf("failed to expand home directory: %w", err)
	}
	p.Credentials = expandedCredentials

	if _, err := os.Stat(p.Credentials); os.IsNotExist(err) {
		return fmt.Errorf("credentials file does not exist: %s", p.Credentials)
	}

	if p.PrivacyStatus == "" {
		p.PrivacyStatus = "private"
	}
	if p.PrivacyStatus != "private" && p.PrivacyStatus != "unlisted" && p.PrivacyStatus != "public" {
		return fmt.Errorf("invalid privacy status: %s", p.PrivacyStatus)
	}

	if p.ScheduleTime != "" {
		if _, err := time.Parse("15:04", p.ScheduleTime); err != nil {
			return fmt.Errorf("invalid scheduleTime, expected HH:MM: %s", p.ScheduleTime)
		}
	}

	return nil
}

// Execute schedules and uploads the produced clips
func (m *Module) Execute(ctx context.Context, params map[string]interface{}) (mod.ModuleResult, error) {
	var p Params
	if err := mod.ParseParams(params, &p); err != nil {
		return mod.ModuleResult{}, err
	}

	if p.PrivacyStatus == "" {
		p.PrivacyStatus = "private"
	}
	if p.CategoryID == "" {
		p.CategoryID = "24" // Entertainment
	}
	if p.SchedulePeriodicity <= 0 {
		p.SchedulePeriodicity = 1
	}
	if p.ScheduleTime == "" {
		p.ScheduleTime = "12:00"
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 60
	}
	if p.StartDate == "" {
		p.StartDate = time.Now().UTC().Format("2006-01-02")
	}

	expandedCredentials, err := utils.ExpandHomeDir(p.Credentials)
	if err != nil {
		return mod.ModuleResult{}, fmt.Errorf("failed to expand home directory: %w", err)
	}
	p.Credentials = expandedCredentials

	data, err := utils.ReadHighlightsFile(p.Input)
	if err != nil {
		return mod.ModuleResult{}, fmt.Errorf("failed to read highlights file: %w", err)
	}

	service, err := m.youtubeService.InitializeYouTubeService(ctx, p.Credentials)
	if err != nil {
		return mod.ModuleResult{}, fmt.Errorf("failed to initialize YouTube service: %w", err)
	}

	scheduledVideos, err := m.youtubeService.ReadScheduledVideos(ctx, service)
	if err != nil {
		return mod.ModuleResult{}, fmt.Errorf("failed to read scheduled videos: %w", err)
	}
	m.youtubeService.ListScheduledVideos(scheduledVideos)

	opts := youtubesvc.ScheduleOptions{
		Periodicity:  p.SchedulePeriodicity,
		ScheduleTime: p.ScheduleTime,
		MaxAttempts:  p.MaxAttempts,
		StartDate:    p.StartDate,
		PlaylistID:   p.PlaylistID,
		Tags:         p.Tags,
	}

	videoUploads, err := m.youtubeService.FindAvailability(scheduledVideos, data, opts)
	if err != nil {
		return mod.ModuleResult{}, fmt.Errorf("failed to find availability: %w", err)
	}

	m.youtubeService.ListAvailableTimes(videoUploads)

	if p.ListOnly {
		utils.ListHighlights(data)
		utils.LogInfo("List-only mode, skipping upload")
		return mod.ModuleResult{
			Statistics: map[string]interface{}{
				"plannedUploads": len(videoUploads),
			},
		}, nil
	}

	if err := m.youtubeService.UploadVideo(ctx, service, videoUploads, p.PrivacyStatus, p.CategoryID, p.ClipsDir); err != nil {
		return mod.ModuleResult{}, fmt.Errorf("failed to upload clips: %w", err)
	}

	utils.LogSuccess("Scheduled %d clips starting %s", len(videoUploads), p.StartDate)

	return mod.ModuleResult{
		Metadata: map[string]interface{}{
			"startDate":   p.StartDate,
			"periodicity": p.SchedulePeriodicity,
		},
		Statistics: map[string]interface{}{
			"uploadedClips": len(videoUploads),
		},
	}, nil
}

// GetIO returns the module's input/output specification
func (m *Module) GetIO() mod.ModuleIO {
	return mod.ModuleIO{
		RequiredInputs: []mod.ModuleInput{
			{
				Name:        "input",
				Description: "Path to the highlights YAML file",
				Patterns:    []string{".yaml"},
				Type:        string(mod.InputTypeFile),
			},
			{
				Name:        "clipsDir",
				Description: "Path where the clip videos are stored",
				Type:        string(mod.InputTypeDirectory),
			},
			{
				Name:        "credentials",
				Description: "Path to Google credentials file",
				Patterns:    []string{".json"},
				Type:        string(mod.InputTypeFile),
			},
		},
		OptionalInputs: []mod.ModuleInput{
			{
				Name:        "playlistId",
				Description: "YouTube playlist ID",
				Type:        string(mod.InputTypeData),
			},
			{
				Name:        "privacyStatus",
				Description: "Video privacy status (private, unlisted, public)",
				Type:        string(mod.InputTypeData),
			},
			{
				Name:        "categoryId",
				Description: "Video category ID (default: 24)",
				Type:        string(mod.InputTypeData),
			},
			{
				Name:        "scheduleTime",
				Description: "Time to schedule clips (24-hour format)",
				Type:        string(mod.InputTypeData),
			},
			{
				Name:        "tags",
				Description: "Comma-separated tags applied to every clip",
				Type:        string(mod.InputTypeData),
			},
		},
		ProducedOutputs: []mod.ModuleOutput{},
	}
}
