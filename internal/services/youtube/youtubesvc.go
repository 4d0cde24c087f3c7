// Package youtube uploads produced clips as scheduled Shorts
package youtube

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/EvgeniQwerty/ai-clip-cutter/internal/utils"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// Required OAuth scopes for YouTube API
var requiredScopes = []string{
	"https://www.googleapis.com/auth/youtube.readonly",
	"https://www.googleapis.com/auth/youtube.upload",
	"https://www.googleapis.com/auth/youtube.force-ssl",
}

// Service implements the YouTubeService interface
type Service struct{}

// InitializeYouTubeService creates a YouTube service client, running the
// installed-app OAuth flow when no valid token is stored
func (m *Service) InitializeYouTubeService(ctx context.Context, credentialsPath string) (*youtube.Service, error) {
	credentials, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	config, err := google.ConfigFromJSON(credentials, requiredScopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OAuth config: %w", err)
	}

	tokenStorage, err := utils.NewTokenStorage()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token storage: %w", err)
	}

	token, err := tokenStorage.LoadToken("youtube")
	if err != nil {
		return nil, fmt.Errorf("failed to load token: %w", err)
	}

	if token == nil || !token.Valid() {
		callbackServer := utils.NewOAuthCallbackServer()
		if err := callbackServer.Start(8080); err != nil {
			return nil, fmt.Errorf("failed to start callback server: %w", err)
		}
		defer func() {
			if err := callbackServer.Stop(); err != nil {
				utils.LogWarning("Failed to stop callback server: %v", err)
			}
		}()

		config.RedirectURL = "http://localhost:8080"

		authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
		if err := callbackServer.OpenURL(authURL); err != nil {
			return nil, fmt.Errorf("failed to open auth URL: %w", err)
		}

		code := callbackServer.WaitForCode()

		token, err = config.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
		}

		if err := tokenStorage.SaveToken("youtube", token); err != nil {
			utils.LogWarning("Failed to save token: %v", err)
		}
	} else {
		utils.LogInfo("Using existing authorization token")
	}

	service, err := youtube.NewService(ctx, option.WithTokenSource(config.TokenSource(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return service, nil
}

// ReadScheduledVideos retrieves all scheduled videos from the channel
func (m *Service) ReadScheduledVideos(ctx context.Context, service *youtube.Service) ([]ScheduledVideo, error) {
	channelsResponse, err := service.Channels.List([]string{"id"}).Mine(true).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get channel info: %w", err)
	}

	if len(channelsResponse.Items) == 0 {
		return nil, fmt.Errorf("no channel found")
	}

	searchResponse, err := service.Search.List([]string{"id"}).
		ForMine(true).
		Type("video").
		MaxResults(50).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to search for videos: %w", err)
	}

	if len(searchResponse.Items) == 0 {
		return nil, nil
	}

	var videoIds []string
	for _, item := range searchResponse.Items {
		videoIds = append(videoIds, item.Id.VideoId)
	}

	videosResponse, err := service.Videos.List([]string{"snippet", "status", "contentDetails"}).
		Id(videoIds...).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get video details: %w", err)
	}

	var scheduledVideos []ScheduledVideo
	for _, video := range videosResponse.Items {
		// Only include scheduled videos
		if video.Status.PrivacyStatus == "private" && video.Status.PublishAt != "" {
			scheduledVideos = append(scheduledVideos, ScheduledVideo{
				Title:       video.Snippet.Title,
				PublishAt:   video.Status.PublishAt,
				Description: video.Snippet.Description,
				Privacy:     video.Status.PrivacyStatus,
				VideoID:     video.Id,
			})
		}
	}

	return scheduledVideos, nil
}

// ListScheduledVideos displays the list of scheduled videos
func (m *Service) ListScheduledVideos(videos []ScheduledVideo) {
	utils.LogInfo("\nScheduled Videos:")
	utils.LogInfo("----------------")

	if len(videos) == 0 {
		utils.LogInfo("No scheduled videos found")
		return
	}

	for _, video := range videos {
		utils.LogInfo("Title: %s", video.Title)
		utils.LogInfo("Scheduled for: %s", video.PublishAt)
		utils.LogInfo("Privacy: %s", video.Privacy)
		utils.LogInfo("Video ID: %s", video.VideoID)
		utils.LogInfo("----------------")
	}
}

// parseScheduleTime parses the schedule time string (HH:MM) into hours and minutes
func parseScheduleTime(timeStr string) (int, int, error) {
	parts := strings.Split(timeStr, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time format, expected HH:MM")
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour: %s", parts[0])
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute: %s", parts[1])
	}

	return hour, minute, nil
}

// cleanTag removes special characters and converts to lowercase
func cleanTag(tag string) string {
	tag = strings.TrimSpace(tag)
	tag = strings.ToLower(tag)
	replacements := map[string]string{
		"á": "a", "é": "e", "í": "i", "ó": "o", "ú": "u",
		"ñ": "n", "ü": "u",
	}
	for old, new := range replacements {
		tag = strings.ReplaceAll(tag, old, new)
	}
	return tag
}

// processTags splits and cleans tags, ensuring YouTube compatibility
func processTags(tags string) []string {
	rawTags := strings.Split(tags, ",")
	seenTags := make(map[string]bool)
	var cleanedTags []string

	for _, tag := range rawTags {
		cleaned := cleanTag(tag)
		// YouTube rejects overlong tags
		if cleaned != "" && len(cleaned) <= 30 && !seenTags[cleaned] {
			seenTags[cleaned] = true
			cleanedTags = append(cleanedTags, cleaned)
		}
	}

	if len(cleanedTags) > 30 {
		cleanedTags = cleanedTags[:30]
	}

	return cleanedTags
}

// UploadVideo uploads clips to YouTube as scheduled Shorts. A failed
// upload is logged and the rest of the batch continues.
func (m *Service) UploadVideo(ctx context.Context, service *youtube.Service, videoUploads []VideoUpload, privacyStatus string, categoryID string, clipsDir string) error {
	for _, upload := range videoUploads {
		videoPath := filepath.Join(clipsDir, upload.FileName)

		file, err := os.Open(videoPath)
		if err != nil {
			utils.LogWarning("Failed to open clip file: %v", err)
			continue
		}

		video := &youtube.Video{
			Snippet: &youtube.VideoSnippet{
				Title:       upload.Title,
				Description: upload.Description,
				CategoryId:  categoryID,
				Tags:        processTags(upload.Tags),
			},
			Status: &youtube.VideoStatus{
				PrivacyStatus: privacyStatus,
				PublishAt:     upload.PublishTime.Format(time.RFC3339),
				MadeForKids:   false,
			},
		}

		call := service.Videos.Insert([]string{"snippet", "status"}, video)
		call.NotifySubscribers(false) // Don't notify subscribers for shorts
		response, err := call.Media(file).Do()
		if cerr := file.Close(); cerr != nil {
			utils.LogWarning("Failed to close clip file: %v", cerr)
		}
		if err != nil {
			utils.LogWarning("Failed to upload clip: %v", err)
			continue
		}

		utils.LogInfo("Successfully uploaded clip: %s", response.Id)
		utils.LogInfo("\t[%s] %s", upload.PublishTime.Format("2006-01-02 15:04:05"), upload.Title)

		if upload.PlaylistID != "" {
			playlistItem := &youtube.PlaylistItem{
				Snippet: &youtube.PlaylistItemSnippet{
					PlaylistId: upload.PlaylistID,
					ResourceId: &youtube.ResourceId{
						Kind:    "youtube#video",
						VideoId: response.Id,
					},
				},
			}

			if _, err := service.PlaylistItems.Insert([]string{"snippet"}, playlistItem).Do(); err != nil {
				utils.LogWarning("Failed to add clip to playlist: %v", err)
			} else {
				utils.LogInfo("Added clip to playlist: %s", upload.PlaylistID)
			}
		}
	}

	return nil
}

// FindAvailability assigns a free publish slot to every produced clip,
// spacing them by the configured periodicity and skipping times already
// taken by scheduled videos
func (m *Service) FindAvailability(scheduledVideos []ScheduledVideo, data *utils.HighlightsData, opts ScheduleOptions) ([]VideoUpload, error) {
	scheduleHour, scheduleMinute, err := parseScheduleTime(opts.ScheduleTime)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule time format: %w", err)
	}

	startDateTime, err := time.Parse("2006-01-02", opts.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start date format: %w", err)
	}
	startDateTime = startDateTime.UTC()

	now := time.Now().UTC()
	referenceTime := now
	if startDateTime.After(now) {
		referenceTime = startDateTime
	}

	scheduledTimes := make(map[time.Time]bool)
	for _, video := range scheduledVideos {
		publishTime, err := time.Parse(time.RFC3339, video.PublishAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse video publish time: %w", err)
		}
		scheduledTimes[publishTime.UTC()] = true
	}

	var videoUploads []VideoUpload
	candidate := referenceTime

	for _, clip := range data.Highlights {
		if clip.ClipFile == "" {
			utils.LogWarning("Highlight %q has no produced clip, skipping", clip.Title)
			continue
		}

		found := false
		for attempts := 0; attempts < opts.MaxAttempts; attempts++ {
			publishTime := time.Date(
				candidate.Year(), candidate.Month(), candidate.Day(),
				scheduleHour, scheduleMinute, 0, 0, time.UTC,
			)

			if publishTime.Before(now) || scheduledTimes[publishTime] {
				candidate = candidate.AddDate(0, 0, 1)
				continue
			}

			videoUploads = append(videoUploads, VideoUpload{
				FileName:    clip.ClipFile,
				Title:       clip.Title,
				Description: clip.Content,
				PublishTime: publishTime,
				PlaylistID:  opts.PlaylistID,
				Tags:        opts.Tags,
			})
			scheduledTimes[publishTime] = true
			candidate = publishTime.AddDate(0, 0, opts.Periodicity)
			found = true
			break
		}

		if !found {
			return nil, fmt.Errorf("no available time found for clip %q after %d attempts", clip.Title, opts.MaxAttempts)
		}
	}

	return videoUploads, nil
}

// ListAvailableTimes displays the list of available time slots
func (m *Service) ListAvailableTimes(videoUploads []VideoUpload) {
	utils.LogInfo("\nScheduled publish times (UTC):")
	utils.LogInfo("----------------")
	for _, upload := range videoUploads {
		utils.LogInfo("Clip: %s", upload.Title)
		utils.LogInfo("File: %s", upload.FileName)
		utils.LogInfo("Publish at: %s", upload.PublishTime.Format(time.RFC3339))
		if upload.PlaylistID != "" {
			utils.LogInfo("Playlist: %s", upload.PlaylistID)
		}
		utils.LogInfo("----------------")
	}
}
