package youtube

import (
	"fmt"
	"testing"
	"time"

	"github.com/EvgeniQwerty/ai-clip-cutter/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScheduleTime(t *testing.T) {
	tests := []struct {
		input   string
		hour    int
		minute  int
		wantErr bool
	}{
		{"12:00", 12, 0, false},
		{"00:00", 0, 0, false},
		{"23:59", 23, 59, false},
		{"9:30", 9, 30, false},
		{"24:00", 0, 0, true},
		{"12:60", 0, 0, true},
		{"noon", 0, 0, true},
		{"12", 0, 0, true},
		{"", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			hour, minute, err := parseScheduleTime(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.hour, hour)
			assert.Equal(t, tt.minute, minute)
		})
	}
}

func TestCleanTag(t *testing.T) {
	assert.Equal(t, "golang", cleanTag("  GoLang  "))
	assert.Equal(t, "espanol", cleanTag("Español"))
	assert.Equal(t, "musica", cleanTag("Música"))
	assert.Equal(t, "", cleanTag("   "))
}

func TestProcessTags(t *testing.T) {
	tags := processTags("Go, go , Programación, , tutorial")
	assert.Equal(t, []string{"go", "programacion", "tutorial"}, tags)
}

func TestProcessTagsDropsOverlongAndCapsCount(t *testing.T) {
	long := "this-tag-is-definitely-longer-than-thirty-characters"
	tags := processTags("short," + long)
	assert.Equal(t, []string{"short"}, tags)

	var many string
	for i := 0; i < 40; i++ {
		many += fmt.Sprintf("tag%d,", i)
	}
	assert.Len(t, processTags(many), 30)
}

func scheduleTestData() *utils.HighlightsData {
	return &utils.HighlightsData{
		SourceVideo: "talk.mp4",
		Highlights: []utils.HighlightClip{
			{Title: "First", Content: "First moment.", ClipFile: "talk_highlight_01_20260825_120000.mp4"},
			{Title: "Second", Content: "Second moment.", ClipFile: "talk_highlight_02_20260825_120000.mp4"},
		},
	}
}

func futureDate(days int) string {
	return time.Now().UTC().AddDate(0, 0, days).Format("2006-01-02")
}

func TestFindAvailability(t *testing.T) {
	service := &Service{}

	uploads, err := service.FindAvailability(nil, scheduleTestData(), ScheduleOptions{
		Periodicity:  2,
		ScheduleTime: "12:00",
		MaxAttempts:  10,
		StartDate:    futureDate(2),
		PlaylistID:   "PL123",
		Tags:         "go,testing",
	})
	require.NoError(t, err)
	require.Len(t, uploads, 2)

	assert.Equal(t, "talk_highlight_01_20260825_120000.mp4", uploads[0].FileName)
	assert.Equal(t, "First", uploads[0].Title)
	assert.Equal(t, "First moment.", uploads[0].Description)
	assert.Equal(t, "PL123", uploads[0].PlaylistID)
	assert.Equal(t, 12, uploads[0].PublishTime.Hour())
	assert.Equal(t, 0, uploads[0].PublishTime.Minute())

	// Slots are spaced by the periodicity
	gap := uploads[1].PublishTime.Sub(uploads[0].PublishTime)
	assert.Equal(t, 48*time.Hour, gap)
}

func TestFindAvailabilitySkipsTakenSlot(t *testing.T) {
	service := &Service{}
	start := futureDate(2)

	startDay, err := time.Parse("2006-01-02", start)
	require.NoError(t, err)
	taken := time.Date(startDay.Year(), startDay.Month(), startDay.Day(), 12, 0, 0, 0, time.UTC)

	uploads, err := service.FindAvailability(
		[]ScheduledVideo{{Title: "existing", PublishAt: taken.Format(time.RFC3339)}},
		scheduleTestData(),
		ScheduleOptions{
			Periodicity:  1,
			ScheduleTime: "12:00",
			MaxAttempts:  10,
			StartDate:    start,
		},
	)
	require.NoError(t, err)
	require.Len(t, uploads, 2)

	// First clip is pushed past the occupied slot
	assert.Equal(t, taken.AddDate(0, 0, 1), uploads[0].PublishTime)
	assert.Equal(t, taken.AddDate(0, 0, 2), uploads[1].PublishTime)
}

func TestFindAvailabilitySkipsHighlightsWithoutClips(t *testing.T) {
	service := &Service{}
	data := &utils.HighlightsData{
		Highlights: []utils.HighlightClip{
			{Title: "Missing", Content: "never produced"},
			{Title: "Present", Content: "produced", ClipFile: "clip.mp4"},
		},
	}

	uploads, err := service.FindAvailability(nil, data, ScheduleOptions{
		Periodicity:  1,
		ScheduleTime: "12:00",
		MaxAttempts:  10,
		StartDate:    futureDate(1),
	})
	require.NoError(t, err)
	require.Len(t, uploads, 1)
	assert.Equal(t, "Present", uploads[0].Title)
}

func TestFindAvailabilityExhaustsAttempts(t *testing.T) {
	service := &Service{}
	start := futureDate(2)

	startDay, err := time.Parse("2006-01-02", start)
	require.NoError(t, err)
	taken := time.Date(startDay.Year(), startDay.Month(), startDay.Day(), 12, 0, 0, 0, time.UTC)

	_, err = service.FindAvailability(
		[]ScheduledVideo{{Title: "existing", PublishAt: taken.Format(time.RFC3339)}},
		scheduleTestData(),
		ScheduleOptions{
			Periodicity:  1,
			ScheduleTime: "12:00",
			MaxAttempts:  1,
			StartDate:    start,
		},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no available time found")
}

func TestFindAvailabilityInvalidInputs(t *testing.T) {
	service := &Service{}

	_, err := service.FindAvailability(nil, scheduleTestData(), ScheduleOptions{
		ScheduleTime: "25:00",
		StartDate:    futureDate(1),
		MaxAttempts:  5,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid schedule time")

	_, err = service.FindAvailability(nil, scheduleTestData(), ScheduleOptions{
		ScheduleTime: "12:00",
		StartDate:    "25-08-2026",
		MaxAttempts:  5,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid start date")
}
