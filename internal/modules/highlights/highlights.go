// Package highlights asks the language model to pick highlight segments
package highlights

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/EvgeniQwerty/ai-clip-cutter/internal/media"
	"github.com/EvgeniQwerty/ai-clip-cutter/internal/mod"
	"github.com/EvgeniQwerty/ai-clip-cutter/internal/services/mistral"
	"github.com/EvgeniQwerty/ai-clip-cutter/internal/utils"

	"github.com/jedib0t/go-pretty/v6/table"
)

// contextKey is a type for context keys
type contextKey string

// MistralServiceKey is the context key for injecting a Mistral service in tests
const MistralServiceKey = contextKey("mistral_service")

// Module implements highlight selection functionality
type Module struct{}

// Params contains the parameters for highlight selection
type Params struct {
	Input            string  `json:"input"`            // Path to the transcription JSON file
	Output           string  `json:"output"`           // Path to output directory
	VideoFile        string  `json:"videoFile"`        // Source video, used to clamp timestamps
	NumHighlights    int     `json:"numHighlights"`    // Number of highlights to request (default: 10)
	MinLength        int     `json:"minLength"`        // Minimum highlight length in seconds (default: 15)
	MaxLength        int     `json:"maxLength"`        // Maximum highlight length in seconds (default: 40)
	Model            string  `json:"model"`            // Mistral model to use (default: "open-mistral-nemo")
	Temperature      float64 `json:"temperature"`      // Model temperature (default: 0.7)
	RequestTimeoutMs int     `json:"requestTimeoutMs"` // API request timeout in milliseconds (default: 30000)
	OutputFileName   string  `json:"outputFileName"`   // Base name for artifacts (default: "highlights")
}

const systemPromptTemplate = `Analyze the provided video transcript JSON and identify the %d most interesting moments based on their content.
These highlights should have a duration between %d and %d seconds.

Each object in the input JSON contains a "text" fragment along with its exact "start" and "end" timestamps.

Return a JSON array of objects of the form {"start": <number>, "end": <number>, "content": "<string>"}.

Rules:
1. Do not invent or modify timestamps. The "start" of a highlight is exactly the "start" of the first input object it covers, and the "end" is exactly the "end" of the last one.
2. Each highlight must cover a contiguous sequence of input objects, and "content" is their concatenated "text".
3. The total duration of each highlight (end - start) must fall within %d and %d seconds.
4. Highlights must be selected from different parts of the input JSON. Sequential or overlapping highlights are invalid.
5. Provide exactly %d output objects, distributed across the whole transcript.
6. Return only the JSON array, with no explanations or commentary.`

// New creates a new highlights module
func New() mod.Module {
	return &Module{}
}

// Name returns the module name
func (m *Module) Name() string {
	return "highlights"
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

	if err := utils.ValidateOutputPath(p.Output); err != nil {
		return err
	}

	if p.NumHighlights < 0 {
		return fmt.Errorf("numHighlights cannot be negative")
	}

	if p.MinLength > 0 && p.MaxLength > 0 && p.MinLength > p.MaxLength {
		return fmt.Errorf("minLength (%d) cannot be greater than maxLength (%d)", p.MinLength, p.MaxLength)
	}

	if err := mistral.ValidateAPIKey(); err != nil {
		return err
	}

	return nil
}

// getMistralService returns a Mistral service from context or creates a new one
func (m *Module) getMistralService(ctx context.Context) (mistral.Servicer, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}

	if service, ok := ctx.Value(MistralServiceKey).(mistral.Servicer); ok {
		return service, nil
	}

	return mistral.NewMistralService()
}

// Execute selects highlights from the transcription via the Mistral API
func (m *Module) Execute(ctx context.Context, params map[string]interface{}) (mod.ModuleResult, error) {
	var p Params
	if err := mod.ParseParams(params, &p); err != nil {
		return mod.ModuleResult{}, err
	}

	if p.NumHighlights == 0 {
		p.NumHighlights = 10
	}
	if p.MinLength == 0 {
		p.MinLength = 15
	}
	if p.MaxLength == 0 {
		p.MaxLength = 40
	}
	if p.Model == "" {
		p.Model = "open-mistral-nemo"
	}
	if p.Temperature == 0 {
		p.Temperature = 0.7
	}
	if p.RequestTimeoutMs == 0 {
		p.RequestTimeoutMs = 30000
	}
	if p.OutputFileName == "" {
		p.OutputFileName = "highlights"
	}

	segments, err := utils.LoadTranscription(p.Input)
	if err != nil {
		return mod.ModuleResult{}, err
	}
	if len(segments) == 0 {
		return mod.ModuleResult{}, fmt.Errorf("transcription %s contains no segments", p.Input)
	}

	transcriptJSON, err := json.Marshal(segments)
	if err != nil {
		return mod.ModuleResult{}, fmt.Errorf("failed to marshal transcript: %w", err)
	}

	if err := os.MkdirAll(p.Output, 0755); err != nil {
		return mod.ModuleResult{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	service, err := m.getMistralService(ctx)
	if err != nil {
		return mod.ModuleResult{}, fmt.Errorf("failed to initialize Mistral service: %w", err)
	}

	utils.LogInfo("Selecting %d highlights using %s...", p.NumHighlights, p.Model)

	messages := []mistral.ChatMessage{
		{
			Role: "system",
			Content: fmt.Sprintf(systemPromptTemplate,
				p.NumHighlights, p.MinLength, p.MaxLength, p.MinLength, p.MaxLength, p.NumHighlights),
		},
		{
			Role:    "user",
			Content: string(transcriptJSON),
		},
	}

	response, err := service.GetContent(ctx, messages, mistral.CompletionOptions{
		Model:            p.Model,
		Temperature:      p.Temperature,
		RequestTimeoutMS: p.RequestTimeoutMs,
	})
	if err != nil {
		return mod.ModuleResult{}, fmt.Errorf("API request failed: %w", err)
	}

	highlights, err := ParseHighlightsResponse(response)
	if err != nil {
		return mod.ModuleResult{}, fmt.Errorf("failed to parse API response: %w\nResponse preview: %s",
			err, preview(response, 200))
	}

	// The model routinely returns a different count than requested;
	// accept whatever it gave us
	if len(highlights) != p.NumHighlights {
		utils.LogWarning("Requested %d highlights, model returned %d", p.NumHighlights, len(highlights))
	}

	for i := range highlights {
		highlights[i] = FixTimestamps(highlights[i], segments)
	}
	highlights = m.clampToDuration(ctx, highlights, p.VideoFile)

	jsonPath := filepath.Join(p.Output, p.OutputFileName+".json")
	if err := saveHighlightsJSON(jsonPath, highlights); err != nil {
		return mod.ModuleResult{}, err
	}

	yamlPath := filepath.Join(p.Output, p.OutputFileName+".yaml")
	if err := m.writeArtifact(yamlPath, p.VideoFile, highlights); err != nil {
		return mod.ModuleResult{}, err
	}

	m.renderSummary(highlights)

	utils.LogSuccess("Selected %d highlights", len(highlights))
	return mod.ModuleResult{
		Outputs: map[string]string{
			"highlights": jsonPath,
			"summary":    yamlPath,
		},
		Statistics: map[string]interface{}{
			"requested": p.NumHighlights,
			"returned":  len(highlights),
		},
	}, nil
}

// clampToDuration trims highlight ends that run past the end of the video
func (m *Module) clampToDuration(ctx context.Context, highlights []utils.Highlight, videoFile string) []utils.Highlight {
	if videoFile == "" {
		return highlights
	}

	info, err := media.Probe(ctx, videoFile)
	if err != nil {
		utils.LogWarning("Failed to probe video duration, skipping clamp: %v", err)
		return highlights
	}

	for i := range highlights {
		if highlights[i].End > info.Duration {
			highlights[i].End = info.Duration
		}
	}
	return highlights
}

// writeArtifact persists the highlights.yaml summary
func (m *Module) writeArtifact(path, videoFile string, highlights []utils.Highlight) error {
	data := &utils.HighlightsData{
		SourceVideo: videoFile,
	}
	for _, h := range highlights {
		data.Highlights = append(data.Highlights, utils.HighlightClip{
			Title:     utils.TitleFromContent(h.Content, 8),
			StartTime: utils.FormatTimestamp(h.Start),
			EndTime:   utils.FormatTimestamp(h.End),
			Content:   h.Content,
		})
	}
	return utils.WriteHighlightsFile(path, data)
}

// renderSummary prints the selected highlights as a table
func (m *Module) renderSummary(highlights []utils.Highlight) {
	if utils.CurrentLogLevel < utils.LevelNormal {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"#", "Start", "End", "Duration", "Content"})
	for i, h := range highlights {
		t.AppendRow(table.Row{
			i + 1,
			utils.FormatTimestamp(h.Start),
			utils.FormatTimestamp(h.End),
			fmt.Sprintf("%.1fs", h.Duration()),
			preview(h.Content, 60),
		})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
}

// saveHighlightsJSON writes the precise float timestamps for the cut step
func saveHighlightsJSON(path string, highlights []utils.Highlight) error {
	data, err := json.MarshalIndent(highlights, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal highlights: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write highlights file: %w", err)
	}
	return nil
}

// preview shortens a string for log output
func preview(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// GetIO returns the module's input/output specification
func (m *Module) GetIO() mod.ModuleIO {
	return mod.ModuleIO{
		RequiredInputs: []mod.ModuleInput{
			{
				Name:        "input",
				Description: "Path to the transcription JSON file",
				Patterns:    []string{".json"},
				Type:        string(mod.InputTypeFile),
			},
			{
				Name:        "output",
				Description: "Path to output directory",
				Type:        string(mod.InputTypeDirectory),
			},
		},
		OptionalInputs: []mod.ModuleInput{
			{
				Name:        "videoFile",
				Description: "Source video used to clamp timestamps",
				Patterns:    []string{".mp4", ".mov", ".mkv", ".webm", ".avi"},
				Type:        string(mod.InputTypeFile),
			},
			{
				Name:        "numHighlights",
				Description: "Number of highlights to request (default: 10)",
				Type:        string(mod.InputTypeData),
			},
			{
				Name:        "minLength",
				Description: "Minimum highlight length in seconds (default: 15)",
				Type:        string(mod.InputTypeData),
			},
			{
				Name:        "maxLength",
				Description: "Maximum highlight length in seconds (default: 40)",
				Type:        string(mod.InputTypeData),
			},
			{
				Name:        "model",
				Description: "Mistral model to use (default: open-mistral-nemo)",
				Type:        string(mod.InputTypeData),
			},
		},
		ProducedOutputs: []mod.ModuleOutput{
			{
				Name:        "highlights",
				Description: "Selected highlight segments with precise timestamps",
				Patterns:    []string{".json"},
				Type:        string(mod.OutputTypeFile),
			},
			{
				Name:        "summary",
				Description: "Human-readable highlights artifact",
				Patterns:    []string{".yaml"},
				Type:        string(mod.OutputTypeFile),
			},
		},
	}
}
