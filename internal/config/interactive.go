package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
)

// IsInteractive reports whether stdin is attached to a terminal
func IsInteractive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

// Prompter reads configuration values interactively
type Prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewPrompter creates a prompter reading from r and writing prompts to w
func NewPrompter(r io.Reader, w io.Writer) *Prompter {
	return &Prompter{
		in:  bufio.NewScanner(r),
		out: w,
	}
}

// InteractiveConfig collects a full processing configuration from the user,
// showing the default for every value
func (p *Prompter) InteractiveConfig() (*ProcessingConfig, error) {
	fmt.Fprintln(p.out, "\nPlease provide processing configuration:")
	fmt.Fprintln(p.out, "(Press Enter to use default values)")
	fmt.Fprintln(p.out)

	cfg := NewProcessingConfig()

	var err error
	if cfg.DownloadVideo, err = p.YesNo("Download video from URL?", false); err != nil {
		return nil, err
	}

	if cfg.DownloadVideo {
		if cfg.URL, err = p.Text("Video link"); err != nil {
			return nil, err
		}
	} else {
		name, err := p.Text("Video name with extension")
		if err != nil {
			return nil, err
		}
		// A bare file name refers to the videos directory
		if !strings.ContainsAny(name, `/\`) {
			name = filepath.Join(cfg.VideosDir, name)
		}
		cfg.Input = name
	}

	if cfg.Language, err = p.LanguageCode("Transcription language (ISO code)", DefaultLanguage); err != nil {
		return nil, err
	}
	if cfg.NumHighlights, err = p.Int("Number of highlights", DefaultNumHighlights, 1, 100); err != nil {
		return nil, err
	}
	if cfg.MinLength, err = p.Int("Minimum highlight length (seconds)", DefaultMinLength, 1, 0); err != nil {
		return nil, err
	}
	if cfg.MaxLength, err = p.Int("Maximum highlight length (seconds)", DefaultMaxLength, 1, 0); err != nil {
		return nil, err
	}

	if cfg.AddSubtitles, err = p.YesNo("Add subtitles to output videos?", false); err != nil {
		return nil, err
	}
	if cfg.AddSubtitles {
		if cfg.SubtitlesLanguage, err = p.LanguageCode("Subtitles language (ISO code)", DefaultLanguage); err != nil {
			return nil, err
		}
		if cfg.SubtitlePosition, err = p.Position("Subtitle position", DefaultPosition); err != nil {
			return nil, err
		}
	}

	if cfg.UseAdditionalVideo, err = p.YesNo("Use additional video overlay?", true); err != nil {
		return nil, err
	}

	return cfg, nil
}

// read returns the next trimmed input line
func (p *Prompter) read() (string, error) {
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(p.in.Text()), nil
}

// YesNo prompts for a yes/no answer with a default
func (p *Prompter) YesNo(prompt string, def bool) (bool, error) {
	defStr := "y/N"
	if def {
		defStr = "Y/n"
	}
	for {
		fmt.Fprintf(p.out, "%s [%s]: ", prompt, defStr)
		response, err := p.read()
		if err != nil {
			return false, err
		}
		switch strings.ToLower(response) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(p.out, "Please enter 'y' or 'n'")
	}
}

// Int prompts for an integer with optional bounds; max of 0 means unbounded
func (p *Prompter) Int(prompt string, def, min, max int) (int, error) {
	for {
		fmt.Fprintf(p.out, "%s [%d]: ", prompt, def)
		response, err := p.read()
		if err != nil {
			return 0, err
		}
		if response == "" {
			return def, nil
		}
		value, err := strconv.Atoi(response)
		if err != nil {
			fmt.Fprintln(p.out, "Please enter a valid number")
			continue
		}
		if value < min {
			fmt.Fprintf(p.out, "Value must be at least %d\n", min)
			continue
		}
		if max > 0 && value > max {
			fmt.Fprintf(p.out, "Value must be at most %d\n", max)
			continue
		}
		return value, nil
	}
}

// LanguageCode prompts for a 2-letter ISO language code
func (p *Prompter) LanguageCode(prompt, def string) (string, error) {
	for {
		fmt.Fprintf(p.out, "%s [%s]: ", prompt, def)
		response, err := p.read()
		if err != nil {
			return "", err
		}
		response = strings.ToLower(response)
		if response == "" {
			return def, nil
		}
		if len(response) == 2 && validateLanguageTag(response) == nil {
			return response, nil
		}
		fmt.Fprintln(p.out, "Please enter a valid 2-letter language code (e.g., 'en', 'ru')")
	}
}

// Position prompts for a subtitle position choice
func (p *Prompter) Position(prompt, def string) (string, error) {
	valid := []string{PositionBottom, PositionCenter, PositionTop}
	for {
		fmt.Fprintf(p.out, "%s (%s) [%s]: ", prompt, strings.Join(valid, "/"), def)
		response, err := p.read()
		if err != nil {
			return "", err
		}
		response = strings.ToLower(response)
		if response == "" {
			return def, nil
		}
		for _, v := range valid {
			if response == v {
				return response, nil
			}
		}
		fmt.Fprintf(p.out, "Please enter one of: %s\n", strings.Join(valid, ", "))
	}
}

// Text prompts for a non-empty free-form value
func (p *Prompter) Text(prompt string) (string, error) {
	for {
		fmt.Fprintf(p.out, "%s: ", prompt)
		response, err := p.read()
		if err != nil {
			return "", err
		}
		if response != "" {
			return response, nil
		}
		fmt.Fprintln(p.out, "A value is required")
	}
}
