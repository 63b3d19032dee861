package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/radio-t/webradio/podcast"
)

//go:generate moq -out mocks/command_runner.go -pkg mocks -skip-ensure -fmt goimports . CommandRunner

// CommandRunner runs external audio tools
type CommandRunner interface {
	Run(ctx context.Context, stdout io.Writer, name string, args ...string) error
	LookPath(file string) (string, error)
}

// export defaults, OpenAI speech comes out at 24kHz
const (
	defaultSampleRate = 24000
	defaultBitrate    = "128k"
)

// FFmpegAudioProcessor encodes, plays and streams audio using ffmpeg
type FFmpegAudioProcessor struct {
	cmdRunner  CommandRunner
	tempDir    string
	sampleRate int
	bitrate    string
	goos       string
}

// NewFFmpegAudioProcessor creates a new FFmpeg audio processor
func NewFFmpegAudioProcessor() *FFmpegAudioProcessor {
	return NewFFmpegAudioProcessorWithRunner(&DefaultCommandRunner{})
}

// NewFFmpegAudioProcessorWithRunner creates a processor using the given command runner
func NewFFmpegAudioProcessorWithRunner(runner CommandRunner) *FFmpegAudioProcessor {
	if runner == nil {
		runner = &DefaultCommandRunner{}
	}
	return &FFmpegAudioProcessor{
		cmdRunner:  runner,
		sampleRate: defaultSampleRate,
		bitrate:    defaultBitrate,
		goos:       runtime.GOOS,
	}
}

// Encode renders the track into a single mp3 stream. Segments are written to a
// temporary directory, gaps are generated by ffmpeg, and everything is resampled
// to one format before concatenation.
func (p *FFmpegAudioProcessor) Encode(ctx context.Context, track *Track) ([]byte, error) {
	if track == nil || track.Segments() == 0 {
		return nil, errors.New("track has no segments")
	}

	tempDir, err := os.MkdirTemp(p.tempDir, "radio")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	args, err := p.encodeArgs(tempDir, track.Parts())
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := p.cmdRunner.Run(ctx, &out, "ffmpeg", args...); err != nil {
		return nil, fmt.Errorf("failed to encode track: %w", err)
	}
	if out.Len() == 0 {
		return nil, errors.New("ffmpeg produced no audio")
	}
	return out.Bytes(), nil
}

// encodeArgs writes segment files and builds the ffmpeg command line
func (p *FFmpegAudioProcessor) encodeArgs(dir string, parts []Part) ([]string, error) {
	args := []string{"-hide_banner", "-loglevel", "error"}

	var filter, labels strings.Builder
	for i, part := range parts {
		switch part.Kind {
		case KindSegment:
			file := filepath.Join(dir, fmt.Sprintf("segment_%03d.mp3", i))
			if err := os.WriteFile(file, part.Segment.Data, 0o600); err != nil {
				return nil, fmt.Errorf("failed to write segment %d: %w", i, err)
			}
			args = append(args, "-i", file)
		case KindSilence:
			args = append(args,
				"-f", "lavfi",
				"-t", fmt.Sprintf("%.3f", float64(part.SilenceMs)/1000),
				"-i", fmt.Sprintf("anullsrc=r=%d:cl=mono", p.sampleRate),
			)
		}
		fmt.Fprintf(&filter, "[%d:a]aresample=%d,aformat=sample_fmts=fltp:channel_layouts=mono[a%d];", i, p.sampleRate, i)
		fmt.Fprintf(&labels, "[a%d]", i)
	}
	filter.WriteString(labels.String())
	fmt.Fprintf(&filter, "concat=n=%d:v=0:a=1[out]", len(parts))

	args = append(args,
		"-filter_complex", filter.String(),
		"-map", "[out]",
		"-c:a", "libmp3lame",
		"-b:a", p.bitrate,
		"-f", "mp3",
		"pipe:1",
	)
	return args, nil
}

// Play plays an audio file using the system's default audio player
func (p *FFmpegAudioProcessor) Play(ctx context.Context, filename string) error {
	// check if file exists before attempting to play
	if _, err := os.Stat(filename); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("audio file does not exist: %s", filename)
		}
		return fmt.Errorf("failed to check audio file: %w", err)
	}

	name, args, err := audioCommand(p.goos, filename, p.cmdRunner.LookPath)
	if err != nil {
		return fmt.Errorf("failed to get audio command: %w", err)
	}

	if err := p.cmdRunner.Run(ctx, os.Stdout, name, args...); err != nil {
		return fmt.Errorf("error playing audio: %w", err)
	}
	return nil
}

// StreamToIcecast streams an mp3 file to an Icecast server
func (p *FFmpegAudioProcessor) StreamToIcecast(ctx context.Context, inputFile string, cfg podcast.IcecastConfig) error {
	if cfg.URL == "" {
		return errors.New("icecast url is required")
	}

	// construct Icecast URL with authentication
	u := url.URL{
		Scheme: "icecast",
		User:   url.UserPassword(cfg.User, cfg.Pass),
		Host:   cfg.URL,
		Path:   cfg.Mount,
	}

	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-re", // read input at native frame rate
		"-i", inputFile,
		"-c", "copy",
		"-content_type", "audio/mpeg",
		u.String(),
	}

	if err := p.cmdRunner.Run(ctx, os.Stdout, "ffmpeg", args...); err != nil {
		return fmt.Errorf("ffmpeg streaming failed: %w", err)
	}
	return nil
}

// audioCommand returns the player command for the given OS
func audioCommand(goos, filename string, lookPath func(string) (string, error)) (string, []string, error) {
	// validate filename to prevent potential security issues
	if strings.Contains(filename, "..") || strings.ContainsAny(filename, ";|&$`") {
		return "", nil, errors.New("invalid filename: potential security risk")
	}

	switch goos {
	case "darwin":
		return "afplay", []string{filename}, nil
	case "windows":
		return "cmd", []string{"/C", "start", filename}, nil
	case "linux":
		// try several common audio players
		for _, player := range []string{"mpv", "mplayer", "ffplay", "aplay"} {
			if _, err := lookPath(player); err != nil {
				continue
			}
			switch player {
			case "aplay":
				return player, []string{"-q", filename}, nil
			case "ffplay":
				return player, []string{"-nodisp", "-autoexit", "-loglevel", "quiet", filename}, nil
			default:
				return player, []string{"--really-quiet", filename}, nil
			}
		}
		return "", nil, errors.New("no suitable audio player found on your system")
	default:
		return "", nil, fmt.Errorf("unsupported operating system: %s", goos)
	}
}

// DefaultCommandRunner runs commands with os/exec
type DefaultCommandRunner struct{}

// Run executes the command, stdout goes to the given writer and stderr is
// attached to the returned error
func (r *DefaultCommandRunner) Run(ctx context.Context, stdout io.Writer, name string, args ...string) error {
	// #nosec G204 -- command and arguments are constructed internally
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stdout = stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// LookPath finds an executable in PATH
func (r *DefaultCommandRunner) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}
