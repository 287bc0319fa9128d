package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"slidekiosk/internal/logging"
	"slidekiosk/internal/metrics"
)

// defaultTimeout bounds a single ffprobe invocation when the caller's
// context carries no deadline of its own.
const defaultTimeout = 30 * time.Second

var (
	// ErrToolUnavailable indicates the ffprobe binary could not be executed.
	ErrToolUnavailable = errors.New("probe tool unavailable")
	// ErrNotWebPlayable indicates a video fails the browser codec requirements.
	ErrNotWebPlayable = errors.New("video is not web playable")
	// ErrNoDuration indicates the container reported no usable duration.
	ErrNoDuration = errors.New("no duration in probe output")
)

// webVideoCodecs are video codecs browsers decode natively.
var webVideoCodecs = map[string]bool{
	"h264": true,
	"vp8":  true,
	"vp9":  true,
	"av1":  true,
}

// webAudioCodecs are audio codecs browsers decode natively.
var webAudioCodecs = map[string]bool{
	"aac":    true,
	"mp3":    true,
	"opus":   true,
	"vorbis": true,
}

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index     int    `json:"index"`
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Channels  int    `json:"channels"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
}

// Probe executes ffprobe against the provided path and decodes the JSON output.
func Probe(ctx context.Context, path string) (*Result, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTimeout)
		defer cancel()
	}

	start := time.Now()

	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	recordInvocation("ffprobe", start, err)
	if err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return nil, fmt.Errorf("%w: %v", ErrToolUnavailable, err)
		}
		return nil, fmt.Errorf("ffprobe %s: %w - %s", path, err, strings.TrimSpace(stderr.String()))
	}

	var result Result
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		return nil, fmt.Errorf("ffprobe output for %s: %w", path, err)
	}

	return &result, nil
}

// ProbeDuration returns the container duration of path in seconds.
func ProbeDuration(ctx context.Context, path string) (float64, error) {
	result, err := Probe(ctx, path)
	if err != nil {
		return 0, err
	}
	return result.DurationSeconds()
}

// ValidateWebPlayable probes path and checks its streams against the
// browser codec allow-lists. A nil return means the file can play in a
// browser without transcoding.
func ValidateWebPlayable(ctx context.Context, path string) error {
	result, err := Probe(ctx, path)
	if err != nil {
		return err
	}

	if err := result.webPlayable(); err != nil {
		logging.Debug("Rejecting %s: %v", path, err)
		return err
	}
	return nil
}

// FirstStream returns the first stream of the given codec type, or nil.
func (r *Result) FirstStream(codecType string) *Stream {
	for i := range r.Streams {
		if strings.EqualFold(r.Streams[i].CodecType, codecType) {
			return &r.Streams[i]
		}
	}
	return nil
}

// DurationSeconds parses the container duration reported by ffprobe.
func (r *Result) DurationSeconds() (float64, error) {
	raw := strings.TrimSpace(r.Format.Duration)
	if raw == "" {
		return 0, ErrNoDuration
	}
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNoDuration, raw)
	}
	return seconds, nil
}

// webPlayable checks the first video and first audio stream against the
// allow-lists. Only the first stream of each type is consulted.
func (r *Result) webPlayable() error {
	video := r.FirstStream("video")
	if video == nil {
		return fmt.Errorf("%w: no video stream", ErrNotWebPlayable)
	}
	if !webVideoCodecs[strings.ToLower(video.CodecName)] {
		return fmt.Errorf("%w: video codec %q", ErrNotWebPlayable, video.CodecName)
	}

	// Audio is optional; when present its codec must also be playable.
	if audio := r.FirstStream("audio"); audio != nil {
		if !webAudioCodecs[strings.ToLower(audio.CodecName)] {
			return fmt.Errorf("%w: audio codec %q", ErrNotWebPlayable, audio.CodecName)
		}
	}

	return nil
}

func recordInvocation(tool string, start time.Time, err error) {
	duration := time.Since(start).Seconds()

	status := "success"
	if err != nil {
		status = "error"
	}

	metrics.ToolInvocationsTotal.WithLabelValues(tool, status).Inc()
	metrics.ToolInvocationDuration.WithLabelValues(tool).Observe(duration)
}
