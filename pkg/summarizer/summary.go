// Package summarizer provides summary generation for playback sessions.
package summarizer

import "time"

// Summary contains all data collected during a playback session.
type Summary struct {
	// Metadata
	GeneratedAt time.Time `yaml:"generated_at"`

	Media    MediaInfo    `yaml:"media"`
	Session  SessionInfo  `yaml:"session"`
	Queue    QueueInfo    `yaml:"queue"`
	Playback PlaybackInfo `yaml:"playback"`
	Output   OutputInfo   `yaml:"output"`
}

// MediaInfo describes what was played.
type MediaInfo struct {
	Title  string        `yaml:"title,omitempty"`
	URL    string        `yaml:"url"`
	Engine string        `yaml:"engine"`
	Length time.Duration `yaml:"length,omitempty"`
	FPS    float64       `yaml:"fps,omitempty"`
	Width  int           `yaml:"width"`
	Height int           `yaml:"height"`
}

// SessionInfo describes how the session ran and ended.
type SessionInfo struct {
	ID         string        `yaml:"id"`
	EndReason  string        `yaml:"end_reason"`
	FinalState string        `yaml:"final_state"`
	Elapsed    time.Duration `yaml:"elapsed"`
}

// QueueInfo contains the frame queue configuration and counters.
type QueueInfo struct {
	Capacity   int    `yaml:"capacity"`
	FrameBytes int    `yaml:"frame_bytes"`
	Allocator  string `yaml:"allocator"`
	Published  uint64 `yaml:"published"`
	Consumed   uint64 `yaml:"consumed"`
	Resets     uint64 `yaml:"resets"`
}

// PlaybackInfo contains display loop counters.
type PlaybackInfo struct {
	Mode       string `yaml:"mode"`
	Frames     int    `yaml:"frames"`
	EmptyTicks int    `yaml:"empty_ticks"`
	SinkErrors int    `yaml:"sink_errors"`
}

// OutputInfo describes where frames went.
type OutputInfo struct {
	Sink  string   `yaml:"sink"`
	Path  string   `yaml:"path,omitempty"`
	Files []string `yaml:"files,omitempty"`
}

// DisplayFPS returns frames displayed per second of session time.
func (s *Summary) DisplayFPS() float64 {
	if s.Session.Elapsed <= 0 {
		return 0
	}
	return float64(s.Playback.Frames) / s.Session.Elapsed.Seconds()
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithMedia sets media information.
func (b *Builder) WithMedia(media MediaInfo) *Builder {
	b.summary.Media = media
	return b
}

// WithSession sets session information.
func (b *Builder) WithSession(id, reason, finalState string, elapsed time.Duration) *Builder {
	b.summary.Session = SessionInfo{
		ID:         id,
		EndReason:  reason,
		FinalState: finalState,
		Elapsed:    elapsed,
	}
	return b
}

// WithQueue sets frame queue information.
func (b *Builder) WithQueue(queue QueueInfo) *Builder {
	b.summary.Queue = queue
	return b
}

// WithPlayback sets display loop counters.
func (b *Builder) WithPlayback(playback PlaybackInfo) *Builder {
	b.summary.Playback = playback
	return b
}

// WithOutput sets output information.
func (b *Builder) WithOutput(output OutputInfo) *Builder {
	b.summary.Output = output
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
