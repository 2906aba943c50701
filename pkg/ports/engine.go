// Package ports defines interfaces for external dependencies.
package ports

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ChromaRGBA is the only pixel layout the frame queue is sized for.
const ChromaRGBA = "RGBA"

var (
	// ErrPitchMismatch is returned when a format's pitch is not width*bpp.
	ErrPitchMismatch = errors.New("ports: pitch does not match width")
	// ErrUnsupportedChroma is returned for a chroma other than ChromaRGBA.
	ErrUnsupportedChroma = errors.New("ports: unsupported chroma")
	// ErrInvalidMetaKey is returned by ParseMetaKey for unknown names.
	ErrInvalidMetaKey = errors.New("ports: invalid meta description")
)

// VideoCallbacks are invoked by the engine's decoder goroutine.
//
// For every frame the engine calls Lock to obtain the buffer to decode
// into, fills it, and then calls Unlock exactly once. Lock and Unlock
// strictly alternate. Display is optional and called after Unlock.
type VideoCallbacks struct {
	Lock    func() []byte
	Unlock  func()
	Display func()
}

// VideoFormat describes the raw frames the engine must deliver.
type VideoFormat struct {
	Chroma string
	Width  int
	Height int
	Pitch  int // Bytes per row
}

// BytesPerPixel returns the pixel size for the format's chroma.
func (f VideoFormat) BytesPerPixel() int {
	if f.Chroma == ChromaRGBA {
		return 4
	}
	return 0
}

// FrameSize returns the number of bytes in one frame.
func (f VideoFormat) FrameSize() int {
	return f.Pitch * f.Height
}

// Validate checks the format is one the frame queue can hold.
func (f VideoFormat) Validate() error {
	if f.Chroma != ChromaRGBA {
		return fmt.Errorf("%w: %q", ErrUnsupportedChroma, f.Chroma)
	}
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d", f.Width, f.Height)
	}
	if f.Pitch != f.Width*f.BytesPerPixel() {
		return fmt.Errorf("%w: pitch %d, width %d", ErrPitchMismatch, f.Pitch, f.Width)
	}
	return nil
}

// State is the playback state reported by an engine.
type State int

const (
	StateOpening State = iota
	StateBuffering
	StatePlaying
	StatePaused
	StateStopped
	StateEnded
	StateError
)

// String returns the display name of the state.
func (s State) String() string {
	switch s {
	case StateOpening:
		return "Opening"
	case StateBuffering:
		return "Buffering"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	case StateStopped:
		return "Stopped"
	case StateEnded:
		return "Ended"
	case StateError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Active reports whether the decoder may still deliver frames.
func (s State) Active() bool {
	return s == StateOpening || s == StateBuffering || s == StatePlaying || s == StatePaused
}

// MediaEngine abstracts the external decoder that pushes frames through
// VideoCallbacks.
type MediaEngine interface {
	// SetVideoFormat configures the raw output format. Must be called before Play.
	SetVideoFormat(format VideoFormat) error

	// SetVideoCallbacks installs the per-frame callbacks. Must be called before Play.
	SetVideoCallbacks(cb VideoCallbacks)

	// SetMedia selects the media to play on the next Play.
	SetMedia(url string) error

	// Play starts the decoder goroutine.
	Play() error

	// Pause toggles between playing and paused.
	Pause() error

	// Stop halts decoding and returns once the decoder goroutine has exited.
	Stop() error

	// State returns the current playback state.
	State() State

	// Close releases engine resources.
	Close() error
}

// MediaController is implemented by engines that support timeline queries.
// Times are in media time, positions in the range [0, 1].
type MediaController interface {
	Length() time.Duration
	Time() time.Duration
	SetTime(t time.Duration) error
	Position() float64
	SetPosition(pos float64) error
	FPS() float64
	IsSeekable() bool
	CanPause() bool
}

// MetadataReader is implemented by engines that expose media metadata.
type MetadataReader interface {
	Meta(key MetaKey) (string, error)
}

// MetaKey identifies a metadata field.
type MetaKey int

const (
	MetaTitle MetaKey = iota
	MetaArtist
	MetaGenre
	MetaCopyright
	MetaAlbum
	MetaTrackNumber
	MetaDescription
	MetaRating
	MetaDate
	MetaSetting
	MetaURL
	MetaLanguage
	MetaNowPlaying
	MetaPublisher
	MetaEncodedBy
	MetaArtworkURL
	MetaTrackID
)

var metaKeyNames = []string{
	"Title",
	"Artist",
	"Genre",
	"Copyright",
	"Album",
	"TrackNumber",
	"Description",
	"Rating",
	"Date",
	"Setting",
	"URL",
	"Language",
	"NowPlaying",
	"Publisher",
	"EncodedBy",
	"ArtworkURL",
	"TrackID",
}

// String returns the canonical name of the key.
func (k MetaKey) String() string {
	if k < 0 || int(k) >= len(metaKeyNames) {
		return "Unknown"
	}
	return metaKeyNames[k]
}

// ParseMetaKey resolves a metadata name, ignoring case.
func ParseMetaKey(s string) (MetaKey, error) {
	for i, name := range metaKeyNames {
		if strings.EqualFold(name, s) {
			return MetaKey(i), nil
		}
	}
	return 0, fmt.Errorf("%w `%s'", ErrInvalidMetaKey, s)
}

// MetaKeys returns every known key in declaration order.
func MetaKeys() []MetaKey {
	keys := make([]MetaKey, len(metaKeyNames))
	for i := range keys {
		keys[i] = MetaKey(i)
	}
	return keys
}
