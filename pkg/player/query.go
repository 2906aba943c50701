package player

import (
	"time"

	"github.com/user/vmemplay/pkg/ports"
)

func (p *Player) controller() (ports.MediaController, error) {
	c, ok := p.engine.(ports.MediaController)
	if !ok {
		return nil, ErrNotSupported
	}
	return c, nil
}

// Length returns the media duration.
func (p *Player) Length() (time.Duration, error) {
	c, err := p.controller()
	if err != nil {
		return 0, err
	}
	return c.Length(), nil
}

// Time returns the current playback time.
func (p *Player) Time() (time.Duration, error) {
	c, err := p.controller()
	if err != nil {
		return 0, err
	}
	return c.Time(), nil
}

// SetTime seeks to t. Like the other control calls it is serialised with
// Play and Stop.
func (p *Player) SetTime(t time.Duration) error {
	p.ctrl.Lock()
	defer p.ctrl.Unlock()

	c, err := p.seekable()
	if err != nil {
		return err
	}
	return c.SetTime(t)
}

// seekable returns the engine controller when the player is open and the
// media can seek. Callers hold p.ctrl.
func (p *Player) seekable() (ports.MediaController, error) {
	if p.closed {
		return nil, ErrClosed
	}
	c, err := p.controller()
	if err != nil {
		return nil, err
	}
	if !c.IsSeekable() {
		return nil, ErrNotSupported
	}
	return c, nil
}

// Seek moves the playback time by delta, clamped to the media bounds.
func (p *Player) Seek(delta time.Duration) error {
	p.ctrl.Lock()
	defer p.ctrl.Unlock()

	c, err := p.seekable()
	if err != nil {
		return err
	}
	t := c.Time() + delta
	if t < 0 {
		t = 0
	}
	if l := c.Length(); l > 0 && t > l {
		t = l
	}
	return c.SetTime(t)
}

// Position returns the playback position in [0, 1].
func (p *Player) Position() (float64, error) {
	c, err := p.controller()
	if err != nil {
		return 0, err
	}
	return c.Position(), nil
}

// SetPosition seeks to a position in [0, 1].
func (p *Player) SetPosition(pos float64) error {
	p.ctrl.Lock()
	defer p.ctrl.Unlock()

	c, err := p.seekable()
	if err != nil {
		return err
	}
	return c.SetPosition(pos)
}

// FPS returns the media frame rate.
func (p *Player) FPS() (float64, error) {
	c, err := p.controller()
	if err != nil {
		return 0, err
	}
	return c.FPS(), nil
}

// IsSeekable reports whether the media supports seeking.
func (p *Player) IsSeekable() bool {
	c, err := p.controller()
	return err == nil && c.IsSeekable()
}

// CanPause reports whether the media supports pausing.
func (p *Player) CanPause() bool {
	c, err := p.controller()
	if err != nil {
		return true
	}
	return c.CanPause()
}

// Meta returns a metadata field by name ("Title", "artist", ...).
func (p *Player) Meta(name string) (string, error) {
	key, err := ports.ParseMetaKey(name)
	if err != nil {
		return "", err
	}
	r, ok := p.engine.(ports.MetadataReader)
	if !ok {
		return "", ErrNotSupported
	}
	return r.Meta(key)
}
