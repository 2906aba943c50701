package player

import (
	"context"
	"encoding/binary"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/user/vmemplay/pkg/framequeue"
	"github.com/user/vmemplay/pkg/mocks"
	"github.com/user/vmemplay/pkg/ports"
)

const waitTimeout = 2 * time.Second

func newTestPlayer(t *testing.T, engine ports.MediaEngine) *Player {
	t.Helper()
	p, err := New(engine, Options{Width: 8, Height: 4, Capacity: 3})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func countCalls(engine *mocks.Engine, name string) int {
	n := 0
	for _, c := range engine.Calls() {
		if c == name {
			n++
		}
	}
	return n
}

func TestNew_ConfiguresEngine(t *testing.T) {
	engine := mocks.NewEngine(0)
	p := newTestPlayer(t, engine)

	want := ports.VideoFormat{Chroma: ports.ChromaRGBA, Width: 8, Height: 4, Pitch: 32}
	if got := engine.Format(); got != want {
		t.Errorf("engine format = %+v, want %+v", got, want)
	}

	if w, h, pitch := p.FrameSize(); w != 8 || h != 4 || pitch != 32 {
		t.Errorf("FrameSize() = %d, %d, %d", w, h, pitch)
	}
	if calls := engine.Calls(); !slices.Equal(calls, []string{"SetVideoFormat", "SetVideoCallbacks"}) {
		t.Errorf("unexpected calls %v", calls)
	}
}

func TestNew_Errors(t *testing.T) {
	if _, err := New(nil, Options{Width: 8, Height: 8}); err == nil {
		t.Error("expected error for nil engine")
	}

	_, err := New(mocks.NewEngine(0), Options{Width: 0, Height: 8})
	if !errors.Is(err, framequeue.ErrConstruction) {
		t.Errorf("expected ErrConstruction, got %v", err)
	}

	_, err = New(mocks.NewEngine(0), Options{Width: 8, Height: 8, Capacity: 2})
	if !errors.Is(err, framequeue.ErrCapacityTooSmall) {
		t.Errorf("expected ErrCapacityTooSmall, got %v", err)
	}

	formatErr := errors.New("unsupported chroma")
	engine := mocks.NewEngine(0)
	engine.SetVideoFormatFunc = func(ports.VideoFormat) error { return formatErr }
	if _, err := New(engine, Options{Width: 8, Height: 8}); !errors.Is(err, formatErr) {
		t.Errorf("expected format error, got %v", err)
	}
}

func TestPlay_RequiresMedia(t *testing.T) {
	p := newTestPlayer(t, mocks.NewEngine(0))

	if err := p.Play(""); !errors.Is(err, ErrNoMedia) {
		t.Errorf("expected ErrNoMedia, got %v", err)
	}
	if p.Session() != "" {
		t.Errorf("expected no session, got %q", p.Session())
	}
}

func TestPlay_DeliversFramesInOrder(t *testing.T) {
	engine := mocks.NewEngine(10)
	p := newTestPlayer(t, engine)

	if err := p.Play("test://clip"); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if engine.Media() != "test://clip" {
		t.Errorf("engine media = %q", engine.Media())
	}
	if p.Session() == "" {
		t.Error("expected a session id")
	}

	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	for want := uint64(0); want < 10; want++ {
		frame, err := p.WaitFrame(ctx)
		if err != nil {
			t.Fatalf("WaitFrame failed: %v", err)
		}
		if got := binary.LittleEndian.Uint64(frame); got != want {
			t.Errorf("frame %d stamped %d", want, got)
		}
		p.ReleaseFrame()
	}

	waitFor(t, "end of stream", func() bool { return p.State() == ports.StateEnded })
	if p.HasFrame() {
		t.Error("expected an empty queue")
	}
}

func TestPlay_ReusesLastMedia(t *testing.T) {
	engine := mocks.NewEngine(1)
	p := newTestPlayer(t, engine)

	if err := p.Play("test://a"); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	first := p.Session()
	if err := p.Play(""); err != nil {
		t.Fatalf("replay failed: %v", err)
	}

	if p.Media() != "test://a" {
		t.Errorf("media = %q", p.Media())
	}
	if p.Session() == first {
		t.Error("each play cycle should get a new session")
	}
	if n := countCalls(engine, "SetMedia"); n != 1 {
		t.Errorf("expected one SetMedia, got %d", n)
	}
}

func TestPlay_ResetsQueue(t *testing.T) {
	engine := mocks.NewEngine(3)
	p := newTestPlayer(t, engine)

	if err := p.Play("test://a"); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	waitFor(t, "a full queue", func() bool { return p.Pending() == 3 })

	if err := p.Play(""); err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if resets := p.Snapshot().Resets; resets != 2 {
		t.Errorf("expected 2 resets, got %d", resets)
	}

	frame, ok := waitAcquire(t, p)
	if !ok {
		t.Fatal("no frame after restart")
	}
	if got := binary.LittleEndian.Uint64(frame); got != 0 {
		t.Errorf("restart should begin from the first frame, got %d", got)
	}
	p.ReleaseFrame()
}

func waitAcquire(t *testing.T, p *Player) ([]byte, bool) {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for time.Now().Before(deadline) {
		if frame, ok := p.AcquireFrame(); ok {
			return frame, true
		}
		time.Sleep(time.Millisecond)
	}
	return nil, false
}

func TestStop_UnblocksFullQueue(t *testing.T) {
	engine := mocks.NewEngine(0)
	p := newTestPlayer(t, engine)

	if err := p.Play("test://endless"); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	waitFor(t, "a full queue", func() bool { return p.Pending() == 3 })

	done := make(chan error, 1)
	go func() { done <- p.Stop() }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Stop failed: %v", err)
		}
	case <-time.After(waitTimeout):
		t.Fatal("Stop did not return while the producer was blocked")
	}
	if p.State() != ports.StateStopped {
		t.Errorf("expected Stopped, got %s", p.State())
	}
}

func TestStop_UnblocksWaitingConsumer(t *testing.T) {
	p := newTestPlayer(t, mocks.NewEngine(0))

	errCh := make(chan error, 1)
	go func() {
		_, err := p.WaitFrame(context.Background())
		errCh <- err
	}()
	time.Sleep(20 * time.Millisecond)

	if err := p.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, framequeue.ErrStopped) {
			t.Errorf("expected ErrStopped, got %v", err)
		}
	case <-time.After(waitTimeout):
		t.Fatal("consumer did not unblock")
	}
}

func TestFrames_AcquireReleaseProtocol(t *testing.T) {
	engine := mocks.NewEngine(2)
	p := newTestPlayer(t, engine)

	// Releasing with nothing held is a no-op.
	p.ReleaseFrame()

	if err := p.Play("test://a"); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	waitFor(t, "two frames", func() bool { return p.Pending() == 2 })
	if !p.HasFrame() {
		t.Error("expected HasFrame")
	}

	first, ok := p.AcquireFrame()
	if !ok {
		t.Fatal("expected a frame")
	}
	again, ok := p.AcquireFrame()
	if !ok {
		t.Fatal("expected the held frame")
	}
	if &first[0] != &again[0] {
		t.Error("second acquire should return the held frame")
	}

	p.ReleaseFrame()
	p.ReleaseFrame()

	second, ok := p.AcquireFrame()
	if !ok {
		t.Fatal("expected the second frame")
	}
	if got := binary.LittleEndian.Uint64(second); got != 1 {
		t.Errorf("expected frame 1, got %d", got)
	}
	p.ReleaseFrame()

	if _, ok := p.AcquireFrame(); ok {
		t.Error("expected an empty queue")
	}
}

func TestQueries_NotSupported(t *testing.T) {
	p := newTestPlayer(t, mocks.NewEngine(0))

	if _, err := p.Length(); !errors.Is(err, ErrNotSupported) {
		t.Errorf("Length: expected ErrNotSupported, got %v", err)
	}
	if err := p.SetTime(time.Second); !errors.Is(err, ErrNotSupported) {
		t.Errorf("SetTime: expected ErrNotSupported, got %v", err)
	}
	if err := p.Seek(time.Second); !errors.Is(err, ErrNotSupported) {
		t.Errorf("Seek: expected ErrNotSupported, got %v", err)
	}
	if _, err := p.Meta("Title"); !errors.Is(err, ErrNotSupported) {
		t.Errorf("Meta: expected ErrNotSupported, got %v", err)
	}
	if p.IsSeekable() {
		t.Error("expected not seekable")
	}
	if !p.CanPause() {
		t.Error("engines without a controller can pause")
	}
}

func TestQueries_Controller(t *testing.T) {
	engine := mocks.NewControlEngine(0, 10*time.Second)
	engine.MetaValues[ports.MetaTitle] = "Color Bars"
	p := newTestPlayer(t, engine)

	length, err := p.Length()
	if err != nil || length != 10*time.Second {
		t.Errorf("Length() = %s, %v", length, err)
	}

	if err := p.SetPosition(0.5); err != nil {
		t.Fatalf("SetPosition failed: %v", err)
	}
	if now, err := p.Time(); err != nil || now != 5*time.Second {
		t.Errorf("Time() = %s, %v", now, err)
	}

	if err := p.Seek(-20 * time.Second); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	if now, _ := p.Time(); now != 0 {
		t.Errorf("seek should clamp at zero, got %s", now)
	}

	if err := p.Seek(30 * time.Second); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	if pos, _ := p.Position(); pos < 1-1e-9 || pos > 1+1e-9 {
		t.Errorf("expected position 1, got %f", pos)
	}

	if fps, err := p.FPS(); err != nil || fps != 25 {
		t.Errorf("FPS() = %f, %v", fps, err)
	}

	if title, err := p.Meta("title"); err != nil || title != "Color Bars" {
		t.Errorf("Meta(title) = %q, %v", title, err)
	}
	if _, err := p.Meta("nonsense"); !errors.Is(err, ports.ErrInvalidMetaKey) {
		t.Errorf("expected ErrInvalidMetaKey, got %v", err)
	}
}

func TestSeek_SerialisedWithStop(t *testing.T) {
	engine := mocks.NewControlEngine(0, 10*time.Second)
	entered := make(chan struct{})
	release := make(chan struct{})
	engine.SetTimeFunc = func(time.Duration) error {
		close(entered)
		<-release
		return nil
	}
	p := newTestPlayer(t, engine)

	if err := p.Play("test://a"); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	stops := countCalls(engine.Engine, "Stop")

	seekDone := make(chan error, 1)
	go func() { seekDone <- p.SetTime(2 * time.Second) }()
	<-entered

	stopDone := make(chan error, 1)
	go func() { stopDone <- p.Stop() }()

	time.Sleep(20 * time.Millisecond)
	if n := countCalls(engine.Engine, "Stop"); n != stops {
		t.Fatal("engine Stop ran while a seek was in progress")
	}

	close(release)
	for _, ch := range []chan error{seekDone, stopDone} {
		select {
		case err := <-ch:
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		case <-time.After(waitTimeout):
			t.Fatal("control call did not return")
		}
	}
	if n := countCalls(engine.Engine, "Stop"); n != stops+1 {
		t.Errorf("expected one more engine Stop, got %d", n-stops)
	}
}

func TestSeek_AfterClose(t *testing.T) {
	engine := mocks.NewControlEngine(0, 10*time.Second)
	p := newTestPlayer(t, engine)

	if err := p.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := p.SetTime(time.Second); !errors.Is(err, ErrClosed) {
		t.Errorf("SetTime: expected ErrClosed, got %v", err)
	}
	if err := p.Seek(time.Second); !errors.Is(err, ErrClosed) {
		t.Errorf("Seek: expected ErrClosed, got %v", err)
	}
	if err := p.SetPosition(0.5); !errors.Is(err, ErrClosed) {
		t.Errorf("SetPosition: expected ErrClosed, got %v", err)
	}
	if n := countCalls(engine.Engine, "SetTime"); n != 0 {
		t.Errorf("closed player reached the engine %d times", n)
	}
}

func TestPause_Toggles(t *testing.T) {
	engine := mocks.NewEngine(0)
	engine.Interval = time.Millisecond
	p := newTestPlayer(t, engine)

	if err := p.Play("test://a"); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if err := p.Pause(); err != nil || p.State() != ports.StatePaused {
		t.Errorf("after first Pause: %s, %v", p.State(), err)
	}
	if err := p.Pause(); err != nil || p.State() != ports.StatePlaying {
		t.Errorf("after second Pause: %s, %v", p.State(), err)
	}
}

func TestClose(t *testing.T) {
	engine := mocks.NewEngine(0)
	p, err := New(engine, Options{Width: 8, Height: 4})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := p.Play("test://a"); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	waitFor(t, "a frame", func() bool { return p.Pending() > 0 })
	if _, ok := p.AcquireFrame(); !ok {
		t.Fatal("expected a frame")
	}

	if err := p.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}

	if err := p.Play("test://a"); !errors.Is(err, ErrClosed) {
		t.Errorf("Play: expected ErrClosed, got %v", err)
	}
	if err := p.Stop(); !errors.Is(err, ErrClosed) {
		t.Errorf("Stop: expected ErrClosed, got %v", err)
	}
	if countCalls(engine, "Close") != 1 {
		t.Errorf("expected engine Close, calls %v", engine.Calls())
	}
}
