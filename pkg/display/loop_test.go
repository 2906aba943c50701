package display

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/user/vmemplay/pkg/mocks"
	"github.com/user/vmemplay/pkg/player"
	"github.com/user/vmemplay/pkg/ports"
)

func newPlayer(t *testing.T, engine *mocks.Engine) *player.Player {
	t.Helper()
	p, err := player.New(engine, player.Options{Width: 8, Height: 4, Capacity: 3})
	if err != nil {
		t.Fatalf("player.New failed: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func mustPlay(t *testing.T, p *player.Player, media string) {
	t.Helper()
	if err := p.Play(media); err != nil {
		t.Fatalf("Play(%q) failed: %v", media, err)
	}
}

func runAsync(ctx context.Context, l *Loop) <-chan error {
	done := make(chan error, 1)
	go func() {
		_, err := l.Run(ctx)
		done <- err
	}()
	return done
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{in: "POLL", want: ModePoll},
		{in: "", want: ModeWait},
		{in: "wait", want: ModeWait},
		{in: "vsync", wantErr: true},
	}
	for _, tt := range tests {
		m, err := ParseMode(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseMode(%q) should fail", tt.in)
			}
			continue
		}
		if err != nil || m != tt.want {
			t.Errorf("ParseMode(%q) = %v, %v; want %v", tt.in, m, err, tt.want)
		}
	}

	if ModeWait.String() != "wait" {
		t.Errorf("ModeWait.String() = %q", ModeWait.String())
	}
}

func TestLoop_WaitModeMaxFrames(t *testing.T) {
	p := newPlayer(t, mocks.NewEngine(0))
	sink := mocks.NewFrameSink()
	mustPlay(t, p, "test://endless")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	l := New(p, sink, Options{Mode: ModeWait, MaxFrames: 5})
	stats, err := l.Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if stats.Frames != 5 || l.Frames() != 5 {
		t.Errorf("expected 5 frames, got stats %d, counter %d", stats.Frames, l.Frames())
	}
	if stats.LastSeq != 4 {
		t.Errorf("LastSeq = %d, want 4", stats.LastSeq)
	}
	want := []uint64{0, 1, 2, 3, 4}
	if got := sink.Stamps(); !slices.Equal(got, want) {
		t.Errorf("stamps = %v, want %v", got, want)
	}
	if got := sink.Seqs(); !slices.Equal(got, want) {
		t.Errorf("seqs = %v, want %v", got, want)
	}
}

func TestLoop_WaitModeEndsOnStop(t *testing.T) {
	p := newPlayer(t, mocks.NewEngine(0))
	sink := mocks.NewFrameSink()
	mustPlay(t, p, "test://endless")

	l := New(p, sink, Options{Mode: ModeWait})
	done := runAsync(context.Background(), l)

	deadline := time.Now().Add(5 * time.Second)
	for l.Frames() < 3 {
		if time.Now().After(deadline) {
			t.Fatal("loop did not show 3 frames")
		}
		time.Sleep(time.Millisecond)
	}
	if err := p.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v after stop", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not return after stop")
	}
}

func TestLoop_WaitModeCancel(t *testing.T) {
	p := newPlayer(t, mocks.NewEngine(0))

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(ctx, New(p, mocks.NewFrameSink(), Options{}))

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v after cancel", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not return after cancel")
	}
}

func TestLoop_PollMode(t *testing.T) {
	p := newPlayer(t, mocks.NewEngine(4))
	sink := mocks.NewFrameSink()

	l := New(p, sink, Options{Mode: ModePoll, Interval: time.Millisecond, MaxFrames: 4})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan Stats, 1)
	go func() {
		stats, _ := l.Run(ctx)
		done <- stats
	}()

	// Ticks before Play find the queue empty.
	time.Sleep(10 * time.Millisecond)
	mustPlay(t, p, "test://four")

	stats := <-done
	if stats.Frames != 4 {
		t.Errorf("expected 4 frames, got %d", stats.Frames)
	}
	if stats.EmptyTicks <= 0 {
		t.Errorf("expected empty ticks before play, got %d", stats.EmptyTicks)
	}
	if got, want := sink.Stamps(), []uint64{0, 1, 2, 3}; !slices.Equal(got, want) {
		t.Errorf("stamps = %v, want %v", got, want)
	}
}

func TestLoop_SinkErrorAborts(t *testing.T) {
	p := newPlayer(t, mocks.NewEngine(0))
	sink := mocks.NewFrameSink()
	errRejected := errors.New("rejected")
	calls := 0
	sink.WriteFrameFunc = func(f ports.Frame) error {
		calls++
		if calls == 3 {
			return errRejected
		}
		return nil
	}
	mustPlay(t, p, "test://endless")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stats, err := New(p, sink, Options{}).Run(ctx)
	if !errors.Is(err, errRejected) {
		t.Fatalf("expected the sink error, got %v", err)
	}
	if stats.Frames != 2 || stats.Errors != 1 {
		t.Errorf("expected 2 frames and 1 error, got %d and %d", stats.Frames, stats.Errors)
	}

	// The rejected frame was released, so the queue lock is free.
	snap := make(chan struct{})
	go func() {
		p.Snapshot()
		close(snap)
	}()
	select {
	case <-snap:
	case <-time.After(5 * time.Second):
		t.Fatal("queue still locked after sink error")
	}
}

func TestLoop_SinkErrorsTolerated(t *testing.T) {
	p := newPlayer(t, mocks.NewEngine(0))
	sink := mocks.NewFrameSink()
	failed := 0
	sink.WriteFrameFunc = func(f ports.Frame) error {
		if f.Seq%2 == 1 {
			failed++
			return errors.New("odd frame")
		}
		return nil
	}
	mustPlay(t, p, "test://endless")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stats, err := New(p, sink, Options{MaxFrames: 3, MaxErrors: 5}).Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if stats.Frames != 3 || stats.Errors != 2 || failed != 2 {
		t.Errorf("expected 3 frames and 2 errors, got %d, %d (hook saw %d)", stats.Frames, stats.Errors, failed)
	}
	if got, want := sink.Seqs(), []uint64{0, 2, 4}; !slices.Equal(got, want) {
		t.Errorf("seqs = %v, want %v", got, want)
	}
}
