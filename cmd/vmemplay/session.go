package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/vmemplay/pkg/adapters/ffmpegengine"
	"github.com/user/vmemplay/pkg/adapters/ggrenderer"
	"github.com/user/vmemplay/pkg/adapters/logger"
	"github.com/user/vmemplay/pkg/adapters/mp4probe"
	"github.com/user/vmemplay/pkg/adapters/nullsink"
	"github.com/user/vmemplay/pkg/adapters/osfilesystem"
	"github.com/user/vmemplay/pkg/adapters/patternengine"
	"github.com/user/vmemplay/pkg/adapters/pngsink"
	"github.com/user/vmemplay/pkg/adapters/recordsink"
	"github.com/user/vmemplay/pkg/config"
	"github.com/user/vmemplay/pkg/display"
	"github.com/user/vmemplay/pkg/orchestrator"
	"github.com/user/vmemplay/pkg/player"
	"github.com/user/vmemplay/pkg/ports"
	"github.com/user/vmemplay/pkg/summarizer"
	"github.com/user/vmemplay/pkg/tui"
)

const defaultPatternMedia = "pattern://bars"

// loadConfig merges the config file and explicitly set flags.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if media := c.Args().First(); media != "" {
		cfg.Media = media
	}
	if c.IsSet("engine") {
		cfg.Engine = c.String("engine")
	}
	if c.IsSet("fps") {
		cfg.Pattern.FPS = c.Float64("fps")
	}
	if c.IsSet("length") {
		cfg.Pattern.LengthMs = int(c.Duration("length").Milliseconds())
	}
	if c.IsSet("unpaced") {
		cfg.Pattern.Unpaced = c.Bool("unpaced")
	}
	if c.IsSet("ffmpeg-path") {
		cfg.FFmpeg.Path = c.String("ffmpeg-path")
	}
	if c.IsSet("no-realtime") {
		cfg.FFmpeg.Realtime = !c.Bool("no-realtime")
	}
	if c.IsSet("width") {
		cfg.Width = c.Int("width")
	}
	if c.IsSet("height") {
		cfg.Height = c.Int("height")
	}
	if c.IsSet("capacity") {
		cfg.Capacity = c.Int("capacity")
	}
	if c.IsSet("allocator") {
		cfg.Allocator = c.String("allocator")
	}
	if c.IsSet("mode") {
		cfg.Display.Mode = c.String("mode")
	}
	if c.IsSet("interval-ms") {
		cfg.Display.IntervalMs = c.Int("interval-ms")
	}
	if c.IsSet("sink") {
		cfg.Sink = c.String("sink")
	}
	if c.IsSet("png-dir") {
		cfg.PNG.Dir = c.String("png-dir")
	}
	if c.IsSet("png-every") {
		cfg.PNG.Every = c.Int("png-every")
	}
	if c.IsSet("output") {
		cfg.Record.Path = c.String("output")
	}
	if c.IsSet("crf") {
		cfg.Record.CRF = c.Int("crf")
	}
	if c.IsSet("duration") {
		cfg.DurationMs = int(c.Duration("duration").Milliseconds())
	}
	if c.IsSet("max-frames") {
		cfg.MaxFrames = c.Int("max-frames")
	}
	if c.IsSet("summary") {
		cfg.Summary = c.String("summary")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}

	if cfg.Engine == "pattern" && cfg.Media == "" {
		cfg.Media = defaultPatternMedia
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newEngine(cfg config.Config, log ports.Logger) ports.MediaEngine {
	if cfg.Engine == "ffmpeg" {
		return ffmpegengine.New(cfg.ToFFmpegOptions(mp4probe.New(), log))
	}
	return patternengine.New(cfg.ToPatternOptions(ggrenderer.New(), log))
}

// outputs describes a sink and where it writes, for the summary.
type outputs struct {
	sink  ports.FrameSink
	path  string
	files func() []string
}

func newSink(cfg config.Config) outputs {
	fs := osfilesystem.New()
	switch cfg.Sink {
	case "png":
		s := pngsink.New(cfg.ToPNGOptions(), fs, ggrenderer.New())
		return outputs{sink: s, path: cfg.PNG.Dir, files: s.Paths}
	case "record":
		return outputs{sink: recordsink.New(cfg.ToRecordOptions(), fs), path: cfg.Record.Path}
	default:
		return outputs{sink: nullsink.New()}
	}
}

func runPlay(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	var log ports.Logger
	if c.Bool("quiet") {
		log = logger.NewNoop()
	} else {
		log = logger.NewConsole(ports.ParseLogLevel(cfg.LogLevel))
	}

	ctx, cancel := signalContext(func() {
		log.Warn("Interrupted, shutting down...")
	})
	defer cancel()

	p, err := player.New(newEngine(cfg, log.WithComponent("engine")), cfg.ToPlayerOptions(log.WithComponent("player")))
	if err != nil {
		return err
	}
	defer p.Close()

	out := newSink(cfg)
	oc, err := cfg.ToOrchestratorConfig(log.WithComponent("display"))
	if err != nil {
		return err
	}

	orch := orchestrator.New(p, out.sink, log)
	result, runErr := orch.Run(ctx, oc)

	summary := buildSummary(cfg, result, out)
	if cfg.Summary != "" {
		md := summarizer.NewMarkdownFormatter(summarizer.WithTranslator(l10n.T))
		w := summarizer.NewWriter(summarizer.ForPath(cfg.Summary, md), osfilesystem.New())
		if err := w.Write(cfg.Summary, summary); err != nil {
			log.Error("Failed to write summary: %s", err)
		} else {
			log.Info("Summary saved to %s", cfg.Summary)
		}
	} else {
		log.Info("Displayed %d frames in %s (%.1f fps)",
			summary.Playback.Frames, summary.Session.Elapsed.Truncate(time.Millisecond), summary.DisplayFPS())
	}

	return runErr
}

func buildSummary(cfg config.Config, result orchestrator.RunResult, out outputs) *summarizer.Summary {
	output := summarizer.OutputInfo{Sink: cfg.Sink, Path: out.path}
	if out.files != nil {
		output.Files = out.files()
	}

	return summarizer.NewBuilder().
		WithMedia(summarizer.MediaInfo{
			Title:  result.Title,
			URL:    result.Media,
			Engine: cfg.Engine,
			Length: result.Length,
			FPS:    result.FPS,
			Width:  result.Format.Width,
			Height: result.Format.Height,
		}).
		WithSession(result.Session, result.Reason.String(), result.FinalState.String(), result.Elapsed).
		WithQueue(summarizer.QueueInfo{
			Capacity:   result.Queue.Capacity,
			FrameBytes: result.Format.FrameSize(),
			Allocator:  cfg.Allocator,
			Published:  result.Queue.Published,
			Consumed:   result.Queue.Consumed,
			Resets:     result.Queue.Resets,
		}).
		WithPlayback(summarizer.PlaybackInfo{
			Mode:       cfg.Display.Mode,
			Frames:     result.Display.Frames,
			EmptyTicks: result.Display.EmptyTicks,
			SinkErrors: result.Display.Errors,
		}).
		WithOutput(output).
		Build()
}

func runInteractive(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	// The terminal belongs to the UI, so logs go to a file or nowhere.
	var logOut io.Writer = io.Discard
	if path := c.String("log-file"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	log := logger.NewWriter(ports.ParseLogLevel(cfg.LogLevel), logOut)

	ctx, cancel := signalContext(nil)
	defer cancel()

	p, err := player.New(newEngine(cfg, log.WithComponent("engine")), cfg.ToPlayerOptions(log.WithComponent("player")))
	if err != nil {
		return err
	}
	defer p.Close()

	out := newSink(cfg)
	if err := out.sink.Begin(p.Format()); err != nil {
		return fmt.Errorf("open sink: %w", err)
	}

	// Poll mode keeps the loop alive across stop and replay.
	dopts, err := cfg.ToDisplayOptions(log.WithComponent("display"))
	if err != nil {
		return err
	}
	dopts.Mode = display.ModePoll
	dopts.MaxFrames = 0
	loop := display.New(p, out.sink, dopts)

	loopCtx, stopLoop := context.WithCancel(ctx)
	loopDone := make(chan error, 1)
	go func() {
		_, err := loop.Run(loopCtx)
		loopDone <- err
	}()

	uiErr := tui.Run(ctx, p, tui.Options{
		Media:    cfg.Media,
		Capacity: cfg.Capacity,
		Frames:   loop.Frames,
	})

	if err := p.Stop(); err != nil {
		log.Warn("Failed to stop player: %s", err)
	}
	stopLoop()
	loopErr := <-loopDone

	if err := out.sink.End(); err != nil {
		log.Error("Failed to close sink: %s", err)
	}

	if uiErr != nil {
		return uiErr
	}
	return loopErr
}
