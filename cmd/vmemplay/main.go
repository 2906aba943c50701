// Package main provides the CLI entry point for vmemplay.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/vmemplay/pkg/adapters/mp4probe"
)

var version = "dev"

const (
	catInput   = "Input"
	catQueue   = "Frame Queue"
	catDisplay = "Display"
	catOutput  = "Output"
	catLogging = "Logging"
)

func main() {
	app := &cli.App{
		Name:    "vmemplay",
		Usage:   l10n.T("Play video into a bounded frame queue and consume it"),
		Version: version,
		Commands: []*cli.Command{
			playCommand(),
			interactiveCommand(),
			probeCommand(),
			versionCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// sessionFlags are shared by play and interactive.
func sessionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: l10n.T("YAML configuration file"), Category: l10n.T(catInput)},
		&cli.StringFlag{Name: "engine", Aliases: []string{"e"}, Usage: l10n.T("Decoder engine (pattern, ffmpeg)"), Category: l10n.T(catInput)},
		&cli.Float64Flag{Name: "fps", Usage: l10n.T("Pattern frame rate"), Category: l10n.T(catInput)},
		&cli.DurationFlag{Name: "length", Usage: l10n.T("Pattern length (0 plays until stopped)"), Category: l10n.T(catInput)},
		&cli.BoolFlag{Name: "unpaced", Usage: l10n.T("Generate pattern frames as fast as the queue accepts them"), Category: l10n.T(catInput)},
		&cli.StringFlag{Name: "ffmpeg-path", Usage: l10n.T("Path to ffmpeg (falls back to FFMPEG_PATH env, then PATH)"), Category: l10n.T(catInput)},
		&cli.BoolFlag{Name: "no-realtime", Usage: l10n.T("Decode files as fast as possible instead of at their native rate"), Category: l10n.T(catInput)},

		&cli.IntFlag{Name: "width", Aliases: []string{"W"}, Usage: l10n.T("Frame width in pixels (multiple of 4)"), Category: l10n.T(catQueue)},
		&cli.IntFlag{Name: "height", Aliases: []string{"H"}, Usage: l10n.T("Frame height in pixels"), Category: l10n.T(catQueue)},
		&cli.IntFlag{Name: "capacity", Usage: l10n.T("Number of frame slots (min: 3)"), Category: l10n.T(catQueue)},
		&cli.StringFlag{Name: "allocator", Usage: l10n.T("Slot memory (heap, mmap)"), Category: l10n.T(catQueue)},

		&cli.StringFlag{Name: "mode", Usage: l10n.T("Consumer mode (wait, poll)"), Category: l10n.T(catDisplay)},
		&cli.IntFlag{Name: "interval-ms", Usage: l10n.T("Poll interval in milliseconds"), Category: l10n.T(catDisplay)},

		&cli.StringFlag{Name: "sink", Aliases: []string{"s"}, Usage: l10n.T("Frame sink (null, png, record)"), Category: l10n.T(catOutput)},
		&cli.StringFlag{Name: "png-dir", Usage: l10n.T("Directory for saved frames"), Category: l10n.T(catOutput)},
		&cli.IntFlag{Name: "png-every", Usage: l10n.T("Save every Nth frame"), Category: l10n.T(catOutput)},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: l10n.T("Output MP4 file path for the record sink"), Category: l10n.T(catOutput)},
		&cli.IntFlag{Name: "crf", Usage: l10n.T("Recording CRF (0-51, lower is better)"), Category: l10n.T(catOutput)},

		&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Usage: l10n.T("Log level (debug, info, warn, error)"), Category: l10n.T(catLogging)},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"Q"}, Usage: l10n.T("Suppress all log output"), Category: l10n.T(catLogging)},
	}
}

func playCommand() *cli.Command {
	flags := append(sessionFlags(),
		&cli.DurationFlag{Name: "duration", Aliases: []string{"d"}, Usage: l10n.T("Stop after this long"), Category: l10n.T(catDisplay)},
		&cli.IntFlag{Name: "max-frames", Aliases: []string{"n"}, Usage: l10n.T("Stop after this many frames"), Category: l10n.T(catDisplay)},
		&cli.StringFlag{Name: "summary", Usage: l10n.T("Write a session summary (.md or .yaml)"), Category: l10n.T(catOutput)},
	)
	return &cli.Command{
		Name:      "play",
		Usage:     l10n.T("Play media into the frame queue until it ends or a limit is reached"),
		ArgsUsage: "[media]",
		Flags:     flags,
		Action:    runPlay,
	}
}

func interactiveCommand() *cli.Command {
	flags := append(sessionFlags(),
		&cli.StringFlag{Name: "log-file", Usage: l10n.T("Write logs to this file while the UI is shown"), Category: l10n.T(catLogging)},
	)
	return &cli.Command{
		Name:      "interactive",
		Aliases:   []string{"i"},
		Usage:     l10n.T("Control playback from a terminal UI"),
		ArgsUsage: "[media]",
		Flags:     flags,
		Action:    runInteractive,
	}
}

func probeCommand() *cli.Command {
	return &cli.Command{
		Name:      "probe",
		Usage:     l10n.T("Show the video track of an MP4 file"),
		ArgsUsage: "<file>",
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				return cli.Exit(l10n.T("probe needs a file"), 2)
			}
			info, err := mp4probe.New().Probe(path)
			if err != nil {
				return err
			}
			fmt.Println(l10n.F("Title:    %s", info.Title))
			fmt.Println(l10n.F("Codec:    %s", info.Codec))
			fmt.Println(l10n.F("Size:     %dx%d", info.Width, info.Height))
			fmt.Println(l10n.F("Duration: %s", info.Duration))
			fmt.Println(l10n.F("Frames:   %d (%.2f fps)", info.FrameCount, info.FPS))
			return nil
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: l10n.T("Show version information"),
		Action: func(*cli.Context) error {
			fmt.Println(l10n.F("vmemplay version %s", version))
			return nil
		},
	}
}

// signalContext cancels on SIGINT or SIGTERM.
func signalContext(onSignal func()) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			if onSignal != nil {
				onSignal()
			}
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}
