package ports

// LogLevel is the minimum severity a logger emits.
type LogLevel int

const (
	// LevelDebug includes per-component detail such as queue waits and
	// decoder restarts.
	LevelDebug LogLevel = iota
	// LevelInfo covers session progress: play, stop, state changes.
	LevelInfo
	// LevelWarn is for problems playback recovers from.
	LevelWarn
	// LevelError is for failures that end a session.
	LevelError
	// LevelQuiet suppresses all output.
	LevelQuiet
)

var logLevelNames = map[LogLevel]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
	LevelQuiet: "quiet",
}

func (l LogLevel) String() string {
	if name, ok := logLevelNames[l]; ok {
		return name
	}
	return "unknown"
}

// ParseLogLevel parses a level name. Unknown names map to LevelInfo.
func ParseLogLevel(s string) LogLevel {
	for level, name := range logLevelNames {
		if name == s {
			return level
		}
	}
	return LevelInfo
}

// Logger is the logging abstraction used throughout the player.
// msg is a translation key; args are applied after translation.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})

	// WithComponent returns a Logger that prefixes messages with the
	// component name ("queue", "player", "engine", ...).
	WithComponent(component string) Logger
}
