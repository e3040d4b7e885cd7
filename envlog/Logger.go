package envlog

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
)

// Logging modes of the environment
const (
	Off     int = 0 // no logging, info records stay empty
	Console int = 1 // episode summaries to the console
	File    int = 2 // console plus a persisted per-episode text file
)

// Logger sinks episode records according to the configured logging
// mode. In File mode the log file is rewritten at every episode
// boundary with one line per logged step of that episode.
type Logger struct {
	mode    int
	path    string
	console *log.Logger
}

// New creates a Logger for the given mode. The path names the
// persisted log file and is only used in File mode.
func New(mode int, path string) (*Logger, error) {
	if mode < Off || mode > File {
		return nil, fmt.Errorf("envlog: unknown logging mode %v", mode)
	}
	console := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "env",
	})
	return &Logger{mode: mode, path: path, console: console}, nil
}

// Mode returns the configured logging mode
func (l *Logger) Mode() int {
	return l.mode
}

// EpisodeEnd sinks a completed episode. The final record is written
// to the console; in File mode every record of the episode is
// persisted, overwriting the previous episode's file.
func (l *Logger) EpisodeEnd(records []Record) error {
	if l.mode == Off || len(records) == 0 {
		return nil
	}

	l.console.Info(records[len(records)-1].String())

	if l.mode < File {
		return nil
	}
	f, err := os.Create(l.path)
	if err != nil {
		return fmt.Errorf("envlog: create log file: %w", err)
	}
	defer f.Close()

	for _, rec := range records {
		if _, err := fmt.Fprintln(f, rec.String()); err != nil {
			return fmt.Errorf("envlog: write log file: %w", err)
		}
	}
	return nil
}
