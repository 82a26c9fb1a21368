package content

import (
	"time"

	"github.com/rs/zerolog"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

type Notification struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier receives user-facing messages, the server-side stand-in for toasts.
type Notifier interface {
	Notify(n Notification)
}

type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(note Notification) {
	var ev *zerolog.Event
	switch note.Level {
	case LevelError:
		ev = n.log.Error()
	case LevelWarning:
		ev = n.log.Warn()
	default:
		ev = n.log.Info()
	}
	ev.Time("at", note.At).Msg(note.Message)
}

type noopNotifier struct{}

func (noopNotifier) Notify(Notification) {}
