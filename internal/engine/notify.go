package engine

import (
	"fmt"
	"io"
	"log/slog"
)

// Notifier surfaces user-visible notices: the end-of-run summary and
// per-document conflict messages. Notices are in addition to, not a
// replacement for, structured log output.
type Notifier interface {
	Notice(msg string)
}

// LogNotifier routes notices to the structured logger.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a Notifier backed by the given logger.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notice logs the message at info level.
func (n *LogNotifier) Notice(msg string) {
	n.logger.Info(msg, slog.Bool("notice", true))
}

// WriterNotifier prints notices to a writer. The CLI uses stderr so
// notices stay visible when log output is redirected.
type WriterNotifier struct {
	w io.Writer
}

// NewWriterNotifier creates a Notifier that writes one line per notice.
func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

// Notice writes the message followed by a newline.
func (n *WriterNotifier) Notice(msg string) {
	fmt.Fprintln(n.w, msg)
}
