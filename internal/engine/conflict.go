package engine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Choice is the outcome of a conflict decision.
type Choice int

const (
	// ChoiceDefer leaves both sides untouched; the conflict will
	// resurface on the next run if the divergence persists.
	ChoiceDefer Choice = iota

	// ChoiceKeepLocal pushes the local version to the remote store.
	ChoiceKeepLocal

	// ChoiceKeepRemote pulls the remote version over the local file.
	ChoiceKeepRemote
)

// Conflict describes a document that changed on both sides since its
// last reconciliation.
type Conflict struct {
	Path          string
	DocumentID    int64
	Name          string
	LocalBody     string
	RemoteBody    string
	LocalModified time.Time
	RemoteUpdated string
}

// Resolver decides the outcome for a conflicted document. Resolution
// suspends processing of that document only; the sequential traversal
// waits for the decision and then continues with the remaining items.
type Resolver interface {
	Resolve(ctx context.Context, c Conflict) (Choice, error)
}

// PreserveLocal is the fixed policy: keep the local version untouched,
// leave the remote version alone, and raise a notice naming the
// document.
type PreserveLocal struct {
	notifier Notifier
}

// NewPreserveLocal creates the auto-preserve-local resolver.
func NewPreserveLocal(n Notifier) *PreserveLocal {
	return &PreserveLocal{notifier: n}
}

// Resolve always defers, announcing the conflicted document.
func (p *PreserveLocal) Resolve(_ context.Context, c Conflict) (Choice, error) {
	p.notifier.Notice(fmt.Sprintf("conflict on %s: keeping local version, remote left untouched", c.Path))

	return ChoiceDefer, nil
}

// diffPreviewLines caps the diff preview shown by the interactive
// resolver.
const diffPreviewLines = 40

// Interactive prompts for a decision, showing a short diff preview of
// the local body against the remote body.
type Interactive struct {
	in  *bufio.Reader
	out io.Writer
}

// NewInteractive creates an interactive resolver reading decisions from
// in (typically a terminal) and writing prompts to out.
func NewInteractive(in io.Reader, out io.Writer) *Interactive {
	return &Interactive{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// Resolve prompts until it reads one of the recognized answers. An
// input error defers the conflict so an aborted prompt never picks a
// side silently.
func (i *Interactive) Resolve(ctx context.Context, c Conflict) (Choice, error) {
	fmt.Fprintf(i.out, "\nconflict: %s (document %d)\n", c.Path, c.DocumentID)
	fmt.Fprintf(i.out, "  local modified: %s\n", c.LocalModified.Format(time.RFC3339))
	fmt.Fprintf(i.out, "  remote updated: %s\n", c.RemoteUpdated)
	fmt.Fprintln(i.out, diffPreview(c.RemoteBody, c.LocalBody))

	for {
		if err := ctx.Err(); err != nil {
			return ChoiceDefer, err
		}

		fmt.Fprint(i.out, "keep [l]ocal, keep [r]emote, or [d]efer? ")

		line, err := i.in.ReadString('\n')
		if err != nil {
			return ChoiceDefer, fmt.Errorf("reading conflict decision: %w", err)
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "l", "local":
			return ChoiceKeepLocal, nil
		case "r", "remote":
			return ChoiceKeepRemote, nil
		case "d", "defer", "s", "skip":
			return ChoiceDefer, nil
		}
	}
}

// diffPreview renders a trimmed insert/delete view of the local body
// relative to the remote body.
func diffPreview(remoteBody, localBody string) string {
	dmp := diffmatchpatch.New()

	diffs := dmp.DiffMain(remoteBody, localBody, true)
	diffs = dmp.DiffCleanupSemantic(diffs)

	lines := strings.Split(dmp.DiffPrettyText(diffs), "\n")
	if len(lines) > diffPreviewLines {
		omitted := len(lines) - diffPreviewLines
		lines = append(lines[:diffPreviewLines], fmt.Sprintf("... (%d more lines)", omitted))
	}

	return strings.Join(lines, "\n")
}
