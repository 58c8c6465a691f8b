package notifier

import (
	"context"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/pfrederiksen/rota-da-festa/internal/reconcile"
)

// DryRunNotifier prints what would be posted without sending anything
type DryRunNotifier struct {
	w io.Writer
}

// NewDryRunNotifier creates a dry-run notifier writing to w, or stdout when w is nil
func NewDryRunNotifier(w io.Writer) *DryRunNotifier {
	if w == nil {
		w = os.Stdout
	}
	return &DryRunNotifier{w: w}
}

// Notify prints the messages that would be posted
func (n *DryRunNotifier) Notify(ctx context.Context, changes []reconcile.Change) error {
	for i, c := range changes {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := FormatChange(c)
		fmt.Fprintf(n.w, "--- Message %d/%d ---\n", i+1, len(changes))
		fmt.Fprintln(n.w, msg)
		fmt.Fprintf(n.w, "\n(Length: %d characters)\n\n", utf8.RuneCountInString(msg))
	}
	return nil
}
