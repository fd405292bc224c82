// Delivery of verification and password reset codes.
package auth

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// Notifier delivers one-time codes to the account holder.
type Notifier interface {
	Notify(ctx context.Context, email string, purpose Purpose, code string) error
}

// LogNotifier writes codes to the log. It stands in for an email sender on a
// single-user install.
type LogNotifier struct {
	Log *slog.Logger
}

func (n LogNotifier) Notify(ctx context.Context, email string, purpose Purpose, code string) error {
	n.Log.InfoContext(ctx, "one-time code issued", "email", email, "purpose", string(purpose), "code", code)
	return nil
}

// WriterNotifier prints codes to W, typically the terminal running the CLI.
type WriterNotifier struct {
	W io.Writer
}

func (n WriterNotifier) Notify(ctx context.Context, email string, purpose Purpose, code string) error {
	_, err := fmt.Fprintf(n.W, "%s code for %s: %s\n", purpose.Label(), email, code)
	return err
}
