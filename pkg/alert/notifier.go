package alert

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/dmitrymomot/cronpipe/pkg/mailer"
)

// Notifier sends an operator-facing email whenever a scheduled job
// exhausts its retry budget. It wraps mailer.Mailer rather than
// replacing it: template rendering, markdown-to-HTML conversion, and
// delivery all go through the teacher's existing machinery unchanged.
type Notifier struct {
	mailer     *mailer.Mailer
	recipient  string
	catalogURL string
	logger     *slog.Logger
}

// NewNotifier builds a Notifier that sends to recipient via m. catalogURL
// is linked from the notification email for quick operator access to the
// job catalog; it may be empty. logger defaults to slog.Default() if nil.
func NewNotifier(m *mailer.Mailer, recipient, catalogURL string, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{mailer: m, recipient: recipient, catalogURL: catalogURL, logger: logger}
}

// NewRenderer builds the mailer.Renderer for this package's embedded
// templates, rooted so that "job_failed.md" and "layouts/base.html"
// resolve the same way teacher templates do off a filesystem directory.
func NewRenderer() (*mailer.Renderer, error) {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("alert: sub templates fs: %w", err)
	}
	return mailer.NewRenderer(sub), nil
}

// jobFailedData is the template data for templateJobFailed.
type jobFailedData struct {
	JobName    string
	Error      string
	OccurredAt string
	CatalogURL string
}

// JobExhausted sends the job-failed notification. It matches the
// func(jobName string, err error) signature scheduler.WithExhaustionHook
// expects once bound as a method value: scheduler.WithExhaustionHook(n.JobExhausted).
// Send errors are logged here and not returned (the hook is an
// observability hook, not a second retry path), so JobExhausted never
// panics and never blocks longer than its own 10-second send timeout.
func (n *Notifier) JobExhausted(jobName string, cause error) {
	data := jobFailedData{
		JobName:    jobName,
		Error:      errString(cause),
		OccurredAt: time.Now().Format(time.RFC3339),
		CatalogURL: n.catalogURL,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := n.mailer.Send(ctx, mailer.SendParams{
		To:       n.recipient,
		Template: templateJobFailed,
		Layout:   layoutBase,
		Data:     data,
	}); err != nil {
		n.logger.Error("alert: failed to send job-exhausted notification",
			slog.String("job", jobName),
			slog.Any("error", err),
		)
	}
}

func errString(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
