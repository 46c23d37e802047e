// Package alert notifies operators when a scheduled job exhausts its
// retry budget, via the teacher's mailer package (markdown templates
// rendered through goldmark, sent over Resend). Wired as a
// scheduler.WithExhaustionHook callback.
package alert
