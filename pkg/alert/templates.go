package alert

import "embed"

//go:embed templates templates/layouts
var templatesFS embed.FS

const (
	templateJobFailed = "job_failed.md"
	layoutBase        = "base.html"
)
