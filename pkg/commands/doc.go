// Package commands populates a scheduler.CommandRegistry with the concrete
// command set this deployment runs: anime/video catalog scrapers, a news
// fetcher, a health checker, and the news-extraction/keyword transforms.
// Command names match the original system's so catalog rows authored
// against its naming scheme port over unchanged.
package commands
