// Package catalog provides CatalogReader implementations consumed by
// pkg/scheduler's TaskManager: a Postgres-backed reader for production use
// and a YAML-file-backed reader for local development and tests.
package catalog
