package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/cronpipe/pkg/mailer/resend"
)

func TestConfig_ArchivingEnabled(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want bool
	}{
		{"all fields set", Config{S3Bucket: "b", S3AccessKey: "a", S3SecretKey: "s"}, true},
		{"missing bucket", Config{S3AccessKey: "a", S3SecretKey: "s"}, false},
		{"missing secret", Config{S3Bucket: "b", S3AccessKey: "a"}, false},
		{"nothing set", Config{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.cfg.archivingEnabled())
		})
	}
}

func TestConfig_AlertingEnabled(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want bool
	}{
		{"recipient and api key set", Config{AlertRecipient: "ops@example.com", Resend: resend.Config{APIKey: "k"}}, true},
		{"missing recipient", Config{Resend: resend.Config{APIKey: "k"}}, false},
		{"missing api key", Config{AlertRecipient: "ops@example.com"}, false},
		{"nothing set", Config{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.cfg.alertingEnabled())
		})
	}
}
