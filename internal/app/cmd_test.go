package app

import (
	"testing"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want Command
	}{
		{"empty defaults to serve", []string{}, CommandServe},
		{"serve", []string{"serve"}, CommandServe},
		{"migrate", []string{"migrate"}, CommandMigrate},
		{"migrate with action", []string{"migrate", "down"}, CommandMigrate},
		{"healthcheck", []string{"healthcheck"}, CommandHealthcheck},
		{"removed prune defaults to serve", []string{"prune"}, CommandServe},
		{"unknown defaults to serve", []string{"unknown"}, CommandServe},
		{"removed worker defaults to serve", []string{"worker"}, CommandServe},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseCommand(tt.args); got != tt.want {
				t.Errorf("ParseCommand(%v) = %q, want %q", tt.args, got, tt.want)
			}
		})
	}
}

func TestParseMigrateAction(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		want   MigrateAction
		wantOK bool
	}{
		{"omitted defaults to up", []string{"migrate"}, MigrateUp, true},
		{"up", []string{"migrate", "up"}, MigrateUp, true},
		{"down", []string{"migrate", "down"}, MigrateDown, true},
		{"version", []string{"migrate", "version"}, MigrateVersion, true},
		{"unknown", []string{"migrate", "sideways"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseMigrateAction(tt.args)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParseMigrateAction(%v) = (%q, %v), want (%q, %v)",
					tt.args, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestCommandString(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{CommandServe, "serve"},
		{CommandMigrate, "migrate"},
		{CommandHealthcheck, "healthcheck"},
	}

	for _, tt := range tests {
		if got := string(tt.cmd); got != tt.want {
			t.Errorf("Command(%q) string = %q, want %q", tt.cmd, got, tt.want)
		}
	}
}
