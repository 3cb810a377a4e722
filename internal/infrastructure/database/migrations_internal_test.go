package database

import "testing"

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		wantVersion string
		wantUp      bool
		wantOK      bool
	}{
		{"up migration", "20260210_090000_initial_schema.up.sql", "20260210_090000", true, true},
		{"down migration", "20260210_090000_initial_schema.down.sql", "20260210_090000", false, true},
		{"not sql", "20260210_090000_initial_schema.up.txt", "", false, false},
		{"no direction", "20260210_090000_initial_schema.sql", "", false, false},
		{"missing version part", "20260210.up.sql", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, isUp, ok := parseMigrationFilename(tt.filename)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if version != tt.wantVersion {
				t.Errorf("version = %q, want %q", version, tt.wantVersion)
			}
			if isUp != tt.wantUp {
				t.Errorf("isUp = %v, want %v", isUp, tt.wantUp)
			}
		})
	}
}

func TestExtractMigrationName(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"20260210_090000_initial_schema.up.sql", "initial_schema"},
		{"20260210_090000_initial_schema.down.sql", "initial_schema"},
		{"20260301_120000_add_task_indexes.up.sql", "add_task_indexes"},
	}

	for _, tt := range tests {
		if got := extractMigrationName(tt.filename); got != tt.want {
			t.Errorf("extractMigrationName(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}
