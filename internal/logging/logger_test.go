// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	clog "github.com/charmbracelet/log"
)

// TestLoggingHelpers_WriteToBuffer verifies the package helper functions write
// formatted messages to the package-level logger `L`.
func TestLoggingHelpers_WriteToBuffer(t *testing.T) {
	var buf bytes.Buffer
	prev := L
	L = clog.New(&buf)
	L.SetLevel(clog.DebugLevel)
	defer func() { L = prev }()

	Debugf("hello %s", "dbg")
	Infof("info %d", 1)
	Warnf("warn")
	Errorf("err %v", "E")

	out := buf.String()
	for _, want := range []string{"hello dbg", "info 1", "warn", "err E"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output; got: %s", want, out)
		}
	}
}

func TestComponentLoggerMasksSensitiveKeys(t *testing.T) {
	var buf bytes.Buffer
	prev := L
	defer func() { L = prev }()
	if err := Setup(&buf, "debug", "json"); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	For("bot").With("guild_id", "42").Info("starting", "discord_token", "abc.def", "database_url", "postgres://u:p@h/db")

	line := strings.TrimSpace(buf.String())
	var rec map[string]any
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		t.Fatalf("expected a JSON line, got %q: %v", line, err)
	}
	if rec["component"] != "bot" || rec["guild_id"] != "42" {
		t.Fatalf("missing structured fields: %v", rec)
	}
	if rec["discord_token"] != "***" || rec["database_url"] != "***" {
		t.Fatalf("sensitive values not masked: %v", rec)
	}
	if strings.Contains(line, "abc.def") {
		t.Fatalf("token leaked: %s", line)
	}
}

func TestSetupRejectsUnknownFormat(t *testing.T) {
	prev := L
	defer func() { L = prev }()
	if err := Setup(&bytes.Buffer{}, "info", "xml"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
	if err := Setup(&bytes.Buffer{}, "loud", "json"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
