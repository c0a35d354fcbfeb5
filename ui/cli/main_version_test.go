// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.
package cli

import (
	"runtime/debug"
	"testing"
)

func TestResolveBuildVersion_MainVersion(t *testing.T) {
	info := &debug.BuildInfo{
		Main: debug.Module{Path: "github.com/econbot/econbot", Version: "v0.4.0"},
	}
	v, c, d := resolveBuildVersion(info)
	if v != "v0.4.0" {
		t.Fatalf("expected v0.4.0 got %s", v)
	}
	if c != gitCommit {
		t.Fatalf("expected commit to equal package gitCommit (default) got %s", c)
	}
	if d != buildDate {
		t.Fatalf("expected date to equal package buildDate (default) got %s", d)
	}
}

func TestResolveBuildVersion_DependencyFallback(t *testing.T) {
	info := &debug.BuildInfo{
		Main: debug.Module{Path: "github.com/econbot/econbot", Version: "(devel)"},
		Deps: []*debug.Module{
			{Path: "github.com/econbot/econbot", Version: "v0.3.1-0.20260301101500-a1b2c3d4e5f6"},
		},
	}
	v, _, _ := resolveBuildVersion(info)
	if v != "v0.3.1-0.20260301101500-a1b2c3d4e5f6" {
		t.Fatalf("expected dependency version fallback got %s", v)
	}
}

func TestResolveBuildVersion_GitCommitFallback(t *testing.T) {
	orig := gitCommit
	defer func() { gitCommit = orig }()
	gitCommit = "deadbeef"
	info := &debug.BuildInfo{
		Main: debug.Module{Path: "github.com/econbot/econbot", Version: "(devel)"},
	}
	v, _, _ := resolveBuildVersion(info)
	if v != "deadbeef" {
		t.Fatalf("expected gitCommit fallback got %s", v)
	}
}

func TestResolveBuildVersion_VCSSettings(t *testing.T) {
	info := &debug.BuildInfo{
		Main: debug.Module{Path: "github.com/econbot/econbot", Version: "v1.0.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123abcd"},
			{Key: "vcs.time", Value: "2026-03-14T15:09:26Z"},
		},
	}
	_, c, d := resolveBuildVersion(info)
	if c != "0123abcd" || d != "2026-03-14T15:09:26Z" {
		t.Fatalf("expected vcs settings, got commit=%s date=%s", c, d)
	}
}

func TestCompositeVersion(t *testing.T) {
	if got := compositeVersion("v1.0.0", "dev", ""); got != "v1.0.0" {
		t.Fatalf("unexpected %q", got)
	}
	if got := compositeVersion("v1.0.0", "abc", "2026-01-01"); got != "v1.0.0 (abc) built: 2026-01-01" {
		t.Fatalf("unexpected %q", got)
	}
}
