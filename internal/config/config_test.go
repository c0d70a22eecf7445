package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// chdir moves into dir for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(orig) })
}

// fakeHome points userHomeDir at a temp directory for the test.
func fakeHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	orig := userHomeDir
	userHomeDir = func() (string, error) { return home, nil }
	t.Cleanup(func() { userHomeDir = orig })
	return home
}

func writeSettings(t *testing.T, path string, s Settings) {
	t.Helper()
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal settings: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write settings: %v", err)
	}
}

func TestResolvePlansDir_ExplicitOverrideWins(t *testing.T) {
	fakeHome(t)
	t.Setenv("PLANWARD_PLANS_DIR", "/env/plans")

	got := ResolvePlansDir("/explicit/plans")
	if got != "/explicit/plans" {
		t.Errorf("ResolvePlansDir = %q, want /explicit/plans", got)
	}
}

func TestResolvePlansDir_EnvBeatsProjectSettings(t *testing.T) {
	fakeHome(t)
	dir := t.TempDir()
	chdir(t, dir)
	writeSettings(t, filepath.Join(dir, ProjectSettingsFile), Settings{PlansDir: "/project/plans"})
	t.Setenv("PLANWARD_PLANS_DIR", "/env/plans")

	got := ResolvePlansDir("")
	if got != "/env/plans" {
		t.Errorf("ResolvePlansDir = %q, want /env/plans", got)
	}
}

func TestResolvePlansDir_ProjectSettings(t *testing.T) {
	fakeHome(t)
	t.Setenv("PLANWARD_PLANS_DIR", "")
	dir := t.TempDir()
	chdir(t, dir)
	writeSettings(t, filepath.Join(dir, ProjectSettingsFile), Settings{PlansDir: "/project/plans"})

	got := ResolvePlansDir("")
	if got != "/project/plans" {
		t.Errorf("ResolvePlansDir = %q, want /project/plans", got)
	}
}

func TestResolvePlansDir_GlobalSettings(t *testing.T) {
	home := fakeHome(t)
	t.Setenv("PLANWARD_PLANS_DIR", "")
	chdir(t, t.TempDir()) // no project settings here
	writeSettings(t, filepath.Join(home, globalDirName, GlobalSettingsFile), Settings{PlansDir: "/global/plans"})

	got := ResolvePlansDir("")
	if got != "/global/plans" {
		t.Errorf("ResolvePlansDir = %q, want /global/plans", got)
	}
}

func TestResolvePlansDir_HardDefault(t *testing.T) {
	home := fakeHome(t)
	t.Setenv("PLANWARD_PLANS_DIR", "")
	chdir(t, t.TempDir())

	got := ResolvePlansDir("")
	want := filepath.Join(home, globalDirName, defaultPlansSubdir)
	if got != want {
		t.Errorf("ResolvePlansDir = %q, want %q", got, want)
	}
}

func TestResolvePlansDir_CorruptProjectSettingsIgnored(t *testing.T) {
	home := fakeHome(t)
	t.Setenv("PLANWARD_PLANS_DIR", "")
	dir := t.TempDir()
	chdir(t, dir)
	if err := os.WriteFile(filepath.Join(dir, ProjectSettingsFile), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt settings: %v", err)
	}

	got := ResolvePlansDir("")
	want := filepath.Join(home, globalDirName, defaultPlansSubdir)
	if got != want {
		t.Errorf("corrupt settings should fall through to default, got %q", got)
	}
}
