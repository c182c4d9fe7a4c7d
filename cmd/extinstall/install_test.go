package main

// NOTE: Tests in this file replace the package-level getwd and lookupEnv.
// Do not use t.Parallel(). Each test restores them via t.Cleanup().

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mitchellh/go-homedir"

	"github.com/conn-castle/extinstall/internal/testutil"
)

type cliSite struct {
	cwd  string
	site string
	tmp  string
}

// newCLISite writes an extinstall.toml into a fresh working directory and
// points the CLI at it. extra is appended to the generated file.
func newCLISite(t *testing.T, extra string) *cliSite {
	t.Helper()
	s := &cliSite{cwd: t.TempDir(), site: t.TempDir(), tmp: t.TempDir()}
	content := fmt.Sprintf("[site]\nroot = %q\nversion = \"4.4.0\"\n\n[install]\ntmp_path = %q\nrelax_limits = false\n%s", s.site, s.tmp, extra)
	if err := os.WriteFile(filepath.Join(s.cwd, "extinstall.toml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	origGetwd, origLookup := getwd, lookupEnv
	getwd = func() (string, error) { return s.cwd, nil }
	lookupEnv = func(string) (string, bool) { return "", false }
	t.Cleanup(func() {
		getwd = origGetwd
		lookupEnv = origLookup
	})
	return s
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := 0
	runMain(append([]string{"extinstall"}, args...), &stdout, &stderr, func(exitCode int) {
		code = exitCode
	})
	return code, stdout.String(), stderr.String()
}

func assertTempDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read temp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected extraction directories to be removed, found %d entries", len(entries))
	}
}

func TestInstallManifestPackage(t *testing.T) {
	s := newCLISite(t, "")
	archive := filepath.Join(s.cwd, "plg_hello.zip")
	testutil.WriteZip(t, archive, map[string]string{
		"extension.toml": testutil.Manifest("plg_hello", "plugin", "1.0.0"),
		"plg_hello.php":  "<?php",
	})

	code, stdout, stderr := runCLI(t, "install", archive)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d (stderr %q)", code, stderr)
	}
	if stdout != "Extension successfully installed\n" {
		t.Fatalf("unexpected stdout %q", stdout)
	}
	if _, err := os.Stat(filepath.Join(s.site, "extensions", "plugin", "plg_hello", "plg_hello.php")); err != nil {
		t.Fatalf("expected installed file: %v", err)
	}
	if _, err := os.Stat(archive); !os.IsNotExist(err) {
		t.Fatalf("expected archive to be removed, stat err %v", err)
	}
	assertTempDirEmpty(t, s.tmp)

	code, stdout, _ = runCLI(t, "list")
	if code != 0 || stdout != "plugin\tplg_hello\t1.0.0\n" {
		t.Fatalf("unexpected list output %q (exit %d)", stdout, code)
	}
}

func TestInstallPackageFlag(t *testing.T) {
	s := newCLISite(t, "")
	archive := filepath.Join(s.cwd, "tpl_clean.tar.gz")
	testutil.WriteTarGz(t, archive, []testutil.TarEntry{
		{Name: "tpl_clean/extension.toml", Body: testutil.Manifest("tpl_clean", "template", "2.0.0")},
		{Name: "tpl_clean/index.php", Body: "<?php"},
	})

	code, stdout, stderr := runCLI(t, "install", "--package="+archive)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d (stdout %q, stderr %q)", code, stdout, stderr)
	}
	if _, err := os.Stat(filepath.Join(s.site, "extensions", "template", "tpl_clean", "index.php")); err != nil {
		t.Fatalf("expected installed file: %v", err)
	}
}

func TestInstallExitCodes(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(t *testing.T, s *cliSite) []string
		wantCode   int
		wantStdout string
		wantSuffix string
	}{
		{
			name: "missing package",
			setup: func(t *testing.T, s *cliSite) []string {
				return []string{"install", filepath.Join(s.cwd, "absent.zip")}
			},
			wantCode:   1,
			wantSuffix: "absent.zip does not exist\n",
		},
		{
			name: "no package",
			setup: func(t *testing.T, s *cliSite) []string {
				return []string{"install"}
			},
			wantCode:   1,
			wantStdout: "Package file must be specified\n",
		},
		{
			name: "corrupt archive",
			setup: func(t *testing.T, s *cliSite) []string {
				path := filepath.Join(s.cwd, "broken.zip")
				if err := os.WriteFile(path, []byte("not a zip"), 0o644); err != nil {
					t.Fatalf("write archive: %v", err)
				}
				return []string{"install", path}
			},
			wantCode:   3,
			wantStdout: "An error occurred while unpacking the file\n",
		},
		{
			name: "installer failure",
			setup: func(t *testing.T, s *cliSite) []string {
				path := filepath.Join(s.cwd, "readme.zip")
				testutil.WriteZip(t, path, map[string]string{"README.txt": "no manifest here"})
				return []string{"install", path}
			},
			wantCode:   250,
			wantSuffix: "Extension installation failed\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newCLISite(t, "")
			code, stdout, stderr := runCLI(t, tt.setup(t, s)...)
			if code != tt.wantCode {
				t.Fatalf("expected exit %d, got %d (stdout %q, stderr %q)", tt.wantCode, code, stdout, stderr)
			}
			if tt.wantStdout != "" && stdout != tt.wantStdout {
				t.Fatalf("unexpected stdout %q", stdout)
			}
			if !strings.HasSuffix(stdout, tt.wantSuffix) {
				t.Fatalf("expected stdout to end with %q, got %q", tt.wantSuffix, stdout)
			}
			assertTempDirEmpty(t, s.tmp)
		})
	}
}

func TestInstallCorruptArchiveIsKept(t *testing.T) {
	s := newCLISite(t, "")
	path := filepath.Join(s.cwd, "broken.tar.gz")
	if err := os.WriteFile(path, []byte("garbage"), 0o644); err != nil {
		t.Fatalf("write archive: %v", err)
	}

	code, _, _ := runCLI(t, "install", path)
	if code != 3 {
		t.Fatalf("expected exit 3, got %d", code)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected archive to remain after unpack failure: %v", err)
	}
}

func TestInstallCommandEngine(t *testing.T) {
	bin := t.TempDir()
	script := testutil.WriteScript(t, bin, "installer", `echo "<i>installing</i> $(ls "$1")"
echo "site=$EXTINSTALL_SITE_ROOT"
[ -f "$1/fail" ] && exit 9
exit 0`)
	s := newCLISite(t, fmt.Sprintf("\n[engine]\nkind = \"command\"\ncommand = [%q, \"{dir}\"]\n", script))

	archive := filepath.Join(s.cwd, "payload.zip")
	testutil.WriteZip(t, archive, map[string]string{"payload.txt": "data"})
	code, stdout, stderr := runCLI(t, "install", archive)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d (stdout %q, stderr %q)", code, stdout, stderr)
	}
	want := "installing payload.txt\nsite=" + s.site + "\nExtension successfully installed\n"
	if stdout != want {
		t.Fatalf("unexpected stdout %q, want %q", stdout, want)
	}

	archive = filepath.Join(s.cwd, "failing.zip")
	testutil.WriteZip(t, archive, map[string]string{"fail": ""})
	code, stdout, _ = runCLI(t, "install", archive)
	if code != 250 {
		t.Fatalf("expected exit 250, got %d", code)
	}
	if !strings.HasSuffix(stdout, "Installer command exited with status 9\nExtension installation failed\n") {
		t.Fatalf("unexpected stdout %q", stdout)
	}
}

func TestInstallUsageErrors(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		extra string
		want  string
	}{
		{name: "conflicting package", args: []string{"install", "a.zip", "--package", "b.zip"}, want: "package given twice"},
		{name: "too many args", args: []string{"install", "a.zip", "b.zip"}, want: "accepts at most 1 arg"},
		{name: "bad log level", args: []string{"--log-level", "loud", "install", "a.zip"}, want: "configure logging"},
		{name: "invalid config", args: []string{"install", "a.zip"}, extra: "\n[engine]\nkind = \"rpc\"\n", want: "engine.kind must be manifest or command"},
		{name: "missing config", args: []string{"--config", "nope.toml", "list"}, want: "missing config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			newCLISite(t, tt.extra)
			code, stdout, stderr := runCLI(t, tt.args...)
			if code != 1 {
				t.Fatalf("expected exit 1, got %d", code)
			}
			if stdout != "" {
				t.Fatalf("expected no stdout, got %q", stdout)
			}
			if !strings.Contains(stderr, tt.want) {
				t.Fatalf("expected stderr to contain %q, got %q", tt.want, stderr)
			}
		})
	}
}

func TestListEmpty(t *testing.T) {
	newCLISite(t, "")
	code, stdout, _ := runCLI(t, "list")
	if code != 0 || stdout != "No extensions installed\n" {
		t.Fatalf("unexpected list output %q (exit %d)", stdout, code)
	}
}

func TestResolvePackageArg(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	homedir.DisableCache = true
	t.Cleanup(func() {
		homedir.DisableCache = false
		homedir.Reset()
	})

	tests := []struct {
		name    string
		args    []string
		flag    string
		want    string
		wantErr bool
	}{
		{name: "positional", args: []string{"/pkgs/a.zip"}, want: "/pkgs/a.zip"},
		{name: "flag", flag: "/pkgs/b.zip", want: "/pkgs/b.zip"},
		{name: "same value twice", args: []string{"a.zip"}, flag: "a.zip", want: "a.zip"},
		{name: "home", args: []string{"~/pkgs/c.zip"}, want: filepath.Join(home, "pkgs", "c.zip")},
		{name: "empty"},
		{name: "conflict", args: []string{"a.zip"}, flag: "b.zip", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolvePackageArg(tt.args, tt.flag)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
