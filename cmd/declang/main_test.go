package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"declang/pkg/auth"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(args []string, stdin string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunFile(t *testing.T) {
	path := writeFile(t, "ok.dl", "declare x = 6 * 7\nshow x\n")

	for _, args := range [][]string{{path}, {"run", path}} {
		code, out, errOut := runCLI(args, "")
		if code != 0 || out != "42\n" {
			t.Fatalf("%v - code=%d out=%q err=%q", args, code, out, errOut)
		}
	}
}

func TestRunFileError(t *testing.T) {
	path := writeFile(t, "bad.dl", "show \"a\"\ndeclare x = 1 / 0\n")
	code, out, errOut := runCLI([]string{"run", path}, "")
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if out != "a\n" {
		t.Fatalf("output before the error should be kept. got=%q", out)
	}
	if !strings.Contains(errOut, "2:15: division by zero") {
		t.Fatalf("stderr wrong. got=%q", errOut)
	}

	if code, _, _ := runCLI([]string{"run", filepath.Join(t.TempDir(), "missing.dl")}, ""); code != 1 {
		t.Fatalf("missing file exit code = %d, want 1", code)
	}
}

func TestEval(t *testing.T) {
	code, out, _ := runCLI([]string{"eval", `if 2 > 1 then show "yes" else show "no"`}, "")
	if code != 0 || out != "yes\n" {
		t.Fatalf("code=%d out=%q", code, out)
	}

	code, _, errOut := runCLI([]string{"eval", "--legacy", "declare x = 1 show x"}, "")
	if code != 1 || !strings.Contains(errOut, "redeclaration") {
		t.Fatalf("legacy eval code=%d err=%q", code, errOut)
	}
}

func TestREPL(t *testing.T) {
	input := "declare x = 2\nx = x + 1\nshow x\ndeclare x = 9\n:vars\n"
	code, out, _ := runCLI([]string{"repl"}, input)
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	for _, want := range []string{
		PROMPT + "3\n",
		"ERROR: 1:9: variable 'x' is already declared",
		"  x = 3 (INTEGER)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("repl output missing %q:\n%s", want, out)
		}
	}
}

func TestTokens(t *testing.T) {
	path := writeFile(t, "t.dl", "show x")
	code, out, _ := runCLI([]string{"tokens", path}, "")
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[0], "SHOW") || !strings.HasPrefix(lines[2], "EOF") {
		t.Fatalf("tokens wrong:\n%s", out)
	}
}

func TestCheck(t *testing.T) {
	good := writeFile(t, "good.yaml", `
cases:
  - name: shows
    source: show "a"
    output: ["a"]
`)
	code, out, _ := runCLI([]string{"check", good}, "")
	if code != 0 || !strings.Contains(out, "PASS  shows") || !strings.Contains(out, "1 passed, 0 failed") {
		t.Fatalf("code=%d out=%q", code, out)
	}

	bad := writeFile(t, "bad.yaml", `
cases:
  - name: wrong
    source: show "a"
    output: ["b"]
`)
	code, out, _ = runCLI([]string{"check", bad}, "")
	if code != 1 || !strings.Contains(out, "FAIL  wrong") {
		t.Fatalf("code=%d out=%q", code, out)
	}
}

func TestHashPassword(t *testing.T) {
	code, out, _ := runCLI([]string{"hash-password", "pw"}, "")
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if !auth.VerifyPassword(strings.TrimSpace(out), "pw") {
		t.Fatalf("printed hash does not verify: %q", out)
	}
}

func TestUnknownCommand(t *testing.T) {
	code, _, errOut := runCLI([]string{"frobnicate"}, "")
	if code != 1 || !strings.Contains(errOut, "Unknown command: frobnicate") {
		t.Fatalf("code=%d err=%q", code, errOut)
	}
	if code, out, _ := runCLI([]string{"version"}, ""); code != 0 || !strings.HasPrefix(out, "declang ") {
		t.Fatalf("version code=%d out=%q", code, out)
	}
}
