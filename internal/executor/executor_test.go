package executor

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestScriptCommandTable(t *testing.T) {
	cases := []struct {
		language string
		wantName string
	}{
		{"powershell", "powershell"},
		{"", "powershell"},
		{"bash", "bash"},
		{"python", "python3"},
		{"cmd", "cmd"},
	}
	for _, c := range cases {
		name, _, err := ScriptCommand(c.language, "echo hi")
		if err != nil {
			t.Fatalf("ScriptCommand(%q): %v", c.language, err)
		}
		if name != c.wantName {
			t.Fatalf("ScriptCommand(%q) name = %q, want %q", c.language, name, c.wantName)
		}
	}
}

func TestScriptCommandUnsupportedLanguage(t *testing.T) {
	if _, _, err := ScriptCommand("ruby", "puts 1"); err == nil {
		t.Fatal("expected error for unsupported language")
	}
}

func TestRunCapturesSuccess(t *testing.T) {
	res := Run(context.Background(), 5*time.Second, "", nil, "bash", "-c", "echo hello")
	if res.Status != StatusSuccess {
		t.Fatalf("Status = %q, want success", res.Status)
	}
	if strings.TrimSpace(res.Stdout) != "hello" {
		t.Fatalf("Stdout = %q, want hello", res.Stdout)
	}
}

func TestRunReportsNonZeroExit(t *testing.T) {
	res := Run(context.Background(), 5*time.Second, "", nil, "bash", "-c", "exit 3")
	if res.Status != StatusFailed {
		t.Fatalf("Status = %q, want failed", res.Status)
	}
	if !res.HasExitCode || res.ExitCode != 3 {
		t.Fatalf("ExitCode = %d (has=%v), want 3", res.ExitCode, res.HasExitCode)
	}
}

func TestRunTimesOut(t *testing.T) {
	res := Run(context.Background(), 50*time.Millisecond, "", nil, "bash", "-c", "sleep 5")
	if res.Status != StatusTimeout {
		t.Fatalf("Status = %q, want timeout", res.Status)
	}
}

func TestTruncateAppendsSuffix(t *testing.T) {
	big := strings.Repeat("a", maxOutputBytes+10)
	got := truncate(big)
	if len(got) != maxOutputBytes+len(truncationSuffix) {
		t.Fatalf("truncated length = %d, want %d", len(got), maxOutputBytes+len(truncationSuffix))
	}
	if !strings.HasSuffix(got, truncationSuffix) {
		t.Fatal("truncated output missing suffix")
	}
}

func TestTruncateLeavesShortOutputAlone(t *testing.T) {
	if got := truncate("short"); got != "short" {
		t.Fatalf("truncate(short) = %q, want unchanged", got)
	}
}
