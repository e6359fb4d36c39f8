package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestLoadLogsCounts(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	input := writeFile(t, "berg.ged", sample)

	var buf bytes.Buffer
	c := New(&buf, LogInfo)
	root := c.RootCommand()
	root.SetArgs([]string{"layout", input, "-o", filepath.Join(t.TempDir(), "out.json"), "--view-dir", t.TempDir()})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Loaded 3 persons, 1 families (") {
		t.Errorf("log output missing load summary:\n%s", buf.String())
	}
}

func TestLoadLogsToContextLogger(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	input := writeFile(t, "berg.ged", sample)

	var cliBuf, ctxBuf bytes.Buffer
	c := New(&cliBuf, LogInfo)
	c.viewDir = t.TempDir()
	ctx := withLogger(context.Background(), newLogger(&ctxBuf, log.InfoLevel))

	s, err := c.openSession(ctx, c.RootCommand(), input, &layoutFlags{view: "berg"})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if !strings.Contains(ctxBuf.String(), "Loaded 3 persons") {
		t.Errorf("context logger got %q", ctxBuf.String())
	}
	if cliBuf.Len() != 0 {
		t.Errorf("CLI logger should stay silent, got %q", cliBuf.String())
	}
}

func TestProgressQuietBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	newProgress(newLogger(&buf, log.WarnLevel)).done("Rendered 2 files")
	if buf.Len() != 0 {
		t.Errorf("progress logged at warn level: %q", buf.String())
	}
}

func TestLoggerFromContextFallsBack(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("bare context should yield the default logger")
	}
}
