package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	store "github.com/quillcms/quill/internal/store"
)

func captureOutput(t *testing.T, fn func() error) (stdout, stderr string, err error) {
	t.Helper()
	oldOut, oldErr := os.Stdout, os.Stderr
	defer func() {
		os.Stdout, os.Stderr = oldOut, oldErr
	}()

	outR, outW, _ := os.Pipe()
	errR, errW, _ := os.Pipe()
	os.Stdout, os.Stderr = outW, errW

	doneOut := make(chan struct{})
	var bufOut bytes.Buffer
	go func() { io.Copy(&bufOut, outR); close(doneOut) }()

	doneErr := make(chan struct{})
	var bufErr bytes.Buffer
	go func() { io.Copy(&bufErr, errR); close(doneErr) }()

	err = fn()
	outW.Close()
	errW.Close()
	<-doneOut
	<-doneErr
	stdout, stderr = bufOut.String(), bufErr.String()
	return
}

func TestHelp(t *testing.T) {
	out, _, err := captureOutput(t, func() error {
		return run([]string{"help", "serve"})
	})
	require.NoError(t, err)
	require.Contains(t, out, "serve FLAGS")
}

func TestUnknownCommand(t *testing.T) {
	_, stderr, err := captureOutput(t, func() error {
		return run([]string{"frobnicate"})
	})
	require.Error(t, err)
	require.Contains(t, stderr, "USAGE")
}

func TestServeRequiresConfig(t *testing.T) {
	_, _, err := captureOutput(t, func() error {
		return run([]string{"serve"})
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "-config is required")
}

func TestCheckConfig(t *testing.T) {
	cfgPath := filepath.Join("..", "..", "examples", "blog", "quill.yaml")
	out, _, err := captureOutput(t, func() error {
		return run([]string{"check-config", "-config", cfgPath})
	})
	require.NoError(t, err)
	require.Contains(t, out, "posts")
	require.Contains(t, out, "comments")
}

func TestSeed(t *testing.T) {
	mem := store.NewMemory()
	n, err := seed(mem, filepath.Join("..", "..", "examples", "blog", "seed.json"))
	require.NoError(t, err)
	require.Equal(t, 11, n)

	// _draft markers become draft visibility, not document data.
	ctx := t.Context()
	doc, err := mem.Get(ctx, "posts", "post-3", false)
	require.NoError(t, err)
	require.Nil(t, doc)
	doc, err = mem.Get(ctx, "posts", "post-3", true)
	require.NoError(t, err)
	require.NotNil(t, doc)
	_, present := doc["_draft"]
	require.False(t, present)
}

func TestCheckConfig_RejectsBadSchema(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "bad.yaml")
	bad := `
collections:
  - slug: posts
    fields:
      - name: author
        type: relationship
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(bad), 0o644))

	_, _, err := captureOutput(t, func() error {
		return run([]string{"check-config", "-config", cfgPath})
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "names no target collection")
}
