package app

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeStory(t *testing.T, scenes map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range scenes {
		if err := os.WriteFile(filepath.Join(dir, name+".txt"), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestRun_DOTOutput(t *testing.T) {
	dir := writeStory(t, map[string]string{
		"startup": "Once upon a time.\n*finish",
	})

	var stdout, stderr bytes.Buffer
	application := New(&stdout, &stderr)
	if err := application.Run([]string{dir}); err != nil {
		t.Fatalf("Run returned error: %v\nstderr: %s", err, stderr.String())
	}

	out := stdout.String()
	if !strings.HasPrefix(out, "digraph story {") {
		t.Errorf("output does not start with digraph header:\n%s", out)
	}
	if !strings.Contains(out, "Once upon a time.") {
		t.Errorf("output missing prose node:\n%s", out)
	}
}

func TestRun_JSONOutputToFile(t *testing.T) {
	dir := writeStory(t, map[string]string{
		"startup": "*goto_scene ending\n",
		"ending":  "The end.\n*finish",
	})
	outPath := filepath.Join(t.TempDir(), "story.json")

	var stdout, stderr bytes.Buffer
	application := New(&stdout, &stderr)
	if err := application.Run([]string{"-f", "json", "-o", outPath, dir}); err != nil {
		t.Fatalf("Run returned error: %v\nstderr: %s", err, stderr.String())
	}

	raw, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		EntryPoints map[string]int `json:"entryPoints"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if _, ok := doc.EntryPoints["startup"]; !ok {
		t.Errorf("entryPoints missing startup: %v", doc.EntryPoints)
	}
	if _, ok := doc.EntryPoints["ending"]; !ok {
		t.Errorf("entryPoints missing ending: %v", doc.EntryPoints)
	}
}

func TestRun_SingleSceneFile(t *testing.T) {
	dir := writeStory(t, map[string]string{
		"chapter1": "A lone chapter.\n*finish",
	})

	var stdout, stderr bytes.Buffer
	application := New(&stdout, &stderr)
	if err := application.Run([]string{filepath.Join(dir, "chapter1.txt")}); err != nil {
		t.Fatalf("Run returned error: %v\nstderr: %s", err, stderr.String())
	}
	if !strings.Contains(stdout.String(), "A lone chapter.") {
		t.Errorf("output missing scene prose:\n%s", stdout.String())
	}
}

func TestRun_WarningsOnStderr(t *testing.T) {
	dir := writeStory(t, map[string]string{
		"startup": "*goto missing_label\n",
	})

	var stdout, stderr bytes.Buffer
	application := New(&stdout, &stderr)
	if err := application.Run([]string{dir}); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !strings.Contains(stderr.String(), "missing_label") {
		t.Errorf("stderr missing unresolved reference warning:\n%s", stderr.String())
	}
}

func TestRun_StrictModeFails(t *testing.T) {
	dir := writeStory(t, map[string]string{
		"startup": "*if gold > 10\nrich\n*else\npoor\n*else\nbroke\n",
	})

	var stdout, stderr bytes.Buffer
	application := New(&stdout, &stderr)
	if err := application.Run([]string{"--strict", dir}); err == nil {
		t.Error("expected strict mode to fail on duplicate else")
	}
}

func TestRun_MissingStory(t *testing.T) {
	var stdout, stderr bytes.Buffer
	application := New(&stdout, &stderr)
	if err := application.Run([]string{}); err == nil {
		t.Error("expected error when no story path given")
	}
}

func TestRun_Help(t *testing.T) {
	var stdout, stderr bytes.Buffer
	application := New(&stdout, &stderr)
	if err := application.Run([]string{"--help"}); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
}
