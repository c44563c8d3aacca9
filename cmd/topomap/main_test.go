package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"topomap/internal/codec"
)

const fixtureDoc = `
admin: true
equipment:
  - id: 1
    name: olt-1
    type: Olt
    tenant: 5
    x: 0
    y: 0
    ports:
      - {id: 11, name: pon-1, type: Fibra, speed: 10G, connected_to: 21}
  - id: 2
    name: sw-1
    type: Switch
    tenant: 5
    x: 100
    y: 0
    ports:
      - {id: 21, name: ge-1, type: Fibra, speed: 10G}
  - id: 3
    name: other
    tenant: 6
`

// writeConfig lays out a fixture source and a file position store in a
// temporary directory and returns the config path
func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	fixture := filepath.Join(dir, "inventory.yaml")
	require.NoError(t, os.WriteFile(fixture, []byte(fixtureDoc), 0644))

	cfg := "source:\n" +
		"  kind: fixture\n" +
		"  fixture: " + fixture + "\n" +
		"positions:\n" +
		"  backend: file\n" +
		"  path: " + filepath.Join(dir, "positions.json") + "\n"
	path := filepath.Join(dir, "topomap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSceneCommand(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, "--config", cfg, "scene", "--tenant", "5", "--format", "json")
	require.NoError(t, err)

	var doc codec.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	if doc.Scene == nil {
		t.Fatal("expected a scene")
	}
	if len(doc.Scene.Nodes) != 2 {
		t.Errorf("expected 2 nodes for tenant 5, got %d", len(doc.Scene.Nodes))
	}
	if len(doc.Scene.Edges) != 1 || doc.Scene.Edges[0].D != "M 0,0 L 100,0" {
		t.Errorf("unexpected edges %+v", doc.Scene.Edges)
	}
}

func TestSceneCommandNeedsTenant(t *testing.T) {
	cfg := writeConfig(t)

	_, err := run(t, "--config", cfg, "scene")
	if err == nil || !strings.Contains(err.Error(), "no tenant") {
		t.Errorf("expected missing tenant error, got %v", err)
	}

	_, err = run(t, "--config", cfg, "scene", "-t", "5", "-f", "dot")
	if err == nil || !strings.Contains(err.Error(), "unknown export format") {
		t.Errorf("expected unknown format error, got %v", err)
	}
}

func TestPositionsCommands(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, "--config", cfg, "positions", "show")
	require.NoError(t, err)
	if !strings.Contains(out, "no saved positions") {
		t.Errorf("expected empty notice, got %q", out)
	}

	input := filepath.Join(filepath.Dir(cfg), "layout.yaml")
	require.NoError(t, os.WriteFile(input, []byte("positions:\n  - {id: 1, x: 10, y: 20}\n  - {id: 2, x: 30, y: 40}\n"), 0644))

	out, err = run(t, "--config", cfg, "positions", "import", input)
	require.NoError(t, err)
	if !strings.Contains(out, "imported 2 of 2 positions") {
		t.Errorf("unexpected import output %q", out)
	}

	out, err = run(t, "--config", cfg, "positions", "show", "--format", "json")
	require.NoError(t, err)
	var doc codec.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	if len(doc.Positions) != 2 || doc.Positions[1].X != 30 {
		t.Errorf("unexpected positions %+v", doc.Positions)
	}

	out, err = run(t, "--config", cfg, "scene", "-t", "5", "-f", "json")
	require.NoError(t, err)
	doc = codec.Document{}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.NotNil(t, doc.Scene)
	if len(doc.Scene.Edges) != 1 || doc.Scene.Edges[0].D != "M 10,20 L 30,40" {
		t.Errorf("expected saved layout to drive the edge, got %+v", doc.Scene.Edges)
	}

	out, err = run(t, "--config", cfg, "positions", "clear")
	require.NoError(t, err)
	if !strings.Contains(out, "cleared 2 saved positions") {
		t.Errorf("unexpected clear output %q", out)
	}
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "topomap.toml")

	out, err := run(t, "config", "init", path)
	require.NoError(t, err)
	if !strings.Contains(out, "wrote "+path) {
		t.Errorf("unexpected output %q", out)
	}

	if _, err := run(t, "config", "init", path); err == nil {
		t.Error("expected refusal to overwrite")
	}
	if _, err := run(t, "config", "init", "--force", path); err != nil {
		t.Errorf("expected --force to overwrite, got %v", err)
	}

	out, err = run(t, "--config", path, "config", "show")
	require.NoError(t, err)
	if !strings.Contains(out, "Listen: :8080") {
		t.Errorf("expected summary, got %q", out)
	}
}
