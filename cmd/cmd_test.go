package cmd

import (
	"bytes"
	"context"
	"database/sql"
	"erdv/internal/codec"
	"erdv/internal/errs"
	"erdv/internal/generators"
	"erdv/internal/store"
	"erdv/internal/workspace"
	"erdv/pkg/config"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const legacyDiagram = `{"entities": {
  "e1": {"id": "e1", "name": "Customer", "width": 0,
    "attributes": [{"name": "Customer ID", "data_type": "INT", "is_primary_key": true, "is_nullable": false}]},
  "e2": {"id": "e2", "logical_name": "Order", "physical_name": "orders"}},
 "relations": [{"id": "r1", "from_entity_id": "e1", "from_attribute": "Customer ID", "to_entity_id": "e2",
   "to_attribute": null, "cardinality": "OneToMany", "name": "places"}]}`

// withConfig swaps the package config for the duration of a test.
func withConfig(t *testing.T, c config.Config) {
	t.Helper()
	saved := cfg
	cfg = c
	t.Cleanup(func() { cfg = saved })
}

func writeDiagram(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(legacyDiagram), 0644))
	return p
}

func localWorkspace() *workspace.Workspace {
	return workspace.New(store.NewLocal(""), nil)
}

func TestCanonicalFormats(t *testing.T) {
	got, err := canonicalFormats([]string{"MMD", "mermaid", " md ", "dot"})
	require.NoError(t, err)
	assert.Equal(t, []string{"mermaid", "markdown", "graphviz"}, got)

	_, err = canonicalFormats([]string{"svg"})
	assert.True(t, errs.IsInvalidInput(err))
	assert.Contains(t, err.Error(), "invalid format 'svg'")

	_, err = canonicalFormats(nil)
	assert.True(t, errs.IsInvalidInput(err))

	none, err := renderFormats(nil)
	assert.NoError(t, err)
	assert.Nil(t, none)
}

func TestOutputPath(t *testing.T) {
	c := config.Default()
	withConfig(t, c)

	p, err := outputPath(filepath.Join("docs", "shop.json"), "mermaid")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("docs", "shop.mermaid.md"), p)

	cfg.Output.Dir = "out"
	p, err = outputPath(filepath.Join("docs", "shop.json"), "plantuml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("out", "shop.puml"), p)

	cfg.Output.File = "custom.dot"
	p, err = outputPath("shop.json", "graphviz")
	require.NoError(t, err)
	assert.Equal(t, "custom.dot", p)
}

func TestRenderDiagram_WritesEveryFormat(t *testing.T) {
	withConfig(t, config.Default())
	dir := t.TempDir()
	src := writeDiagram(t, dir, "shop.json")

	var out bytes.Buffer
	err := renderDiagram(context.Background(), localWorkspace(), src, []string{"mermaid", "markdown", "plantuml", "graphviz"}, &out)
	require.NoError(t, err)

	data, err := os.ReadFile(src)
	require.NoError(t, err)
	d, err := codec.Load(data)
	require.NoError(t, err)

	for _, format := range generators.Formats() {
		name, err := generators.DefaultFileName("shop", format)
		require.NoError(t, err)

		got, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, format)
		want, err := generators.Render(format, d)
		require.NoError(t, err)
		assert.Equal(t, want, string(got), format)
	}

	assert.Contains(t, out.String(), "Entities: 2\n")
	assert.Contains(t, out.String(), "Relations: 1\n")
}

func TestRenderDiagram_Stdout(t *testing.T) {
	c := config.Default()
	c.Output.File = "-"
	withConfig(t, c)
	src := writeDiagram(t, t.TempDir(), "shop.json")

	var out bytes.Buffer
	require.NoError(t, renderDiagram(context.Background(), localWorkspace(), src, []string{"mermaid"}, &out))
	assert.True(t, strings.HasPrefix(out.String(), "```mermaid\nerDiagram\n"))
	assert.Contains(t, out.String(), "    Customer ||--o{ Order : places\n")
}

func TestRenderDiagram_RejectsBadInput(t *testing.T) {
	withConfig(t, config.Default())
	dir := t.TempDir()

	blank := filepath.Join(dir, "blank.json")
	require.NoError(t, os.WriteFile(blank, []byte("  \n"), 0644))
	err := renderDiagram(context.Background(), localWorkspace(), blank, []string{"mermaid"}, &bytes.Buffer{})
	assert.True(t, errs.IsEmpty(err))
	assert.Equal(t, errs.ExitFileRejected, errs.ExitCode(err))

	text := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(text, []byte(legacyDiagram), 0644))
	err = renderDiagram(context.Background(), localWorkspace(), text, []string{"mermaid"}, &bytes.Buffer{})
	assert.True(t, errs.IsUnsupportedType(err))

	err = renderDiagram(context.Background(), localWorkspace(), filepath.Join(dir, "missing.json"), []string{"mermaid"}, &bytes.Buffer{})
	assert.Equal(t, errs.ExitNotFound, errs.ExitCode(err))
}

func TestWatchDiagram(t *testing.T) {
	src := writeDiagram(t, t.TempDir(), "shop.json")
	ctx, cancel := context.WithCancel(context.Background())

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- watchDiagram(ctx, src, func() error {
			calls.Add(1)
			return nil
		})
	}()

	// Keep touching the file until the watcher is up and has fired.
	require.Eventually(t, func() bool {
		require.NoError(t, os.WriteFile(src, []byte(legacyDiagram), 0644))
		return calls.Load() > 0
	}, 5*time.Second, 300*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}

func TestNormalizeCommand(t *testing.T) {
	dir := t.TempDir()
	src := writeDiagram(t, dir, "legacy.json")
	target := filepath.Join(dir, "fixed.json")
	t.Cleanup(func() { normalizeFlags.write, normalizeFlags.output = false, "" })

	rootCmd.SetArgs([]string{"normalize", src, "--output", target})
	require.NoError(t, rootCmd.Execute())

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	d, err := codec.Deserialize(data)
	require.NoError(t, err)
	assert.Equal(t, "customer", d.Entities["e1"].PhysicalName)
	assert.Equal(t, 150.0, d.Entities["e1"].Width)

	normalizeFlags.output = ""
	rootCmd.SetArgs([]string{"normalize", src, "--write", "--output", target})
	err = rootCmd.Execute()
	assert.True(t, errs.IsInvalidInput(err))
}

func TestImportCommand(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "shop.db")

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	_, err = db.Exec(`
CREATE TABLE customers (id INTEGER PRIMARY KEY, email TEXT NOT NULL);
CREATE TABLE orders (id INTEGER PRIMARY KEY, customer_id INTEGER REFERENCES customers(id));`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	out := filepath.Join(dir, "shop.json")
	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		importFlags.output, importFlags.render = "erd.json", nil
	})

	rootCmd.SetArgs([]string{"import", "-d", "sqlite://" + dbPath, "-o", out, "--render", "mermaid"})
	require.NoError(t, rootCmd.Execute())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	d, err := codec.Load(data)
	require.NoError(t, err)
	assert.Len(t, d.Entities, 2)
	require.Len(t, d.Relations, 1)
	assert.Equal(t, "customers", d.Relations[0].FromEntityID)
	assert.Equal(t, "orders", d.Relations[0].ToEntityID)

	assert.FileExists(t, filepath.Join(dir, "shop.mermaid.md"))
	assert.Contains(t, stdout.String(), "Driver: sqlite3\n")
	assert.Contains(t, stdout.String(), "Relations: 1\n")
}

func TestImportCommand_RequiresURL(t *testing.T) {
	withConfig(t, config.Default())
	err := runImport(importCmd, nil)
	assert.True(t, errs.IsInvalidInput(err))
	assert.Equal(t, errs.ExitInvalidInput, errs.ExitCode(err))
}

func TestResolveVersionInfo_LdflagsOverride(t *testing.T) {
	origV, origC, origD := version, commit, date
	defer func() { version, commit, date = origV, origC, origD }()

	version, commit, date = "1.2.3", "abc123", "2026-01-01"
	v, c, d := resolveVersionInfo()
	assert.Equal(t, "1.2.3", v)
	assert.Equal(t, "abc123", c)
	assert.Equal(t, "2026-01-01", d)
}
