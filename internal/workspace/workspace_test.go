package workspace

import (
	"context"
	"erdv/internal/codec"
	"erdv/internal/errs"
	"erdv/internal/generators"
	"erdv/internal/schema"
	"erdv/internal/store"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const customerDiagram = `{
  "entities": {
    "e1": {"id": "e1", "name": "고객", "width": 0,
      "attributes": [{"name": "아이디", "data_type": "INT", "is_primary_key": true, "is_nullable": false}]}
  },
  "relations": []
}`

func newWorkspace(t *testing.T) (*Workspace, string) {
	t.Helper()
	root := t.TempDir()
	return New(store.NewLocal(root), nil), root
}

func writeFile(t *testing.T, root, name string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, name), data, 0644))
}

func TestLoadDiagram(t *testing.T) {
	ws, root := newWorkspace(t)
	writeFile(t, root, "shop.JSON", []byte(customerDiagram))

	res, err := ws.LoadDiagram(context.Background(), "shop.JSON")
	require.NoError(t, err)

	assert.Equal(t, "shop.JSON", res.FilePath)
	e1 := res.Diagram.Entities["e1"]
	assert.Equal(t, "고객", e1.LogicalName)
	assert.Equal(t, "unnamed", e1.PhysicalName)
	assert.Equal(t, schema.DefaultWidth, e1.Width)
}

func TestLoadDiagram_Gate(t *testing.T) {
	ws, root := newWorkspace(t)
	writeFile(t, root, "notes.txt", []byte(customerDiagram))
	writeFile(t, root, "noext", []byte(customerDiagram))
	writeFile(t, root, "blank.json", []byte(" \n\t "))
	writeFile(t, root, "broken.json", []byte(`{"entities": `))

	big := filepath.Join(root, "big")
	f, err := os.Create(big)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(MaxFileSize+1))
	require.NoError(t, f.Close())

	tests := []struct {
		path string
		kind errs.Kind
		msg  string
	}{
		{"notes.txt", errs.KindUnsupportedType, "only .json files are supported"},
		{"noext", errs.KindUnsupportedType, "file extension is required, choose a JSON file"},
		{"blank.json", errs.KindEmpty, "file is empty"},
		{"broken.json", errs.KindParse, "cannot parse diagram"},
		{"big", errs.KindTooLarge, "file is too large (max 10MB)"},
		{"missing.json", errs.KindNotFound, "failed to stat missing.json"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			res, err := ws.LoadDiagram(context.Background(), tt.path)
			assert.Nil(t, res)
			require.Error(t, err)
			assert.Equal(t, tt.kind, errs.KindOf(err))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	ws, root := newWorkspace(t)
	d, err := codec.Load([]byte(customerDiagram))
	require.NoError(t, err)

	where, err := ws.SaveDiagram(context.Background(), "out/shop.json", d)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "out", "shop.json"), where)

	res, err := ws.LoadDiagram(context.Background(), "out/shop.json")
	require.NoError(t, err)
	assert.Equal(t, d, res.Diagram)

	_, err = ws.SaveDiagram(context.Background(), "nil.json", nil)
	assert.True(t, errs.IsInvalidInput(err))

	_, err = ws.SaveDiagram(context.Background(), "shop.yaml", d)
	assert.True(t, errs.IsUnsupportedType(err))
}

func TestExport(t *testing.T) {
	ws, root := newWorkspace(t)
	d, err := codec.Load([]byte(customerDiagram))
	require.NoError(t, err)

	where, err := ws.Export(context.Background(), "erd.md", "mermaid", d)
	require.NoError(t, err)
	data, err := os.ReadFile(where)
	require.NoError(t, err)
	assert.Equal(t, generators.Mermaid(d), string(data))

	where, err = ws.Export(context.Background(), "", "markdown", d)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "erd.md"), where)

	_, err = ws.Export(context.Background(), "x.svg", "svg", d)
	assert.True(t, errs.IsInvalidInput(err))
}

func TestSpreadsheets(t *testing.T) {
	ws, root := newWorkspace(t)
	payload := []byte{0x50, 0x4b, 0x03, 0x04, 0x00, 0xff}

	where, err := ws.ExportSpreadsheet(context.Background(), "erd.xlsx", payload)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "erd.xlsx"), where)

	got, err := ws.ImportSpreadsheet(context.Background(), "erd.xlsx")
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	writeFile(t, root, "empty.XLSX", nil)
	_, err = ws.ImportSpreadsheet(context.Background(), "empty.XLSX")
	assert.True(t, errs.IsEmpty(err))

	_, err = ws.ExportSpreadsheet(context.Background(), "erd.csv", payload)
	assert.True(t, errs.IsUnsupportedType(err))

	writeFile(t, root, "sheet.csv", payload)
	_, err = ws.ImportSpreadsheet(context.Background(), "sheet.csv")
	assert.True(t, errs.IsUnsupportedType(err))
	assert.Contains(t, err.Error(), "only .xlsx files are supported")
}

func TestCheckExtension(t *testing.T) {
	assert.NoError(t, checkExtension(`C:\data\erd.Json`, ".json"))
	assert.NoError(t, checkExtension("dir.v2/erd.json", ".json"))
	assert.Error(t, checkExtension("dir.json/erd", ".json"))
	assert.Error(t, checkExtension("erd.", ".json"))
}
