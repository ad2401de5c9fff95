// Package workspace moves diagrams and spreadsheets between a store and the
// in-memory model. It owns the file gate: the size ceiling, the extension
// check and the empty-file check all run here, before any decoding.
package workspace

import (
	"bytes"
	"context"
	"erdv/internal/codec"
	"erdv/internal/errs"
	"erdv/internal/generators"
	"erdv/internal/logger"
	"erdv/internal/schema"
	"erdv/internal/store"
	"fmt"
	"io"
	"path"
	"strings"
)

// MaxFileSize is the largest diagram or spreadsheet accepted, checked
// before content is read.
const MaxFileSize int64 = 10 * 1024 * 1024

const (
	diagramExt     = ".json"
	spreadsheetExt = ".xlsx"
)

// LoadResult pairs a loaded diagram with the path it came from.
type LoadResult struct {
	Diagram  *schema.Diagram `json:"diagram"`
	FilePath string          `json:"file_path"`
}

type Workspace struct {
	store store.Store
	log   *logger.Logger
}

func New(st store.Store, log *logger.Logger) *Workspace {
	if log == nil {
		log = logger.Nop()
	}
	return &Workspace{store: st, log: log}
}

// LoadDiagram reads, decodes, normalizes and limit-checks the diagram at p.
func (w *Workspace) LoadDiagram(ctx context.Context, p string) (*LoadResult, error) {
	data, err := w.read(ctx, p, diagramExt)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errs.New(errs.KindEmpty, "file is empty")
	}

	d, err := codec.Load(data)
	if err != nil {
		return nil, err
	}

	w.log.With().Str("path", p).Int("entities", len(d.Entities)).Int("relations", len(d.Relations)).
		Logger().Debug("diagram loaded")
	return &LoadResult{Diagram: d, FilePath: p}, nil
}

// SaveDiagram writes d in its persisted form and returns where it went.
func (w *Workspace) SaveDiagram(ctx context.Context, p string, d *schema.Diagram) (string, error) {
	if err := checkExtension(p, diagramExt); err != nil {
		return "", err
	}
	data, err := codec.Serialize(d)
	if err != nil {
		return "", err
	}
	return w.write(ctx, p, data)
}

// Export renders d in format and writes it to p. An empty p falls back to
// the format's default file name.
func (w *Workspace) Export(ctx context.Context, p, format string, d *schema.Diagram) (string, error) {
	content, err := generators.Render(format, d)
	if err != nil {
		return "", err
	}
	if p == "" {
		if p, err = generators.DefaultFileName("", format); err != nil {
			return "", err
		}
	}
	return w.write(ctx, p, []byte(content))
}

// ImportSpreadsheet returns the raw bytes of an .xlsx file. The content is
// opaque here.
func (w *Workspace) ImportSpreadsheet(ctx context.Context, p string) ([]byte, error) {
	data, err := w.read(ctx, p, spreadsheetExt)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errs.New(errs.KindEmpty, "file is empty")
	}
	return data, nil
}

// ExportSpreadsheet writes data unchanged.
func (w *Workspace) ExportSpreadsheet(ctx context.Context, p string, data []byte) (string, error) {
	if err := checkExtension(p, spreadsheetExt); err != nil {
		return "", err
	}
	return w.write(ctx, p, data)
}

// read applies the size and extension gates, in that order, then reads at
// most MaxFileSize bytes.
func (w *Workspace) read(ctx context.Context, p, ext string) ([]byte, error) {
	info, err := w.store.Stat(ctx, p)
	if err != nil {
		return nil, err
	}
	if info.Size > MaxFileSize {
		return nil, tooLarge()
	}
	if err := checkExtension(p, ext); err != nil {
		return nil, err
	}

	rc, err := w.store.Open(ctx, p)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, MaxFileSize+1))
	if err != nil {
		return nil, errs.Wrap(errs.KindIO, fmt.Sprintf("cannot read '%s'", p), err)
	}
	if int64(len(data)) > MaxFileSize {
		return nil, tooLarge()
	}
	return data, nil
}

func (w *Workspace) write(ctx context.Context, p string, data []byte) (string, error) {
	where, err := w.store.Write(ctx, p, data)
	if err != nil {
		return "", err
	}
	w.log.With().Str("path", where).Int("bytes", len(data)).Logger().Debug("file written")
	return where, nil
}

func checkExtension(p, want string) error {
	kind := strings.ToUpper(strings.TrimPrefix(want, "."))
	ext := path.Ext(strings.ReplaceAll(p, `\`, "/"))
	if ext == "" || ext == "." {
		return errs.Newf(errs.KindUnsupportedType, "file extension is required, choose a %s file", kind)
	}
	if !strings.EqualFold(ext, want) {
		return errs.Newf(errs.KindUnsupportedType, "only %s files are supported", want)
	}
	return nil
}

func tooLarge() error {
	return errs.Newf(errs.KindTooLarge, "file is too large (max %dMB)", MaxFileSize/(1024*1024))
}
