package server

import (
	"bytes"
	"errors"
	"erdv/internal/codec"
	"erdv/internal/errs"
	"erdv/internal/generators"
	"erdv/internal/logger"
	"erdv/internal/responses"
	"erdv/internal/schema"
	"erdv/internal/workspace"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Health handles GET /healthz
func Health(c *gin.Context) {
	responses.Success(c, http.StatusOK, gin.H{"status": "ok"}, "")
}

type DiagramHandler struct {
	ws *workspace.Workspace
}

func NewDiagramHandler(ws *workspace.Workspace) *DiagramHandler {
	return &DiagramHandler{ws: ws}
}

// Normalize handles POST /api/v1/diagrams/normalize
func (h *DiagramHandler) Normalize(c *gin.Context) {
	d, err := readDiagram(c)
	if err != nil {
		fail(c, err, "Invalid diagram")
		return
	}
	responses.Success(c, http.StatusOK, d, "Diagram normalized")
}

// Render handles POST /api/v1/diagrams/render/:format
//
// With ?raw=true the rendered text is returned as the body instead of the
// JSON envelope.
func (h *DiagramHandler) Render(c *gin.Context) {
	format, err := generators.Canonical(c.Param("format"))
	if err != nil {
		fail(c, err, "Unknown format")
		return
	}

	d, err := readDiagram(c)
	if err != nil {
		fail(c, err, "Invalid diagram")
		return
	}

	content, err := generators.Render(format, d)
	if err != nil {
		fail(c, err, "Failed to render diagram")
		return
	}

	if raw, _ := strconv.ParseBool(c.Query("raw")); raw {
		c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(content))
		return
	}

	responses.Success(c, http.StatusOK, gin.H{
		"format":  format,
		"content": content,
	}, "Diagram rendered")
}

// Load handles GET /api/v1/diagrams/*path
func (h *DiagramHandler) Load(c *gin.Context) {
	p := storePath(c)
	res, err := h.ws.LoadDiagram(c.Request.Context(), p)
	if err != nil {
		fail(c, err, fmt.Sprintf("Failed to load %s", p))
		return
	}
	responses.Success(c, http.StatusOK, res, "")
}

// Save handles PUT /api/v1/diagrams/*path
func (h *DiagramHandler) Save(c *gin.Context) {
	d, err := readDiagram(c)
	if err != nil {
		fail(c, err, "Invalid diagram")
		return
	}

	p := storePath(c)
	if _, err := h.ws.SaveDiagram(c.Request.Context(), p, d); err != nil {
		fail(c, err, fmt.Sprintf("Failed to save %s", p))
		return
	}
	responses.Success(c, http.StatusOK, gin.H{"file_path": p}, "Diagram saved")
}

type SpreadsheetHandler struct {
	ws *workspace.Workspace
}

func NewSpreadsheetHandler(ws *workspace.Workspace) *SpreadsheetHandler {
	return &SpreadsheetHandler{ws: ws}
}

// Import handles GET /api/v1/spreadsheets/*path
func (h *SpreadsheetHandler) Import(c *gin.Context) {
	p := storePath(c)
	data, err := h.ws.ImportSpreadsheet(c.Request.Context(), p)
	if err != nil {
		fail(c, err, fmt.Sprintf("Failed to import %s", p))
		return
	}
	c.Data(http.StatusOK, xlsxContentType, data)
}

// Export handles PUT /api/v1/spreadsheets/*path
func (h *SpreadsheetHandler) Export(c *gin.Context) {
	data, err := readBody(c)
	if err != nil {
		fail(c, err, "Invalid spreadsheet")
		return
	}
	if len(data) == 0 {
		fail(c, errs.New(errs.KindEmpty, "file is empty"), "Invalid spreadsheet")
		return
	}

	p := storePath(c)
	if _, err := h.ws.ExportSpreadsheet(c.Request.Context(), p, data); err != nil {
		fail(c, err, fmt.Sprintf("Failed to export %s", p))
		return
	}
	responses.Success(c, http.StatusOK, gin.H{"file_path": p, "bytes": len(data)}, "Spreadsheet saved")
}

// readDiagram decodes the request body the same way a diagram file is
// loaded.
func readDiagram(c *gin.Context) (*schema.Diagram, error) {
	data, err := readBody(c)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errs.New(errs.KindEmpty, "request body is empty")
	}
	return codec.Load(data)
}

func readBody(c *gin.Context) ([]byte, error) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, workspace.MaxFileSize)
	data, err := io.ReadAll(body)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, errs.Newf(errs.KindTooLarge, "file is too large (max %dMB)", workspace.MaxFileSize/(1024*1024))
		}
		return nil, errs.Wrap(errs.KindIO, "failed to read request body", err)
	}
	return data, nil
}

// fail logs err on the request logger and writes the error envelope. An
// oversized body is left partly unread, so the connection is not reused.
func fail(c *gin.Context, err error, message string) {
	status := responses.StatusFor(err)
	log := logger.FromContext(c.Request.Context())
	if status >= http.StatusInternalServerError {
		log.Errorf("%s: %v", message, err)
	} else {
		log.Warnf("%s: %v", message, err)
	}

	if errs.IsTooLarge(err) {
		c.Header("Connection", "close")
	}
	responses.Fail(c, status, err, message)
}

func storePath(c *gin.Context) string {
	return strings.TrimPrefix(c.Param("path"), "/")
}
