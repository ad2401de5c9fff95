package store

import (
	"context"
	"errors"
	"erdv/internal/errs"
	"erdv/pkg/config"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_WriteStatOpen(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	st := NewLocal(root)

	where, err := st.Write(ctx, "shop/erd.json", []byte(`{"entities":{}}`))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "shop", "erd.json"), where)

	info, err := st.Stat(ctx, "shop/erd.json")
	require.NoError(t, err)
	assert.Equal(t, int64(15), info.Size)
	assert.Equal(t, "shop/erd.json", info.Key)

	rc, err := st.Open(ctx, "/shop/erd.json")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, `{"entities":{}}`, string(data))
}

func TestLocal_NotFound(t *testing.T) {
	st := NewLocal(t.TempDir())

	_, err := st.Stat(context.Background(), "missing.json")
	assert.True(t, errs.IsNotFound(err))

	_, err = st.Open(context.Background(), "missing.json")
	assert.True(t, errs.IsNotFound(err))
}

func TestLocal_RejectsEscapesAndDirectories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "dir"), 0755))
	st := NewLocal(root)
	ctx := context.Background()

	_, err := st.Stat(ctx, "../outside.json")
	assert.True(t, errs.IsInvalidInput(err))

	_, err = st.Write(ctx, "a/../../b.json", nil)
	assert.True(t, errs.IsInvalidInput(err))

	_, err = st.Stat(ctx, "dir")
	assert.True(t, errs.IsInvalidInput(err))

	_, err = st.Stat(ctx, "  ")
	assert.True(t, errs.IsInvalidInput(err))
}

func TestLocal_Unrooted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.md")
	st := NewLocal("")

	where, err := st.Write(context.Background(), path, []byte("# ERD Diagram\n\n"))
	require.NoError(t, err)
	assert.Equal(t, path, where)

	info, err := st.Stat(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, int64(15), info.Size)
}

func TestNew_Providers(t *testing.T) {
	st, err := New(context.Background(), config.StorageConfig{Provider: "LOCAL", Root: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &Local{}, st)

	_, err = New(context.Background(), config.StorageConfig{Provider: "ftp"})
	assert.True(t, errs.IsInvalidInput(err))

	_, err = New(context.Background(), config.StorageConfig{Provider: ProviderMinIO, Endpoint: "localhost:9000"})
	assert.True(t, errs.IsInvalidInput(err), "bucket is required")
}

func TestObjectName(t *testing.T) {
	tests := map[string]string{
		"erd.json":         "erd.json",
		"/shop/erd.json":   "shop/erd.json",
		`shop\erd.json`:    "shop/erd.json",
		"a/../../b.json":   "b.json",
		"./nested//x.xlsx": "nested/x.xlsx",
	}
	for in, want := range tests {
		got, err := objectName(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := objectName("/")
	assert.True(t, errs.IsInvalidInput(err))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/json", contentType("a/b.JSON"))
	assert.Equal(t, "text/markdown; charset=utf-8", contentType("erd.mermaid.md"))
	assert.Equal(t, "application/octet-stream", contentType("blob"))
}

func TestMapMinIOError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errs.Kind
	}{
		{"no such key", miniogo.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound}, errs.KindNotFound},
		{"no such bucket", miniogo.ErrorResponse{Code: "NoSuchBucket"}, errs.KindNotFound},
		{"bare 404", miniogo.ErrorResponse{StatusCode: http.StatusNotFound}, errs.KindNotFound},
		{"bad name", miniogo.ErrorResponse{Code: "InvalidObjectName", StatusCode: http.StatusBadRequest}, errs.KindInvalidInput},
		{"denied", miniogo.ErrorResponse{Code: "AccessDenied", StatusCode: http.StatusForbidden}, errs.KindIO},
		{"wrapped", fmt.Errorf("get: %w", miniogo.ErrorResponse{Code: "NoSuchKey"}), errs.KindNotFound},
		{"canceled", context.Canceled, errs.KindIO},
		{"other", errors.New("dial tcp: refused"), errs.KindIO},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapMinIOError(tt.err, "failed")
			require.Error(t, err)
			assert.Equal(t, tt.want, errs.KindOf(err))
			assert.Contains(t, err.Error(), "failed: ")
		})
	}
}
