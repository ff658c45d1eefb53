package objectstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinKey(t *testing.T) {
	tests := []struct {
		name  string
		parts []string
		want  string
	}{
		{"simple", []string{"rex-temp", "u1", "s1", "a.pdf"}, "rex-temp/u1/s1/a.pdf"},
		{"traversal", []string{"rex-temp", "../../etc/passwd"}, "rex-temp/etc/passwd"},
		{"backslashes", []string{"a", `dir\file.pdf`}, "a/dir/file.pdf"},
		{"empty parts", []string{"", "a", "", "b"}, "a/b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, JoinKey(tt.parts...))
		})
	}
}

func TestLocalStore_PutGet(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	err = store.Put(ctx, "s1/doc.pdf", strings.NewReader("%PDF-1.4"), 8, "application/pdf")
	require.NoError(t, err)

	rc, err := store.Get(ctx, "s1/doc.pdf")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))
}

func TestLocalStore_GetMissing(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "nope.pdf")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalStore_CopyAndDeletePrefix(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "tmp/s1/a.pdf", strings.NewReader("A"), 1, ""))
	require.NoError(t, store.Copy(ctx, "tmp/s1/a.pdf", "perm/x/bl_a.pdf"))

	require.NoError(t, store.DeletePrefix(ctx, "tmp/s1"))

	_, err = os.Stat(filepath.Join(root, "tmp", "s1"))
	assert.True(t, os.IsNotExist(err))

	rc, err := store.Get(ctx, "perm/x/bl_a.pdf")
	require.NoError(t, err)
	rc.Close()

	require.NoError(t, store.Delete(ctx, "perm/x/bl_a.pdf"))
	require.NoError(t, store.Delete(ctx, "perm/x/bl_a.pdf"))
}
