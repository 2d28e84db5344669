package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/chwoo19999-a11y/my-first-project/models"
)

func TestFileBackendReadMissing(t *testing.T) {
	b, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)

	_, err = b.Read(context.Background(), "users.csv")
	assert.ErrorIs(t, err, ErrBlobNotFound)
}

func TestFileBackendWriteBatch(t *testing.T) {
	ctx := context.Background()
	b, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, b.WriteBatch(ctx, map[string][]byte{"a.csv": []byte("a"), "b.json": []byte("{}")}))
	require.NoError(t, b.WriteBatch(ctx, map[string][]byte{"a.csv": []byte("a2")}))

	got, err := b.Read(ctx, "a.csv")
	require.NoError(t, err)
	assert.Equal(t, "a2", string(got))
	got, err = b.Read(ctx, "b.json")
	require.NoError(t, err)
	assert.Equal(t, "{}", string(got))
	assertNoTempFiles(t, b.Dir())
}

func TestFileBackendRestoresOnFailedRename(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	b, err := NewFileBackend(dir)
	require.NoError(t, err)
	require.NoError(t, b.WriteBatch(ctx, map[string][]byte{"a.csv": []byte("old")}))

	// a non-empty directory cannot be replaced by a file
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "b.csv", "sub"), 0o755))

	err = b.WriteBatch(ctx, map[string][]byte{"a.csv": []byte("new"), "b.csv": []byte("x")})
	require.Error(t, err)

	got, err := b.Read(ctx, "a.csv")
	require.NoError(t, err)
	assert.Equal(t, "old", string(got))
	assertNoTempFiles(t, dir)
}

func TestGormBackendSQLite(t *testing.T) {
	ctx := context.Background()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "store.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.TableSnapshot{}))
	b := NewGormBackend(db)

	_, err = b.Read(ctx, "posts.csv")
	assert.ErrorIs(t, err, ErrBlobNotFound)

	require.NoError(t, b.WriteBatch(ctx, map[string][]byte{"posts.csv": []byte("post_id\n"), "user_likes.json": []byte("{}")}))
	require.NoError(t, b.WriteBatch(ctx, map[string][]byte{"posts.csv": []byte("post_id\n1\n")}))

	got, err := b.Read(ctx, "posts.csv")
	require.NoError(t, err)
	assert.Equal(t, "post_id\n1\n", string(got))

	var count int64
	require.NoError(t, db.Model(&models.TableSnapshot{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestStoreOverGormBackend(t *testing.T) {
	ctx := context.Background()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "store.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.TableSnapshot{}))

	s := New(NewGormBackend(db))
	require.NoError(t, s.Append(ctx, TableComments, Row{"comment_id": "1", "content": "hi"}))

	fresh := New(NewGormBackend(db))
	rows, err := fresh.Load(ctx, TableComments)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "hi", rows[0]["content"])
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "leftover temp file %s", e.Name())
	}
}
