package ops

import (
	"archive/tar"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func readTree(t *testing.T, root string) map[string]string {
	t.Helper()
	got := map[string]string{}
	require.NoError(t, filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		got[filepath.ToSlash(rel)] = string(b)
		return nil
	}))
	return got
}

func TestBackupRestoreRoundTrip(t *testing.T) {
	src := filepath.Join(t.TempDir(), "data")
	files := map[string]string{
		"auth/auth.json":  `{"UsersByID":{"user_1":{"id":"user_1","email":"a@example.com"}}}`,
		"seed/demo.yaml":  "tasks:\n  - title: Laundry\n",
		"notes/todo.json": `{"items":[]}`,
	}
	writeTree(t, src, files)

	archive := filepath.Join(t.TempDir(), "backup.tar.gz")
	require.NoError(t, Backup(src, archive))
	_, err := os.Stat(archive)
	require.NoError(t, err)

	restoreDir := filepath.Join(t.TempDir(), "restore")
	require.NoError(t, Restore(archive, restoreDir))
	assert.Equal(t, files, readTree(t, restoreDir))
}

func TestBackupRejectsMissingSource(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "backup.tar.gz")
	assert.Error(t, Backup(filepath.Join(t.TempDir(), "nope"), archive))
}

func TestDrillVerifiesDigest(t *testing.T) {
	src := filepath.Join(t.TempDir(), "data")
	writeTree(t, src, map[string]string{
		"auth/auth.json": `{"UsersByID":{}}`,
	})

	res, err := Drill(src, t.TempDir())
	require.NoError(t, err)
	assert.NotEmpty(t, res.Digest)
	assert.FileExists(t, res.Archive)
	assert.DirExists(t, res.RestoreDir)

	srcDigest, err := DirDigest(src)
	require.NoError(t, err)
	assert.Equal(t, srcDigest, res.Digest)
}

func TestRestoreRejectsPathTraversal(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "bad.tar.gz")
	f, err := os.Create(archive)
	require.NoError(t, err)

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name:     "../escape.txt",
		Typeflag: tar.TypeReg,
		Mode:     0o644,
		Size:     int64(len("bad")),
	}))
	_, err = tw.Write([]byte("bad"))
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	assert.Error(t, Restore(archive, filepath.Join(t.TempDir(), "out")))
}
