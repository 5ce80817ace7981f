package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forkedapp/forked/internal/content"
	"github.com/forkedapp/forked/internal/store"
)

func newTestImporter(t *testing.T) (*Importer, *store.Store, string) {
	t.Helper()

	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	dir := t.TempDir()
	// tmpdir can be a symlink (macOS /var -> /private/var) and notify
	// reports resolved paths.
	dir, err = filepath.EvalSymlinks(dir)
	require.NoError(t, err)

	return New(st, dir), st, dir
}

func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		class content.Class
		fails bool
	}{
		{name: "cake.md", class: content.ClassRecipes},
		{name: "notes.markdown", class: content.ClassRecipes},
		{name: "photo.JPG", class: content.ClassImages},
		{name: "photo.png", class: content.ClassImages},
		{name: "data.tar.gz", fails: true},
		{name: "script.sh", fails: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			class, err := Classify(tc.name)
			if tc.fails {
				assert.ErrorIs(t, err, ErrUnsupported)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.class, class)
		})
	}
}

func TestImportFile_Recipe(t *testing.T) {
	im, st, dir := newTestImporter(t)
	path := writeFile(t, dir, "cake.md", "---\ntitle: Cake\n---\n# Cake\n")

	item, class, err := im.ImportFile(path)
	require.NoError(t, err)
	assert.Equal(t, content.ClassRecipes, class)
	assert.Equal(t, "cake.md", item.Name)
	assert.InDelta(t, time.Now().UnixMilli(), item.LastModified, float64(time.Minute.Milliseconds()))

	items, err := st.Items(content.ClassRecipes)
	require.NoError(t, err)
	got, ok := items.Get("cake.md")
	require.True(t, ok)
	assert.Contains(t, string(got.Content), "# Cake")
}

func TestImportFile_Image(t *testing.T) {
	im, st, dir := newTestImporter(t)
	path := writeFile(t, dir, "cake.png", "\x89PNG\r\n")

	_, class, err := im.ImportFile(path)
	require.NoError(t, err)
	assert.Equal(t, content.ClassImages, class)

	items, err := st.Items(content.ClassImages)
	require.NoError(t, err)
	_, ok := items.Get("cake.png")
	assert.True(t, ok)
}

func TestImportFile_UnchangedSkips(t *testing.T) {
	im, _, dir := newTestImporter(t)
	path := writeFile(t, dir, "cake.md", "# Cake\n")

	_, _, err := im.ImportFile(path)
	require.NoError(t, err)

	_, _, err = im.ImportFile(path)
	assert.ErrorIs(t, err, ErrUnchanged)
}

func TestImportFile_KeepsRemoteID(t *testing.T) {
	im, st, dir := newTestImporter(t)

	require.NoError(t, st.SetItems(content.ClassRecipes, content.Collection{
		{Name: "cake.md", Content: []byte("old"), LastModified: 1, RemoteID: "r-cake"},
	}))

	path := writeFile(t, dir, "cake.md", "# New Cake\n")
	item, _, err := im.ImportFile(path)
	require.NoError(t, err)
	assert.Equal(t, "r-cake", item.RemoteID)
}

func TestImportFile_RejectsUnparsableRecipe(t *testing.T) {
	im, _, dir := newTestImporter(t)
	path := writeFile(t, dir, "bad.md", "---\ntitle: [unclosed\n---\nbody\n")

	_, _, err := im.ImportFile(path)
	assert.Error(t, err)
}

func TestImportAll(t *testing.T) {
	im, st, dir := newTestImporter(t)

	writeFile(t, dir, "cake.md", "# Cake\n")
	writeFile(t, dir, "soup.md", "# Soup\n")
	writeFile(t, dir, "cake.png", "\x89PNG")
	writeFile(t, dir, "skipme.txt", "nope")
	writeFile(t, dir, ".hidden.md", "# no")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))

	sum, err := im.ImportAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Imported)
	assert.Equal(t, 1, sum.Skipped)

	recipes, err := st.Items(content.ClassRecipes)
	require.NoError(t, err)
	assert.Len(t, recipes, 2)

	// Second pass finds nothing new.
	sum, err = im.ImportAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Imported)
	assert.Equal(t, 4, sum.Skipped)
}

func TestImportAll_MissingDirIsEmpty(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	im := New(st, filepath.Join(t.TempDir(), "does-not-exist"))
	sum, err := im.ImportAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Imported)
}

func TestWatch_ImportsSettledFile(t *testing.T) {
	im, st, dir := newTestImporter(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- im.Watch(ctx) }()

	// Give the watch a moment to arm before writing.
	time.Sleep(200 * time.Millisecond)
	writeFile(t, dir, "stew.md", "# Stew\n")

	require.Eventually(t, func() bool {
		items, err := st.Items(content.ClassRecipes)
		if err != nil {
			return false
		}
		_, ok := items.Get("stew.md")
		return ok
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
}
