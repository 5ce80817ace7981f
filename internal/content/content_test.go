package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClass(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Class
		wantErr bool
	}{
		{name: "recipes", input: "recipes", want: ClassRecipes},
		{name: "images", input: "images", want: ClassImages},
		{name: "mixed case", input: "Recipes", want: ClassRecipes},
		{name: "unknown", input: "videos", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseClass(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidName(t *testing.T) {
	assert.True(t, ValidName("cake.md"))
	assert.True(t, ValidName("Cake.MD"))
	assert.True(t, ValidName("photo 1.png"))
	assert.False(t, ValidName(""))
	assert.False(t, ValidName("."))
	assert.False(t, ValidName(".."))
	assert.False(t, ValidName("a/b.md"))
	assert.False(t, ValidName(`a\b.md`))
}

func TestCollectionUpsert(t *testing.T) {
	var c Collection

	replaced := c.Upsert(Item{Name: "cake.md", LastModified: 100})
	assert.False(t, replaced)
	require.Len(t, c, 1)

	replaced = c.Upsert(Item{Name: "soup.md", LastModified: 200})
	assert.False(t, replaced)
	require.Len(t, c, 2)

	// Same name replaces in place, no duplicate.
	replaced = c.Upsert(Item{Name: "cake.md", LastModified: 300, RemoteID: "r1"})
	assert.True(t, replaced)
	require.Len(t, c, 2)

	got, ok := c.Get("cake.md")
	require.True(t, ok)
	assert.Equal(t, int64(300), got.LastModified)
	assert.Equal(t, "r1", got.RemoteID)
}

func TestCollectionRemove(t *testing.T) {
	c := Collection{
		{Name: "cake.md"},
		{Name: "soup.md"},
	}

	assert.True(t, c.Remove("cake.md"))
	assert.False(t, c.Remove("cake.md"))
	require.Len(t, c, 1)

	_, ok := c.Get("cake.md")
	assert.False(t, ok)
}

func TestCollectionViews(t *testing.T) {
	c := Collection{
		{Name: "soup.md", LastModified: 200},
		{Name: "cake.md", LastModified: 100},
	}

	byName := c.ByName()
	require.Len(t, byName, 2)
	assert.Equal(t, int64(100), byName["cake.md"].LastModified)

	assert.Equal(t, []string{"soup.md", "cake.md"}, c.Names())

	sorted := c.Sorted()
	assert.Equal(t, []string{"cake.md", "soup.md"}, sorted.Names())
	// Original order untouched.
	assert.Equal(t, []string{"soup.md", "cake.md"}, c.Names())
}
