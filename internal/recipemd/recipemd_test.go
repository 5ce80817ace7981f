package recipemd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantMeta  Meta
		wantBody  string
		wantError bool
	}{
		{
			name:     "front-matter with title and tags",
			raw:      "---\ntitle: Carrot Cake\ntags:\n  - dessert\n  - baking\n---\n# Carrot Cake\n\nGrate the carrots.\n",
			wantMeta: Meta{Title: "Carrot Cake", Tags: []string{"dessert", "baking"}},
			wantBody: "# Carrot Cake\n\nGrate the carrots.\n",
		},
		{
			name:     "no front-matter",
			raw:      "# Plain\n\nJust markdown.\n",
			wantBody: "# Plain\n\nJust markdown.\n",
		},
		{
			name:     "unterminated front-matter reads as body",
			raw:      "---\ntitle: Broken\n# Heading\n",
			wantBody: "---\ntitle: Broken\n# Heading\n",
		},
		{
			name:     "crlf line endings",
			raw:      "---\r\ntitle: Soup\r\n---\r\nBoil water.\r\n",
			wantMeta: Meta{Title: "Soup"},
			wantBody: "Boil water.\n",
		},
		{
			name:     "empty document",
			raw:      "",
			wantBody: "",
		},
		{
			name:      "invalid yaml front-matter",
			raw:       "---\ntitle: [unclosed\n---\nbody\n",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.raw))
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMeta, got.Meta)
			assert.Equal(t, tt.wantBody, got.Body)
		})
	}
}

func TestTitle(t *testing.T) {
	withMeta := &Recipe{Meta: Meta{Title: "From Meta"}, Body: "# From Heading\n"}
	assert.Equal(t, "From Meta", withMeta.Title("fallback"))

	withHeading := &Recipe{Body: "intro\n# From Heading\nmore\n"}
	assert.Equal(t, "From Heading", withHeading.Title("fallback"))

	bare := &Recipe{Body: "no headings here\n"}
	assert.Equal(t, "fallback", bare.Title("fallback"))
}

func TestRender_RoundTrip(t *testing.T) {
	original := &Recipe{
		Meta: Meta{Title: "Stew", Tags: []string{"dinner"}},
		Body: "# Stew\n\nSimmer slowly.\n",
	}

	raw, err := Render(original)
	require.NoError(t, err)

	parsed, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, original.Meta, parsed.Meta)
	assert.Equal(t, original.Body, parsed.Body)
}

func TestRender_NoMetaEmitsBareBody(t *testing.T) {
	raw, err := Render(&Recipe{Body: "just text\n"})
	require.NoError(t, err)
	assert.Equal(t, "just text\n", string(raw))
}
