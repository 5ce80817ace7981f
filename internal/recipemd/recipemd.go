// Package recipemd handles the recipe file format boundary: a YAML
// front-matter block followed by a markdown body. It surfaces title and
// tags for listings; rendering and sanitization live elsewhere.
package recipemd

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// Meta is the YAML front-matter of a recipe document.
type Meta struct {
	Title string   `yaml:"title,omitempty"`
	Tags  []string `yaml:"tags,omitempty"`
}

// Recipe is a parsed recipe document.
type Recipe struct {
	Meta Meta
	Body string
}

// Parse splits a recipe document into front-matter and markdown body.
// Documents without a front-matter block parse as all-body with empty
// meta.
func Parse(raw []byte) (*Recipe, error) {
	text := strings.ReplaceAll(string(raw), "\r\n", "\n")

	rest, ok := strings.CutPrefix(text, delimiter+"\n")
	if !ok {
		return &Recipe{Body: text}, nil
	}

	head, body, ok := strings.Cut(rest, "\n"+delimiter)
	if !ok {
		// Unterminated front-matter reads as plain body.
		return &Recipe{Body: text}, nil
	}
	body = strings.TrimPrefix(body, "\n")

	var meta Meta
	if err := yaml.Unmarshal([]byte(head), &meta); err != nil {
		return nil, fmt.Errorf("parse front-matter: %w", err)
	}

	return &Recipe{Meta: meta, Body: body}, nil
}

// Title returns the display title for the recipe: the front-matter
// title when set, else the first markdown heading, else fallback.
func (r *Recipe) Title(fallback string) string {
	if r.Meta.Title != "" {
		return r.Meta.Title
	}

	scanner := bufio.NewScanner(strings.NewReader(r.Body))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if after, ok := strings.CutPrefix(line, "# "); ok {
			return strings.TrimSpace(after)
		}
	}
	return fallback
}

// Render reassembles a recipe document, emitting a front-matter block
// only when meta carries any values.
func Render(r *Recipe) ([]byte, error) {
	if r.Meta.Title == "" && len(r.Meta.Tags) == 0 {
		return []byte(r.Body), nil
	}

	var buf bytes.Buffer
	buf.WriteString(delimiter + "\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(r.Meta); err != nil {
		return nil, fmt.Errorf("encode front-matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode front-matter: %w", err)
	}

	buf.WriteString(delimiter + "\n")
	buf.WriteString(r.Body)
	return buf.Bytes(), nil
}
