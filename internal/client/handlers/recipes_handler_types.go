package handlers

// RecipeSummary is one row of the recipe listing: front-matter resolved,
// body omitted.
type RecipeSummary struct {
	Name         string   `json:"name"`
	Title        string   `json:"title"`
	Tags         []string `json:"tags,omitempty"`
	LastModified int64    `json:"lastModified"` // ms since epoch
	Size         int64    `json:"size"`         // bytes, front-matter included
}

type RecipeListResponse struct {
	Recipes []RecipeSummary `json:"recipes"`
}

// RecipeResponse is one recipe with its full markdown body.
type RecipeResponse struct {
	Name         string   `json:"name"`
	Title        string   `json:"title"`
	Tags         []string `json:"tags,omitempty"`
	LastModified int64    `json:"lastModified"`
	RemoteID     string   `json:"remoteId,omitempty"`
	Body         string   `json:"body"`
}
