package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/forkedapp/forked/internal/client/app"
	"github.com/forkedapp/forked/internal/content"
	"github.com/forkedapp/forked/internal/recipemd"
)

// RecipesHandler serves the local recipe collection to the desktop UI.
type RecipesHandler struct {
	app *app.App
}

func NewRecipesHandler(app *app.App) *RecipesHandler {
	return &RecipesHandler{app: app}
}

// List returns summaries of every local recipe, sorted by name.
func (h *RecipesHandler) List(c *gin.Context) {
	items, err := h.app.Store().Items(content.ClassRecipes)
	if err != nil {
		Reject(c, http.StatusInternalServerError, CodeInternal, err)
		return
	}

	recipes := make([]RecipeSummary, 0, len(items))
	for _, item := range items.Sorted() {
		summary := RecipeSummary{
			Name:         item.Name,
			Title:        item.Name,
			LastModified: item.LastModified,
			Size:         int64(len(item.Content)),
		}
		// An item that no longer parses still lists under its name.
		if recipe, err := recipemd.Parse(item.Content); err == nil {
			summary.Title = recipe.Title(item.Name)
			summary.Tags = recipe.Meta.Tags
		}
		recipes = append(recipes, summary)
	}

	c.PureJSON(http.StatusOK, RecipeListResponse{Recipes: recipes})
}

// Get returns one recipe with its full markdown body.
func (h *RecipesHandler) Get(c *gin.Context) {
	name := c.Param("name")
	if !content.ValidName(name) {
		Reject(c, http.StatusBadRequest, CodeBadRequest, fmt.Errorf("invalid recipe name %q", name))
		return
	}

	items, err := h.app.Store().Items(content.ClassRecipes)
	if err != nil {
		Reject(c, http.StatusInternalServerError, CodeInternal, err)
		return
	}

	item, ok := items.Get(name)
	if !ok {
		Reject(c, http.StatusNotFound, CodeNotFound, fmt.Errorf("recipe %q not found", name))
		return
	}

	resp := RecipeResponse{
		Name:         item.Name,
		Title:        item.Name,
		LastModified: item.LastModified,
		RemoteID:     item.RemoteID,
		Body:         string(item.Content),
	}
	if recipe, err := recipemd.Parse(item.Content); err == nil {
		resp.Title = recipe.Title(item.Name)
		resp.Tags = recipe.Meta.Tags
		resp.Body = recipe.Body
	}

	c.PureJSON(http.StatusOK, resp)
}
