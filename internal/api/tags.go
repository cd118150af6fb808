package api

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

// maxTagImageSize bounds one uploaded tag image.
const maxTagImageSize = 5 * 1024 * 1024

// GetTags lists every tag with its creature count.
func (c *Controller) GetTags(ctx echo.Context) error {
	tags, err := c.Vault.ListTags()
	if err != nil {
		return c.HandleError(ctx, err, "Failed to load tags", 0)
	}
	return ctx.JSON(http.StatusOK, tags)
}

// CreateTag creates a named tag.
func (c *Controller) CreateTag(ctx echo.Context) error {
	var body struct {
		Name string `json:"name"`
	}
	if err := ctx.Bind(&body); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}

	tag, err := c.Vault.CreateTag(body.Name)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to create tag", 0)
	}
	c.invalidateListCache()
	return ctx.JSON(http.StatusCreated, tag)
}

// DeleteTag removes a tag and unassigns it everywhere.
func (c *Controller) DeleteTag(ctx echo.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "Invalid id", http.StatusBadRequest)
	}
	if err := c.Vault.DeleteTag(id); err != nil {
		return c.HandleError(ctx, err, "Failed to delete tag", 0)
	}
	c.invalidateListCache()
	return ctx.NoContent(http.StatusNoContent)
}

// UploadTagImage stores a raster image for a tag.
func (c *Controller) UploadTagImage(ctx echo.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "Invalid id", http.StatusBadRequest)
	}

	header, err := ctx.FormFile("image")
	if err != nil {
		return c.HandleError(ctx, err, "No image provided", http.StatusBadRequest)
	}
	if header.Size > maxTagImageSize {
		return c.HandleError(ctx, nil, "Image too large", http.StatusBadRequest)
	}

	src, err := header.Open()
	if err != nil {
		return c.HandleError(ctx, err, "Failed to read upload", http.StatusBadRequest)
	}
	data, err := io.ReadAll(io.LimitReader(src, maxTagImageSize))
	_ = src.Close()
	if err != nil {
		return c.HandleError(ctx, err, "Failed to read upload", http.StatusBadRequest)
	}

	if err := c.Vault.SetTagImage(id, data); err != nil {
		return c.HandleError(ctx, err, "Failed to store tag image", 0)
	}
	c.invalidateListCache()
	return ctx.NoContent(http.StatusNoContent)
}

// DeleteTagImage clears a tag's image.
func (c *Controller) DeleteTagImage(ctx echo.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "Invalid id", http.StatusBadRequest)
	}
	if err := c.Vault.RemoveTagImage(id); err != nil {
		return c.HandleError(ctx, err, "Failed to remove tag image", 0)
	}
	c.invalidateListCache()
	return ctx.NoContent(http.StatusNoContent)
}
