package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/David-H-Afonso/beastvault/internal/datastore"
	"github.com/David-H-Afonso/beastvault/internal/vault"
)

// maxImportFileSize bounds one uploaded creature file. The box formats are
// a few hundred bytes; anything near this limit is garbage.
const maxImportFileSize = 64 * 1024

// parseFilters builds SearchFilters from the request query parameters.
func parseFilters(ctx echo.Context) (*datastore.SearchFilters, error) {
	q := ctx.QueryParams()
	filters := &datastore.SearchFilters{
		Search:      q.Get("search"),
		SpeciesName: q.Get("speciesName"),
		Nickname:    q.Get("nickname"),
		SortBy:      q.Get("sortBy"),
		SortDesc:    q.Get("sortDir") == "desc",
	}

	intParam := func(name string) (*int, error) {
		raw := q.Get(name)
		if raw == "" {
			return nil, nil
		}
		value, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %q", name, raw)
		}
		return &value, nil
	}

	var err error
	if filters.PokedexNumber, err = intParam("pokedexNumber"); err != nil {
		return nil, err
	}
	if filters.OriginGeneration, err = intParam("originGeneration"); err != nil {
		return nil, err
	}
	if filters.CaptureGeneration, err = intParam("captureGeneration"); err != nil {
		return nil, err
	}
	if filters.BallID, err = intParam("ballId"); err != nil {
		return nil, err
	}
	if filters.MinLevel, err = intParam("minLevel"); err != nil {
		return nil, err
	}
	if filters.MaxLevel, err = intParam("maxLevel"); err != nil {
		return nil, err
	}

	if raw := q.Get("isShiny"); raw != "" {
		shiny, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid isShiny: %q", raw)
		}
		filters.IsShiny = &shiny
	}

	if filters.TagIDs, err = parseIDList(q.Get("tagIds")); err != nil {
		return nil, err
	}
	if filters.AnyTagIDs, err = parseIDList(q.Get("anyTagIds")); err != nil {
		return nil, err
	}
	filters.Untagged = q.Get("untagged") == "true"

	if skip, err := intParam("skip"); err != nil {
		return nil, err
	} else if skip != nil {
		filters.Skip = *skip
	}
	if take, err := intParam("take"); err != nil {
		return nil, err
	} else if take != nil {
		filters.Take = *take
	}

	return filters, nil
}

func parseIDList(raw string) ([]uint, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]uint, 0, len(parts))
	for _, part := range parts {
		value, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid tag id %q", part)
		}
		ids = append(ids, uint(value))
	}
	return ids, nil
}

// GetPokemonList serves the main collection view.
func (c *Controller) GetPokemonList(ctx echo.Context) error {
	cacheKey := ctx.Request().URL.RequestURI()
	if cached, found := c.listCache.Get(cacheKey); found {
		return ctx.JSON(http.StatusOK, cached)
	}

	filters, err := parseFilters(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "Invalid query parameters", http.StatusBadRequest)
	}

	page, err := c.Vault.FetchPage(ctx.Request().Context(), filters)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to load collection", 0)
	}

	c.listCache.SetDefault(cacheKey, page)
	return ctx.JSON(http.StatusOK, page)
}

// GetPokemonGrouped serves the grouped-by-tag view.
func (c *Controller) GetPokemonGrouped(ctx echo.Context) error {
	cacheKey := ctx.Request().URL.RequestURI()
	if cached, found := c.listCache.Get(cacheKey); found {
		return ctx.JSON(http.StatusOK, cached)
	}

	filters, err := parseFilters(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "Invalid query parameters", http.StatusBadRequest)
	}

	groupSize := 0
	if raw := ctx.QueryParam("groupSize"); raw != "" {
		if groupSize, err = strconv.Atoi(raw); err != nil {
			return c.HandleError(ctx, err, "Invalid groupSize", http.StatusBadRequest)
		}
	}
	page := 0
	if raw := ctx.QueryParam("page"); raw != "" {
		if page, err = strconv.Atoi(raw); err != nil {
			return c.HandleError(ctx, err, "Invalid page", http.StatusBadRequest)
		}
	}

	grouped, err := c.Vault.FetchGroupedByTag(ctx.Request().Context(), filters, page, groupSize)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to load grouped collection", 0)
	}

	c.listCache.SetDefault(cacheKey, grouped)
	return ctx.JSON(http.StatusOK, grouped)
}

// DeletePokemon removes one creature, its tag links and its stored file.
func (c *Controller) DeletePokemon(ctx echo.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "Invalid id", http.StatusBadRequest)
	}
	if err := c.Vault.DeleteCreature(id); err != nil {
		return c.HandleError(ctx, err, "Failed to delete", 0)
	}
	c.invalidateListCache()
	return ctx.NoContent(http.StatusNoContent)
}

// ImportPokemon catalogues uploaded creature files from a multipart form.
func (c *Controller) ImportPokemon(ctx echo.Context) error {
	form, err := ctx.MultipartForm()
	if err != nil {
		return c.HandleError(ctx, err, "Invalid multipart form", http.StatusBadRequest)
	}

	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		return c.HandleError(ctx, nil, "No files provided", http.StatusBadRequest)
	}

	files := make([]vault.ImportFile, 0, len(fileHeaders))
	for _, header := range fileHeaders {
		if header.Size > maxImportFileSize {
			files = append(files, vault.ImportFile{Name: header.Filename})
			continue
		}
		src, err := header.Open()
		if err != nil {
			return c.HandleError(ctx, err, "Failed to read upload", http.StatusBadRequest)
		}
		data, err := io.ReadAll(io.LimitReader(src, maxImportFileSize))
		_ = src.Close()
		if err != nil {
			return c.HandleError(ctx, err, "Failed to read upload", http.StatusBadRequest)
		}
		files = append(files, vault.ImportFile{Name: header.Filename, Data: data})
	}

	results := c.Vault.ImportFiles(files)
	c.invalidateListCache()
	return ctx.JSON(http.StatusOK, map[string]any{"results": results})
}

// RunScan walks the configured directory and reports a summary.
func (c *Controller) RunScan(ctx echo.Context) error {
	summary, err := c.Vault.ScanDirectory()
	if err != nil {
		return c.HandleError(ctx, err, "Scan failed", 0)
	}
	c.invalidateListCache()
	return ctx.JSON(http.StatusOK, summary)
}

// DownloadPokemon streams the stored original file.
func (c *Controller) DownloadPokemon(ctx echo.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "Invalid id", http.StatusBadRequest)
	}

	source := ctx.QueryParam("source")
	if source == "" {
		source = "database"
	}
	if source != "database" && source != "backup" {
		return c.HandleError(ctx, nil, "source must be database or backup", http.StatusBadRequest)
	}

	data, name, err := c.Vault.DownloadOriginal(id, source)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to load file", 0)
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, name))
	return ctx.Blob(http.StatusOK, echo.MIMEOctetStream, data)
}

// AssignTags replaces a creature's tag set.
func (c *Controller) AssignTags(ctx echo.Context) error {
	id, err := parseID(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "Invalid id", http.StatusBadRequest)
	}

	var body struct {
		TagIDs []uint `json:"tagIds"`
	}
	if err := ctx.Bind(&body); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}

	if err := c.Vault.AssignTags(id, body.TagIDs); err != nil {
		return c.HandleError(ctx, err, "Failed to assign tags", 0)
	}
	c.invalidateListCache()
	return ctx.NoContent(http.StatusNoContent)
}

func parseID(ctx echo.Context) (uint, error) {
	value, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", ctx.Param("id"))
	}
	return uint(value), nil
}
