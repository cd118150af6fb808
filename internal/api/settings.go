package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// settingDefaults maps client state keys to their documented defaults,
// returned when a key has never been written.
func (c *Controller) settingDefaults() map[string]string {
	return map[string]string{
		"spriteStyle":     c.Settings.UI.SpriteStyle,
		"backgroundStyle": c.Settings.UI.BackgroundStyle,
		"cardStyle":       c.Settings.UI.CardStyle,
		"theme":           c.Settings.UI.Theme,
		"layoutMode":      c.Settings.UI.LayoutMode,
		"viewMode":        c.Settings.UI.ViewMode,
	}
}

// GetSetting returns a persisted client preference, falling back to the
// configured default for known keys.
func (c *Controller) GetSetting(ctx echo.Context) error {
	key := ctx.Param("key")

	value, err := c.DS.GetClientState(key)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to load setting", 0)
	}
	if value == "" {
		fallback, known := c.settingDefaults()[key]
		if !known {
			return c.HandleError(ctx, nil, "Unknown setting", http.StatusNotFound)
		}
		value = fallback
	}

	return ctx.JSON(http.StatusOK, map[string]string{"key": key, "value": value})
}

// PutSetting persists a client preference.
func (c *Controller) PutSetting(ctx echo.Context) error {
	key := ctx.Param("key")
	if _, known := c.settingDefaults()[key]; !known {
		return c.HandleError(ctx, nil, "Unknown setting", http.StatusNotFound)
	}

	var body struct {
		Value string `json:"value"`
	}
	if err := ctx.Bind(&body); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}

	if err := c.DS.SetClientState(key, body.Value); err != nil {
		return c.HandleError(ctx, err, "Failed to save setting", 0)
	}
	c.invalidateListCache()
	return ctx.NoContent(http.StatusNoContent)
}
