// Package pokeapi implements the external species data client. It resolves a
// (species, form, gigantamax) triple into display metadata, normalizing the
// naming irregularities of regional forms, cosmetic patterns and battle forms.
//
// The client never fails upward for a degraded sub-step: any failure past the
// base species fetch falls back to the base payload, because displaying
// slightly wrong metadata beats breaking the collection view.
package pokeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/David-H-Afonso/beastvault/internal/errors"
	"github.com/David-H-Afonso/beastvault/internal/logging"
	"github.com/David-H-Afonso/beastvault/internal/observability/metrics"
	"github.com/David-H-Afonso/beastvault/internal/sprites"
)

// Package-level logger specific to the species data service
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar)
	closeLogger     func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "pokeapi.log")
	serviceLevelVar.Set(slog.LevelInfo)

	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "pokeapi", serviceLevelVar)
	if err != nil {
		log.Printf("Failed to initialize pokeapi file logger at %s: %v. Service logging disabled.", logFilePath, err)
		logger = logging.NewDiscardLogger("pokeapi", serviceLevelVar)
		closeLogger = func() error { return nil }
	}
}

// Client provides methods for interacting with the species data API
type Client struct {
	config      Config
	httpClient  *http.Client
	cache       *cache.Cache // raw payload cache keyed by endpoint
	rateLimiter *time.Ticker
	metrics     *metrics.ResolverMetrics
	mu          sync.Mutex
}

// NewClient creates a new species data API client. m may be nil.
func NewClient(config Config, m *metrics.ResolverMetrics) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultConfig().BaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = DefaultConfig().CacheTTL
	}
	if config.RateLimitMS == 0 {
		config.RateLimitMS = DefaultConfig().RateLimitMS
	}

	client := &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		cache:       cache.New(config.CacheTTL, config.CacheTTL*2),
		rateLimiter: time.NewTicker(time.Duration(config.RateLimitMS) * time.Millisecond),
		metrics:     m,
	}

	logger.Info("species data client initialized",
		"base_url", config.BaseURL,
		"cache_ttl", config.CacheTTL,
		"rate_limit_ms", config.RateLimitMS)

	return client
}

// Close cleans up client resources
func (c *Client) Close() {
	c.rateLimiter.Stop()
	if closeLogger != nil {
		if err := closeLogger(); err != nil {
			log.Printf("Error closing pokeapi logger: %v", err)
		}
	}
}

// FetchSpecies resolves a (species, form, gigantamax) triple into metadata.
// The only error it can return is a failed base species fetch; every other
// sub-step degrades to the base payload.
func (c *Client) FetchSpecies(ctx context.Context, speciesID, form int, canGigantamax bool) (*SpeciesMetadata, error) {
	if speciesID < 1 {
		return nil, errors.Newf("invalid species id %d", speciesID).
			Category(errors.CategoryValidation).
			Context("species_id", speciesID).
			Component("pokeapi").
			Build()
	}

	switch {
	case canGigantamax:
		return c.fetchGigantamax(ctx, speciesID)

	case sprites.PatternSpecies[speciesID] && form > 0:
		// The external source does not model cosmetic patterns as distinct
		// entities; tag the base payload with the pattern index instead.
		base, err := c.getPokemon(ctx, strconv.Itoa(speciesID))
		if err != nil {
			return nil, err
		}
		meta := c.buildMetadata(base, speciesID)
		meta.PatternIndex = form
		return meta, nil

	case form == 0:
		base, err := c.getPokemon(ctx, strconv.Itoa(speciesID))
		if err != nil {
			return nil, err
		}
		return c.buildMetadata(base, speciesID), nil

	default:
		return c.fetchVariety(ctx, speciesID, form)
	}
}

// fetchGigantamax resolves the canonical species name, then the "-gmax"
// variety. Any failure past the base fetch returns base-form data.
func (c *Client) fetchGigantamax(ctx context.Context, speciesID int) (*SpeciesMetadata, error) {
	base, err := c.getPokemon(ctx, strconv.Itoa(speciesID))
	if err != nil {
		return nil, err
	}

	species, err := c.getSpecies(ctx, speciesID)
	name := base.Name
	if err == nil && species.Name != "" {
		name = species.Name
	}

	gmax, err := c.getPokemon(ctx, name+"-gmax")
	if err != nil {
		logger.Debug("gigantamax variety not available, using base form",
			"species_id", speciesID,
			"name", name,
			"error", err)
		meta := c.buildMetadata(base, speciesID)
		meta.Gmax = true
		return meta, nil
	}

	meta := c.buildMetadata(gmax, speciesID)
	meta.SpeciesName = base.Name
	meta.Gmax = true
	return meta, nil
}

// fetchVariety resolves form>0 through the species' variety list, degrading
// to the base payload when the index is out of range or any lookup fails.
func (c *Client) fetchVariety(ctx context.Context, speciesID, form int) (*SpeciesMetadata, error) {
	base, err := c.getPokemon(ctx, strconv.Itoa(speciesID))
	if err != nil {
		return nil, err
	}

	species, err := c.getSpecies(ctx, speciesID)
	if err != nil || form >= len(species.Varieties) {
		logger.Debug("variety lookup degraded to base form",
			"species_id", speciesID,
			"form", form)
		return c.buildMetadata(base, speciesID), nil
	}

	variety, err := c.getPokemon(ctx, species.Varieties[form].Pokemon.Name)
	if err != nil {
		logger.Debug("variety fetch failed, using base form",
			"species_id", speciesID,
			"form", form,
			"variety", species.Varieties[form].Pokemon.Name,
			"error", err)
		return c.buildMetadata(base, speciesID), nil
	}

	meta := c.buildMetadata(variety, speciesID)
	meta.SpeciesName = base.Name
	return meta, nil
}

// buildMetadata converts a raw payload into resolved metadata. Types are
// ordered by the API slot field to determine primary/secondary.
func (c *Client) buildMetadata(p *pokemonPayload, speciesID int) *SpeciesMetadata {
	types := make([]struct {
		slot int
		name string
	}, 0, len(p.Types))
	for _, t := range p.Types {
		types = append(types, struct {
			slot int
			name string
		}{t.Slot, t.Type.Name})
	}
	sort.Slice(types, func(i, j int) bool { return types[i].slot < types[j].slot })

	meta := &SpeciesMetadata{
		SpeciesID:   speciesID,
		Name:        p.Name,
		SpeciesName: p.Name,
		Sprites:     p.Sprites.spriteSet(),
		CryURL:      p.Cries.Latest,
	}
	if len(types) > 0 {
		meta.PrimaryType = types[0].name
		meta.PrimaryColor = sprites.TypeColor(types[0].name)
	}
	if len(types) > 1 {
		meta.SecondaryType = types[1].name
		meta.SecondaryColor = sprites.TypeColor(types[1].name)
	}
	for _, s := range p.Stats {
		meta.Stats = append(meta.Stats, StatValue{Name: s.Stat.Name, Value: s.BaseStat})
	}
	if meta.Sprites.IsEmpty() {
		logger.Warn("payload carries no sprite assets", "species_id", speciesID, "name", p.Name)
	}
	return meta
}

// getPokemon fetches /pokemon/{idOrName}, using the raw payload cache.
func (c *Client) getPokemon(ctx context.Context, idOrName string) (*pokemonPayload, error) {
	cacheKey := "pokemon:" + idOrName
	if cached, found := c.cache.Get(cacheKey); found {
		if p, ok := cached.(*pokemonPayload); ok {
			return p, nil
		}
	}

	var payload pokemonPayload
	url := fmt.Sprintf("%s/pokemon/%s", c.config.BaseURL, idOrName)
	if err := c.doRequestWithRetry(ctx, url, &payload); err != nil {
		return nil, err
	}

	c.cache.Set(cacheKey, &payload, cache.DefaultExpiration)
	return &payload, nil
}

// getSpecies fetches /pokemon-species/{id}, using the raw payload cache.
func (c *Client) getSpecies(ctx context.Context, speciesID int) (*speciesPayload, error) {
	cacheKey := "species:" + strconv.Itoa(speciesID)
	if cached, found := c.cache.Get(cacheKey); found {
		if s, ok := cached.(*speciesPayload); ok {
			return s, nil
		}
	}

	var payload speciesPayload
	url := fmt.Sprintf("%s/pokemon-species/%d", c.config.BaseURL, speciesID)
	if err := c.doRequestWithRetry(ctx, url, &payload); err != nil {
		return nil, err
	}

	c.cache.Set(cacheKey, &payload, cache.DefaultExpiration)
	return &payload, nil
}

// doRequest performs an HTTP GET with rate limiting and JSON decoding.
func (c *Client) doRequest(ctx context.Context, url string, result any) error {
	c.mu.Lock()
	<-c.rateLimiter.C
	c.mu.Unlock()

	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	start := time.Now()
	c.metrics.IncrementAPICalls()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, http.NoBody)
	if err != nil {
		c.metrics.IncrementAPIErrors()
		return errors.Newf("failed to create HTTP request: %w", err).
			Category(errors.CategoryNetwork).
			Context("url", url).
			Component("pokeapi").
			Build()
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.IncrementAPIErrors()
		logger.Error("species API request failed", "url", url, "error", err)
		return errors.Newf("HTTP request failed: %w", err).
			Category(errors.CategoryNetwork).
			Context("url", url).
			Component("pokeapi").
			Build()
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.IncrementAPIErrors()
		return errors.Newf("failed to read response body: %w", err).
			Category(errors.CategoryNetwork).
			Context("url", url).
			Context("status_code", resp.StatusCode).
			Component("pokeapi").
			Build()
	}

	if resp.StatusCode >= 400 {
		c.metrics.IncrementAPIErrors()
		var aerr apiError
		_ = json.Unmarshal(bodyBytes, &aerr)
		detail := aerr.Detail
		if detail == "" {
			detail = strings.TrimSpace(string(bodyBytes))
			if len(detail) > 200 {
				detail = detail[:200]
			}
		}
		logger.Warn("species API error response",
			"status_code", resp.StatusCode,
			"url", url,
			"detail", detail)
		return errors.Newf("species API error (status %d): %s", resp.StatusCode, detail).
			Category(categoryForStatus(resp.StatusCode)).
			Context("status_code", resp.StatusCode).
			Context("url", url).
			Component("pokeapi").
			Build()
	}

	if result != nil {
		if err := json.Unmarshal(bodyBytes, result); err != nil {
			c.metrics.IncrementAPIErrors()
			logger.Error("failed to parse species API response",
				"url", url,
				"response_size", len(bodyBytes),
				"error", err)
			return errors.Newf("failed to parse response: %w", err).
				Category(errors.CategoryFileParsing).
				Context("url", url).
				Component("pokeapi").
				Build()
		}
	}

	duration := time.Since(start)
	c.metrics.ObserveFetchDuration(duration.Seconds())
	logger.Debug("species API request successful",
		"url", url,
		"duration_ms", duration.Milliseconds(),
		"response_size", len(bodyBytes))
	return nil
}

// doRequestWithRetry wraps doRequest with retry for transient failures.
// Client errors other than 429 are never retried.
func (c *Client) doRequestWithRetry(ctx context.Context, url string, result any) error {
	const maxRetries = 3
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		err := c.doRequest(ctx, url, result)
		if err == nil {
			return nil
		}

		var enhancedErr *errors.EnhancedError
		if errors.As(err, &enhancedErr) {
			if statusCode, ok := enhancedErr.Context["status_code"].(int); ok {
				if statusCode >= 400 && statusCode < 500 && statusCode != 429 {
					return err
				}
			}
			if enhancedErr.Category == errors.CategoryFileParsing {
				return err
			}
		}

		lastErr = err
		if ctx.Err() != nil {
			return lastErr
		}

		if attempt < maxRetries-1 {
			delay := time.Duration(attempt+1) * 250 * time.Millisecond
			logger.Warn("species API request failed, retrying",
				"attempt", attempt+1,
				"max_retries", maxRetries,
				"delay_ms", delay.Milliseconds(),
				"url", url,
				"error", err.Error())
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return lastErr
}

// ClearCache clears the raw payload cache.
func (c *Client) ClearCache() {
	c.cache.Flush()
	logger.Info("species payload cache cleared")
}

// categoryForStatus maps an HTTP status code to an error category.
func categoryForStatus(statusCode int) errors.ErrorCategory {
	switch statusCode {
	case http.StatusTooManyRequests:
		return errors.CategoryLimit
	case http.StatusNotFound:
		return errors.CategoryNotFound
	default:
		return errors.CategoryNetwork
	}
}
