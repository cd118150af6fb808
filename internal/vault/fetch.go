package vault

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/David-H-Afonso/beastvault/internal/datastore"
	"github.com/David-H-Afonso/beastvault/internal/errors"
	"github.com/David-H-Afonso/beastvault/internal/metacache"
	"github.com/David-H-Afonso/beastvault/internal/pokeapi"
	"github.com/David-H-Afonso/beastvault/internal/sprites"
)

// FetchPage runs one collection query and enriches every record with
// resolved metadata. A backend failure returns an error and leaves the
// previous snapshot untouched; per-record metadata failures degrade to
// placeholders.
func (s *Service) FetchPage(ctx context.Context, filters *datastore.SearchFilters) (*Page, error) {
	generation := s.generation.Add(1)
	start := time.Now()
	s.metrics.IncrementQueries()

	records, total, err := s.ds.SearchCreatures(filters)
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Component("vault").
			Build()
	}

	views, err := s.enrich(ctx, records)
	if err != nil {
		return nil, err
	}

	page := &Page{Items: views, Total: total, Generation: generation}
	s.commit(page)
	s.metrics.ObserveQueryDuration(time.Since(start).Seconds())
	return page, nil
}

// FetchGroupedByTag partitions the collection into one group per tag plus
// an untagged group. Tag-based filters are stripped first since they are
// incompatible with grouping; a record tagged twice appears in both groups.
// page and groupSize paginate within each group independently.
func (s *Service) FetchGroupedByTag(ctx context.Context, filters *datastore.SearchFilters, page, groupSize int) (*GroupedPage, error) {
	base := *filters
	if base.HasTagFilters() {
		base.TagIDs = nil
		base.AnyTagIDs = nil
		base.Untagged = false
	}
	base.Skip = 0
	if groupSize > 0 {
		base.Take = groupSize
		if page > 0 {
			base.Skip = page * groupSize
		}
	}

	tags, err := s.ds.GetAllTags()
	if err != nil {
		return nil, err
	}

	result := &GroupedPage{Groups: make([]TagGroup, 0, len(tags)+1)}
	for _, tag := range tags {
		tagFilters := base
		tagFilters.AnyTagIDs = []uint{tag.ID}
		records, total, err := s.ds.SearchCreatures(&tagFilters)
		if err != nil {
			return nil, err
		}
		views, err := s.enrich(ctx, records)
		if err != nil {
			return nil, err
		}
		result.Groups = append(result.Groups, TagGroup{
			TagID:   tag.ID,
			TagName: tag.Name,
			Items:   views,
			Total:   total,
		})
	}

	untaggedFilters := base
	untaggedFilters.Untagged = true
	records, total, err := s.ds.SearchCreatures(&untaggedFilters)
	if err != nil {
		return nil, err
	}
	views, err := s.enrich(ctx, records)
	if err != nil {
		return nil, err
	}
	result.Groups = append(result.Groups, TagGroup{
		TagID:   0,
		TagName: "Untagged",
		Items:   views,
		Total:   total,
	})

	return result, nil
}

// enrich resolves metadata for every distinct (species, form, gmax) key
// once, then maps each record to its display view.
func (s *Service) enrich(ctx context.Context, records []datastore.Creature) ([]CreatureView, error) {
	keys := make(map[metacache.Key]struct{}, len(records))
	for i := range records {
		keys[keyFor(&records[i])] = struct{}{}
	}

	var mu sync.Mutex
	resolved := make(map[metacache.Key]*pokeapi.SpeciesMetadata, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveConcurrency)
	for key := range keys {
		key := key
		g.Go(func() error {
			meta, err := s.resolver.Resolve(gctx, key)
			if err != nil {
				// Resolution never fails the page; the record
				// degrades to a placeholder.
				serviceLogger.Warn("metadata resolution error",
					"key", key.String(),
					"error", err)
				return nil
			}
			mu.Lock()
			resolved[key] = meta
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	style := s.spriteStyle()
	views := make([]CreatureView, 0, len(records))
	for i := range records {
		views = append(views, s.buildView(&records[i], resolved[keyFor(&records[i])], style))
	}
	return views, nil
}

func keyFor(c *datastore.Creature) metacache.Key {
	return metacache.Key{SpeciesID: c.SpeciesID, Form: c.Form, Gmax: c.CanGigantamax}
}

// buildView maps one record plus its metadata (possibly nil) to display form.
func (s *Service) buildView(c *datastore.Creature, meta *pokeapi.SpeciesMetadata, style sprites.Style) CreatureView {
	view := CreatureView{
		ID:                c.ID,
		SpeciesID:         c.SpeciesID,
		Form:              c.Form,
		SpeciesName:       c.SpeciesName,
		Nickname:          c.Nickname,
		Level:             c.Level,
		IsShiny:           c.IsShiny,
		BallID:            c.BallID,
		TeraType:          c.TeraType,
		OriginGeneration:  c.OriginGeneration,
		CaptureGeneration: c.CaptureGeneration,
		CanGigantamax:     c.CanGigantamax,
		Tags:              c.Tags,
		FileFormat:        c.FileFormat,
		CreatedAt:         c.CreatedAt,
	}
	if view.Tags == nil {
		view.Tags = []datastore.Tag{}
	}

	if meta == nil {
		view.Placeholder = true
		form := sprites.ClassifyForm("", c.SpeciesID, c.Form, c.CanGigantamax, c.HasMegaStone)
		view.FormLabel = form.Label
		return view
	}

	if view.SpeciesName == "" {
		view.SpeciesName = meta.SpeciesName
	}
	view.PrimaryType = meta.PrimaryType
	view.SecondaryType = meta.SecondaryType
	view.PrimaryColor = meta.PrimaryColor
	view.SecondaryColor = meta.SecondaryColor

	form := sprites.ClassifyForm(meta.Name, c.SpeciesID, c.Form, c.CanGigantamax, c.HasMegaStone)
	view.FormLabel = form.Label

	if url, ok := s.engine.Resolve(&meta.Sprites, meta.Name, style, c.IsShiny); ok {
		view.SpriteURL = url
	} else {
		view.Placeholder = true
	}
	return view
}
