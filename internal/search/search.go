// Package search implements the Search Planner (C8, spec.md §4.6):
// set-intersection over filters/labels/tags/collection scope, followed
// by pagination, hydration, and the records_remaining/end_of_results
// bookkeeping the wire protocol reports.
package search

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lattice-db/lattice/internal/catalog"
	"github.com/lattice-db/lattice/internal/errs"
	"github.com/lattice-db/lattice/internal/model"
	"github.com/lattice-db/lattice/internal/query"
	"github.com/lattice-db/lattice/internal/store"
)

// Result is one matched document plus whatever the request asked to
// be hydrated.
type Result struct {
	Document *model.Document
	Content  []byte
	Labels   []string
	Tags     map[string]string
}

// Response is the full Search outcome.
type Response struct {
	Results          []Result
	RecordsRemaining int
	EndOfResults     bool
}

// Planner executes query.Search requests against the Repository Port
// and the Index Catalog.
type Planner struct {
	port store.Port
	cat  *catalog.Catalog
}

func New(port store.Port, cat *catalog.Catalog) *Planner {
	return &Planner{port: port, cat: cat}
}

// Search runs the ten-step algorithm of spec.md §4.6.
func (p *Planner) Search(ctx context.Context, s query.Search) (*Response, error) {
	s.Clamp()

	var candidates []string
	haveCandidates := false

	for _, f := range s.Filters {
		ids, err := p.matchFilter(ctx, f)
		if err != nil {
			return nil, err
		}
		candidates = intersectOrInit(candidates, haveCandidates, ids)
		haveCandidates = true
	}

	if len(s.Labels) > 0 {
		ids, err := p.port.DocumentIDsWithAllLabels(ctx, s.CollectionID, s.Labels)
		if err != nil {
			return nil, errs.Backend(err)
		}
		candidates = intersectOrInit(candidates, haveCandidates, ids)
		haveCandidates = true
	}

	if len(s.Tags) > 0 {
		ids, err := p.port.DocumentIDsWithAllTags(ctx, s.CollectionID, s.Tags)
		if err != nil {
			return nil, errs.Backend(err)
		}
		candidates = intersectOrInit(candidates, haveCandidates, ids)
		haveCandidates = true
	}

	if !haveCandidates && s.CollectionID != nil {
		ids, err := p.port.ListDocumentIDsByCollection(ctx, *s.CollectionID, s.Ordering)
		if err != nil {
			return nil, errs.Backend(err)
		}
		candidates = ids
		haveCandidates = true
	} else if haveCandidates && s.CollectionID != nil && len(candidates) > 0 {
		scoped, err := p.port.ListDocumentIDsByCollection(ctx, *s.CollectionID, s.Ordering)
		if err != nil {
			return nil, errs.Backend(err)
		}
		candidates = intersectPreservingOrder(scoped, candidates)
	}

	total := len(candidates)
	window := windowSlice(candidates, s.Skip, s.MaxResults)

	results, err := p.hydrate(ctx, window, s)
	if err != nil {
		return nil, err
	}

	remaining := total - s.Skip - len(results)
	if remaining < 0 {
		remaining = 0
	}
	return &Response{
		Results:          results,
		RecordsRemaining: remaining,
		EndOfResults:     remaining == 0,
	}, nil
}

func (p *Planner) matchFilter(ctx context.Context, f query.Filter) ([]string, error) {
	mapping, err := p.port.GetIndexMapping(ctx, f.Field)
	if err == store.ErrNotFound {
		return nil, nil // the field was never indexed: zero matches, not an error (spec.md §9)
	}
	if err != nil {
		return nil, errs.Backend(err)
	}
	ids, err := p.port.MatchingDocumentIDs(ctx, mapping.TableName, f.Condition, f.Value)
	if err != nil {
		return nil, errs.Backend(err)
	}
	return ids, nil
}

// intersectOrInit starts the running candidate set on its first filter
// and intersects on every subsequent one (step 2-4 of spec.md §4.6's
// "candidates <- None" then progressive narrowing).
func intersectOrInit(running []string, haveCandidates bool, next []string) []string {
	if !haveCandidates {
		return next
	}
	return intersectPreservingOrder(running, next)
}

// intersectPreservingOrder returns the elements of a that also appear
// in b, keeping a's relative order — the order the caller accumulated
// candidates in is irrelevant; final ordering is re-derived from the
// collection's ordering query in Search, per step 9.
func intersectPreservingOrder(a, b []string) []string {
	set := make(map[string]struct{}, len(b))
	for _, id := range b {
		set[id] = struct{}{}
	}
	out := make([]string, 0, len(a))
	for _, id := range a {
		if _, ok := set[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func windowSlice(ids []string, skip, max int) []string {
	if skip >= len(ids) {
		return nil
	}
	end := skip + max
	if end > len(ids) {
		end = len(ids)
	}
	return ids[skip:end]
}

func (p *Planner) hydrate(ctx context.Context, ids []string, s query.Search) ([]Result, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	docs, err := p.port.GetDocumentsByIDs(ctx, ids)
	if err != nil {
		return nil, errs.Backend(err)
	}
	byID := make(map[string]*model.Document, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}

	out := make([]Result, 0, len(ids))
	for _, id := range ids { // preserve original candidate order (step 9)
		d, ok := byID[id]
		if !ok {
			continue
		}
		r := Result{Document: d}

		if s.IncludeLabels {
			labels, err := p.port.ListLabels(ctx, nil, &d.ID)
			if err != nil {
				return nil, errs.Backend(err)
			}
			for _, l := range labels {
				r.Labels = append(r.Labels, l.Value)
			}
		}
		if s.IncludeTags {
			tags, err := p.port.ListTags(ctx, nil, &d.ID)
			if err != nil {
				return nil, errs.Backend(err)
			}
			if len(tags) > 0 {
				r.Tags = make(map[string]string, len(tags))
				for _, t := range tags {
					r.Tags[t.Key] = t.Value
				}
			}
		}
		if s.IncludeContent {
			content, err := p.readBlob(ctx, d)
			if err != nil {
				return nil, err
			}
			r.Content = content
		}
		out = append(out, r)
	}
	return out, nil
}

func (p *Planner) readBlob(ctx context.Context, d *model.Document) ([]byte, error) {
	coll, err := p.port.GetCollection(ctx, d.CollectionID)
	if err != nil {
		return nil, errs.Backend(err)
	}
	path := filepath.Join(coll.DocumentsDirectory, d.ID+".json")
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Backend(fmt.Errorf("reading document blob %s: %w", path, err))
	}
	return content, nil
}
