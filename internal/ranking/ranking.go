// Package ranking runs the engine over a batch of resumes and orders the
// results by score.
package ranking

import (
	"context"
	"fmt"
	"sort"

	"resumerank/internal/engine"
	apperrors "resumerank/internal/errors"
	"resumerank/internal/types"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Processor is the part of the engine the batch driver needs.
type Processor interface {
	Process(doc types.ResumeDocument) types.ScoredResume
}

// Batch is a ranked set of resumes. Records are sorted by score, highest
// first; equal scores keep submission order.
type Batch struct {
	ID      string
	Records []types.ScoredResume
}

// Options controls how a batch is processed.
type Options struct {
	// Workers caps how many documents are processed at once. Values below 1
	// mean one at a time.
	Workers int
}

// Rank processes every document and returns the sorted batch. Results are
// written to their submission slot before sorting, so the order never
// depends on which worker finished first.
func Rank(ctx context.Context, p Processor, docs []types.ResumeDocument, opts Options) (*Batch, error) {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	records := make([]types.ScoredResume, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec := p.Process(docs[i])
			rec.Position = i + 1
			records[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("ranking batch: %w", err)
	}

	SortByScore(records)

	return &Batch{
		ID:      uuid.NewString(),
		Records: records,
	}, nil
}

// SortByScore orders records by score descending, keeping ties stable.
func SortByScore(records []types.ScoredResume) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Score > records[j].Score
	})
}

// Entries returns the ranking list view of the batch.
func (b *Batch) Entries() []types.RankedEntry {
	entries := make([]types.RankedEntry, len(b.Records))
	for i, rec := range b.Records {
		entries[i] = types.RankedEntry{
			Rank:     i + 1,
			Position: rec.Position,
			Filename: rec.Filename,
			Score:    rec.Score,
		}
	}
	return entries
}

// Select looks a record up by filename. Two records sharing a filename are
// never merged; asking for such a name is an error and the caller has to
// pick by position instead.
func (b *Batch) Select(filename string) (types.ResumeDetail, error) {
	var matches []types.ScoredResume
	for _, rec := range b.Records {
		if rec.Filename == filename {
			matches = append(matches, rec)
		}
	}

	switch len(matches) {
	case 0:
		return types.ResumeDetail{}, apperrors.NewValidationError(apperrors.ErrCodeSelectionNotFound,
			"no resume with that filename in batch", nil).WithContext("filename", filename)
	case 1:
		return Detail(matches[0]), nil
	default:
		positions := make([]int, len(matches))
		for i, m := range matches {
			positions[i] = m.Position
		}
		return types.ResumeDetail{}, apperrors.NewValidationError(apperrors.ErrCodeAmbiguousSelection,
			"several resumes share that filename; select by position", nil).
			WithContext("filename", filename).
			WithContext("positions", positions)
	}
}

// SelectByPosition looks a record up by its 1-based submission position.
func (b *Batch) SelectByPosition(position int) (types.ResumeDetail, error) {
	for _, rec := range b.Records {
		if rec.Position == position {
			return Detail(rec), nil
		}
	}
	return types.ResumeDetail{}, apperrors.NewValidationError(apperrors.ErrCodeSelectionNotFound,
		"no resume at that position in batch", nil).WithContext("position", position)
}

// Output builds the presentation payload, resolving an optional selection.
// A non-empty filename takes precedence over a position.
func (b *Batch) Output(filename string, position int) (types.RankResumesOutput, error) {
	out := types.RankResumesOutput{
		BatchID:  b.ID,
		Rankings: b.Entries(),
	}

	var (
		sel types.ResumeDetail
		err error
	)
	switch {
	case filename != "":
		sel, err = b.Select(filename)
	case position > 0:
		sel, err = b.SelectByPosition(position)
	default:
		return out, nil
	}
	if err != nil {
		return types.RankResumesOutput{}, err
	}
	out.Selected = &sel
	return out, nil
}

// Detail is the full view of one record, score chart included.
func Detail(rec types.ScoredResume) types.ResumeDetail {
	return types.ResumeDetail{
		ScoredResume: rec,
		Chart:        engine.Chart(rec.Score),
	}
}
