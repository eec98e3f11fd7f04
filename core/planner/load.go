package planner

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// LoadAll reads classes, plans, templates and breaks concurrently. It fails as a whole if any read fails.
func (s *Store) LoadAll(ctx context.Context) (Data, error) {
	var data Data
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		data.Classes, err = s.ListClasses(gctx)
		return err
	})
	g.Go(func() (err error) {
		data.Plans, err = s.ListPlans(gctx)
		return err
	})
	g.Go(func() (err error) {
		data.Templates, err = s.ListTemplates(gctx)
		return err
	})
	g.Go(func() (err error) {
		data.Breaks, err = s.ListBreaks(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return Data{}, err
	}
	return data, nil
}
