package planner

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/plany/core"
)

func (s *Store) CreateBreak(ctx context.Context, in BreakInput) (Break, error) {
	in.Name = core.CleanString(in.Name)
	if err := s.validate.Struct(in); err != nil {
		return Break{}, err
	}
	if in.EndDate < in.StartDate {
		return Break{}, core.NewValidationError(
			errors.New("break ends before it starts"),
			core.FieldError{Field: "endDate", Error: "endDate must not be before startDate"},
		)
	}

	brk := Break{Name: in.Name, StartDate: in.StartDate, EndDate: in.EndDate, CreatedAt: now()}
	id, err := s.add(ctx, breaksColl, brk)
	if err != nil {
		return Break{}, err
	}
	brk.ID = id
	return brk, nil
}

func (s *Store) DeleteBreak(ctx context.Context, id string) error {
	return s.delete(ctx, breaksColl, id)
}

// ListBreaks returns the breaks ordered by start date.
func (s *Store) ListBreaks(ctx context.Context) ([]Break, error) {
	breaks := make([]Break, 0)
	q := core.DocQuery{OrderBy: []core.DBOrdering{asc("startDate")}}
	err := s.query(ctx, breaksColl, q, func(doc core.Doc) error {
		var brk Break
		if err := doc.Decode(&brk); err != nil {
			return err
		}
		brk.ID = doc.ID
		breaks = append(breaks, brk)
		return nil
	})
	return breaks, err
}
