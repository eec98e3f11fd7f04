package planner

import (
	"context"

	"github.com/trezcool/plany/core"
)

func (in *ClassInput) clean() {
	in.Name = core.CleanString(in.Name)
	in.Subject = core.CleanString(in.Subject)
	in.Time = core.CleanString(in.Time)
	in.Location = core.CleanString(in.Location)
}

func (s *Store) CreateClass(ctx context.Context, in ClassInput) (RecurringClass, error) {
	in.clean()
	if err := s.validate.Struct(in); err != nil {
		return RecurringClass{}, err
	}

	tstamp := now()
	class := RecurringClass{
		Name:      in.Name,
		Subject:   in.Subject,
		Day:       *in.Day,
		Time:      in.Time,
		Duration:  in.Duration,
		Location:  in.Location,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	id, err := s.add(ctx, classesColl, class)
	if err != nil {
		return RecurringClass{}, err
	}
	class.ID = id
	return class, nil
}

func (s *Store) UpdateClass(ctx context.Context, id string, in ClassInput) (RecurringClass, error) {
	in.clean()
	if err := s.validate.Struct(in); err != nil {
		return RecurringClass{}, err
	}

	fields, err := fieldsOf(in)
	if err != nil {
		return RecurringClass{}, err
	}
	fields["updatedAt"] = now()
	if err = s.update(ctx, classesColl, id, fields); err != nil {
		return RecurringClass{}, err
	}

	class, err := s.GetClass(ctx, id)
	if err != nil {
		return RecurringClass{}, err
	}
	if class == nil {
		return RecurringClass{}, ErrNotFound
	}
	return *class, nil
}

// DeleteClass removes the class only: its lesson plans stay, reachable by date.
func (s *Store) DeleteClass(ctx context.Context, id string) error {
	return s.delete(ctx, classesColl, id)
}

// GetClass returns nil when the class does not exist.
func (s *Store) GetClass(ctx context.Context, id string) (*RecurringClass, error) {
	var class RecurringClass
	found, err := s.get(ctx, classesColl, id, &class)
	if err != nil || !found {
		return nil, err
	}
	class.ID = id
	return &class, nil
}

// ListClasses returns the classes ordered by day then time.
func (s *Store) ListClasses(ctx context.Context) ([]RecurringClass, error) {
	classes := make([]RecurringClass, 0)
	q := core.DocQuery{OrderBy: []core.DBOrdering{asc("day"), asc("time")}}
	err := s.query(ctx, classesColl, q, func(doc core.Doc) error {
		var class RecurringClass
		if err := doc.Decode(&class); err != nil {
			return err
		}
		class.ID = doc.ID
		classes = append(classes, class)
		return nil
	})
	return classes, err
}
