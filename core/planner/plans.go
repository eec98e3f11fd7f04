package planner

import (
	"context"

	"github.com/trezcool/plany/core"
)

func (in *PlanInput) clean() {
	in.Date = core.CleanString(in.Date)
	in.RecurringClassID = core.CleanString(in.RecurringClassID)
	in.ClassName = core.CleanString(in.ClassName)
	in.Subject = core.CleanString(in.Subject)
	in.Title = core.CleanString(in.Title)
}

// prepare validates in, copies the class name & subject from its class and checks that no other plan
// (excluding excludeID) exists for the same class and date.
func (s *Store) preparePlan(ctx context.Context, in *PlanInput, excludeID string) error {
	in.clean()
	if err := s.validate.Struct(in); err != nil {
		return err
	}

	class, err := s.GetClass(ctx, in.RecurringClassID)
	if err != nil {
		return err
	}
	if class != nil {
		in.ClassName = class.Name
		in.Subject = class.Subject
	}

	existing, err := s.queryPlans(ctx, core.DocQuery{Where: []core.DocFilter{
		{Field: "recurringClassId", Value: in.RecurringClassID},
		{Field: "date", Value: in.Date},
	}})
	if err != nil {
		return err
	}
	for _, plan := range existing {
		if plan.ID != excludeID {
			return ErrPlanExists
		}
	}
	return nil
}

// CreatePlan stores a lesson plan. There can only be one plan per class and date: ErrPlanExists.
func (s *Store) CreatePlan(ctx context.Context, in PlanInput) (LessonPlan, error) {
	if err := s.preparePlan(ctx, &in, ""); err != nil {
		return LessonPlan{}, err
	}

	tstamp := now()
	plan := LessonPlan{
		Date:             in.Date,
		RecurringClassID: in.RecurringClassID,
		ClassName:        in.ClassName,
		Subject:          in.Subject,
		Title:            in.Title,
		Objectives:       in.Objectives,
		Materials:        in.Materials,
		Activities:       in.Activities,
		Homework:         in.Homework,
		Notes:            in.Notes,
		CreatedAt:        tstamp,
		UpdatedAt:        tstamp,
	}
	id, err := s.add(ctx, plansColl, plan)
	if err != nil {
		return LessonPlan{}, err
	}
	plan.ID = id
	return plan, nil
}

func (s *Store) UpdatePlan(ctx context.Context, id string, in PlanInput) (LessonPlan, error) {
	if err := s.preparePlan(ctx, &in, id); err != nil {
		return LessonPlan{}, err
	}

	fields, err := fieldsOf(in)
	if err != nil {
		return LessonPlan{}, err
	}
	fields["updatedAt"] = now()
	if err = s.update(ctx, plansColl, id, fields); err != nil {
		return LessonPlan{}, err
	}

	plan, err := s.GetPlan(ctx, id)
	if err != nil {
		return LessonPlan{}, err
	}
	if plan == nil {
		return LessonPlan{}, ErrNotFound
	}
	return *plan, nil
}

func (s *Store) DeletePlan(ctx context.Context, id string) error {
	return s.delete(ctx, plansColl, id)
}

// GetPlan returns nil when the plan does not exist.
func (s *Store) GetPlan(ctx context.Context, id string) (*LessonPlan, error) {
	var plan LessonPlan
	found, err := s.get(ctx, plansColl, id, &plan)
	if err != nil || !found {
		return nil, err
	}
	plan.ID = id
	return &plan, nil
}

// ListPlans returns all plans, most recent date first.
func (s *Store) ListPlans(ctx context.Context) ([]LessonPlan, error) {
	return s.queryPlans(ctx, core.DocQuery{OrderBy: []core.DBOrdering{desc("date")}})
}

// PlansByDate returns the plans of the ISO date.
func (s *Store) PlansByDate(ctx context.Context, date string) ([]LessonPlan, error) {
	return s.queryPlans(ctx, core.DocQuery{Where: []core.DocFilter{{Field: "date", Value: date}}})
}

var planOrderings = map[string]bool{
	"date": true, "className": true, "subject": true, "title": true, "createdAt": true, "updatedAt": true,
}

// QueryPlans returns the plans of date (all dates when empty) sorted by ordering, most recent date first by default.
func (s *Store) QueryPlans(ctx context.Context, date string, ordering []core.DBOrdering) ([]LessonPlan, error) {
	q := core.DocQuery{OrderBy: []core.DBOrdering{desc("date")}}
	if date != "" {
		if !core.IsISODate(date) {
			return nil, core.NewValidationError(nil, core.FieldError{Field: "date", Error: "date must be a valid date (YYYY-MM-DD)"})
		}
		q.Where = []core.DocFilter{{Field: "date", Value: date}}
	}
	if len(ordering) > 0 {
		for _, ord := range ordering {
			if !planOrderings[ord.Field] {
				return nil, core.NewValidationError(nil, core.FieldError{Field: "ordering", Error: "cannot order by " + ord.Field})
			}
		}
		q.OrderBy = ordering
	}
	return s.queryPlans(ctx, q)
}

func (s *Store) queryPlans(ctx context.Context, q core.DocQuery) ([]LessonPlan, error) {
	plans := make([]LessonPlan, 0)
	err := s.query(ctx, plansColl, q, func(doc core.Doc) error {
		var plan LessonPlan
		if err := doc.Decode(&plan); err != nil {
			return err
		}
		plan.ID = doc.ID
		plans = append(plans, plan)
		return nil
	})
	return plans, err
}
