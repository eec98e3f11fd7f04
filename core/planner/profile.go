package planner

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/plany/core"
)

// profile defaults
const (
	defaultYearStart        = "2024-09-01"
	defaultYearEnd          = "2025-06-15"
	defaultPeriodsPerDay    = 6
	defaultMinutesPerPeriod = 45
)

// SchoolYearDefaults returns the usual bounds of a school year given as "2024-2025":
// mid-August to early June.
func SchoolYearDefaults(selectedYear string) (SchoolYear, error) {
	start, end, ok := core.ParseSchoolYear(selectedYear)
	if !ok {
		return SchoolYear{}, core.NewValidationError(
			errors.New("invalid school year"),
			core.FieldError{Field: "selectedYear", Error: "selectedYear must look like 2024-2025"},
		)
	}
	return SchoolYear{
		Start: fmt.Sprintf("%04d-08-18", start),
		End:   fmt.Sprintf("%04d-06-12", end),
	}, nil
}

// CreateProfile writes the default profile of a new account.
func (s *Store) CreateProfile(ctx context.Context, name, email string) (Profile, error) {
	tstamp := now()
	profile := Profile{
		Name:             core.CleanString(name),
		Email:            core.CleanString(email, true /* lower */),
		SchoolYear:       SchoolYear{Start: defaultYearStart, End: defaultYearEnd},
		PeriodsPerDay:    defaultPeriodsPerDay,
		MinutesPerPeriod: defaultMinutesPerPeriod,
		CreatedAt:        tstamp,
		UpdatedAt:        tstamp,
	}
	if err := s.set(ctx, profileColl, profileDocID, profile); err != nil {
		return Profile{}, err
	}
	return profile, nil
}

// GetProfile returns nil when the user has no profile.
func (s *Store) GetProfile(ctx context.Context) (*Profile, error) {
	var profile Profile
	found, err := s.get(ctx, profileColl, profileDocID, &profile)
	if err != nil || !found {
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile saves the school year settings. An empty school year is derived from SelectedYear.
func (s *Store) UpdateProfile(ctx context.Context, in ProfileInput) (Profile, error) {
	in.SelectedYear = core.CleanString(in.SelectedYear)
	if in.SelectedYear != "" && in.SchoolYear == (SchoolYear{}) {
		year, err := SchoolYearDefaults(in.SelectedYear)
		if err != nil {
			return Profile{}, err
		}
		in.SchoolYear = year
	}
	if err := s.validate.Struct(in); err != nil {
		return Profile{}, err
	}
	if in.SchoolYear.End < in.SchoolYear.Start {
		return Profile{}, core.NewValidationError(
			errors.New("school year ends before it starts"),
			core.FieldError{Field: "schoolYear", Error: "end must not be before start"},
		)
	}

	fields, err := fieldsOf(in)
	if err != nil {
		return Profile{}, err
	}
	fields["updatedAt"] = now()
	if err = s.update(ctx, profileColl, profileDocID, fields); err != nil {
		return Profile{}, err
	}

	profile, err := s.GetProfile(ctx)
	if err != nil {
		return Profile{}, err
	}
	if profile == nil {
		return Profile{}, ErrNotFound
	}
	return *profile, nil
}
