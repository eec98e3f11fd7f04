package planner

import (
	"context"
	"io/fs"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/plany/core"
	appfs "github.com/trezcool/plany/fs"
)

const (
	defaultSubject       = "General"
	defaultTemplatesPath = "assets/default-templates.yaml"
)

// DefaultTemplates returns the templates every new account starts with.
func DefaultTemplates() ([]Template, error) {
	raw, err := fs.ReadFile(appfs.FS, defaultTemplatesPath)
	if err != nil {
		return nil, errors.Wrap(err, "reading default templates")
	}
	var tmpls []Template
	if err = yaml.Unmarshal(raw, &tmpls); err != nil {
		return nil, errors.Wrap(err, "parsing default templates")
	}
	return tmpls, nil
}

func (in *TemplateInput) clean() {
	in.Name = core.CleanString(in.Name)
	in.Description = core.CleanString(in.Description)
	if in.Subject = core.CleanString(in.Subject); in.Subject == "" {
		in.Subject = defaultSubject
	}
}

func (s *Store) CreateTemplate(ctx context.Context, in TemplateInput) (Template, error) {
	in.clean()
	if err := s.validate.Struct(in); err != nil {
		return Template{}, err
	}

	tmpl := Template{
		Name:        in.Name,
		Description: in.Description,
		Subject:     in.Subject,
		Duration:    in.Duration,
		Structure:   in.Structure,
		CreatedAt:   now(),
	}
	id, err := s.add(ctx, templatesColl, tmpl)
	if err != nil {
		return Template{}, err
	}
	tmpl.ID = id
	return tmpl, nil
}

func (s *Store) UpdateTemplate(ctx context.Context, id string, in TemplateInput) (Template, error) {
	in.clean()
	if err := s.validate.Struct(in); err != nil {
		return Template{}, err
	}
	if err := s.update(ctx, templatesColl, id, in); err != nil {
		return Template{}, err
	}

	tmpl, err := s.GetTemplate(ctx, id)
	if err != nil {
		return Template{}, err
	}
	if tmpl == nil {
		return Template{}, ErrNotFound
	}
	return *tmpl, nil
}

func (s *Store) DeleteTemplate(ctx context.Context, id string) error {
	return s.delete(ctx, templatesColl, id)
}

// GetTemplate returns nil when the template does not exist.
func (s *Store) GetTemplate(ctx context.Context, id string) (*Template, error) {
	var tmpl Template
	found, err := s.get(ctx, templatesColl, id, &tmpl)
	if err != nil || !found {
		return nil, err
	}
	tmpl.ID = id
	return &tmpl, nil
}

// ListTemplates returns the templates ordered by name.
func (s *Store) ListTemplates(ctx context.Context) ([]Template, error) {
	tmpls := make([]Template, 0)
	q := core.DocQuery{OrderBy: []core.DBOrdering{asc("name")}}
	err := s.query(ctx, templatesColl, q, func(doc core.Doc) error {
		var tmpl Template
		if err := doc.Decode(&tmpl); err != nil {
			return err
		}
		tmpl.ID = doc.ID
		tmpls = append(tmpls, tmpl)
		return nil
	})
	return tmpls, err
}

// SeedDefaultTemplates adds the default templates to the user's templates.
func (s *Store) SeedDefaultTemplates(ctx context.Context) ([]Template, error) {
	defaults, err := DefaultTemplates()
	if err != nil {
		return nil, err
	}
	tmpls := make([]Template, 0, len(defaults))
	for _, d := range defaults {
		tmpl, err := s.CreateTemplate(ctx, TemplateInput{
			Name:        d.Name,
			Description: d.Description,
			Subject:     d.Subject,
			Duration:    d.Duration,
			Structure:   d.Structure,
		})
		if err != nil {
			return nil, err
		}
		tmpls = append(tmpls, tmpl)
	}
	return tmpls, nil
}

// UseTemplate creates a lesson plan for a session from the template: its structure becomes the plan activities.
func (s *Store) UseTemplate(ctx context.Context, id string, in PlanFromTemplate) (LessonPlan, error) {
	if err := s.validate.Struct(in); err != nil {
		return LessonPlan{}, err
	}
	tmpl, err := s.GetTemplate(ctx, id)
	if err != nil {
		return LessonPlan{}, err
	}
	if tmpl == nil {
		return LessonPlan{}, ErrNotFound
	}

	title := core.CleanString(in.Title)
	if title == "" {
		title = tmpl.Name
	}
	return s.CreatePlan(ctx, PlanInput{
		Date:             in.Date,
		RecurringClassID: in.RecurringClassID,
		Subject:          tmpl.Subject,
		Title:            title,
		Objectives:       tmpl.Description,
		Activities:       tmpl.Structure,
	})
}
