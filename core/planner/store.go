// Package planner is the per-user record store of the lesson planner.
//
// Every operation resolves the signed-in user from its context.Context and fails with
// identity.ErrUnauthenticated when there is none. Documents live under users/<id>/<collection>.
package planner

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/plany/core"
	"github.com/trezcool/plany/core/identity"
)

var (
	nowFunc = time.Now // mockable

	// errors
	ErrNotFound   = errors.New("record not found")
	ErrPlanExists = errors.New("a lesson plan already exists for this class on this date")
)

type Store struct {
	docs     core.DocStore
	validate *validator.Validate
}

func NewStore(docs core.DocStore, validate *validator.Validate) *Store {
	vala.BeginValidation().Validate(
		core.NotNil(docs, "docs"),
		vala.IsNotNil(validate, "validate"),
	).CheckAndPanic()

	return &Store{docs: docs, validate: validate}
}

func now() time.Time {
	return nowFunc().UTC()
}

func (s *Store) path(ctx context.Context, coll string) (core.CollectionPath, error) {
	usr, err := identity.RequireUser(ctx)
	if err != nil {
		return core.CollectionPath{}, err
	}
	return core.CollectionPath{UserID: usr.ID, Collection: coll}, nil
}

func (s *Store) add(ctx context.Context, coll string, data interface{}) (string, error) {
	path, err := s.path(ctx, coll)
	if err != nil {
		return "", err
	}
	id, err := s.docs.Add(ctx, path, data)
	return id, errors.Wrap(err, "adding to "+coll)
}

func (s *Store) set(ctx context.Context, coll, id string, data interface{}) error {
	path, err := s.path(ctx, coll)
	if err != nil {
		return err
	}
	return errors.Wrap(s.docs.Set(ctx, path, id, data), "setting "+coll+"/"+id)
}

// update merges data (a struct or a map) into the document; ErrNotFound if it does not exist.
func (s *Store) update(ctx context.Context, coll, id string, data interface{}) error {
	path, err := s.path(ctx, coll)
	if err != nil {
		return err
	}
	fields, err := fieldsOf(data)
	if err != nil {
		return err
	}
	if err = s.docs.Update(ctx, path, id, fields); err != nil {
		if errors.Cause(err) == core.ErrDocNotFound {
			return ErrNotFound
		}
		return errors.Wrap(err, "updating "+coll+"/"+id)
	}
	return nil
}

func (s *Store) get(ctx context.Context, coll, id string, dest interface{}) (bool, error) {
	path, err := s.path(ctx, coll)
	if err != nil {
		return false, err
	}
	if id == "" {
		return false, nil
	}
	found, err := s.docs.Get(ctx, path, id, dest)
	return found, errors.Wrap(err, "getting "+coll+"/"+id)
}

func (s *Store) delete(ctx context.Context, coll, id string) error {
	path, err := s.path(ctx, coll)
	if err != nil {
		return err
	}
	return errors.Wrap(s.docs.Delete(ctx, path, id), "deleting "+coll+"/"+id)
}

func (s *Store) query(ctx context.Context, coll string, q core.DocQuery, each func(core.Doc) error) error {
	path, err := s.path(ctx, coll)
	if err != nil {
		return err
	}
	docs, err := s.docs.Query(ctx, path, q)
	if err != nil {
		return errors.Wrap(err, "querying "+coll)
	}
	for _, doc := range docs {
		if err = each(doc); err != nil {
			return err
		}
	}
	return nil
}

// fieldsOf converts a struct or a map to the top-level fields of a document.
func fieldsOf(data interface{}) (map[string]interface{}, error) {
	raw, err := core.MarshalFields(data)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]interface{})
	if err = json.Unmarshal(raw, &fields); err != nil {
		return nil, errors.Wrap(err, "decoding document fields")
	}
	return fields, nil
}

func asc(field string) core.DBOrdering  { return core.DBOrdering{Field: field, Ascending: true} }
func desc(field string) core.DBOrdering { return core.DBOrdering{Field: field} }
