package core

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
)

// ErrDocNotFound is returned by DocStore.Update when the target document does not exist.
var ErrDocNotFound = errors.New("document not found")

type (
	// CollectionPath namespaces a collection under its owner.
	CollectionPath struct {
		UserID     string
		Collection string
	}

	// Doc is a stored document: its ID and its JSON fields.
	Doc struct {
		ID   string
		Data json.RawMessage
	}

	// DocFilter is an equality filter on a top-level document field.
	DocFilter struct {
		Field string
		Value interface{}
	}

	DocQuery struct {
		Where   []DocFilter
		OrderBy []DBOrdering
	}

	// DocStore is a per-user document database.
	// Writes are atomic per document; nothing spans more than one document.
	DocStore interface {
		// Add stores data under a new generated ID and returns it.
		Add(ctx context.Context, path CollectionPath, data interface{}) (string, error)
		// Set creates or replaces the document with the given ID.
		Set(ctx context.Context, path CollectionPath, id string, data interface{}) error
		// Update merges fields into an existing document; ErrDocNotFound if it does not exist.
		Update(ctx context.Context, path CollectionPath, id string, fields map[string]interface{}) error
		// Get decodes the document into dest and reports whether it was found.
		Get(ctx context.Context, path CollectionPath, id string, dest interface{}) (bool, error)
		// Delete removes the document; deleting a missing document is not an error.
		Delete(ctx context.Context, path CollectionPath, id string) error
		Query(ctx context.Context, path CollectionPath, q DocQuery) ([]Doc, error)
	}
)

func (p CollectionPath) String() string {
	return "users/" + p.UserID + "/" + p.Collection
}

// Decode unmarshals the document fields into dest.
func (d Doc) Decode(dest interface{}) error {
	return errors.Wrap(json.Unmarshal(d.Data, dest), "decoding document "+d.ID)
}

// ValidateDocQuery rejects field names that cannot be safely used by SQL backed stores.
func ValidateDocQuery(q DocQuery) error {
	for _, f := range q.Where {
		if !ValidFieldName(f.Field) {
			return errors.Errorf("invalid filter field %q", f.Field)
		}
	}
	for _, o := range q.OrderBy {
		if !ValidFieldName(o.Field) {
			return errors.Errorf("invalid ordering field %q", o.Field)
		}
	}
	return nil
}

// MarshalFields converts data (a struct or a map) to a JSON object.
func MarshalFields(data interface{}) (json.RawMessage, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return nil, errors.Wrap(err, "encoding document")
	}
	if len(b) == 0 || b[0] != '{' {
		return nil, errors.New("document data must be a JSON object")
	}
	return b, nil
}
