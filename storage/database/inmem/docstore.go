package inmemdb

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/plany/core"
)

type docStore struct {
	db *docTable
}

var _ core.DocStore = (*docStore)(nil) // interface compliance check

func NewDocStore(db *DB) *docStore {
	return &docStore{db: db.docs}
}

func decodeFields(data interface{}) (map[string]json.RawMessage, error) {
	raw, err := core.MarshalFields(data)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]json.RawMessage)
	if err = json.Unmarshal(raw, &fields); err != nil {
		return nil, errors.Wrap(err, "decoding document fields")
	}
	return fields, nil
}

// collection returns the rows at path, creating them. Callers must hold the write lock.
func (s *docStore) collection(path core.CollectionPath) map[string]*docRow {
	coll, ok := s.db.collections[path.String()]
	if !ok {
		coll = make(map[string]*docRow)
		s.db.collections[path.String()] = coll
	}
	return coll
}

func (s *docStore) put(path core.CollectionPath, id string, fields map[string]json.RawMessage) {
	coll := s.collection(path)
	if row, ok := coll[id]; ok {
		row.data = fields
		return
	}
	s.db.seq++
	coll[id] = &docRow{seq: s.db.seq, data: fields}
}

func (s *docStore) Add(_ context.Context, path core.CollectionPath, data interface{}) (string, error) {
	fields, err := decodeFields(data)
	if err != nil {
		return "", err
	}

	s.db.Lock()
	defer s.db.Unlock()
	id := uuid.New().String()
	s.put(path, id, fields)
	return id, nil
}

func (s *docStore) Set(_ context.Context, path core.CollectionPath, id string, data interface{}) error {
	fields, err := decodeFields(data)
	if err != nil {
		return err
	}

	s.db.Lock()
	defer s.db.Unlock()
	s.put(path, id, fields)
	return nil
}

func (s *docStore) Update(_ context.Context, path core.CollectionPath, id string, fields map[string]interface{}) error {
	patch, err := decodeFields(fields)
	if err != nil {
		return err
	}

	s.db.Lock()
	defer s.db.Unlock()
	row, ok := s.db.collections[path.String()][id]
	if !ok {
		return core.ErrDocNotFound
	}
	merged := make(map[string]json.RawMessage, len(row.data)+len(patch))
	for k, v := range row.data {
		merged[k] = v
	}
	for k, v := range patch {
		merged[k] = v
	}
	row.data = merged
	return nil
}

func (s *docStore) Get(_ context.Context, path core.CollectionPath, id string, dest interface{}) (bool, error) {
	s.db.RLock()
	row, ok := s.db.collections[path.String()][id]
	var raw []byte
	var err error
	if ok {
		raw, err = json.Marshal(row.data)
	}
	s.db.RUnlock()

	if !ok {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "encoding document")
	}
	return true, errors.Wrap(json.Unmarshal(raw, dest), "decoding document "+id)
}

func (s *docStore) Delete(_ context.Context, path core.CollectionPath, id string) error {
	s.db.Lock()
	defer s.db.Unlock()
	delete(s.db.collections[path.String()], id)
	return nil
}

func (s *docStore) Query(_ context.Context, path core.CollectionPath, q core.DocQuery) ([]core.Doc, error) {
	if err := core.ValidateDocQuery(q); err != nil {
		return nil, err
	}
	where := make([][]byte, len(q.Where))
	for i, f := range q.Where {
		v, err := canonical(f.Value)
		if err != nil {
			return nil, err
		}
		where[i] = v
	}

	s.db.RLock()
	defer s.db.RUnlock()

	type hit struct {
		id  string
		row *docRow
	}
	hits := make([]hit, 0)
rows:
	for id, row := range s.db.collections[path.String()] {
		for i, f := range q.Where {
			field, ok := row.data[f.Field]
			if !ok {
				continue rows
			}
			v, err := canonicalRaw(field)
			if err != nil || !bytes.Equal(v, where[i]) {
				continue rows
			}
		}
		hits = append(hits, hit{id: id, row: row})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].row.seq < hits[j].row.seq })
	sort.SliceStable(hits, func(i, j int) bool {
		for _, ord := range q.OrderBy {
			c := compareRaw(hits[i].row.data[ord.Field], hits[j].row.data[ord.Field])
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})

	docs := make([]core.Doc, 0, len(hits))
	for _, h := range hits {
		raw, err := json.Marshal(h.row.data)
		if err != nil {
			return nil, errors.Wrap(err, "encoding document")
		}
		docs = append(docs, core.Doc{ID: h.id, Data: raw})
	}
	return docs, nil
}

// canonical encodes v so that equal JSON values compare equal byte wise (e.g. 3 and 3.0).
func canonical(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "encoding filter value")
	}
	return canonicalRaw(raw)
}

func canonicalRaw(raw json.RawMessage) ([]byte, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

// compareRaw orders JSON values: missing/null < bool < number < string < others.
func compareRaw(a, b json.RawMessage) int {
	var va, vb interface{}
	if len(a) > 0 {
		_ = json.Unmarshal(a, &va)
	}
	if len(b) > 0 {
		_ = json.Unmarshal(b, &vb)
	}
	ra, rb := rank(va), rank(vb)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch x := va.(type) {
	case bool:
		y := vb.(bool)
		if x == y {
			return 0
		} else if !x {
			return -1
		}
		return 1
	case float64:
		y := vb.(float64)
		if x < y {
			return -1
		} else if x > y {
			return 1
		}
		return 0
	case string:
		return strings.Compare(x, vb.(string))
	}
	return 0
}

func rank(v interface{}) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case float64:
		return 2
	case string:
		return 3
	}
	return 4
}
