package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/plany/core"
)

const docTable = `"document"`

type docRow struct {
	ID   string `db:"id"`
	Data []byte `db:"data"`
}

// docStore keeps every document in one JSONB table keyed by (user_id, collection, id).
type docStore struct {
	db *sqlx.DB
	sb sq.StatementBuilderType
}

var _ core.DocStore = (*docStore)(nil) // interface compliance check

func NewDocStore(db *sql.DB) *docStore {
	return &docStore{
		db: sqlx.NewDb(db, "postgres"),
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func pathEq(path core.CollectionPath) sq.Eq {
	return sq.Eq{`"user_id"`: path.UserID, `"collection"`: path.Collection}
}

func (s *docStore) insert(ctx context.Context, path core.CollectionPath, id string, raw json.RawMessage, upsert bool) error {
	ib := s.sb.Insert(docTable).
		Columns(`"user_id"`, `"collection"`, `"id"`, `"data"`, `"created_at"`, `"updated_at"`).
		Values(path.UserID, path.Collection, id, sq.Expr("?::jsonb", string(raw)), sq.Expr("clock_timestamp()"), sq.Expr("clock_timestamp()"))
	if upsert {
		ib = ib.Suffix(`ON CONFLICT ("user_id", "collection", "id") DO UPDATE SET "data" = EXCLUDED."data", "updated_at" = EXCLUDED."updated_at"`)
	}

	q, args, err := ib.ToSql()
	if err != nil {
		return errors.Wrap(err, "building insert")
	}
	_, err = s.db.ExecContext(ctx, q, args...)
	return errors.Wrapf(err, "writing document %s/%s", path, id)
}

func (s *docStore) Add(ctx context.Context, path core.CollectionPath, data interface{}) (string, error) {
	raw, err := core.MarshalFields(data)
	if err != nil {
		return "", err
	}
	id := uuid.New().String()
	if err = s.insert(ctx, path, id, raw, false); err != nil {
		return "", err
	}
	return id, nil
}

func (s *docStore) Set(ctx context.Context, path core.CollectionPath, id string, data interface{}) error {
	raw, err := core.MarshalFields(data)
	if err != nil {
		return err
	}
	return s.insert(ctx, path, id, raw, true)
}

func (s *docStore) Update(ctx context.Context, path core.CollectionPath, id string, fields map[string]interface{}) error {
	raw, err := core.MarshalFields(fields)
	if err != nil {
		return err
	}

	q, args, err := s.sb.Update(docTable).
		Set(`"data"`, sq.Expr(`"data" || ?::jsonb`, string(raw))).
		Set(`"updated_at"`, sq.Expr("clock_timestamp()")).
		Where(pathEq(path)).
		Where(sq.Eq{`"id"`: id}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "building update")
	}
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return errors.Wrapf(err, "updating document %s/%s", path, id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "updating document")
	}
	if n == 0 {
		return core.ErrDocNotFound
	}
	return nil
}

func (s *docStore) Get(ctx context.Context, path core.CollectionPath, id string, dest interface{}) (bool, error) {
	q, args, err := s.sb.Select(`"id"`, `"data"`).From(docTable).Where(pathEq(path)).Where(sq.Eq{`"id"`: id}).ToSql()
	if err != nil {
		return false, errors.Wrap(err, "building select")
	}

	var row docRow
	if err = s.db.GetContext(ctx, &row, q, args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, errors.Wrapf(err, "getting document %s/%s", path, id)
	}
	return true, core.Doc{ID: row.ID, Data: row.Data}.Decode(dest)
}

func (s *docStore) Delete(ctx context.Context, path core.CollectionPath, id string) error {
	q, args, err := s.sb.Delete(docTable).Where(pathEq(path)).Where(sq.Eq{`"id"`: id}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building delete")
	}
	_, err = s.db.ExecContext(ctx, q, args...)
	return errors.Wrapf(err, "deleting document %s/%s", path, id)
}

func (s *docStore) Query(ctx context.Context, path core.CollectionPath, dq core.DocQuery) ([]core.Doc, error) {
	if err := core.ValidateDocQuery(dq); err != nil {
		return nil, err
	}

	sb := s.sb.Select(`"id"`, `"data"`).From(docTable).Where(pathEq(path))
	for _, f := range dq.Where {
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "encoding filter on %s", f.Field)
		}
		sb = sb.Where(sq.Expr(`"data"->?::text = ?::jsonb`, f.Field, string(val)))
	}
	for _, o := range dq.OrderBy {
		// field names are validated above
		sb = sb.OrderBy(core.DBOrdering{Field: fmt.Sprintf(`"data"->'%s'`, o.Field), Ascending: o.Ascending}.String())
	}
	sb = sb.OrderBy(`"created_at" ASC`, `"id" ASC`)

	q, args, err := sb.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []docRow
	if err = s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrapf(err, "querying %s", path)
	}

	docs := make([]core.Doc, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, core.Doc{ID: row.ID, Data: row.Data})
	}
	return docs, nil
}
