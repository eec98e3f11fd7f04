package gormrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/trezcool/plany/core"
)

type document struct {
	UserID     string         `gorm:"column:user_id;primaryKey"`
	Collection string         `gorm:"column:collection;primaryKey"`
	ID         string         `gorm:"column:id;primaryKey"`
	Data       datatypes.JSON `gorm:"column:data;type:jsonb;not null"`
	CreatedAt  time.Time      `gorm:"column:created_at"`
	UpdatedAt  time.Time      `gorm:"column:updated_at"`
}

func (document) TableName() string { return "document" }

type docStore struct {
	db *gorm.DB
}

var _ core.DocStore = (*docStore)(nil) // interface compliance check

// Open wraps an open *sql.DB in a gorm session. Migrations are run by goose, not by gorm.
func Open(db *sql.DB, debug bool) (*gorm.DB, error) {
	level := logger.Silent
	if debug {
		level = logger.Info
	}
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger:                 logger.Default.LogMode(level),
		SkipDefaultTransaction: true,
	})
	return gdb, errors.Wrap(err, "opening gorm")
}

func NewDocStore(db *gorm.DB) *docStore {
	return &docStore{db: db}
}

func (s *docStore) scoped(ctx context.Context, path core.CollectionPath) *gorm.DB {
	return s.db.WithContext(ctx).Model(&document{}).Where("user_id = ? AND collection = ?", path.UserID, path.Collection)
}

func (s *docStore) Add(ctx context.Context, path core.CollectionPath, data interface{}) (string, error) {
	raw, err := core.MarshalFields(data)
	if err != nil {
		return "", err
	}
	doc := document{UserID: path.UserID, Collection: path.Collection, ID: uuid.New().String(), Data: datatypes.JSON(raw)}
	if err = s.db.WithContext(ctx).Create(&doc).Error; err != nil {
		return "", errors.Wrapf(err, "adding document to %s", path)
	}
	return doc.ID, nil
}

func (s *docStore) Set(ctx context.Context, path core.CollectionPath, id string, data interface{}) error {
	raw, err := core.MarshalFields(data)
	if err != nil {
		return err
	}
	doc := document{UserID: path.UserID, Collection: path.Collection, ID: id, Data: datatypes.JSON(raw)}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "collection"}, {Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&doc).Error
	return errors.Wrapf(err, "setting document %s/%s", path, id)
}

func (s *docStore) Update(ctx context.Context, path core.CollectionPath, id string, fields map[string]interface{}) error {
	raw, err := core.MarshalFields(fields)
	if err != nil {
		return err
	}
	res := s.scoped(ctx, path).Where("id = ?", id).Updates(map[string]interface{}{
		"data":       gorm.Expr("data || ?::jsonb", string(raw)),
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return errors.Wrapf(res.Error, "updating document %s/%s", path, id)
	}
	if res.RowsAffected == 0 {
		return core.ErrDocNotFound
	}
	return nil
}

func (s *docStore) Get(ctx context.Context, path core.CollectionPath, id string, dest interface{}) (bool, error) {
	var doc document
	if err := s.scoped(ctx, path).Where("id = ?", id).Take(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, errors.Wrapf(err, "getting document %s/%s", path, id)
	}
	return true, core.Doc{ID: doc.ID, Data: []byte(doc.Data)}.Decode(dest)
}

func (s *docStore) Delete(ctx context.Context, path core.CollectionPath, id string) error {
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND collection = ? AND id = ?", path.UserID, path.Collection, id).
		Delete(&document{}).Error
	return errors.Wrapf(err, "deleting document %s/%s", path, id)
}

func (s *docStore) Query(ctx context.Context, path core.CollectionPath, q core.DocQuery) ([]core.Doc, error) {
	if err := core.ValidateDocQuery(q); err != nil {
		return nil, err
	}

	tx := s.scoped(ctx, path)
	for _, f := range q.Where {
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "encoding filter on %s", f.Field)
		}
		tx = tx.Where("data->?::text = ?::jsonb", f.Field, string(val))
	}
	for _, o := range q.OrderBy {
		// field names are validated above
		tx = tx.Order(core.DBOrdering{Field: fmt.Sprintf("data->'%s'", o.Field), Ascending: o.Ascending}.String())
	}

	var rows []document
	if err := tx.Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, errors.Wrapf(err, "querying %s", path)
	}
	docs := make([]core.Doc, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, core.Doc{ID: row.ID, Data: []byte(row.Data)})
	}
	return docs, nil
}
