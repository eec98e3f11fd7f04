package inmemdb

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/plany/core"
	"github.com/trezcool/plany/tests"
)

func TestDocStore(t *testing.T) {
	testutil.RunDocStoreTests(t, NewDocStore(Open()))
}

func TestDocStore_ConcurrentReads(t *testing.T) {
	store := NewDocStore(Open())
	ctx := context.Background()

	// reads of collections never written to run side by side
	var g errgroup.Group
	for i := 0; i < 50; i++ {
		path := core.CollectionPath{UserID: fmt.Sprintf("u%d", i%5), Collection: "plans"}
		g.Go(func() error {
			docs, err := store.Query(ctx, path, core.DocQuery{})
			if err != nil {
				return err
			}
			if len(docs) > 0 {
				return fmt.Errorf("%s: unexpected documents", path)
			}
			var dest map[string]interface{}
			found, err := store.Get(ctx, path, "missing", &dest)
			if found {
				return fmt.Errorf("%s: unexpected document", path)
			}
			return err
		})
	}
	assert.NoError(t, g.Wait())
	assert.Empty(t, store.db.collections)
}
