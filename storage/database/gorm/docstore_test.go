package gormrepos

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trezcool/plany/tests"
)

func TestDocStore(t *testing.T) {
	gdb, err := Open(testutil.PrepareDB(t), false)
	require.NoError(t, err)
	testutil.RunDocStoreTests(t, NewDocStore(gdb))
}
