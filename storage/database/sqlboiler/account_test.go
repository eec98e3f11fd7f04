package boiledrepos

import (
	"testing"

	"github.com/trezcool/plany/tests"
)

func TestAccountRepository(t *testing.T) {
	db := testutil.PrepareDB(t)
	testutil.RunAccountRepositoryTests(t, NewAccountRepository(db))
}
