package inmemdb

import (
	"testing"

	"github.com/trezcool/plany/tests"
)

func TestAccountRepository(t *testing.T) {
	testutil.RunAccountRepositoryTests(t, NewAccountRepository(Open()))
}
