// Package inmemdb provides in-memory storage, used by tests and the `memory` database driver.
package inmemdb

import (
	"encoding/json"
	"sync"

	"github.com/trezcool/plany/core/account"
)

type (
	DB struct {
		account *accountTable
		docs    *docTable
	}

	accountTable struct {
		sync.RWMutex
		table map[string]*account.Account
	}

	docTable struct {
		sync.RWMutex
		seq         int
		collections map[string]map[string]*docRow // {path: {id: row}}
	}

	docRow struct {
		seq  int
		data map[string]json.RawMessage
	}
)

func Open() *DB {
	return &DB{
		account: &accountTable{table: make(map[string]*account.Account)},
		docs:    &docTable{collections: make(map[string]map[string]*docRow)},
	}
}
