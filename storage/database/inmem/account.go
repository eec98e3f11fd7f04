package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/plany/core"
	"github.com/trezcool/plany/core/account"
)

type accountRepository struct {
	db *accountTable
}

var _ account.Repository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(db *DB) *accountRepository {
	return &accountRepository{db: db.account}
}

func (repo *accountRepository) query() []account.Account {
	accs := make([]account.Account, 0, len(repo.db.table))
	for _, acc := range repo.db.table {
		accs = append(accs, *acc)
	}
	return accs
}

func (repo *accountRepository) CheckEmailUniqueness(_ context.Context, email string, excludedAccounts ...account.Account) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, acc := range repo.query() {
		if acc.Email == email && !isExcluded(acc, excludedAccounts) {
			return account.ErrEmailExists
		}
	}
	return nil
}

func (repo *accountRepository) CreateAccount(_ context.Context, acc account.Account) (account.Account, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, a := range repo.db.table {
		if a.Email == acc.Email {
			return account.Account{}, account.ErrEmailExists
		}
	}
	acc.ID = uuid.New().String()
	if acc.IsActive == nil {
		acc.SetActive(true)
	}
	repo.db.table[acc.ID] = &acc
	return acc, nil
}

func (repo *accountRepository) GetAccount(_ context.Context, filter account.GetFilter) (account.Account, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if filter.ID != "" {
		if acc, ok := repo.db.table[filter.ID]; ok {
			return *acc, nil
		}
		return account.Account{}, account.ErrNotFound
	}
	if filter.Email != "" {
		for _, acc := range repo.db.table {
			if acc.Email == filter.Email {
				return *acc, nil
			}
		}
	}
	return account.Account{}, account.ErrNotFound
}

func (repo *accountRepository) QueryAccounts(_ context.Context, filter account.QueryFilter, ordering []core.DBOrdering) ([]account.Account, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	filter.Clean()
	search := strings.ToLower(filter.Search)
	accs := make([]account.Account, 0, len(repo.db.table))
	for _, acc := range repo.query() {
		if search != "" &&
			!strings.Contains(strings.ToLower(acc.Email), search) &&
			!strings.Contains(strings.ToLower(acc.DisplayName), search) {
			continue
		}
		if filter.IsActive != nil && acc.Active() != *filter.IsActive {
			continue
		}
		accs = append(accs, acc)
	}

	sort.SliceStable(accs, func(i, j int) bool {
		for _, ord := range ordering {
			a, b := accountField(accs[i], ord.Field), accountField(accs[j], ord.Field)
			if a == b {
				continue
			}
			if ord.Ascending {
				return a < b
			}
			return a > b
		}
		return accs[i].CreatedAt.Before(accs[j].CreatedAt)
	})
	return accs, nil
}

func (repo *accountRepository) UpdateAccount(_ context.Context, acc account.Account) (account.Account, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[acc.ID]; !ok {
		return account.Account{}, account.ErrNotFound
	}
	repo.db.table[acc.ID] = &acc
	return acc, nil
}

func (repo *accountRepository) DeleteAccountsByID(_ context.Context, ids []string) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.table[id]; ok {
			delete(repo.db.table, id)
			cnt++
		}
	}
	return cnt, nil
}

func accountField(acc account.Account, field string) string {
	switch field {
	case "email":
		return acc.Email
	case "display_name":
		return strings.ToLower(acc.DisplayName)
	case "created_at":
		return acc.CreatedAt.UTC().Format("2006-01-02T15:04:05.000000000")
	case "last_login":
		return acc.LastLogin.UTC().Format("2006-01-02T15:04:05.000000000")
	}
	return ""
}

func isExcluded(acc account.Account, excludedAccounts []account.Account) bool {
	for _, excl := range excludedAccounts {
		if excl.ID == acc.ID {
			return true
		}
	}
	return false
}
