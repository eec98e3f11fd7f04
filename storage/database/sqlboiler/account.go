package boiledrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/queries"

	"github.com/trezcool/plany/core"
	"github.com/trezcool/plany/core/account"
)

const accountColumns = `"id", "email", "display_name", "password_hash", "is_active", "created_at", "updated_at", "last_login"`

// accountRow maps a row of the "account" table.
type accountRow struct {
	ID           string      `boil:"id"`
	Email        string      `boil:"email"`
	DisplayName  null.String `boil:"display_name"`
	PasswordHash []byte      `boil:"password_hash"`
	IsActive     bool        `boil:"is_active"`
	CreatedAt    time.Time   `boil:"created_at"`
	UpdatedAt    time.Time   `boil:"updated_at"`
	LastLogin    null.Time   `boil:"last_login"`
}

// sortable account columns
var accountOrderings = map[string]string{
	"email":        `"email"`,
	"display_name": `"display_name"`,
	"created_at":   `"created_at"`,
	"updated_at":   `"updated_at"`,
	"last_login":   `"last_login"`,
}

type accountRepository struct {
	exec core.DBExecutor
}

var _ account.Repository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(exec core.DBExecutor) *accountRepository {
	return &accountRepository{exec: exec}
}

func (repo accountRepository) boil(acc account.Account) accountRow {
	return accountRow{
		ID:           acc.ID,
		Email:        acc.Email,
		DisplayName:  null.NewString(acc.DisplayName, acc.DisplayName != ""),
		PasswordHash: acc.PasswordHash,
		IsActive:     acc.Active(),
		CreatedAt:    acc.CreatedAt.UTC(),
		UpdatedAt:    acc.UpdatedAt.UTC(),
		LastLogin:    null.NewTime(acc.LastLogin.UTC(), !acc.LastLogin.IsZero()),
	}
}

func (repo accountRepository) unboil(row accountRow) account.Account {
	acc := account.Account{
		ID:           row.ID,
		Email:        row.Email,
		DisplayName:  row.DisplayName.String,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
	if row.LastLogin.Valid {
		acc.LastLogin = row.LastLogin.Time.UTC()
	}
	acc.SetActive(row.IsActive)
	return acc
}

// trapNoRowsErr maps psql "no rows" err to account.ErrNotFound
func (repo accountRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return account.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo accountRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedAccounts ...account.Account) error {
	ids := make([]string, 0, len(excludedAccounts))
	for _, acc := range excludedAccounts {
		if acc.ID != "" {
			ids = append(ids, acc.ID)
		}
	}

	var res struct {
		Exists bool `boil:"exists"`
	}
	err := queries.Raw(
		`SELECT EXISTS(SELECT 1 FROM "account" WHERE "email" = $1 AND NOT ("id"::text = ANY($2))) AS "exists"`,
		email, pq.Array(ids),
	).Bind(ctx, repo.exec, &res)
	if err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if res.Exists {
		return account.ErrEmailExists
	}
	return nil
}

func (repo accountRepository) CreateAccount(ctx context.Context, acc account.Account) (account.Account, error) {
	acc.ID = uuid.New().String()
	row := repo.boil(acc)
	_, err := queries.Raw(
		`INSERT INTO "account" (`+accountColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		row.ID, row.Email, row.DisplayName, row.PasswordHash, row.IsActive, row.CreatedAt, row.UpdatedAt, row.LastLogin,
	).ExecContext(ctx, repo.exec)
	if err != nil {
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return account.Account{}, account.ErrEmailExists
		}
		return account.Account{}, errors.Wrap(err, "inserting account")
	}
	return repo.unboil(row), nil
}

func (repo accountRepository) GetAccount(ctx context.Context, filter account.GetFilter) (account.Account, error) {
	var (
		where string
		arg   interface{}
	)
	switch {
	case filter.ID != "":
		if _, err := uuid.Parse(filter.ID); err != nil {
			return account.Account{}, account.ErrNotFound
		}
		where, arg = `"id" = $1`, filter.ID
	case filter.Email != "":
		where, arg = `"email" = $1`, filter.Email
	default:
		return account.Account{}, account.ErrNotFound
	}

	var row accountRow
	err := queries.Raw(`SELECT `+accountColumns+` FROM "account" WHERE `+where+` LIMIT 1`, arg).Bind(ctx, repo.exec, &row)
	if err != nil {
		return account.Account{}, repo.trapNoRowsErr(err, "finding account")
	}
	return repo.unboil(row), nil
}

func (repo accountRepository) QueryAccounts(ctx context.Context, filter account.QueryFilter, ordering []core.DBOrdering) ([]account.Account, error) {
	var (
		conds []string
		args  []interface{}
	)
	filter.Clean()
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conds = append(conds, fmt.Sprintf(`("email" ILIKE $%d OR "display_name" ILIKE $%d)`, len(args), len(args)))
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		conds = append(conds, fmt.Sprintf(`"is_active" = $%d`, len(args)))
	}

	q := `SELECT ` + accountColumns + ` FROM "account"`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}

	orderList := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		col, ok := accountOrderings[ord.Field]
		if !ok {
			return nil, errors.Errorf("invalid ordering field: %s", ord.Field)
		}
		orderList = append(orderList, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
	}
	if len(orderList) > 0 {
		q += " ORDER BY " + strings.Join(orderList, ", ")
	}

	var rows []accountRow
	if err := queries.Raw(q, args...).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "querying accounts")
	}
	accs := make([]account.Account, 0, len(rows))
	for _, row := range rows {
		accs = append(accs, repo.unboil(row))
	}
	return accs, nil
}

func (repo accountRepository) UpdateAccount(ctx context.Context, acc account.Account) (account.Account, error) {
	row := repo.boil(acc)
	res, err := queries.Raw(
		`UPDATE "account" SET "email" = $2, "display_name" = $3, "password_hash" = $4, "is_active" = $5, "updated_at" = $6, "last_login" = $7 WHERE "id" = $1`,
		row.ID, row.Email, row.DisplayName, row.PasswordHash, row.IsActive, row.UpdatedAt, row.LastLogin,
	).ExecContext(ctx, repo.exec)
	if err != nil {
		return account.Account{}, errors.Wrap(err, "updating account")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return account.Account{}, account.ErrNotFound
	}
	return repo.unboil(row), nil
}

func (repo accountRepository) DeleteAccountsByID(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := queries.Raw(`DELETE FROM "account" WHERE "id"::text = ANY($1)`, pq.Array(ids)).ExecContext(ctx, repo.exec)
	if err != nil {
		return 0, errors.Wrap(err, "deleting accounts")
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "deleting accounts")
	}
	return int(cnt), nil
}
