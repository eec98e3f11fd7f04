package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/plany/core"
	"github.com/trezcool/plany/core/account"
	"github.com/trezcool/plany/core/identity"
	"github.com/trezcool/plany/storage/database"
)

// CreateAccount stores an account straight through repo, bypassing the password policy.
func CreateAccount(
	t *testing.T,
	repo account.Repository,
	displayName, email, pwd string,
	isActive bool,
	createdAt ...time.Time,
) account.Account {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	acc := account.Account{
		DisplayName: displayName,
		Email:       email,
		CreatedAt:   tstamp,
		UpdatedAt:   tstamp,
	}
	acc.SetActive(isActive)
	if pwd != "" {
		if err := acc.SetPassword(pwd); err != nil {
			t.Fatalf("CreateAccount() failed: %v", err)
		}
	}
	acc, err := repo.CreateAccount(context.Background(), acc)
	if err != nil {
		t.Fatalf("CreateAccount() failed: %v", err)
	}
	return acc
}

// UserContext returns a context carrying a signed-in user with the given ID.
func UserContext(id string) context.Context {
	return identity.WithUser(context.Background(), &identity.User{ID: id, Email: id + "@test.test"})
}

// PrepareDB opens and migrates the Postgres database configured through the TEST_* environment.
// The test is skipped unless TEST_DATABASE_HOST is set.
func PrepareDB(t *testing.T) *sql.DB {
	t.Helper()
	host := os.Getenv("TEST_DATABASE_HOST")
	if host == "" {
		t.Skip("TEST_DATABASE_HOST not set")
	}

	conf := core.NewTestConfig()
	conf.Database = core.DatabaseConfig{
		Driver:        core.DriverSqlx,
		Engine:        "postgres",
		Host:          host,
		Port:          envOr("TEST_DATABASE_PORT", "5432"),
		Name:          envOr("TEST_DATABASE_NAME", "plany_test"),
		User:          envOr("TEST_DATABASE_USER", "plany"),
		Password:      envOr("TEST_DATABASE_PASSWORD", "plany"),
		AdminUser:     envOr("TEST_DATABASE_ADMINUSER", "postgres"),
		AdminPassword: envOr("TEST_DATABASE_ADMINPASSWORD", "postgres"),
		DisableTLS:    true,
	}

	require.NoError(t, database.CreateIfNotExist(conf))
	db, err := database.Open(conf)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	_, err = db.Exec(`TRUNCATE "document", "account"`)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

type testDoc struct {
	Name string `json:"name"`
	Day  int    `json:"day"`
	Time string `json:"time,omitempty"`
}

// RunDocStoreTests checks that store honours the core.DocStore contract.
func RunDocStoreTests(t *testing.T, store core.DocStore) {
	ctx := context.Background()
	alice := core.CollectionPath{UserID: "alice", Collection: "classes"}
	bob := core.CollectionPath{UserID: "bob", Collection: "classes"}

	t.Run("add get", func(t *testing.T) {
		id, err := store.Add(ctx, alice, testDoc{Name: "Math", Day: 1, Time: "09:00"})
		require.NoError(t, err)
		require.NotEmpty(t, id)

		var doc testDoc
		found, err := store.Get(ctx, alice, id, &doc)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, testDoc{Name: "Math", Day: 1, Time: "09:00"}, doc)

		// owner scoped
		found, err = store.Get(ctx, bob, id, &doc)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("missing is absent", func(t *testing.T) {
		var doc testDoc
		found, err := store.Get(ctx, alice, "missing", &doc)
		require.NoError(t, err)
		assert.False(t, found)
		assert.NoError(t, store.Delete(ctx, alice, "missing"))
	})

	t.Run("set replaces", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, alice, "fixed", testDoc{Name: "A", Day: 2, Time: "10:00"}))
		require.NoError(t, store.Set(ctx, alice, "fixed", testDoc{Name: "B", Day: 3}))

		var doc testDoc
		found, err := store.Get(ctx, alice, "fixed", &doc)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, testDoc{Name: "B", Day: 3}, doc)
	})

	t.Run("update merges", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, alice, "merge", testDoc{Name: "A", Day: 2, Time: "10:00"}))
		require.NoError(t, store.Update(ctx, alice, "merge", map[string]interface{}{"name": "C"}))

		var doc testDoc
		_, err := store.Get(ctx, alice, "merge", &doc)
		require.NoError(t, err)
		assert.Equal(t, testDoc{Name: "C", Day: 2, Time: "10:00"}, doc)

		err = store.Update(ctx, alice, "missing", map[string]interface{}{"name": "C"})
		assert.Equal(t, core.ErrDocNotFound, err)
	})

	t.Run("delete", func(t *testing.T) {
		id, err := store.Add(ctx, alice, testDoc{Name: "Gone"})
		require.NoError(t, err)
		require.NoError(t, store.Delete(ctx, alice, id))
		found, err := store.Get(ctx, alice, id, &testDoc{})
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("query", func(t *testing.T) {
		path := core.CollectionPath{UserID: "carol", Collection: "classes"}
		for _, d := range []testDoc{
			{Name: "Art", Day: 1, Time: "11:00"},
			{Name: "Bio", Day: 0, Time: "09:00"},
			{Name: "Chem", Day: 1, Time: "08:00"},
		} {
			_, err := store.Add(ctx, path, d)
			require.NoError(t, err)
		}

		docs, err := store.Query(ctx, path, core.DocQuery{
			OrderBy: []core.DBOrdering{{Field: "day", Ascending: true}, {Field: "time", Ascending: true}},
		})
		require.NoError(t, err)
		names := make([]string, 0, len(docs))
		for _, d := range docs {
			var doc testDoc
			require.NoError(t, d.Decode(&doc))
			names = append(names, doc.Name)
		}
		assert.Equal(t, []string{"Bio", "Chem", "Art"}, names)

		docs, err = store.Query(ctx, path, core.DocQuery{
			Where:   []core.DocFilter{{Field: "day", Value: 1}},
			OrderBy: []core.DBOrdering{{Field: "name", Ascending: false}},
		})
		require.NoError(t, err)
		require.Len(t, docs, 2)
		var first testDoc
		require.NoError(t, docs[0].Decode(&first))
		assert.Equal(t, "Chem", first.Name)

		docs, err = store.Query(ctx, path, core.DocQuery{Where: []core.DocFilter{{Field: "name", Value: "Nope"}}})
		require.NoError(t, err)
		assert.Empty(t, docs)

		_, err = store.Query(ctx, path, core.DocQuery{Where: []core.DocFilter{{Field: "name; DROP", Value: 1}}})
		assert.Error(t, err)
	})
}

// RunAccountRepositoryTests checks that repo honours the account.Repository contract.
func RunAccountRepositoryTests(t *testing.T, repo account.Repository) {
	ctx := context.Background()
	start := time.Now().UTC().Truncate(time.Second)

	ada := CreateAccount(t, repo, "Ada Lovelace", "ada@test.test", "Sup3r-Secr3t!", true, start)
	grace := CreateAccount(t, repo, "Grace Hopper", "grace@test.test", "Sup3r-Secr3t!", false, start.Add(time.Minute))
	alan := CreateAccount(t, repo, "", "alan@test.test", "Sup3r-Secr3t!", true, start.Add(2*time.Minute))

	t.Run("get", func(t *testing.T) {
		acc, err := repo.GetAccount(ctx, account.GetFilter{ID: ada.ID})
		require.NoError(t, err)
		assert.Equal(t, "ada@test.test", acc.Email)
		assert.Equal(t, "Ada Lovelace", acc.DisplayName)
		assert.True(t, acc.Active())
		assert.NoError(t, acc.CheckPassword("Sup3r-Secr3t!"))
		assert.True(t, acc.CreatedAt.Equal(start))

		acc, err = repo.GetAccount(ctx, account.GetFilter{Email: "grace@test.test"})
		require.NoError(t, err)
		assert.Equal(t, grace.ID, acc.ID)
		assert.False(t, acc.Active())

		for _, filter := range []account.GetFilter{{ID: "unknown"}, {Email: "nobody@test.test"}, {}} {
			_, err = repo.GetAccount(ctx, filter)
			assert.Equal(t, account.ErrNotFound, err)
		}
	})

	t.Run("email uniqueness", func(t *testing.T) {
		assert.Equal(t, account.ErrEmailExists, repo.CheckEmailUniqueness(ctx, "ada@test.test"))
		assert.NoError(t, repo.CheckEmailUniqueness(ctx, "ada@test.test", ada))
		assert.NoError(t, repo.CheckEmailUniqueness(ctx, "new@test.test"))
	})

	t.Run("query", func(t *testing.T) {
		active := true
		tests := []struct {
			name     string
			filter   account.QueryFilter
			ordering []core.DBOrdering
			want     []string
		}{
			{
				name:     "all by email",
				ordering: []core.DBOrdering{{Field: "email", Ascending: true}},
				want:     []string{ada.ID, alan.ID, grace.ID},
			},
			{
				name:     "active newest first",
				filter:   account.QueryFilter{IsActive: &active},
				ordering: []core.DBOrdering{{Field: "created_at", Ascending: false}},
				want:     []string{alan.ID, ada.ID},
			},
			{
				name:     "search",
				filter:   account.QueryFilter{Search: " HOPPER "},
				ordering: []core.DBOrdering{{Field: "created_at", Ascending: true}},
				want:     []string{grace.ID},
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				accs, err := repo.QueryAccounts(ctx, tt.filter, tt.ordering)
				require.NoError(t, err)
				ids := make([]string, 0, len(accs))
				for _, acc := range accs {
					ids = append(ids, acc.ID)
				}
				assert.Equal(t, tt.want, ids)
			})
		}
	})

	t.Run("update", func(t *testing.T) {
		acc := alan
		acc.DisplayName = "Alan Turing"
		acc.LastLogin = start.Add(time.Hour)
		_, err := repo.UpdateAccount(ctx, acc)
		require.NoError(t, err)

		got, err := repo.GetAccount(ctx, account.GetFilter{ID: alan.ID})
		require.NoError(t, err)
		assert.Equal(t, "Alan Turing", got.DisplayName)
		assert.True(t, got.LastLogin.Equal(start.Add(time.Hour)))

		acc.ID = uuid.New().String()
		_, err = repo.UpdateAccount(ctx, acc)
		assert.Equal(t, account.ErrNotFound, err)
	})

	t.Run("delete", func(t *testing.T) {
		cnt, err := repo.DeleteAccountsByID(ctx, []string{grace.ID, uuid.New().String()})
		require.NoError(t, err)
		assert.Equal(t, 1, cnt)
		_, err = repo.GetAccount(ctx, account.GetFilter{ID: grace.ID})
		assert.Equal(t, account.ErrNotFound, err)
	})
}
