package cli

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/vaultqa/database"
	"github.com/dtroode/vaultqa/internal/dbutil"
	"github.com/dtroode/vaultqa/internal/model"
	"github.com/dtroode/vaultqa/internal/testutil"
	"github.com/dtroode/vaultqa/internal/vaultcrypto"
)

type testEnv struct {
	users    *memUsers
	records  *memRecords
	exec     *scriptedExecutor
	readExec *scriptedExecutor
	storage  *memStorage
	cipher   *vaultcrypto.Cipher
	prov     *fakeProvisioner
	connects int
	closes   int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	c, err := vaultcrypto.New()
	require.NoError(t, err)
	return &testEnv{
		users:    &memUsers{},
		records:  &memRecords{},
		exec:     &scriptedExecutor{},
		readExec: &scriptedExecutor{},
		storage:  newMemStorage(),
		cipher:   c,
		prov:     &fakeProvisioner{},
	}
}

func (e *testEnv) run(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	log := testutil.MakeNoopLogger()
	c := New(Options{
		Connect: func(context.Context) (*Backend, error) {
			e.connects++
			return &Backend{
				Users:     e.users,
				Records:   e.records,
				Query:     dbutil.New(e.exec, log),
				ReadQuery: dbutil.New(e.readExec, log),
				Cipher:    e.cipher,
				Storage:   e.storage,
				Close: func() error {
					e.closes++
					return nil
				},
			}, nil
		},
		Provisioner: e.prov,
		Logger:      log,
		Version:     "test",
	})

	var stdout, stderr bytes.Buffer
	cmd := c.Command()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	code := c.Execute(context.Background())
	return stdout.String(), stderr.String(), code
}

func (e *testEnv) addUser(t *testing.T, username, email string) model.User {
	t.Helper()
	u, err := e.users.Create(context.Background(), username, email)
	require.NoError(t, err)
	return u
}

func TestSetup(t *testing.T) {
	env := newTestEnv(t)
	env.prov.res = database.ProvisionResult{RoleCreated: true}

	out, _, code := env.run(t, "setup")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, []string{"role: created", "database: already exists", "schema: up to date"}, lines(out))
	assert.Equal(t, 1, env.prov.calls)
	assert.Zero(t, env.connects)

	env.prov.err = errors.New("permission denied")
	_, stderr, code := env.run(t, "setup")
	assert.Equal(t, ExitInternal, code)
	assert.Contains(t, stderr, "permission denied")
}

func TestSeed(t *testing.T) {
	env := newTestEnv(t)

	out, _, code := env.run(t, "seed")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "Sample data added: 2 users")
	assert.Equal(t, 1, env.closes)

	require.Len(t, env.records.records, 2)
	rec, err := env.records.GetByTitle(context.Background(), "john_doe_password")
	require.NoError(t, err)
	assert.Equal(t, "password", rec.TypeOrEmpty())

	plaintext, err := vaultcrypto.Open(env.cipher, rec.EncryptedData)
	require.NoError(t, err)
	assert.Equal(t, "john_doe-sample-secret", plaintext)

	_, _, code = env.run(t, "seed")
	require.Equal(t, ExitSuccess, code)
	assert.Len(t, env.users.users, 2)
	assert.Len(t, env.records.records, 2)

	again, err := env.records.GetByTitle(context.Background(), "john_doe_password")
	require.NoError(t, err)
	assert.Equal(t, rec.EncryptedData, again.EncryptedData)
}

func TestSeed_TitleOwnedByAnotherUser(t *testing.T) {
	env := newTestEnv(t)
	other := env.addUser(t, "someone_else", "else@vault.com")
	_, err := env.records.Create(context.Background(), model.CreateRecordParams{
		UserID:        other.ID,
		Title:         "john_doe_password",
		EncryptedData: "unrelated",
	})
	require.NoError(t, err)

	_, _, code := env.run(t, "seed")
	require.Equal(t, ExitSuccess, code)

	john, err := env.users.GetByUsername(context.Background(), "john_doe")
	require.NoError(t, err)
	count, err := env.records.CountByUser(context.Background(), john.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestInspect(t *testing.T) {
	env := newTestEnv(t)
	_, _, code := env.run(t, "seed")
	require.Equal(t, ExitSuccess, code)

	out, _, code := env.run(t, "inspect")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "=== VAULT USERS ===")
	assert.Contains(t, out, "jane_smith\tjane@vault.com")
	assert.Contains(t, out, "john_doe_password\tpassword")
	assert.Contains(t, out, "Users: 2\nRecords: 2")
}

func TestExportUsers_CSV(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "cli_user2", "cli2@vault.com")
	env.addUser(t, "cli_user1", "cli1@vault.com")

	out, _, code := env.run(t, "export-users", "--format=csv")
	require.Equal(t, ExitSuccess, code)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"user_id", "username", "email"},
		{"2", "cli_user1", "cli1@vault.com"},
		{"1", "cli_user2", "cli2@vault.com"},
	}, records)
}

func TestExportUsers_JSON(t *testing.T) {
	env := newTestEnv(t)

	out, _, code := env.run(t, "export-users", "--format", "json")
	require.Equal(t, ExitSuccess, code)
	assert.JSONEq(t, `[]`, out)

	env.addUser(t, "cli_user1", "cli1@vault.com")
	out, _, code = env.run(t, "export-users", "--format", "json")
	require.Equal(t, ExitSuccess, code)

	var got []exportedUser
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []exportedUser{{UserID: 1, Username: "cli_user1", Email: "cli1@vault.com"}}, got)
}

func TestExportUsers_Upload(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "cli_user1", "cli1@vault.com")

	out, _, code := env.run(t, "export-users", "--format=json", "--upload")
	require.Equal(t, ExitSuccess, code)

	key := env.storage.onlyKey()
	require.NotEmpty(t, key)
	assert.True(t, strings.HasPrefix(key, "exports/"))
	assert.True(t, strings.HasSuffix(key, ".json"))
	assert.Equal(t, "application/json", env.storage.contentType[key])
	assert.Contains(t, out, "exported 1 users to "+key)
	assert.Contains(t, string(env.storage.objects[key]), "cli_user1")
}

func TestExportUsers_BadFormat(t *testing.T) {
	env := newTestEnv(t)

	_, stderr, code := env.run(t, "export-users", "--format=xml")
	assert.Equal(t, ExitValidation, code)
	assert.Contains(t, stderr, "unsupported format")
	assert.Zero(t, env.connects)
}

func TestDeleteRecords(t *testing.T) {
	env := newTestEnv(t)
	u := env.addUser(t, "bulk_delete", "bulk@vault.com")
	other := env.addUser(t, "keeper", "keeper@vault.com")
	for i := 0; i < 5; i++ {
		_, err := env.records.Create(context.Background(), model.CreateRecordParams{UserID: u.ID, Title: "r", EncryptedData: "data"})
		require.NoError(t, err)
	}
	_, err := env.records.Create(context.Background(), model.CreateRecordParams{UserID: other.ID, Title: "k", EncryptedData: "data"})
	require.NoError(t, err)

	_, stderr, code := env.run(t, "delete-records", "--user-id=1")
	assert.Equal(t, ExitValidation, code)
	assert.Contains(t, stderr, "without --confirm")
	assert.Len(t, env.records.records, 6)

	out, _, code := env.run(t, "delete-records", "--user-id=1", "--confirm")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "deleted 5 records for user 1")

	n, _ := env.records.CountByUser(context.Background(), u.ID)
	assert.Zero(t, n)
	n, _ = env.records.CountByUser(context.Background(), other.ID)
	assert.EqualValues(t, 1, n)
	assert.Len(t, env.users.users, 2)

	_, _, code = env.run(t, "delete-records", "--confirm")
	assert.Equal(t, ExitValidation, code)
}

func TestStats(t *testing.T) {
	env := newTestEnv(t)
	for _, name := range []string{"stats_user0", "stats_user1", "stats_user2"} {
		env.addUser(t, name, name+"@vault.com")
	}

	out, _, code := env.run(t, "stats")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, "vault_users: 3 rows\n", out)

	_, err := env.records.Create(context.Background(), model.CreateRecordParams{UserID: 1, Title: "a", EncryptedData: "x", RecordType: model.RecordTypeLogin.Ptr()})
	require.NoError(t, err)
	env.exec.rows = model.Rows{{"", int64(0)}, {"login", int64(1)}}

	out, _, code = env.run(t, "stats", "--table=vault_records")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, []string{"vault_records: 1 rows", "  (untyped): 0", "  login: 1"}, lines(out))
	assert.Equal(t, []string{recordTypeBreakdown}, env.exec.queries)

	_, stderr, code := env.run(t, "stats", "--table=pg_authid")
	assert.Equal(t, ExitValidation, code)
	assert.Contains(t, stderr, "unknown table")
}

func TestQuery(t *testing.T) {
	env := newTestEnv(t)
	env.readExec.rows = model.Rows{{"query_test", "query@vault.com"}}

	q := "SELECT username, email FROM vault_users WHERE email LIKE '%vault.com'"
	out, _, code := env.run(t, "query", q)
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "query_test  query@vault.com")
	assert.Contains(t, out, "(1 rows)")
	assert.Equal(t, []string{q}, env.readExec.queries)
	assert.Empty(t, env.exec.queries)

	env.readExec.rows = nil
	out, _, code = env.run(t, "query", "SELECT 1 WHERE false")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, "(0 rows)\n", out)
}

func TestQuery_RejectsWrites(t *testing.T) {
	for _, q := range []string{
		"DELETE FROM vault_users",
		"update vault_records set title = 'x'",
		"INSERT INTO vault_users (username, email) VALUES ('a', 'b')",
		"DROP TABLE vault_users",
		"SELECT 1; DELETE FROM vault_users",
		"SELECT 1;\nSELECT 2;",
		"TRUNCATE vault_records",
		"",
	} {
		t.Run(q, func(t *testing.T) {
			env := newTestEnv(t)

			_, stderr, code := env.run(t, "query", q)
			assert.Equal(t, ExitValidation, code)
			assert.NotEmpty(t, stderr)
			assert.Empty(t, env.readExec.queries)
			assert.Empty(t, env.exec.queries)
		})
	}
}

func TestQuery_AcceptedStatements(t *testing.T) {
	for _, q := range []string{
		"SELECT username FROM vault_users WHERE email LIKE '%;%'",
		"WITH u AS (SELECT 1) SELECT * FROM u",
		"with counts AS (SELECT user_id, COUNT(*) FROM vault_records GROUP BY user_id) SELECT * FROM counts",
		"SELECT 1;",
		"/* report */ SELECT COUNT(*) FROM vault_users",
	} {
		t.Run(q, func(t *testing.T) {
			env := newTestEnv(t)

			_, stderr, code := env.run(t, "query", q)
			require.Equal(t, ExitSuccess, code, stderr)
			assert.Equal(t, []string{q}, env.readExec.queries)
			assert.Empty(t, env.exec.queries)
		})
	}
}

// Side-effecting SELECTs pass the statement filter; the read-only
// transaction is what refuses them.
func TestQuery_SelectWithSideEffectsUsesReadOnlyPath(t *testing.T) {
	env := newTestEnv(t)
	env.readExec.err = errors.New("ERROR: cannot execute setval() in a read-only transaction (SQLSTATE 25006)")

	q := "SELECT setval('vault_users_user_id_seq', 1)"
	_, stderr, code := env.run(t, "query", q)
	assert.Equal(t, ExitInternal, code)
	assert.Contains(t, stderr, "read-only transaction")
	assert.Equal(t, []string{q}, env.readExec.queries)
	assert.Empty(t, env.exec.queries)
}

func TestQuery_NotConfigured(t *testing.T) {
	c := New(Options{
		Connect: func(context.Context) (*Backend, error) {
			return &Backend{Close: func() error { return nil }}, nil
		},
	})
	var stderr bytes.Buffer
	c.Command().SetArgs([]string{"query", "SELECT 1"})
	c.Command().SetErr(&stderr)

	assert.Equal(t, ExitInternal, c.Execute(context.Background()))
	assert.Contains(t, stderr.String(), "not configured")
}

func TestQuery_ExecutorError(t *testing.T) {
	env := newTestEnv(t)
	env.readExec.err = errors.New(`relation "nope" does not exist`)

	_, stderr, code := env.run(t, "query", "SELECT * FROM nope")
	assert.Equal(t, ExitInternal, code)
	assert.Contains(t, stderr, "does not exist")
}

func TestInventory(t *testing.T) {
	env := newTestEnv(t)

	out, _, code := env.run(t, "inventory")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "CLI-004")
	assert.Zero(t, env.connects)

	out, _, code = env.run(t, "inventory", "--format=yaml")
	require.Equal(t, ExitSuccess, code)
	assert.True(t, strings.HasPrefix(out, "suites:"))

	_, _, code = env.run(t, "inventory", "--format=toml")
	assert.Equal(t, ExitValidation, code)
}

func TestConnectFailure(t *testing.T) {
	c := New(Options{
		Connect: func(context.Context) (*Backend, error) {
			return nil, errors.New("connection refused")
		},
	})
	var stderr bytes.Buffer
	c.Command().SetArgs([]string{"stats"})
	c.Command().SetErr(&stderr)

	assert.Equal(t, ExitInternal, c.Execute(context.Background()))
	assert.Contains(t, stderr.String(), "failed to connect: connection refused")
}
