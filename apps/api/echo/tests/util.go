package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/plany/apps/api/echo"
	"github.com/trezcool/plany/core"
	"github.com/trezcool/plany/core/account"
	"github.com/trezcool/plany/core/planner"
	"github.com/trezcool/plany/services/auth"
	"github.com/trezcool/plany/services/email"
	"github.com/trezcool/plany/services/logger"
	"github.com/trezcool/plany/storage/database/inmem"
	"github.com/trezcool/plany/tests"
)

const pwd = "Sup3r-Secr3t!"

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type fixture struct {
	app      *Server
	accRepo  account.Repository
	mailSvc  *emailsvc.ConsoleServiceMock
	issuer   *auth.Issuer
	revoker  auth.Revoker
	store    *planner.Store
	accounts *account.Service
}

func setup(t *testing.T) fixture {
	t.Helper()
	return setupWithDB(t, nil)
}

// setupWithDB builds a fixture whose health check pings db.
func setupWithDB(t *testing.T, db core.DB) fixture {
	t.Helper()

	conf := core.NewTestConfig()
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	core.ParseEmailTemplates(logger, true)

	validate, translator := core.NewValidator()
	account.InitValidators(validate, translator)

	// set up DB & repos
	mem := inmemdb.Open()
	accRepo := inmemdb.NewAccountRepository(mem)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	accounts := account.NewService(accRepo, mailSvc, conf)
	store := planner.NewStore(inmemdb.NewDocStore(mem), validate)
	issuer := auth.NewIssuer(conf)
	revoker := auth.NewMemoryRevoker()

	// set up server
	app := NewServer(ServerDeps{
		Conf:       conf,
		Logger:     logger,
		Accounts:   accounts,
		Store:      store,
		Issuer:     issuer,
		Revoker:    revoker,
		Validate:   validate,
		Translator: translator,
		DB:         db,
	})

	return fixture{
		app:      app,
		accRepo:  accRepo,
		mailSvc:  mailSvc,
		issuer:   issuer,
		revoker:  revoker,
		store:    store,
		accounts: accounts,
	}
}

// signIn creates an active account and returns it with a valid token and a context carrying its user.
func (f fixture) signIn(t *testing.T, name, email string) (account.Account, string, context.Context) {
	t.Helper()
	acc := testutil.CreateAccount(t, f.accRepo, name, email, pwd, true)
	return acc, f.getToken(t, acc), testutil.UserContext(acc.ID)
}

func (f fixture) getToken(t *testing.T, acc account.Account) string {
	token, _, err := f.issuer.Issue(*acc.Identity())
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func (f fixture) serve(req *http.Request, rec *httptest.ResponseRecorder) {
	f.app.ServeHTTP(rec, req)
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func unmarchall(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), dest); err != nil {
		t.Fatalf("unmarchall() failed: %v; body %s", err, rec.Body.String())
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	assert.Equal(t, tt.wantCode, rec.Code, "code; body %s", rec.Body.String())
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHttpTests(t *testing.T, f fixture, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			f.serve(req, rec)
			checkCodeAndData(t, tt, rec)
		})
	}
}
