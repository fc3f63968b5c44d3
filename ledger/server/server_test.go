package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	. "github.com/pingcap/check"
	"github.com/pingcap-incubator/tinyledger/ledger/config"
	"github.com/pingcap-incubator/tinyledger/ledger/model"
	"github.com/pingcap-incubator/tinyledger/ledger/storage"
	"github.com/pingcap-incubator/tinyledger/ledger/transfer"
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/atomic"
)

func TestServer(t *testing.T) {
	TestingT(t)
}

var _ = Suite(&testServerSuite{})

type testServerSuite struct {
	cfg    *config.Config
	engine *transfer.Engine
	store  *switchStorage
	svr    *httptest.Server
	hc     *http.Client

	martin *model.Account
	kevin  *model.Account
}

// switchStorage fails every write while broken is set.
type switchStorage struct {
	storage.Storage
	broken atomic.Bool
}

func (s *switchStorage) Write(batch []storage.Modify) error {
	if s.broken.Load() {
		return errors.New("store unavailable")
	}
	return s.Storage.Write(batch)
}

func (s *testServerSuite) SetUpSuite(c *C) {
	s.cfg = config.NewTestConfig()
	c.Assert(s.cfg.SetupLogger(), IsNil)
	log.ReplaceGlobals(s.cfg.GetZapLogger(), s.cfg.GetZapLogProperties())
	s.hc = &http.Client{}
}

func (s *testServerSuite) SetUpTest(c *C) {
	s.store = &switchStorage{Storage: storage.NewMemStorage()}
	s.engine = transfer.NewEngine(s.store, s.cfg.LatchSlots)
	accounts, err := s.engine.SeedDemoAccounts()
	c.Assert(err, IsNil)
	s.martin, s.kevin = accounts[0], accounts[1]
	s.svr = httptest.NewServer(NewHandler(s.cfg, s.engine))
}

func (s *testServerSuite) TearDownTest(c *C) {
	s.svr.Close()
}

func (s *testServerSuite) do(c *C, method, path, key string, body interface{}) (int, []byte) {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		c.Assert(err, IsNil)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, s.svr.URL+path, reader)
	c.Assert(err, IsNil)
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(apiKeyHeader, key)
	}
	resp, err := s.hc.Do(req)
	c.Assert(err, IsNil)
	defer resp.Body.Close()
	data, err := ioutil.ReadAll(resp.Body)
	c.Assert(err, IsNil)
	return resp.StatusCode, data
}

func (s *testServerSuite) transfer(c *C, key string, src, dst uuid.UUID, amount string) (int, []byte) {
	return s.do(c, "POST", "/api/v1/transactions", key, map[string]interface{}{
		"source_account_id":      src.String(),
		"destination_account_id": dst.String(),
		"amount":                 amount,
	})
}

func (s *testServerSuite) mustBalance(c *C, id uuid.UUID) string {
	code, body := s.do(c, "GET", "/api/v1/accounts/"+id.String(), "", nil)
	c.Assert(code, Equals, http.StatusOK)
	var got map[string]interface{}
	c.Assert(json.Unmarshal(body, &got), IsNil)
	return got["balance"].(string)
}

func (s *testServerSuite) TestWelcomeAndStatus(c *C) {
	code, body := s.do(c, "GET", "/", "", nil)
	c.Assert(code, Equals, http.StatusOK)
	c.Assert(string(body), Matches, `(?s).*Welcome to TinyLedger.*`)

	code, body = s.do(c, "GET", "/api/v1/status", "", nil)
	c.Assert(code, Equals, http.StatusOK)
	var st status
	c.Assert(json.Unmarshal(body, &st), IsNil)
	c.Assert(st.AppName, Equals, s.cfg.AppName)
	c.Assert(st.Storage, Equals, config.StorageMemory)
	c.Assert(st.InFlight, Equals, int64(0))
	c.Assert(st.Accounts, Equals, 2)
	c.Assert(st.Transactions, Equals, 0)

	code, _ = s.transfer(c, s.cfg.AdminAPIKey, s.martin.ID, s.kevin.ID, "1.00")
	c.Assert(code, Equals, http.StatusCreated)
	code, body = s.do(c, "GET", "/api/v1/status", "", nil)
	c.Assert(code, Equals, http.StatusOK)
	c.Assert(json.Unmarshal(body, &st), IsNil)
	c.Assert(st.Accounts, Equals, 2)
	c.Assert(st.Transactions, Equals, 1)
}

func (s *testServerSuite) TestListAndGetAccounts(c *C) {
	code, body := s.do(c, "GET", "/api/v1/accounts", "", nil)
	c.Assert(code, Equals, http.StatusOK)
	var list []map[string]interface{}
	c.Assert(json.Unmarshal(body, &list), IsNil)
	c.Assert(list, HasLen, 2)
	c.Assert(list[0]["owner_name"], Equals, "Martin Vargas")
	c.Assert(list[0]["balance"], Equals, "1000.00")
	c.Assert(list[1]["balance"], Equals, "500.50")

	c.Assert(s.mustBalance(c, s.kevin.ID), Equals, "500.50")

	code, _ = s.do(c, "GET", "/api/v1/accounts/"+uuid.New().String(), "", nil)
	c.Assert(code, Equals, http.StatusNotFound)
	code, _ = s.do(c, "GET", "/api/v1/accounts/not-a-uuid", "", nil)
	c.Assert(code, Equals, http.StatusBadRequest)
}

func (s *testServerSuite) TestCreateAccount(c *C) {
	req := map[string]interface{}{"owner_name": "Ana", "balance": "12.5"}
	code, _ := s.do(c, "POST", "/api/v1/accounts", "", req)
	c.Assert(code, Equals, http.StatusUnauthorized)

	code, body := s.do(c, "POST", "/api/v1/accounts", s.cfg.AdminAPIKey, req)
	c.Assert(code, Equals, http.StatusCreated)
	var got map[string]interface{}
	c.Assert(json.Unmarshal(body, &got), IsNil)
	c.Assert(got["balance"], Equals, "12.50")

	code, _ = s.do(c, "POST", "/api/v1/accounts", s.cfg.AdminAPIKey,
		map[string]interface{}{"owner_name": "Ana", "balance": "-1"})
	c.Assert(code, Equals, http.StatusBadRequest)
	code, _ = s.do(c, "POST", "/api/v1/accounts", s.cfg.AdminAPIKey,
		map[string]interface{}{"owner_name": "", "balance": "1"})
	c.Assert(code, Equals, http.StatusBadRequest)
}

func (s *testServerSuite) TestTransfer(c *C) {
	code, body := s.transfer(c, s.cfg.AdminAPIKey, s.martin.ID, s.kevin.ID, "100.00")
	c.Assert(code, Equals, http.StatusCreated, Commentf("%s", body))
	var txn map[string]interface{}
	c.Assert(json.Unmarshal(body, &txn), IsNil)
	c.Assert(txn["status"], Equals, "COMPLETED")
	c.Assert(txn["amount"], Equals, "100.00")

	c.Assert(s.mustBalance(c, s.martin.ID), Equals, "900.00")
	c.Assert(s.mustBalance(c, s.kevin.ID), Equals, "600.50")

	code, body = s.do(c, "GET", fmt.Sprintf("/api/v1/transactions/%s", txn["id"]), "", nil)
	c.Assert(code, Equals, http.StatusOK)
	c.Assert(strings.Contains(string(body), "COMPLETED"), IsTrue)

	for _, id := range []uuid.UUID{s.martin.ID, s.kevin.ID} {
		code, body = s.do(c, "GET", "/api/v1/accounts/"+id.String()+"/transactions", "", nil)
		c.Assert(code, Equals, http.StatusOK)
		var list []map[string]interface{}
		c.Assert(json.Unmarshal(body, &list), IsNil)
		c.Assert(list, HasLen, 1)
		c.Assert(list[0]["id"], Equals, txn["id"])
	}
}

func (s *testServerSuite) TestTransferBusinessErrors(c *C) {
	key := s.cfg.AdminAPIKey
	code, _ := s.transfer(c, key, s.martin.ID, s.martin.ID, "1.00")
	c.Assert(code, Equals, http.StatusBadRequest)
	code, _ = s.transfer(c, key, s.martin.ID, s.kevin.ID, "0")
	c.Assert(code, Equals, http.StatusBadRequest)
	code, _ = s.transfer(c, key, s.martin.ID, uuid.New(), "1.00")
	c.Assert(code, Equals, http.StatusBadRequest)
	code, body := s.transfer(c, key, s.kevin.ID, s.martin.ID, "1000.00")
	c.Assert(code, Equals, http.StatusBadRequest)
	c.Assert(strings.Contains(string(body), "insufficient funds"), IsTrue)

	code, _ = s.do(c, "POST", "/api/v1/transactions", key, `{"amount": "1"}`)
	c.Assert(code, Equals, http.StatusBadRequest)
	code, _ = s.do(c, "POST", "/api/v1/transactions", key, `not json`)
	c.Assert(code, Equals, http.StatusBadRequest)

	c.Assert(s.mustBalance(c, s.martin.ID), Equals, "1000.00")
	c.Assert(s.mustBalance(c, s.kevin.ID), Equals, "500.50")
}

func (s *testServerSuite) TestTransferAuth(c *C) {
	code, _ := s.transfer(c, "", s.martin.ID, s.kevin.ID, "1.00")
	c.Assert(code, Equals, http.StatusUnauthorized)
	code, _ = s.transfer(c, "wrong-key", s.martin.ID, s.kevin.ID, "1.00")
	c.Assert(code, Equals, http.StatusUnauthorized)
	c.Assert(s.mustBalance(c, s.martin.ID), Equals, "1000.00")
}

func (s *testServerSuite) TestTransferStoreError(c *C) {
	s.store.broken.Store(true)
	code, body := s.transfer(c, s.cfg.AdminAPIKey, s.martin.ID, s.kevin.ID, "1.00")
	s.store.broken.Store(false)
	c.Assert(code, Equals, http.StatusInternalServerError)
	c.Assert(strings.Contains(string(body), errUnexpectedTransfer), IsTrue)
	c.Assert(s.mustBalance(c, s.martin.ID), Equals, "1000.00")
}

func (s *testServerSuite) TestGetTransactionErrors(c *C) {
	code, _ := s.do(c, "GET", "/api/v1/transactions/"+uuid.New().String(), "", nil)
	c.Assert(code, Equals, http.StatusNotFound)
	code, _ = s.do(c, "GET", "/api/v1/transactions/42", "", nil)
	c.Assert(code, Equals, http.StatusBadRequest)
	code, _ = s.do(c, "GET", "/api/v1/accounts/"+uuid.New().String()+"/transactions", "", nil)
	c.Assert(code, Equals, http.StatusNotFound)
}

func (s *testServerSuite) TestMetrics(c *C) {
	s.transfer(c, s.cfg.AdminAPIKey, s.martin.ID, s.kevin.ID, "1.00")
	code, body := s.do(c, "GET", "/metrics", "", nil)
	c.Assert(code, Equals, http.StatusOK)
	c.Assert(strings.Contains(string(body), "ledger_transfer_total"), IsTrue)
}

func (s *testServerSuite) TestRateLimit(c *C) {
	cfg := config.NewTestConfig()
	cfg.RateLimit = 0.001
	cfg.RateBurst = 2
	svr := httptest.NewServer(NewHandler(cfg, s.engine))
	defer svr.Close()

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := s.hc.Get(svr.URL + "/api/v1/accounts")
		c.Assert(err, IsNil)
		resp.Body.Close()
		codes = append(codes, resp.StatusCode)
	}
	c.Assert(codes, DeepEquals, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests})
}
