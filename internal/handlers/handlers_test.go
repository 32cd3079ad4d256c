package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"budget-tracker/internal/auth"
	"budget-tracker/internal/ledger"
	"budget-tracker/internal/log"
	"budget-tracker/internal/storage"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type response struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func (c *client) do(method, path string, body any) (int, response) {
	c.t.Helper()

	var reader io.Reader = http.NoBody
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.base+path, reader)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var out response
	if resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

type HandlersTestSuite struct {
	suite.Suite
	db     *storage.DB
	server *httptest.Server
}

func (suite *HandlersTestSuite) SetupTest() {
	db, err := storage.NewDB(":memory:")
	suite.Require().NoError(err)
	suite.db = db

	h := NewHandlers(auth.NewService(db, time.Hour), ledger.NewService(db), db, Options{PageSize: 10})

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/register", h.Register)
	mux.HandleFunc("POST /auth/login", h.Login)
	mux.HandleFunc("POST /auth/logout", h.Logout)
	mux.HandleFunc("GET /categories", h.Categories)
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /{$}", h.Root)
	mux.HandleFunc("/", h.NotFound)
	mux.Handle("GET /auth/me", h.AuthMiddleware(http.HandlerFunc(h.Me)))
	mux.Handle("GET /dashboard", h.AuthMiddleware(http.HandlerFunc(h.Dashboard)))
	mux.Handle("GET /transactions", h.AuthMiddleware(http.HandlerFunc(h.ListTransactions)))
	mux.Handle("POST /transactions", h.AuthMiddleware(http.HandlerFunc(h.CreateTransaction)))
	mux.Handle("GET /transactions/{id}", h.AuthMiddleware(http.HandlerFunc(h.GetTransaction)))
	mux.Handle("PUT /transactions/{id}", h.AuthMiddleware(http.HandlerFunc(h.UpdateTransaction)))
	mux.Handle("DELETE /transactions/{id}", h.AuthMiddleware(http.HandlerFunc(h.DeleteTransaction)))
	mux.Handle("GET /statistics", h.AuthMiddleware(http.HandlerFunc(h.Statistics)))

	logCfg := log.DefaultConfig()
	logCfg.Output = io.Discard
	suite.server = httptest.NewServer(log.Middleware(log.New(logCfg))(Recover(mux)))
}

func (suite *HandlersTestSuite) TearDownTest() {
	suite.server.Close()
	suite.db.Close()
}

func (suite *HandlersTestSuite) newClient() *client {
	jar, err := cookiejar.New(nil)
	suite.Require().NoError(err)
	return &client{
		t:    suite.T(),
		base: suite.server.URL,
		http: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// loggedIn registers username and returns a client holding its session cookie.
func (suite *HandlersTestSuite) loggedIn(username string) *client {
	c := suite.newClient()
	code, _ := c.do("POST", "/auth/register", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	})
	suite.Require().Equal(http.StatusCreated, code)

	code, _ = c.do("POST", "/auth/login", map[string]string{"username": username, "password": "password123"})
	suite.Require().Equal(http.StatusOK, code)
	return c
}

func (suite *HandlersTestSuite) create(c *client, body map[string]any) TransactionView {
	code, resp := c.do("POST", "/transactions", body)
	suite.Require().Equal(http.StatusCreated, code, resp.Errors)
	return decode[TransactionView](suite.T(), resp.Data)
}

func tx(desc string, amount any, typ, cat, date string) map[string]any {
	return map[string]any{
		"description":      desc,
		"amount":           amount,
		"transaction_type": typ,
		"category":         cat,
		"date":             date,
	}
}

func (suite *HandlersTestSuite) TestHealth() {
	code, resp := suite.newClient().do("GET", "/health", nil)
	suite.Equal(http.StatusOK, code)
	suite.Equal("ok", decode[map[string]string](suite.T(), resp.Data)["status"])
}

func (suite *HandlersTestSuite) TestRootRedirects() {
	req, err := http.NewRequest("GET", suite.server.URL+"/", http.NoBody)
	suite.Require().NoError(err)
	resp, err := suite.newClient().http.Do(req)
	suite.Require().NoError(err)
	defer resp.Body.Close()

	suite.Equal(http.StatusFound, resp.StatusCode)
	suite.Equal("/dashboard", resp.Header.Get("Location"))
}

func (suite *HandlersTestSuite) TestCategories() {
	code, resp := suite.newClient().do("GET", "/categories", nil)
	suite.Equal(http.StatusOK, code)
	cats := decode[[]map[string]string](suite.T(), resp.Data)
	suite.Len(cats, 12)
	suite.Equal("salary", cats[0]["code"])
}

func (suite *HandlersTestSuite) TestRegister() {
	c := suite.newClient()
	code, resp := c.do("POST", "/auth/register", map[string]string{
		"username":         "alice",
		"email":            "alice@example.com",
		"password":         "password123",
		"confirm_password": "password123",
	})
	suite.Equal(http.StatusCreated, code)
	user := decode[map[string]any](suite.T(), resp.Data)
	suite.Equal("alice", user["username"])
	suite.NotContains(user, "password_hash")
	suite.NotContains(user, "PasswordHash")

	code, resp = c.do("POST", "/auth/register", map[string]string{
		"username": "alice",
		"email":    "other@example.com",
		"password": "password123",
	})
	suite.Equal(http.StatusConflict, code)
	suite.Contains(resp.Errors, "username")

	code, resp = c.do("POST", "/auth/register", map[string]string{
		"username": "alice2",
		"email":    "alice@example.com",
		"password": "password123",
	})
	suite.Equal(http.StatusConflict, code)
	suite.Contains(resp.Errors, "email")
}

func (suite *HandlersTestSuite) TestRegisterValidation() {
	code, resp := suite.newClient().do("POST", "/auth/register", map[string]string{
		"username":         "al",
		"email":            "not-an-email",
		"password":         "short",
		"confirm_password": "different",
	})
	suite.Equal(http.StatusBadRequest, code)
	suite.Contains(resp.Errors, "username")
	suite.Contains(resp.Errors, "email")
	suite.Contains(resp.Errors, "password")
	suite.Contains(resp.Errors, "confirm_password")
}

func (suite *HandlersTestSuite) TestMalformedBody() {
	code, resp := suite.newClient().do("POST", "/auth/register", "{not json")
	suite.Equal(http.StatusBadRequest, code)
	suite.Equal("invalid JSON body", resp.Message)
}

func (suite *HandlersTestSuite) TestLoginFailures() {
	suite.loggedIn("alice")
	c := suite.newClient()

	code, resp := c.do("POST", "/auth/login", map[string]string{"username": "alice", "password": "wrongpass"})
	suite.Equal(http.StatusUnauthorized, code)
	wrongPassword := resp.Message

	code, resp = c.do("POST", "/auth/login", map[string]string{"username": "nobody", "password": "password123"})
	suite.Equal(http.StatusUnauthorized, code)
	suite.Equal(wrongPassword, resp.Message)

	code, resp = c.do("POST", "/auth/login", map[string]string{})
	suite.Equal(http.StatusBadRequest, code)
	suite.Contains(resp.Errors, "username")
	suite.Contains(resp.Errors, "password")
}

func (suite *HandlersTestSuite) TestProtectedRoutesRequireSession() {
	c := suite.newClient()
	for _, path := range []string{"/dashboard", "/transactions", "/transactions/1", "/statistics", "/auth/me"} {
		code, _ := c.do("GET", path, nil)
		suite.Equal(http.StatusUnauthorized, code, path)
	}
}

func (suite *HandlersTestSuite) TestLoginMeLogout() {
	c := suite.loggedIn("alice")

	code, resp := c.do("GET", "/auth/me", nil)
	suite.Require().Equal(http.StatusOK, code)
	suite.Equal("alice", decode[map[string]any](suite.T(), resp.Data)["username"])

	code, _ = c.do("POST", "/auth/logout", nil)
	suite.Equal(http.StatusOK, code)

	code, _ = c.do("GET", "/dashboard", nil)
	suite.Equal(http.StatusUnauthorized, code)
}

func (suite *HandlersTestSuite) TestCreateTransaction() {
	c := suite.loggedIn("alice")

	t := suite.create(c, tx("  Groceries  ", "12.5", "expense", "food", "2024-01-15"))
	suite.Equal("Groceries", t.Description)
	suite.Equal("12.50", t.Amount)
	suite.Equal("Food & Dining", t.CategoryLabel)
	suite.Equal("2024-01-15", t.Date)

	t = suite.create(c, tx("Bonus", 99.999, "income", "salary", "2024-01-16"))
	suite.Equal("100.00", t.Amount)
}

func (suite *HandlersTestSuite) TestCreateTransactionValidation() {
	c := suite.loggedIn("alice")

	code, resp := c.do("POST", "/transactions", tx("", "0", "gift", "pets", "15/01/2024"))
	suite.Equal(http.StatusBadRequest, code)
	for _, field := range []string{"description", "amount", "transaction_type", "category", "date"} {
		suite.Contains(resp.Errors, field)
	}

	code, _ = c.do("POST", "/transactions", tx("Refund", "-5", "income", "other", "2024-01-15"))
	suite.Equal(http.StatusBadRequest, code)

	for _, amount := range []any{"abc", true, nil, map[string]any{"value": 1}, 1e13} {
		code, resp = c.do("POST", "/transactions", tx("Lunch", amount, "expense", "food", "2024-01-15"))
		suite.Equal(http.StatusBadRequest, code, "amount %v", amount)
		suite.Equal("validation failed", resp.Message, "amount %v", amount)
		suite.Contains(resp.Errors, "amount", "amount %v", amount)
		suite.NotContains(resp.Errors, "description", "amount %v", amount)
	}
}

func (suite *HandlersTestSuite) TestDashboard() {
	c := suite.loggedIn("alice")
	suite.create(c, tx("Salary", "1000", "income", "salary", "2024-01-01"))
	suite.create(c, tx("Groceries", "50", "expense", "food", "2024-01-02"))

	code, resp := c.do("GET", "/dashboard", nil)
	suite.Require().Equal(http.StatusOK, code)
	d := decode[DashboardView](suite.T(), resp.Data)
	suite.Equal("1000.00", d.Summary.TotalIncome)
	suite.Equal("50.00", d.Summary.TotalExpense)
	suite.Equal("950.00", d.Summary.Balance)
	suite.Require().Len(d.Recent, 2)
	suite.Equal("Groceries", d.Recent[0].Description)
}

func (suite *HandlersTestSuite) TestListTransactions() {
	c := suite.loggedIn("alice")
	for i := 1; i <= 12; i++ {
		suite.create(c, tx(fmt.Sprintf("Item %d", i), "10", "expense", "food", fmt.Sprintf("2024-03-%02d", i)))
	}
	suite.create(c, tx("Bus", "3", "expense", "transport", "2024-03-20"))

	code, resp := c.do("GET", "/transactions", nil)
	suite.Require().Equal(http.StatusOK, code)
	list := decode[ListView](suite.T(), resp.Data)
	suite.Equal(13, list.Total)
	suite.Equal(2, list.TotalPages)
	suite.Len(list.Transactions, 10)
	suite.Equal("Bus", list.Transactions[0].Description)
	suite.False(list.HasPrev)
	suite.True(list.HasNext)

	code, resp = c.do("GET", "/transactions?page=2&category=food&order=oldest", nil)
	suite.Require().Equal(http.StatusOK, code)
	list = decode[ListView](suite.T(), resp.Data)
	suite.Equal(12, list.Total)
	suite.Len(list.Transactions, 2)
	suite.Equal("Item 11", list.Transactions[0].Description)
	suite.Equal("food", list.Filters.Category)

	code, resp = c.do("GET", "/transactions?category=bogus&start_date=nope&end_date=2024-03-05", nil)
	suite.Require().Equal(http.StatusOK, code)
	list = decode[ListView](suite.T(), resp.Data)
	suite.Equal(5, list.Total)
	suite.Empty(list.Filters.Category)
	suite.Empty(list.Filters.StartDate)
	suite.Equal("2024-03-05", list.Filters.EndDate)
}

func (suite *HandlersTestSuite) TestTransactionOwnership() {
	alice := suite.loggedIn("alice")
	bob := suite.loggedIn("bob")
	t := suite.create(alice, tx("Rent", "800", "expense", "utilities", "2024-02-01"))
	path := fmt.Sprintf("/transactions/%d", t.ID)

	code, _ := bob.do("GET", path, nil)
	suite.Equal(http.StatusNotFound, code)
	code, _ = bob.do("PUT", path, tx("Mine", "1", "expense", "other", "2024-02-01"))
	suite.Equal(http.StatusNotFound, code)
	code, _ = bob.do("DELETE", path, nil)
	suite.Equal(http.StatusNotFound, code)

	code, resp := bob.do("GET", "/transactions", nil)
	suite.Require().Equal(http.StatusOK, code)
	suite.Zero(decode[ListView](suite.T(), resp.Data).Total)

	code, resp = alice.do("GET", path, nil)
	suite.Require().Equal(http.StatusOK, code)
	suite.Equal("Rent", decode[TransactionView](suite.T(), resp.Data).Description)
}

func (suite *HandlersTestSuite) TestUpdateAndDelete() {
	c := suite.loggedIn("alice")
	t := suite.create(c, tx("Coffee", "3.5", "expense", "food", "2024-02-01"))
	path := fmt.Sprintf("/transactions/%d", t.ID)

	code, resp := c.do("PUT", path, tx("Beans", "18.25", "expense", "shopping", "2024-02-03"))
	suite.Require().Equal(http.StatusOK, code, resp.Errors)
	updated := decode[TransactionView](suite.T(), resp.Data)
	suite.Equal(t.ID, updated.ID)
	suite.Equal("Beans", updated.Description)
	suite.Equal("18.25", updated.Amount)
	suite.Equal("2024-02-03", updated.Date)

	code, resp = c.do("PUT", path, tx("Beans", "0", "expense", "shopping", "2024-02-03"))
	suite.Equal(http.StatusBadRequest, code)
	suite.Contains(resp.Errors, "amount")

	code, _ = c.do("DELETE", path, nil)
	suite.Equal(http.StatusOK, code)
	code, _ = c.do("GET", path, nil)
	suite.Equal(http.StatusNotFound, code)
	code, _ = c.do("DELETE", path, nil)
	suite.Equal(http.StatusNotFound, code)
}

func (suite *HandlersTestSuite) TestInvalidTransactionID() {
	c := suite.loggedIn("alice")
	for _, id := range []string{"abc", "0", "-1"} {
		code, _ := c.do("GET", "/transactions/"+id, nil)
		suite.Equal(http.StatusNotFound, code, id)
	}
}

func (suite *HandlersTestSuite) TestStatistics() {
	c := suite.loggedIn("alice")
	suite.create(c, tx("Salary", "2000", "income", "salary", "2024-02-01"))
	suite.create(c, tx("Groceries", "150", "expense", "food", "2024-02-10"))
	suite.create(c, tx("Bus", "50", "expense", "transport", "2024-02-29"))
	suite.create(c, tx("March rent", "900", "expense", "utilities", "2024-03-01"))

	code, resp := c.do("GET", "/statistics?year=2024&month=2", nil)
	suite.Require().Equal(http.StatusOK, code)
	stats := decode[StatisticsView](suite.T(), resp.Data)
	suite.Equal(2024, stats.Year)
	suite.Equal(2, stats.Month)
	suite.Equal("February", stats.MonthName)
	suite.Equal("200.00", stats.Summary.TotalExpense)
	suite.Equal("1800.00", stats.Summary.Balance)
	suite.Require().Len(stats.Expenses, 2)
	suite.Equal("food", string(stats.Expenses[0].Category))
	suite.Equal("75.0", stats.Expenses[0].Percentage)
	suite.Equal(MonthRef{Year: 2024, Month: 1}, stats.Prev)
	suite.Equal(MonthRef{Year: 2024, Month: 3}, stats.Next)
	suite.False(stats.IsCurrentMonth)

	code, resp = c.do("GET", "/statistics?month=13", nil)
	suite.Require().Equal(http.StatusOK, code)
	stats = decode[StatisticsView](suite.T(), resp.Data)
	suite.Equal(int(time.Now().Month()), stats.Month)
	suite.True(stats.IsCurrentMonth)
}

func (suite *HandlersTestSuite) TestNotFound() {
	code, resp := suite.newClient().do("GET", "/missing", nil)
	suite.Equal(http.StatusNotFound, code)
	suite.Equal("not found", resp.Message)
}

func TestHandlersSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}
