package finsight

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Blu3B0y/finsight/pkg/store"

	"github.com/shopspring/decimal"
	"github.com/vmkteam/embedlog"
)

// fakeStore is a minimal PostgREST stand-in: canned JSON per collection on
// select, captured bodies on insert.
type fakeStore struct {
	mu      sync.Mutex
	data    map[string]string   // collection -> JSON array
	inserts map[string][]string // collection -> raw request bodies
	fail    bool
}

func (f *fakeStore) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if f.fail {
			http.Error(w, `{"message":"unavailable"}`, http.StatusInternalServerError)
			return
		}

		collection := strings.TrimPrefix(r.URL.Path, "/rest/v1/")

		switch r.Method {
		case http.MethodPost:
			body, _ := io.ReadAll(r.Body)
			f.mu.Lock()
			if f.inserts == nil {
				f.inserts = make(map[string][]string)
			}
			f.inserts[collection] = append(f.inserts[collection], string(body))
			f.mu.Unlock()
			w.WriteHeader(http.StatusCreated)
		case http.MethodGet:
			rows, ok := f.data[collection]
			if !ok {
				rows = "[]"
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(rows))
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}
}

func (f *fakeStore) inserted(collection string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inserts[collection]
}

func newTestManager(t *testing.T, fake *fakeStore) *Manager {
	t.Helper()

	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	sl := embedlog.NewLogger(true, false)
	client := store.NewClient(store.Config{BaseURL: srv.URL, ServiceKey: "test-key"}, sl)

	return NewManager(store.NewRepo(client), sl)
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func TestBudgetReportUtilization(t *testing.T) {
	m := newTestManager(t, &fakeStore{data: map[string]string{
		"budgets":  `[{"category":"food","monthly_limit":5000,"created_at":"2025-08-01T10:00:00"}]`,
		"expenses": `[{"amount":1000,"category":"food","created_at":"2025-08-10T12:00:00"}]`,
	}})

	report := m.BudgetReport(context.Background(), "42")
	if len(report) != 1 {
		t.Fatalf("got %d budget lines, want 1", len(report))
	}
	if report[0].Category != "food" {
		t.Errorf("category = %q, want food", report[0].Category)
	}
	if report[0].Percent != 20 {
		t.Errorf("utilization = %d%%, want 20%%", report[0].Percent)
	}
	if !report[0].Used.Equal(dec(t, "1000")) {
		t.Errorf("used = %s, want 1000", report[0].Used)
	}
}

func TestBudgetReportLatestRecordWins(t *testing.T) {
	m := newTestManager(t, &fakeStore{data: map[string]string{
		"budgets": `[
			{"category":"food","monthly_limit":5000,"created_at":"2025-08-01T10:00:00"},
			{"category":"food","monthly_limit":8000,"created_at":"2025-08-05T10:00:00"},
			{"category":"travel","monthly_limit":2000,"created_at":"2025-08-02T10:00:00"}
		]`,
		"expenses": `[{"amount":2000,"category":"food","created_at":"2025-08-10T12:00:00"}]`,
	}})

	report := m.BudgetReport(context.Background(), "42")
	if len(report) != 2 {
		t.Fatalf("got %d budget lines, want 2", len(report))
	}
	if !report[0].Limit.Equal(dec(t, "8000")) {
		t.Errorf("food limit = %s, want 8000 (latest record)", report[0].Limit)
	}
	if report[0].Percent != 25 {
		t.Errorf("food utilization = %d%%, want 25%%", report[0].Percent)
	}
	if report[1].Category != "travel" || report[1].Percent != 0 {
		t.Errorf("travel line = %+v, want 0%% of 2000", report[1])
	}
}

func TestBudgetReportZeroLimit(t *testing.T) {
	m := newTestManager(t, &fakeStore{data: map[string]string{
		"budgets":  `[{"category":"misc","monthly_limit":0,"created_at":"2025-08-01T10:00:00"}]`,
		"expenses": `[{"amount":300,"category":"misc","created_at":"2025-08-10T12:00:00"}]`,
	}})

	report := m.BudgetReport(context.Background(), "42")
	if len(report) != 1 || report[0].Percent != 0 {
		t.Fatalf("zero limit must yield 0%%, got %+v", report)
	}
}

func TestStatsNoIncome(t *testing.T) {
	m := newTestManager(t, &fakeStore{data: map[string]string{
		"expenses": `[{"amount":500,"category":"food"}]`,
	}})

	stats := m.Stats(context.Background(), "42")
	if stats.HasIncome() {
		t.Fatal("HasIncome = true with no incomes")
	}
	if stats.SavingsRate != 0 {
		t.Errorf("SavingsRate = %d, want 0 (no division by zero income)", stats.SavingsRate)
	}
}

func TestStatsSavingsRate(t *testing.T) {
	m := newTestManager(t, &fakeStore{data: map[string]string{
		"incomes":  `[{"amount":50000,"frequency":"monthly"}]`,
		"expenses": `[{"amount":20000,"category":"rent"},{"amount":10000,"category":"food"}]`,
	}})

	stats := m.Stats(context.Background(), "42")
	if !stats.Savings.Equal(dec(t, "20000")) {
		t.Errorf("savings = %s, want 20000", stats.Savings)
	}
	if stats.SavingsRate != 40 {
		t.Errorf("savings rate = %d%%, want 40%%", stats.SavingsRate)
	}
}

func TestStatsSavingsFlooredAtZero(t *testing.T) {
	m := newTestManager(t, &fakeStore{data: map[string]string{
		"incomes":  `[{"amount":1000,"frequency":"monthly"}]`,
		"expenses": `[{"amount":3000,"category":"rent"}]`,
	}})

	stats := m.Stats(context.Background(), "42")
	if !stats.Savings.IsZero() {
		t.Errorf("savings = %s, want 0", stats.Savings)
	}
	if stats.SavingsRate != 0 {
		t.Errorf("savings rate = %d%%, want 0%%", stats.SavingsRate)
	}
}

func TestIncomesTotalIgnoresFrequency(t *testing.T) {
	m := newTestManager(t, &fakeStore{data: map[string]string{
		"incomes": `[
			{"amount":50000,"frequency":"monthly","description":"salary"},
			{"amount":12000,"frequency":"yearly","description":"bonus"}
		]`,
	}})

	summary := m.Incomes(context.Background(), "42")
	if len(summary.Records) != 2 {
		t.Fatalf("got %d incomes, want 2", len(summary.Records))
	}
	// the total is a deliberate frequency-unaware approximation
	if !summary.Total.Equal(dec(t, "62000")) {
		t.Errorf("total = %s, want 62000", summary.Total)
	}
}

func TestPortfoliosValuation(t *testing.T) {
	m := newTestManager(t, &fakeStore{data: map[string]string{
		"portfolios": `[
			{"name":"retirement","data":{"holdings":[{"symbol":"NIFTYBEES","value":100.5},{"symbol":"GOLDBEES","value":200},{"symbol":"NEW"}]}},
			{"name":"","data":{}}
		]`,
	}})

	values := m.Portfolios(context.Background(), "42")
	if len(values) != 2 {
		t.Fatalf("got %d portfolios, want 2", len(values))
	}
	if !values[0].Value.Equal(dec(t, "300.5")) {
		t.Errorf("retirement value = %s, want 300.5 (missing holding value counts as zero)", values[0].Value)
	}
	if values[1].Name != "unnamed" || !values[1].Value.IsZero() {
		t.Errorf("empty portfolio = %+v, want unnamed/0", values[1])
	}
}

func TestExportCSV(t *testing.T) {
	m := newTestManager(t, &fakeStore{data: map[string]string{
		"expenses": `[{"amount":250,"category":"food","note":"lunch","created_at":"2025-08-10T12:00:00"}]`,
		"incomes":  `[{"amount":50000,"frequency":"monthly","description":"salary","created_at":"2025-08-01T09:00:00"}]`,
	}})

	lines := m.ExportCSV(context.Background(), "42")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if lines[0] != ExportHeader {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "expense,250,food,lunch,2025-08-10T12:00:00" {
		t.Errorf("expense line = %q", lines[1])
	}
	if lines[2] != "income,50000,monthly,salary,2025-08-01T09:00:00" {
		t.Errorf("income line = %q", lines[2])
	}
}

func TestSelectFailureDegradesToEmpty(t *testing.T) {
	m := newTestManager(t, &fakeStore{fail: true})

	if summary := m.Incomes(context.Background(), "42"); len(summary.Records) != 0 || !summary.Total.IsZero() {
		t.Errorf("incomes on store failure = %+v, want empty", summary)
	}
	if report := m.BudgetReport(context.Background(), "42"); report != nil {
		t.Errorf("budget report on store failure = %+v, want nil", report)
	}
	if values := m.Portfolios(context.Background(), "42"); values != nil {
		t.Errorf("portfolios on store failure = %+v, want nil", values)
	}
}

func TestAddExpenseInsertPayload(t *testing.T) {
	fake := &fakeStore{}
	m := newTestManager(t, fake)

	err := m.AddExpense(context.Background(), "42", dec(t, "250"), "food", "lunch")
	if err != nil {
		t.Fatalf("AddExpense: %v", err)
	}

	bodies := fake.inserted("expenses")
	if len(bodies) != 1 {
		t.Fatalf("got %d inserts, want 1", len(bodies))
	}

	var row map[string]any
	if err := json.Unmarshal([]byte(bodies[0]), &row); err != nil {
		t.Fatalf("unmarshal insert body: %v", err)
	}
	if row["telegram_id"] != "42" || row["category"] != "food" || row["note"] != "lunch" {
		t.Errorf("insert row = %v", row)
	}
	if amt, ok := row["amount"].(float64); !ok || amt != 250 {
		t.Errorf("amount = %v, want JSON number 250", row["amount"])
	}
}

func TestParseConsentToken(t *testing.T) {
	yes := []string{"yes", "y", "1", "true", "YES", "True"}
	no := []string{"no", "n", "0", "false", "No", "FALSE"}

	for _, tok := range yes {
		if v, ok := ParseConsentToken(tok); !ok || !v {
			t.Errorf("ParseConsentToken(%q) = %v,%v, want true,true", tok, v, ok)
		}
	}
	for _, tok := range no {
		if v, ok := ParseConsentToken(tok); !ok || v {
			t.Errorf("ParseConsentToken(%q) = %v,%v, want false,true", tok, v, ok)
		}
	}
	for _, tok := range []string{"maybe", "", "ja", "-1"} {
		if _, ok := ParseConsentToken(tok); ok {
			t.Errorf("ParseConsentToken(%q) accepted, want rejected", tok)
		}
	}
}
