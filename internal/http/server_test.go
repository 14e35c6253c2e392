package http

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendlog/internal/core"
	applog "spendlog/internal/log"
	"spendlog/internal/services"
	"spendlog/internal/share"
	"spendlog/internal/sheets/memory"
	"spendlog/internal/storage"
)

type fakeGeocoder struct {
	results []core.Location
	err     error
}

func (f fakeGeocoder) Search(ctx context.Context, q string) ([]core.Location, error) {
	return f.results, f.err
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

type testEnv struct {
	srv    *Server
	sheets *memory.Store
}

func newTestEnv(t *testing.T, mutate func(*Deps)) *testEnv {
	t.Helper()
	ctx := context.Background()
	records := storage.NewRecords(storage.NewMemoryStore())
	pets := services.NewPetService(records)
	expenses, err := services.NewExpenseService(ctx, records, pets, nil)
	require.NoError(t, err)

	sheetStore := memory.New()
	deps := Deps{
		Expenses:  expenses,
		Pets:      pets,
		Locations: services.NewLocationService(records, fakeGeocoder{results: []core.Location{{Name: "Berlin", Lat: 52.52, Lng: 13.4}}}),
		Codec:     share.NewCodec(share.Gzip{}),
		Sheets:    sheetStore,
		Health:    fakePinger{},
		Logger: applog.New(applog.Config{
			Output: io.Discard,
		}),
		PublicOrigin: "https://spendlog.test",
		RateLimit:    1000,
	}
	if mutate != nil {
		mutate(&deps)
	}
	srv := NewServer(":0", deps)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testEnv{srv: srv, sheets: sheetStore}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), "body: %s", rr.Body.String())
	return v
}

func (e *testEnv) create(t *testing.T, body string) core.Expense {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/api/expenses", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[core.Expense](t, rr)
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := env.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rr.Code, path)
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"), path)
	}

	failing := newTestEnv(t, func(d *Deps) { d.Health = fakePinger{err: errors.New("disk gone")} })
	rr := failing.do(t, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "disk gone")
}

func TestExpenseLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)

	created := env.create(t, `{"date":"2024-03-10","amount":12.5,"category":"Food","description":"Lunch","sentiment":"Worth it"}`)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, int64(1250), created.Amount.Cents)

	rr := env.do(t, http.MethodGet, "/api/expenses/"+created.ID, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))

	rr = env.do(t, http.MethodPut, "/api/expenses/"+created.ID,
		`{"date":"2024-03-11","amount":"20","category":"Bills","description":"Phone"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	updated := decode[core.Expense](t, rr)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, core.Bills, updated.Category)
	assert.False(t, updated.Sentiment.IsSome())
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))

	rr = env.do(t, http.MethodDelete, "/api/expenses/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = env.do(t, http.MethodGet, "/api/expenses/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr = env.do(t, http.MethodDelete, "/api/expenses/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCreateExpenseErrors(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantField  string
	}{
		{"malformed json", `{"date":`, http.StatusBadRequest, ""},
		{"empty body", ``, http.StatusBadRequest, ""},
		{"zero amount", `{"date":"2024-03-10","amount":0,"category":"Food","description":"x"}`, http.StatusUnprocessableEntity, "amount"},
		{"missing description", `{"date":"2024-03-10","amount":3,"category":"Food","description":"  "}`, http.StatusUnprocessableEntity, "description"},
		{"amount past int64", `{"date":"2024-03-10","amount":18446744073709551616.01,"category":"Food","description":"x"}`, http.StatusUnprocessableEntity, "amount"},
		{"unknown category", `{"date":"2024-03-10","amount":3,"category":"Pets","description":"x"}`, http.StatusUnprocessableEntity, "category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, http.MethodPost, "/api/expenses", tt.body)
			require.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
			body := decode[ErrorBody](t, rr)
			assert.NotEmpty(t, body.Error)
			if tt.wantField != "" {
				assert.Contains(t, body.Fields, tt.wantField)
			}
		})
	}

	rr := env.do(t, http.MethodGet, "/api/expenses", "")
	assert.Equal(t, 0, decode[expenseList](t, rr).Count)
}

func TestListExpensesFilterAndSort(t *testing.T) {
	env := newTestEnv(t, nil)
	env.create(t, `{"date":"2024-01-05","amount":5,"category":"Food","description":"Bagel"}`)
	env.create(t, `{"date":"2024-02-01","amount":40,"category":"Shopping","description":"Shoes","sentiment":"Regret"}`)
	env.create(t, `{"date":"2024-03-01","amount":15,"category":"Food","description":"Dinner out","sentiment":"Regret"}`)

	descriptions := func(list expenseList) []string {
		out := make([]string, len(list.Expenses))
		for i, e := range list.Expenses {
			out[i] = e.Description
		}
		return out
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"Dinner out", "Shoes", "Bagel"}},
		{"?sort=amount&dir=asc", []string{"Bagel", "Dinner out", "Shoes"}},
		{"?category=food", []string{"Dinner out", "Bagel"}},
		{"?sentiment=regret&sort=date&dir=asc", []string{"Shoes", "Dinner out"}},
		{"?search=SHOP", []string{"Shoes"}},
		{"?start=2024-02-01&end=2024-02-28", []string{"Shoes"}},
	}
	for _, tt := range tests {
		rr := env.do(t, http.MethodGet, "/api/expenses"+tt.query, "")
		require.Equal(t, http.StatusOK, rr.Code, tt.query)
		assert.Equal(t, tt.want, descriptions(decode[expenseList](t, rr)), tt.query)
	}

	for _, bad := range []string{"?sort=price", "?dir=up", "?category=Pets", "?start=03/01/2024"} {
		rr := env.do(t, http.MethodGet, "/api/expenses"+bad, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code, bad)
	}
}

func TestSummaryAndInsights(t *testing.T) {
	env := newTestEnv(t, nil)
	env.create(t, `{"date":"2024-01-05","amount":10,"category":"Food","description":"a","sentiment":"Regret"}`)
	env.create(t, `{"date":"2024-01-06","amount":30,"category":"Bills","description":"b","sentiment":"Essential"}`)

	rr := env.do(t, http.MethodGet, "/api/summary", "")
	require.Equal(t, http.StatusOK, rr.Code)
	summary := decode[core.Summary](t, rr)
	assert.Equal(t, 2, summary.Count)
	assert.Equal(t, int64(4000), summary.TotalSpent.Cents)
	top, ok := summary.TopCategory.Get()
	assert.True(t, ok)
	assert.Equal(t, core.Bills, top)

	rr = env.do(t, http.MethodGet, "/api/insights/sentiment", "")
	require.Equal(t, http.StatusOK, rr.Code)
	sent := decode[core.SentimentOverview](t, rr)
	assert.Equal(t, 2, sent.LabeledCount)
	assert.Equal(t, int64(1000), sent.SavingsOpportunity.Cents)

	rr = env.do(t, http.MethodGet, "/api/insights/categories", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"percent":75`)

	rr = env.do(t, http.MethodGet, "/api/insights/monthly?months=3", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]core.MonthTotal](t, rr), 3)

	rr = env.do(t, http.MethodGet, "/api/insights/monthly?months=0", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestExport(t *testing.T) {
	env := newTestEnv(t, nil)
	env.create(t, `{"date":"2024-01-05","amount":10,"category":"Food","description":"Pizza, large"}`)
	env.create(t, `{"date":"2024-02-05","amount":2.5,"category":"Other","description":"Gum"}`)

	rr := env.do(t, http.MethodGet, "/api/export?fields=date,description,amount&start=2024-01-01&end=2024-01-31", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv;charset=utf-8;", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), `attachment; filename="expenses-`)
	assert.Contains(t, rr.Body.String(), `"Pizza, large"`)
	assert.NotContains(t, rr.Body.String(), "Gum")

	rr = env.do(t, http.MethodGet, "/api/export?format=json", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Disposition"), ".json")

	rr = env.do(t, http.MethodGet, "/api/export?format=xml", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = env.do(t, http.MethodGet, "/api/export?fields=date,color", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestExportSheets(t *testing.T) {
	env := newTestEnv(t, nil)
	env.create(t, `{"date":"2024-01-05","amount":10,"category":"Food","description":"Pizza"}`)

	rr := env.do(t, http.MethodPost, "/api/export/sheets?fields=description,amount", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	header, rows := env.sheets.Table()
	assert.Len(t, header, 2)
	require.Len(t, rows, 1)
	assert.Equal(t, "Pizza", rows[0][0])

	disabled := newTestEnv(t, func(d *Deps) { d.Sheets = nil })
	rr = disabled.do(t, http.MethodPost, "/api/export/sheets", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestShareDecodeAndImport(t *testing.T) {
	sender := newTestEnv(t, nil)
	first := sender.create(t, `{"date":"2024-01-05","amount":10,"category":"Food","description":"Pizza","sentiment":"Worth it"}`)
	sender.create(t, `{"date":"2024-01-06","amount":7,"category":"Other","description":"Socks"}`)

	rr := sender.do(t, http.MethodPost, "/api/share?category=Food", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	link := decode[shareResponse](t, rr)
	assert.Equal(t, 1, link.Count)
	assert.Equal(t, "gzip", link.Compression)
	assert.True(t, strings.HasPrefix(link.URL, "https://spendlog.test/shared#"))

	receiver := newTestEnv(t, nil)
	rr = receiver.do(t, http.MethodPost, "/api/shared/decode", `{"url":"`+link.URL+`"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"description":"Pizza"`)

	rr = receiver.do(t, http.MethodPost, "/api/shared/import", `{"token":"`+link.Token+`"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	imported := decode[expenseList](t, rr)
	require.Equal(t, 1, imported.Count)
	assert.NotEqual(t, first.ID, imported.Expenses[0].ID)
	assert.Equal(t, first.Amount, imported.Expenses[0].Amount)

	rr = receiver.do(t, http.MethodGet, "/api/expenses", "")
	assert.Equal(t, 1, decode[expenseList](t, rr).Count)

	for _, body := range []string{`{"token":"!!!not-base64"}`, `{"token":"bm90IGpzb24="}`, `{"url":"https://spendlog.test/shared#"}`} {
		rr = receiver.do(t, http.MethodPost, "/api/shared/decode", body)
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code, body)
	}
}

func TestSharedDecodeSizeLimit(t *testing.T) {
	env := newTestEnv(t, func(d *Deps) {
		d.Codec = share.NewCodec(share.Gzip{}, share.WithMaxDecodedBytes(64<<10))
	})

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(append(append([]byte("["), bytes.Repeat([]byte(" "), 4<<20)...), ']'))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	token := base64.StdEncoding.EncodeToString(buf.Bytes())

	for _, path := range []string{"/api/shared/decode", "/api/shared/import"} {
		rr := env.do(t, http.MethodPost, path, `{"token":"`+token+`"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code, path)
	}

	env.create(t, `{"date":"2024-01-05","amount":10,"category":"Food","description":"Pizza"}`)
	rr := env.do(t, http.MethodPost, "/api/share", "")
	require.Equal(t, http.StatusOK, rr.Code)
	link := decode[shareResponse](t, rr)
	rr = env.do(t, http.MethodPost, "/api/shared/decode", `{"token":"`+link.Token+`"}`)
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}

func TestPetEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.do(t, http.MethodGet, "/api/pet", "")
	require.Equal(t, http.StatusOK, rr.Code)
	pet := decode[services.PetView](t, rr)
	start := pet.Treats

	env.create(t, `{"date":"2024-01-05","amount":10,"category":"Food","description":"Pizza"}`)
	rr = env.do(t, http.MethodGet, "/api/pet", "")
	assert.Equal(t, start+1, decode[services.PetView](t, rr).Treats)

	for i := 0; i < start+1; i++ {
		rr = env.do(t, http.MethodPost, "/api/pet/play", "")
		require.Equal(t, http.StatusOK, rr.Code, "play %d", i)
	}
	rr = env.do(t, http.MethodPost, "/api/pet/play", "")
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = env.do(t, http.MethodPut, "/api/pet/name", `{"name":"  Mochi "}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Mochi", decode[services.PetView](t, rr).Name)
}

func TestHomeLocationAndGeocode(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.do(t, http.MethodGet, "/api/home-location", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"home":null}`, rr.Body.String())

	rr = env.do(t, http.MethodPut, "/api/home-location", `{"home":{"name":"Home","lat":45.1,"lng":7.6}}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	rr = env.do(t, http.MethodGet, "/api/home-location", "")
	assert.JSONEq(t, `{"home":{"name":"Home","lat":45.1,"lng":7.6}}`, rr.Body.String())

	rr = env.do(t, http.MethodPut, "/api/home-location", `{"home":{"name":"Nowhere","lat":95,"lng":7.6}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = env.do(t, http.MethodPut, "/api/home-location", `{"home":null}`)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = env.do(t, http.MethodGet, "/api/home-location", "")
	assert.JSONEq(t, `{"home":null}`, rr.Body.String())

	rr = env.do(t, http.MethodGet, "/api/geocode?q=berlin", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Berlin")

	broken := newTestEnv(t, func(d *Deps) {
		d.Locations = services.NewLocationService(storage.NewRecords(storage.NewMemoryStore()), fakeGeocoder{err: errors.New("upstream down")})
	})
	rr = broken.do(t, http.MethodGet, "/api/geocode?q=berlin", "")
	assert.Equal(t, http.StatusBadGateway, rr.Code)
}

func TestCharts(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.do(t, http.MethodGet, "/charts/categories.png", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	env.create(t, `{"date":"2024-01-05","amount":10,"category":"Food","description":"Pizza"}`)
	for _, path := range []string{"/charts/monthly.png", "/charts/categories.png"} {
		rr = env.do(t, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rr.Code, path)
		assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
		assert.True(t, strings.HasPrefix(rr.Body.String(), "\x89PNG"), path)
	}
}

func TestRateLimitMutations(t *testing.T) {
	env := newTestEnv(t, func(d *Deps) { d.RateLimit = 2 })

	for i := 0; i < 2; i++ {
		rr := env.do(t, http.MethodPut, "/api/pet/name", `{"name":"Rex"}`)
		require.Equal(t, http.StatusOK, rr.Code)
	}
	rr := env.do(t, http.MethodPut, "/api/pet/name", `{"name":"Rex"}`)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))

	// reads are not limited
	rr = env.do(t, http.MethodGet, "/api/pet", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "spendlog_rate_limit_rejected_total 1")
}

func TestUnknownAPIPath(t *testing.T) {
	env := newTestEnv(t, nil)
	rr := env.do(t, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "application/json; charset=utf-8", rr.Header().Get("Content-Type"))
}
