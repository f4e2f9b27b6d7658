package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/time/rate"

	"ConcentrationPanel/internal/model"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

const holdingsCSV = "元大台灣50 持股明細\n" +
	"年月,代號,權重,金額\n" +
	"2020/01,2330,45.1,\"1,200\"\n" +
	"2020/01,TT99,,\"5,000\"\n" +
	"2020/02,2317\n"

func TestReadHoldings_UTF8WithBOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, holdingsCSV...)
	path := writeFile(t, "h.csv", data)

	rows, err := ReadHoldings(path, Options{SkipRows: 1, HasAmount: true})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, model.RawHoldingRow{Line: 3, Period: "2020/01", Code: "2330", Weight: "45.1", Amount: "1,200"}, rows[0])
	assert.Equal(t, "TT99", rows[1].Code)
	assert.Equal(t, "5,000", rows[1].Amount)
	// short rows are padded
	assert.Equal(t, model.RawHoldingRow{Line: 5, Period: "2020/02", Code: "2317"}, rows[2])
}

func TestReadHoldings_Big5Fallback(t *testing.T) {
	encoded, err := traditionalchinese.Big5.NewEncoder().String(holdingsCSV)
	require.NoError(t, err)
	path := writeFile(t, "h.csv", []byte(encoded))

	rows, err := ReadHoldings(path, Options{SkipRows: 1, HasAmount: true})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "2330", rows[0].Code)
}

func TestReadHoldings_WithoutAmount(t *testing.T) {
	path := writeFile(t, "h.csv", []byte("period,code,weight\n2020/01,2330,45.1\n"))

	rows, err := ReadHoldings(path, Options{SkipRows: 0})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Empty(t, rows[0].Amount)
}

func TestReadHoldings_HeaderOnly(t *testing.T) {
	path := writeFile(t, "h.csv", []byte("title\nperiod,code,weight,amount\n"))

	rows, err := ReadHoldings(path, Options{SkipRows: 1, HasAmount: true})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReadHoldings_SchemaError(t *testing.T) {
	path := writeFile(t, "h.csv", []byte("title\nperiod,code\n2020/01,2330\n"))

	_, err := ReadHoldings(path, Options{SkipRows: 1, HasAmount: true})
	var schemaErr *model.EncodingOrSchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, DefaultEncodings, schemaErr.Attempted)
}

func TestReadHoldings_UndecodableInput(t *testing.T) {
	// 0x80 is neither valid UTF-8 nor a Big5 lead byte.
	path := writeFile(t, "h.csv", []byte{'a', ',', 0x80, '\n'})

	_, err := ReadHoldings(path, Options{Encodings: []string{"utf-8", "big5"}})
	var schemaErr *model.EncodingOrSchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []string{"utf-8", "big5"}, schemaErr.Attempted)
}

func TestReadHoldings_MissingFile(t *testing.T) {
	_, err := ReadHoldings(filepath.Join(t.TempDir(), "nope.csv"), Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestReadHoldings_XLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	values := [][]any{
		{"holdings export"},
		{"period", "code", "weight", "amount"},
		{"2020/01", "2330", "45.1", "1200"},
		{},
		{"2020/01", "TT99", "", "5000"},
	}
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(t.TempDir(), "h.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	rows, err := ReadHoldings(path, Options{SkipRows: 1, HasAmount: true})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, model.RawHoldingRow{Line: 3, Period: "2020/01", Code: "2330", Weight: "45.1", Amount: "1200"}, rows[0])
	assert.Equal(t, 5, rows[1].Line)
	assert.Equal(t, "5000", rows[1].Amount)
}

func TestReadHoldings_XLSXUnknownSheet(t *testing.T) {
	f := excelize.NewFile()
	path := filepath.Join(t.TempDir(), "h.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	_, err := ReadHoldings(path, Options{Sheet: "missing"})
	var schemaErr *model.EncodingOrSchemaError
	assert.True(t, errors.As(err, &schemaErr))
}

func TestReadPrices(t *testing.T) {
	path := writeFile(t, "p.csv", []byte("period,close\n2020/01,100\n2020/02,110.5\n"))

	rows, err := ReadPrices(path, Options{})
	require.NoError(t, err)
	assert.Equal(t, []model.RawPriceRow{
		{Line: 2, Period: "2020/01", Price: "100"},
		{Line: 3, Period: "2020/02", Price: "110.5"},
	}, rows)
}

func TestKnownEncoding(t *testing.T) {
	assert.True(t, KnownEncoding("UTF-8-SIG"))
	assert.True(t, KnownEncoding("cp950"))
	assert.False(t, KnownEncoding("latin1"))
}

func TestYahooFetcher(t *testing.T) {
	// Bars at local (UTC+8) month starts; the third bar has no close.
	body := `{"chart":{"result":[{"meta":{"gmtoffset":28800},
		"timestamp":[1706716800,1704038400,1709222400],
		"indicators":{"quote":[{"close":[101.25,100,null]}]}}],"error":null}}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/0050.TW", r.URL.Path)
		assert.Equal(t, "1mo", r.URL.Query().Get("interval"))
		w.Write([]byte(body))
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL

	rows, err := f.FetchMonthlyCloses(context.Background(), "0050.TW")
	require.NoError(t, err)
	assert.Equal(t, []model.RawPriceRow{
		{Line: 1, Period: "2024/01", Price: "100"},
		{Line: 2, Period: "2024/02", Price: "101.25"},
	}, rows)
}

func TestYahooFetcher_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL

	_, err := f.FetchMonthlyCloses(context.Background(), "NOPE")
	assert.ErrorContains(t, err, "No data found")
}

func TestYahooFetcher_HTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL

	_, err := f.FetchMonthlyCloses(context.Background(), "0050.TW")
	assert.ErrorContains(t, err, "status 429")
}

func TestYahooFetcher_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not be sent")
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	f.Limiter = rate.NewLimiter(rate.Every(time.Hour), 1)
	require.True(t, f.Limiter.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := f.FetchMonthlyCloses(ctx, "0050.TW")
	assert.ErrorContains(t, err, "rate limit")
}
