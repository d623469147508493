package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	catalogrepo "github.com/yungbote/frugalprotein-backend/internal/data/repos/catalog"
	"github.com/yungbote/frugalprotein-backend/internal/data/repos/testutil"
	types "github.com/yungbote/frugalprotein-backend/internal/domain/catalog"
	httpH "github.com/yungbote/frugalprotein-backend/internal/http/handlers"
	"github.com/yungbote/frugalprotein-backend/internal/observability"
)

type fakeDecoder struct {
	codes []string
	err   error
}

func (f fakeDecoder) Decode([]byte) ([]string, error) { return f.codes, f.err }

func newRouter(t *testing.T, dec fakeDecoder) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	log := testutil.Logger(t)
	products := catalogrepo.NewProductRepo(db, log)
	return NewRouter(RouterConfig{
		Log:               log,
		Metrics:           observability.NewMetrics(),
		HealthHandler:     httpH.NewHealthHandler(db),
		ProductHandler:    httpH.NewProductHandler(log, products, dec, nil, func(p string) string { return "/media/" + p }),
		CalculatorHandler: httpH.NewCalculatorHandler(),
	}), db
}

func seedChicken(t *testing.T, db *gorm.DB) *types.Product {
	t.Helper()
	brand := testutil.SeedBrand(t, db, "Moy Park")
	p := testutil.CompleteProduct("Chicken Breast Fillets", "20")
	p.BrandID = &brand.ID
	p.Barcode = testutil.Str("5000169000000")
	p.TescoID = testutil.Str("254656543")
	p.TescoBasePrice = testutil.Dec("2.50")
	p.TescoSalePrice = testutil.Dec("2.00")
	return testutil.SeedProduct(t, db, p)
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthz(t *testing.T) {
	r, _ := newRouter(t, fakeDecoder{})
	rec := do(r, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestSearchReturnsProductsAndBrands(t *testing.T) {
	r, db := newRouter(t, fakeDecoder{})
	seedChicken(t, db)
	testutil.SeedProduct(t, db, testutil.CompleteProduct("Greek Yoghurt", "10"))

	rec := do(r, httptest.NewRequest(http.MethodGet, "/api/products/search?q=chicken", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	require.Len(t, body["products"], 1)
	require.Equal(t, []any{"Moy Park"}, body["brands"])

	rec = do(r, httptest.NewRequest(http.MethodGet, "/api/products/search?limit=x", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductDetailComputesStorePrices(t *testing.T) {
	r, db := newRouter(t, fakeDecoder{})
	p := seedChicken(t, db)

	rec := do(r, httptest.NewRequest(http.MethodGet, "/api/products/"+p.ID.String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Product httpH.ProductView `json:"product"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Moy Park", *body.Product.Brand)
	require.True(t, strings.HasPrefix(body.Product.ImageURL, "/media/"))
	require.Len(t, body.Product.Stores, 1)

	tesco := body.Product.Stores[0]
	require.Equal(t, types.StoreTesco, tesco.Store)
	// 2.00 for 0.5kg is 4.00/kg; at 20g protein per 100g that is 0.20 per 10g.
	require.Equal(t, "2", tesco.EffectivePrice.String())
	require.Equal(t, "4", tesco.PricePerQty.String())
	require.Equal(t, "0.2", tesco.PricePer10gProtein.String())
}

func TestProductDetailErrors(t *testing.T) {
	r, _ := newRouter(t, fakeDecoder{})

	rec := do(r, httptest.NewRequest(http.MethodGet, "/api/products/not-a-uuid", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, httptest.NewRequest(http.MethodGet, "/api/products/00000000-0000-0000-0000-000000000001", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "product_not_found", decode(t, rec)["error"].(map[string]any)["code"])
}

func TestBarcodeLookup(t *testing.T) {
	r, db := newRouter(t, fakeDecoder{})
	seedChicken(t, db)

	rec := do(r, httptest.NewRequest(http.MethodGet, "/api/products/barcode/5000169000000", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(r, httptest.NewRequest(http.MethodGet, "/api/products/barcode/123", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func scanRequest(t *testing.T) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", "scan.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("not really a jpeg"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/products/barcode/scan", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestBarcodeScan(t *testing.T) {
	r, db := newRouter(t, fakeDecoder{codes: []string{"5000169000000"}})
	seedChicken(t, db)

	rec := do(r, scanRequest(t))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	require.Equal(t, []any{"5000169000000"}, body["barcodes"])
	require.NotNil(t, body["product"])

	r, _ = newRouter(t, fakeDecoder{codes: []string{}})
	rec = do(r, scanRequest(t))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	r, _ = newRouter(t, fakeDecoder{err: errors.New("decode image: unknown format")})
	rec = do(r, scanRequest(t))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCalculator(t *testing.T) {
	r, _ := newRouter(t, fakeDecoder{})

	payload := `{"price_value":"10","qty_value":"100","qty_unit":"g","protein_value":"20","protein_per_value":"100","protein_per_unit":"g"}`
	req := httptest.NewRequest(http.MethodPost, "/api/calculator", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := do(r, req)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	require.Equal(t, "kg", body["unit"])
	require.Equal(t, "100", body["unit_price"])
	require.Equal(t, "5", body["protein_price"])

	bad := httptest.NewRequest(http.MethodPost, "/api/calculator", strings.NewReader(`{"qty_unit":"stone"}`))
	bad.Header.Set("Content-Type", "application/json")
	require.Equal(t, http.StatusBadRequest, do(r, bad).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := newRouter(t, fakeDecoder{})
	do(r, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rec := do(r, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "frugal_http_requests_total")
}
