package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yungbote/frugalprotein-backend/internal/barcode"
	catalogrepo "github.com/yungbote/frugalprotein-backend/internal/data/repos/catalog"
	types "github.com/yungbote/frugalprotein-backend/internal/domain/catalog"
	"github.com/yungbote/frugalprotein-backend/internal/http/response"
	"github.com/yungbote/frugalprotein-backend/internal/pkg/pointers"
	"github.com/yungbote/frugalprotein-backend/internal/platform/apierr"
	"github.com/yungbote/frugalprotein-backend/internal/platform/dbctx"
	"github.com/yungbote/frugalprotein-backend/internal/platform/logger"
	"github.com/yungbote/frugalprotein-backend/internal/pricecalc"
)

const maxScanBytes = 10 << 20

type ProductHandler struct {
	log      *logger.Logger
	products catalogrepo.ProductRepo
	decoder  barcode.Decoder
	stores   []types.Store
	imageURL func(path string) string
}

// NewProductHandler serves the catalog behind products. imageURL turns a
// stored image path into something a browser can load; nil leaves paths as-is.
func NewProductHandler(log *logger.Logger, products catalogrepo.ProductRepo, decoder barcode.Decoder, stores []types.Store, imageURL func(string) string) *ProductHandler {
	if len(stores) == 0 {
		stores = types.AllStores
	}
	if imageURL == nil {
		imageURL = func(p string) string { return p }
	}
	return &ProductHandler{
		log:      log.With("handler", "ProductHandler"),
		products: products,
		decoder:  decoder,
		stores:   stores,
		imageURL: imageURL,
	}
}

type StorePriceView struct {
	Store              types.Store      `json:"store"`
	StoreID            *string          `json:"store_id"`
	Price              types.PriceGroup `json:"price"`
	EffectivePrice     *decimal.Decimal `json:"effective_price"`
	PricePerQty        *decimal.Decimal `json:"price_per_qty"`
	PricePer10gProtein *decimal.Decimal `json:"price_per_10g_protein"`
}

type ProductView struct {
	ID          uuid.UUID             `json:"id"`
	Description *string               `json:"description"`
	Brand       *string               `json:"brand"`
	Barcode     *string               `json:"barcode"`
	Quantity    *types.QuantityGroup  `json:"quantity"`
	Nutrition   *types.NutritionGroup `json:"nutrition"`
	ImageURL    string                `json:"image_url"`
	Stores      []StorePriceView      `json:"stores"`
}

func (h *ProductHandler) view(p *types.Product) ProductView {
	v := ProductView{
		ID:          p.ID,
		Description: p.Description,
		Barcode:     p.Barcode,
		Quantity:    p.Quantity(),
		Nutrition:   p.Nutrition(),
		ImageURL:    h.imageURL(p.Image),
	}
	if p.Brand != nil {
		v.Brand = pointers.Ptr(p.Brand.Name)
	}
	uom := ""
	if p.UnitOfMeasurement != nil {
		uom = *p.UnitOfMeasurement
	}
	for _, s := range h.stores {
		pid := p.StoreID(s)
		if pid == nil {
			continue
		}
		price := p.Price(s)
		sv := StorePriceView{Store: s, StoreID: pid, Price: price, EffectivePrice: price.Effective()}
		if p.TotalQty != nil {
			sv.PricePerQty = round(pricecalc.PricePerQty(sv.EffectivePrice, *p.TotalQty))
			sv.PricePer10gProtein = round(pricecalc.PricePerProtein(sv.PricePerQty, p.Protein, uom))
		}
		v.Stores = append(v.Stores, sv)
	}
	return v
}

// GET /api/products/search?q=&brand=&limit=
func (h *ProductHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	brand := strings.TrimSpace(c.Query("brand"))
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			response.RespondError(c, http.StatusBadRequest, "invalid_limit", errors.New("limit must be a positive integer"))
			return
		}
		limit = n
	}

	dbc := dbctx.New(c.Request.Context())
	rows, err := h.products.Search(dbc, q, brand, limit)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	brands, err := h.products.BrandChoices(dbc, q)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}

	out := make([]ProductView, 0, len(rows))
	for _, p := range rows {
		out = append(out, h.view(p))
	}
	names := make([]string, 0, len(brands))
	for _, b := range brands {
		names = append(names, b.Name)
	}
	response.RespondOK(c, gin.H{"products": out, "brands": names})
}

// GET /api/products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_product_id", err)
		return
	}
	p, err := h.products.GetByID(dbctx.New(c.Request.Context()), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	if p == nil {
		response.RespondAPIError(c, apierr.NotFound("product_not_found", errors.New("product not found")))
		return
	}
	response.RespondOK(c, gin.H{"product": h.view(p)})
}

// GET /api/products/barcode/:barcode
func (h *ProductHandler) GetByBarcode(c *gin.Context) {
	code := barcode.FirstNumericRun(c.Param("barcode"))
	if code == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_barcode", errors.New("barcode must contain digits"))
		return
	}
	p, err := h.lookup(c, code)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"barcode": code, "product": h.view(p)})
}

// POST /api/products/barcode/scan (multipart field "image")
func (h *ProductHandler) Scan(c *gin.Context) {
	if h.decoder == nil {
		response.RespondError(c, http.StatusServiceUnavailable, "scanner_unavailable", errors.New("barcode scanning is disabled"))
		return
	}
	fh, err := c.FormFile("image")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_image", err)
		return
	}
	if fh.Size > maxScanBytes {
		response.RespondError(c, http.StatusRequestEntityTooLarge, "image_too_large", errors.New("image exceeds 10MB"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unreadable_image", err)
		return
	}
	defer f.Close()
	raw, err := io.ReadAll(io.LimitReader(f, maxScanBytes))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unreadable_image", err)
		return
	}

	codes, err := h.decoder.Decode(raw)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_image", err)
		return
	}
	if len(codes) == 0 {
		response.RespondError(c, http.StatusUnprocessableEntity, "no_barcode", errors.New("no barcode found in image"))
		return
	}

	p, err := h.lookup(c, codes[0])
	if err != nil {
		var ae *apierr.Error
		if errors.As(err, &ae) && ae.Status == http.StatusNotFound {
			response.RespondOK(c, gin.H{"barcodes": codes, "product": nil})
			return
		}
		response.RespondAPIError(c, err)
		return
	}
	v := h.view(p)
	response.RespondOK(c, gin.H{"barcodes": codes, "product": &v})
}

func (h *ProductHandler) lookup(c *gin.Context, code string) (*types.Product, error) {
	p, err := h.products.GetByBarcode(dbctx.New(c.Request.Context()), code)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apierr.NotFound("product_not_found", errors.New("no product with that barcode"))
	}
	return p, nil
}

func round(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	r := d.Round(2)
	return &r
}
