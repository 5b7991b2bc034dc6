package handlers

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mycoll/marketplace/httpx"
	"github.com/mycoll/marketplace/internal/apperr"
	"github.com/mycoll/marketplace/internal/catalog"
	"github.com/mycoll/marketplace/internal/logging"
	"github.com/mycoll/marketplace/internal/models"
	"github.com/mycoll/marketplace/validation"
)

// maxUploadBytes bounds multipart product forms, image included.
const maxUploadBytes = 10 << 20

var ErrInvalidForm = apperr.Validation("invalid_form", "request form is not valid")

// ImageStore persists uploaded product images.
type ImageStore interface {
	SaveProductImage(ctx context.Context, filename string, r io.Reader) (string, error)
	RemoveProductImage(ctx context.Context, url string) error
}

type ProductHandler struct {
	svc    *catalog.ProductService
	images ImageStore
}

func NewProductHandler(svc *catalog.ProductService, images ImageStore) *ProductHandler {
	return &ProductHandler{svc: svc, images: images}
}

// Search lists the public catalog, filtered by ?q= and ?category=.
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := catalog.SearchQuery{Term: strings.TrimSpace(r.URL.Query().Get("q"))}
	if raw := r.URL.Query().Get("category"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			fail(w, r, httpx.ErrInvalidID.Withf("category=%q", raw))
			return
		}
		q.CategoryID = uint(id)
	}
	products, err := h.svc.Search(r.Context(), q)
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, products)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	p, err := h.svc.Get(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

// Mine lists the caller's products, or every product for administrators.
func (h *ProductHandler) Mine(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.Mine(r.Context(), actor(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, products)
}

// Create accepts JSON or a multipart form with an optional "image" file.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, saved, err := h.readInput(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	p, err := h.svc.Create(r.Context(), actor(r), in)
	if err != nil {
		h.discard(r, saved)
		fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	in, saved, err := h.readInput(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.svc.Update(r.Context(), actor(r), id, in); err != nil {
		h.discard(r, saved)
		fail(w, r, err)
		return
	}
	httpx.NoContent(w)
}

// Delete answers 204 for a hard delete and 200 when the product was only
// inactivated because orders reference it.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	res, err := h.svc.Delete(r.Context(), actor(r), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	if res.Inactivated {
		httpx.JSON(w, http.StatusOK, res)
		return
	}
	httpx.NoContent(w)
}

// SetState approves, retires or marks a product as sold.
func (h *ProductHandler) SetState(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		fail(w, r, err)
		return
	}
	var req stateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	p, err := h.svc.SetState(r.Context(), id, models.ProductState(req.State))
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

// readInput decodes a product from JSON or a multipart form. An uploaded
// image is stored right away and its URL returned as saved, so the caller
// can discard it when the service rejects the product.
func (h *ProductHandler) readInput(w http.ResponseWriter, r *http.Request) (in catalog.ProductInput, saved string, err error) {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt != "multipart/form-data" {
		err = httpx.DecodeJSON(r, &in)
		return in, "", err
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return in, "", ErrInvalidForm.Withf("%v", err)
	}
	if in, err = formInput(r); err != nil {
		return in, "", err
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return in, "", nil
	}
	if err != nil {
		return in, "", ErrInvalidForm.Withf("image: %v", err)
	}
	defer file.Close()
	if in.ImageURL, err = h.images.SaveProductImage(r.Context(), header.Filename, file); err != nil {
		return in, "", err
	}
	return in, in.ImageURL, nil
}

// discard removes an image stored for a request that then failed.
func (h *ProductHandler) discard(r *http.Request, saved string) {
	if saved == "" {
		return
	}
	if err := h.images.RemoveProductImage(r.Context(), saved); err != nil {
		logging.FromContext(r.Context()).Warn("image_discard_failed", zap.String("image_url", saved), zap.Error(err))
	}
}

func formInput(r *http.Request) (catalog.ProductInput, error) {
	v := validation.Violations{}
	in := catalog.ProductInput{
		Name:        strings.TrimSpace(r.FormValue("name")),
		Description: r.FormValue("description"),
	}
	parseDecimal := func(field string) decimal.Decimal {
		d, err := decimal.NewFromString(strings.TrimSpace(r.FormValue(field)))
		if err != nil {
			v[field] = "invalid_number"
		}
		return d
	}
	in.BasePrice = parseDecimal("base_price")
	in.ProfitMargin = parseDecimal("profit_margin")
	if n, err := strconv.Atoi(r.FormValue("stock")); err == nil {
		in.Stock = n
	} else {
		v["stock"] = "invalid_number"
	}
	if n, err := strconv.ParseUint(r.FormValue("category_id"), 10, 64); err == nil {
		in.CategoryID = uint(n)
	} else {
		v["category_id"] = "invalid_number"
	}
	if raw := r.FormValue("sellable"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil && raw != "on" {
			v["sellable"] = "invalid_bool"
		}
		in.Sellable = b || raw == "on"
	}
	return in, v.Err()
}
