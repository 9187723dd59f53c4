package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/store"

	"github.com/go-chi/chi/v5"
)

const maxProductFormBytes = 5 * 1024 * 1024 // 5MB

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

type productForm struct {
	Name        string  `validate:"required,max=200"`
	Category    string  `validate:"required,max=100"`
	Price       float64 `validate:"gte=0"`
	Description string  `validate:"max=5000"`
	Stock       int     `validate:"gte=0"`
}

// helper: sniff first 512 bytes and reset reader
func sniffMIME(file multipart.File) (string, error) {
	buf := make([]byte, 512)
	n, err := file.Read(buf)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read: %w", err)
	}
	mime := http.DetectContentType(buf[:n])

	// reset so later reads start from byte 0
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("seek reset: %w", err)
	}
	return mime, nil
}

func parseProductForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxProductFormBytes)
	if err := r.ParseMultipartForm(maxProductFormBytes); err != nil {
		return fmt.Errorf("failed to parse form: %w", err)
	}
	return nil
}

// formValue reports whether key was sent at all, so updates can tell an
// omitted field from an empty one.
func formValue(r *http.Request, key string) (string, bool) {
	if r.MultipartForm == nil {
		return "", false
	}
	vals, ok := r.MultipartForm.Value[key]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return strings.TrimSpace(vals[0]), true
}

// parsePrice accepts finite numbers only. ParseFloat also understands
// "Inf" and "NaN", which no store or JSON encoder can round-trip.
func parsePrice(v string) (float64, error) {
	price, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsInf(price, 0) || math.IsNaN(price) {
		return 0, fmt.Errorf("price must be a number")
	}
	return price, nil
}

// stockFields parses the stock count and the forced out of stock flag.
// Missing values fall back to the supplied defaults.
func stockFields(r *http.Request, stock int, forced bool) (int, bool, bool, error) {
	touched := false
	if v, ok := formValue(r, "stock"); ok && v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return 0, false, false, fmt.Errorf("stock must be a whole number")
		}
		stock, touched = parsed, true
	}
	if v, ok := formValue(r, "isOutOfStock"); ok && v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return 0, false, false, fmt.Errorf("isOutOfStock must be a boolean")
		}
		forced, touched = parsed, true
	}
	return stock, forced, touched, nil
}

// readImage returns the uploaded image, or nil when the field is absent.
func readImage(r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read image: %w", err)
	}

	// sniff actual MIME from bytes (don't trust Content-Type header)
	mime, err := sniffMIME(file)
	if err != nil {
		file.Close()
		return nil, nil, fmt.Errorf("sniff mime: %w", err)
	}
	if !allowedImageTypes[mime] {
		file.Close()
		return nil, nil, fmt.Errorf("invalid image type: %s", mime)
	}
	return file, header, nil
}

// discardImage removes an uploaded image that no longer backs any product.
func (app *application) discardImage(url string) {
	if url == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), store.QueryTimeoutDuration)
	defer cancel()

	if err := app.media.Delete(ctx, url); err != nil {
		app.logger.Warnw("failed to delete product image", "url", url, "error", err.Error())
	}
}

// listProductsHandler godoc
//
//	@Summary		List products
//	@Description	All products, newest first.
//	@Tags			Products
//	@Produce		json
//	@Success		200	{array}		store.Product
//	@Failure		500	{object}	error
//	@Router			/products [get]
func (app *application) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	products, err := app.store.Products.List(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if products == nil {
		products = []store.Product{}
	}

	if err := writeJSON(w, http.StatusOK, products); err != nil {
		app.internalServerError(w, r, err)
	}
}

// createProductHandler godoc
//
//	@Summary		Create a product
//	@Tags			Products
//	@Accept			mpfd
//	@Produce		json
//	@Param			name			formData	string	true	"Name"
//	@Param			category		formData	string	true	"Category"
//	@Param			price			formData	number	true	"Price"
//	@Param			description		formData	string	false	"Description"
//	@Param			stock			formData	int		false	"Units in stock"
//	@Param			isOutOfStock	formData	bool	false	"Force the product out of stock"
//	@Param			image			formData	file	true	"Product image"
//	@Success		200				{object}	store.Product
//	@Failure		400				{object}	error
//	@Failure		500				{object}	error
//	@Router			/products [post]
func (app *application) createProductHandler(w http.ResponseWriter, r *http.Request) {
	if err := parseProductForm(w, r); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	form := productForm{}
	form.Name, _ = formValue(r, "name")
	form.Category, _ = formValue(r, "category")
	form.Description, _ = formValue(r, "description")

	priceStr, _ := formValue(r, "price")
	price, err := parsePrice(priceStr)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	form.Price = price

	stock, forced, _, err := stockFields(r, 0, false)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	form.Stock = stock

	if err := Validate.Struct(form); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	file, header, err := readImage(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if file == nil {
		app.badRequestResponse(w, r, fmt.Errorf("image is required"))
		return
	}
	defer file.Close()

	imageURL, err := app.media.Upload(r.Context(), file, header.Filename)
	if err != nil {
		app.internalServerError(w, r, fmt.Errorf("upload image: %w", err))
		return
	}

	product := &store.Product{
		Name:        form.Name,
		Category:    form.Category,
		Price:       form.Price,
		Description: form.Description,
		ImageURL:    imageURL,
	}
	product.SetStock(form.Stock, forced)

	if err := app.store.Products.Create(r.Context(), product); err != nil {
		app.discardImage(imageURL)
		app.internalServerError(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, product); err != nil {
		app.internalServerError(w, r, err)
	}
}

// updateProductHandler godoc
//
//	@Summary		Update a product
//	@Description	Only the fields sent are changed. A new image replaces the old one.
//	@Tags			Products
//	@Accept			mpfd
//	@Produce		json
//	@Param			productID		path		string	true	"Product ID"
//	@Param			name			formData	string	false	"Name"
//	@Param			category		formData	string	false	"Category"
//	@Param			price			formData	number	false	"Price"
//	@Param			description		formData	string	false	"Description"
//	@Param			stock			formData	int		false	"Units in stock"
//	@Param			isOutOfStock	formData	bool	false	"Force the product out of stock"
//	@Param			image			formData	file	false	"Product image"
//	@Success		200				{object}	store.Product
//	@Failure		400				{object}	error
//	@Failure		404				{object}	error
//	@Failure		500				{object}	error
//	@Router			/products/{productID} [put]
func (app *application) updateProductHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productID")

	if err := parseProductForm(w, r); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	product, err := app.store.Products.GetByID(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if v, ok := formValue(r, "name"); ok {
		product.Name = v
	}
	if v, ok := formValue(r, "category"); ok {
		product.Category = v
	}
	if v, ok := formValue(r, "description"); ok {
		product.Description = v
	}
	if v, ok := formValue(r, "price"); ok {
		price, err := parsePrice(v)
		if err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
		product.Price = price
	}

	// An update that touches neither field keeps the stored flag. Otherwise
	// the flag is recomputed from the new values.
	stock, forced, touched, err := stockFields(r, product.Stock, false)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if touched {
		product.SetStock(stock, forced)
	}

	form := productForm{
		Name:        product.Name,
		Category:    product.Category,
		Price:       product.Price,
		Description: product.Description,
		Stock:       product.Stock,
	}
	if err := Validate.Struct(form); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	file, header, err := readImage(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	oldImage := ""
	if file != nil {
		defer file.Close()

		imageURL, err := app.media.Upload(r.Context(), file, header.Filename)
		if err != nil {
			app.internalServerError(w, r, fmt.Errorf("upload image: %w", err))
			return
		}
		oldImage, product.ImageURL = product.ImageURL, imageURL
	}

	if err := app.store.Products.Update(r.Context(), product); err != nil {
		if oldImage != "" {
			app.discardImage(product.ImageURL)
		}
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.discardImage(oldImage)

	if err := writeJSON(w, http.StatusOK, product); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteProductHandler godoc
//
//	@Summary		Delete a product
//	@Tags			Products
//	@Produce		json
//	@Param			productID	path		string	true	"Product ID"
//	@Success		200			{object}	map[string]string
//	@Failure		404			{object}	error
//	@Failure		500			{object}	error
//	@Router			/products/{productID} [delete]
func (app *application) deleteProductHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productID")

	product, err := app.store.Products.GetByID(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.store.Products.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.discardImage(product.ImageURL)

	if err := writeJSON(w, http.StatusOK, map[string]string{"message": "Product deleted successfully"}); err != nil {
		app.internalServerError(w, r, err)
	}
}
