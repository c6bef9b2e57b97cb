package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/util"
)

type ProductHTTP struct {
	Svc *service.CatalogService
}

var productMessages = map[error]string{service.ErrNotFound: "Product not found"}

type deletedResponse struct {
	Message string `json:"message"`
}

// ListProducts godoc
// @Summary List or search products
// @Tags products
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(10)
// @Param q query string false "Full-text query over name and description"
// @Success 200 {object} productPage
// @Failure 401 {object} errorResponse
// @Security BearerAuth
// @Router /users/products [get]
func (h *ProductHTTP) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.list_products")

	page := util.ParseIntDefault(c.QueryParam("page"), util.DefaultPage)
	limit := util.ParseIntDefault(c.QueryParam("limit"), util.DefaultPageSize)

	res, err := h.Svc.List(ctx, page, limit, c.QueryParam("q"))
	if err != nil {
		return fail(c, l, "list_products_error", err, nil)
	}
	return c.JSON(http.StatusOK, res)
}

// CreateProduct godoc
// @Summary Create a product
// @Tags admin
// @Accept json
// @Produce json
// @Param body body service.CreateProductInput true "Product"
// @Success 201 {object} models.Product
// @Failure 400 {object} validationResponse
// @Failure 403 {object} errorResponse
// @Security BearerAuth
// @Router /admin/products [post]
func (h *ProductHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create_product")

	var req service.CreateProductInput
	if err := bindBody(c, &req); err != nil {
		return badRequest(l, "create_product_error", bodyErrorMessage(err), err)
	}

	product, err := h.Svc.Create(ctx, req)
	if err != nil {
		return fail(c, l, "create_product_error", err, nil)
	}

	l.Infow("create_product_success", "product_id", product.ID)
	return c.JSON(http.StatusCreated, product)
}

// UpdateProduct godoc
// @Summary Update product fields
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "Product ID"
// @Param body body service.UpdateProductInput true "Fields to change"
// @Success 200 {object} models.Product
// @Failure 400 {object} validationResponse
// @Failure 404 {object} errorResponse
// @Security BearerAuth
// @Router /admin/products/{id} [put]
func (h *ProductHTTP) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.update_product")

	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "update_product_error", "Invalid product id", err)
	}

	var req service.UpdateProductInput
	if err := bindBody(c, &req); err != nil {
		return badRequest(l, "update_product_error", bodyErrorMessage(err), err)
	}

	product, err := h.Svc.Update(ctx, id, req)
	if err != nil {
		return fail(c, l, "update_product_error", err, productMessages)
	}

	l.Infow("update_product_success", "product_id", product.ID)
	return c.JSON(http.StatusOK, product)
}

// DeleteProduct godoc
// @Summary Delete a product
// @Tags admin
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} deletedResponse
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Security BearerAuth
// @Router /admin/products/{id} [delete]
func (h *ProductHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete_product")

	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "delete_product_error", "Invalid product id", err)
	}

	if err := h.Svc.Delete(ctx, id); err != nil {
		return fail(c, l, "delete_product_error", err, map[error]string{
			service.ErrNotFound: "Product not found",
			service.ErrConflict: "Product is referenced by orders",
		})
	}

	l.Infow("delete_product_success", "product_id", id)
	return c.JSON(http.StatusOK, deletedResponse{Message: "Product deleted"})
}

// productPage documents the listing envelope.
type productPage service.Page[models.Product]
