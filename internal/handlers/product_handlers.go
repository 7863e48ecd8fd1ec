package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"catalogd/internal/models"
	"catalogd/internal/services"

	"github.com/labstack/echo/v4"
)

// ProductHandlers handles the catalog HTTP surface. The interesting behavior
// lives in the services; these stay thin on purpose.
type ProductHandlers struct {
	catalogService   services.CatalogService
	inventoryService services.InventoryService
}

func NewProductHandlers(catalogService services.CatalogService, inventoryService services.InventoryService) *ProductHandlers {
	return &ProductHandlers{
		catalogService:   catalogService,
		inventoryService: inventoryService,
	}
}

func (h *ProductHandlers) ListProducts(c echo.Context) error {
	products, err := h.catalogService.ListProducts(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list products")
	}
	if products == nil {
		products = []*models.Product{}
	}
	return c.JSON(http.StatusOK, products)
}

// CreateProduct accepts multipart form data: a "product" part carrying the
// JSON payload and an "image" file part.
func (h *ProductHandlers) CreateProduct(c echo.Context) error {
	var create models.ProductCreate
	if err := json.Unmarshal([]byte(c.FormValue("product")), &create); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid product payload")
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Product image is required")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to read product image")
	}
	defer file.Close()

	product, err := h.catalogService.AddProduct(
		c.Request().Context(),
		&create,
		file,
		fileHeader.Size,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
	)
	if err != nil {
		switch err {
		case services.ErrNameRequired, services.ErrInvalidPrice:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create product")
		}
	}
	return c.JSON(http.StatusCreated, product)
}

func (h *ProductHandlers) GetProduct(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid product id")
	}

	product, err := h.catalogService.FindByID(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to get product")
	}
	if product == nil {
		return echo.NewHTTPError(http.StatusNotFound, "Product not found")
	}
	return c.JSON(http.StatusOK, product)
}

func (h *ProductHandlers) DeleteProduct(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid product id")
	}

	if err := h.catalogService.DeleteProduct(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete product")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ProductHandlers) GetProductInventory(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid product id")
	}

	inventory, err := h.inventoryService.FindByProduct(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to get inventory")
	}
	if inventory == nil {
		return echo.NewHTTPError(http.StatusNotFound, "No inventory for product")
	}
	return c.JSON(http.StatusOK, inventory)
}

// CreateInventoryRequest registers an absolute stock level for a product.
type CreateInventoryRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

func (h *ProductHandlers) CreateProductInventory(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid product id")
	}

	var req CreateInventoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if req.ProductID != 0 && req.ProductID != id {
		return echo.NewHTTPError(http.StatusBadRequest, "Product id mismatch")
	}

	inventory, err := h.inventoryService.Register(c.Request().Context(), id, req.Quantity)
	if err != nil {
		if err == services.ErrInvalidQuantity {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to register inventory")
	}
	return c.JSON(http.StatusCreated, inventory)
}
