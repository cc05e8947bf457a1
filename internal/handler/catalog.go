package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopfront/backend/internal/model"
	"github.com/shopfront/backend/internal/service"
	log "github.com/sirupsen/logrus"
)

type CatalogHandler struct {
	svc *service.CatalogService
}

func NewCatalogHandler(svc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

// --- categories ---

// CreateCategory godoc
// @Summary Create category
// @Tags categories
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param name formData string true "Category name"
// @Param image formData file true "Category image"
// @Success 201 {object} model.CategoryResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/admin/categories [post]
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	image, err := formUpload(c, "image")
	if err != nil {
		writeError(c, err)
		return
	}

	category, err := h.svc.CreateCategory(c.Request.Context(), c.PostForm("name"), image)
	if err != nil {
		writeError(c, err)
		return
	}
	logAdminAction(c, "created category %d", category.ID)
	c.JSON(http.StatusCreated, model.CategoryResponse{Message: "Category uploaded successfully", Category: category})
}

// ListCategories godoc
// @Summary List categories
// @Tags categories
// @Produce json
// @Success 200 {object} model.CategoryListResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/categories [get]
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.svc.ListCategories(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.CategoryListResponse{Message: "Categories fetched successfully!", Categories: categories})
}

// UpdateCategory godoc
// @Summary Update category
// @Tags categories
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Param name formData string false "Category name"
// @Param image formData file false "Replacement image"
// @Success 200 {object} model.CategoryResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse
// @Router /api/admin/categories/{id} [put]
func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	id, err := service.ParseID(c.Param("id"), "category")
	if err != nil {
		writeError(c, err)
		return
	}
	image, err := formUpload(c, "image")
	if err != nil {
		writeError(c, err)
		return
	}

	category, err := h.svc.UpdateCategory(c.Request.Context(), id, c.PostForm("name"), image)
	if err != nil {
		writeError(c, err)
		return
	}
	logAdminAction(c, "updated category %d", id)
	c.JSON(http.StatusOK, model.CategoryResponse{Message: "Category updated successfully", Category: category})
}

// DeleteCategory godoc
// @Summary Delete category
// @Description Fails with 409 while products still reference the category.
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Success 200 {object} model.CategoryResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse
// @Router /api/admin/categories/{id} [delete]
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	id, err := service.ParseID(c.Param("id"), "category")
	if err != nil {
		writeError(c, err)
		return
	}

	category, err := h.svc.DeleteCategory(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	logAdminAction(c, "deleted category %d", id)
	c.JSON(http.StatusOK, model.CategoryResponse{Message: "Category deleted successfully", Category: category})
}

// --- products ---

// CreateProduct godoc
// @Summary Create product
// @Description Image files are read from every form field whose name starts with "images".
// @Tags products
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param name formData string true "Name"
// @Param description formData string true "Description"
// @Param mrp formData number true "MRP"
// @Param offerPrice formData number true "Offer price"
// @Param stock formData integer true "Stock"
// @Param category formData integer true "Category ID"
// @Param images formData file false "Product images"
// @Success 201 {object} model.ProductResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/admin/products [post]
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var form model.ProductForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or missing required fields"})
		return
	}

	product, err := h.svc.CreateProduct(c.Request.Context(), form, formUploads(c, "images"))
	if err != nil {
		writeError(c, err)
		return
	}
	logAdminAction(c, "created product %d", product.ID)
	c.JSON(http.StatusCreated, model.ProductResponse{Message: "Product added successfully", Product: product})
}

// ListProducts godoc
// @Summary List products
// @Description Without a category every product is returned with its category populated.
// @Description With a category, 404 is returned when it has no products.
// @Tags products
// @Produce json
// @Param category query int false "Category ID"
// @Success 200 {object} model.ProductListResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/products [get]
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	var (
		products []model.Product
		err      error
	)
	if raw := c.Query("category"); raw != "" {
		var categoryID int64
		categoryID, err = service.ParseID(raw, "category")
		if err == nil {
			products, err = h.svc.ListProductsByCategory(c.Request.Context(), categoryID)
		}
	} else {
		products, err = h.svc.ListProducts(c.Request.Context())
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.ProductListResponse{Success: true, Products: products})
}

// GetProduct godoc
// @Summary Get product
// @Tags products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} model.Product
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/products/{id} [get]
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, err := service.ParseID(c.Param("id"), "product")
	if err != nil {
		writeError(c, err)
		return
	}
	product, err := h.svc.GetProduct(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// SpecialOffers godoc
// @Summary Random in-stock products
// @Tags products
// @Produce json
// @Param limit query int false "Number of products (default 10, max 50)"
// @Success 200 {object} model.ProductListResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/special-offers [get]
func (h *CatalogHandler) SpecialOffers(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil {
		limit = service.DefaultSpecialOfferLimit
	}
	products, err := h.svc.SpecialOffers(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.ProductListResponse{Success: true, Products: products})
}

// UpdateProduct godoc
// @Summary Update product
// @Description Empty fields keep their values. New images replace the stored ones.
// @Tags products
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Success 200 {object} model.ProductResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/admin/products/{id} [put]
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, err := service.ParseID(c.Param("id"), "product")
	if err != nil {
		writeError(c, err)
		return
	}
	var form model.ProductForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	product, err := h.svc.UpdateProduct(c.Request.Context(), id, form, formUploads(c, "images"))
	if err != nil {
		writeError(c, err)
		return
	}
	logAdminAction(c, "updated product %d", id)
	c.JSON(http.StatusOK, model.ProductResponse{Message: "Product updated successfully", Product: product})
}

// DeleteProduct godoc
// @Summary Delete product
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Success 200 {object} model.ProductResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/admin/products/{id} [delete]
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id, err := service.ParseID(c.Param("id"), "product")
	if err != nil {
		writeError(c, err)
		return
	}
	product, err := h.svc.DeleteProduct(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	logAdminAction(c, "deleted product %d", id)
	c.JSON(http.StatusOK, model.ProductResponse{Message: "Product deleted successfully", Product: product})
}

// --- banners ---

// CreateBanner godoc
// @Summary Create banner
// @Tags banners
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Banner title"
// @Param file formData file true "Banner image"
// @Success 201 {object} model.BannerResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/admin/banners [post]
func (h *CatalogHandler) CreateBanner(c *gin.Context) {
	image, err := formUpload(c, "file")
	if err != nil {
		writeError(c, err)
		return
	}

	banner, err := h.svc.CreateBanner(c.Request.Context(), c.PostForm("title"), image)
	if err != nil {
		writeError(c, err)
		return
	}
	logAdminAction(c, "created banner %d", banner.ID)
	c.JSON(http.StatusCreated, model.BannerResponse{Message: "Banner uploaded successfully", Banner: banner})
}

// ListBanners godoc
// @Summary List banners
// @Tags banners
// @Produce json
// @Success 200 {object} model.BannerListResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/banners [get]
func (h *CatalogHandler) ListBanners(c *gin.Context) {
	banners, err := h.svc.ListBanners(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.BannerListResponse{Message: "Banners fetched successfully", Banners: banners})
}

// UpdateBanner godoc
// @Summary Update banner
// @Tags banners
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Banner ID"
// @Param title formData string false "Banner title"
// @Param file formData file false "Replacement image"
// @Success 200 {object} model.BannerResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/admin/banners/{id} [put]
func (h *CatalogHandler) UpdateBanner(c *gin.Context) {
	id, err := service.ParseID(c.Param("id"), "banner")
	if err != nil {
		writeError(c, err)
		return
	}
	image, err := formUpload(c, "file")
	if err != nil {
		writeError(c, err)
		return
	}

	banner, err := h.svc.UpdateBanner(c.Request.Context(), id, c.PostForm("title"), image)
	if err != nil {
		writeError(c, err)
		return
	}
	logAdminAction(c, "updated banner %d", id)
	c.JSON(http.StatusOK, model.BannerResponse{Message: "Banner updated successfully", Banner: banner})
}

// DeleteBanner godoc
// @Summary Delete banner
// @Tags banners
// @Produce json
// @Security BearerAuth
// @Param id path int true "Banner ID"
// @Success 200 {object} model.BannerResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/admin/banners/{id} [delete]
func (h *CatalogHandler) DeleteBanner(c *gin.Context) {
	id, err := service.ParseID(c.Param("id"), "banner")
	if err != nil {
		writeError(c, err)
		return
	}
	banner, err := h.svc.DeleteBanner(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	logAdminAction(c, "deleted banner %d", id)
	c.JSON(http.StatusOK, model.BannerResponse{Message: "Banner deleted successfully", Banner: banner})
}

// formUpload returns the named file, or nil when the field is absent.
func formUpload(c *gin.Context, field string) (*model.Upload, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, &service.ValidationError{Field: field, Message: "unreadable file"}
	}
	return toUpload(fh), nil
}

// formUploads collects files from every field starting with prefix
// (images, images[0], images1, ...) in field-name order.
func formUploads(c *gin.Context, prefix string) []*model.Upload {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}

	keys := make([]string, 0, len(form.File))
	for key := range form.File {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	var uploads []*model.Upload
	for _, key := range keys {
		for _, fh := range form.File[key] {
			uploads = append(uploads, toUpload(fh))
		}
	}
	return uploads
}

func toUpload(fh *multipart.FileHeader) *model.Upload {
	return &model.Upload{
		Filename: fh.Filename,
		Size:     fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

func logAdminAction(c *gin.Context, format string, args ...interface{}) {
	actor := "unknown"
	if user := GetAuthUser(c); user != nil {
		actor = user.Username
	}
	log.WithField("admin", actor).Infof(format, args...)
}
