package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopfront/backend/internal/db"
	"github.com/shopfront/backend/internal/model"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultSpecialOfferLimit = 10
	MaxSpecialOfferLimit     = 50
)

type CatalogRepo interface {
	CreateCategory(ctx context.Context, name, image string) (*model.Category, error)
	GetCategory(ctx context.Context, id int64) (*model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	UpdateCategory(ctx context.Context, c model.Category) (*model.Category, error)
	DeleteCategory(ctx context.Context, id int64) (*model.Category, error)

	CreateProduct(ctx context.Context, p model.Product) (*model.Product, error)
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	ListProductsByCategory(ctx context.Context, categoryID int64) ([]model.Product, error)
	SampleInStockProducts(ctx context.Context, limit int) ([]model.Product, error)
	UpdateProduct(ctx context.Context, p model.Product) (*model.Product, error)
	DeleteProduct(ctx context.Context, id int64) (*model.Product, error)

	CreateBanner(ctx context.Context, title, imageURL string) (*model.Banner, error)
	GetBanner(ctx context.Context, id int64) (*model.Banner, error)
	ListBanners(ctx context.Context) ([]model.Banner, error)
	UpdateBanner(ctx context.Context, b model.Banner) (*model.Banner, error)
	DeleteBanner(ctx context.Context, id int64) (*model.Banner, error)
}

// ContentStore keeps uploaded files and hands back references to them.
type ContentStore interface {
	Save(ctx context.Context, originalName string, r io.Reader) (string, error)
	Remove(ctx context.Context, publicPath string) error
}

// CatalogService owns the category, product and banner lifecycles.
//
// Uploads are written before the record is saved. A failed save leaves the
// written file behind; it is logged, not rolled back.
type CatalogService struct {
	repo    CatalogRepo
	files   ContentStore
	uploads prometheus.Counter
}

func NewCatalogService(repo CatalogRepo, files ContentStore) *CatalogService {
	return &CatalogService{repo: repo, files: files}
}

// SetUploadCounter makes every stored file increment c.
func (s *CatalogService) SetUploadCounter(c prometheus.Counter) {
	s.uploads = c
}

// --- categories ---

func (s *CatalogService) CreateCategory(ctx context.Context, name string, image *model.Upload) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" || image == nil {
		return nil, invalid("", "Name and image are required")
	}

	imagePath, err := s.store(ctx, image)
	if err != nil {
		return nil, err
	}

	category, err := s.repo.CreateCategory(ctx, name, imagePath)
	if err != nil {
		s.orphaned(imagePath, err)
		if errors.Is(err, db.ErrDuplicate) {
			return nil, fmt.Errorf("%w: category %q already exists", ErrConflict, name)
		}
		return nil, err
	}
	return category, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *CatalogService) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	category, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "Category")
	}
	return category, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id int64, name string, image *model.Upload) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" && image == nil {
		return nil, invalid("", "Nothing to update")
	}

	current, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := *current
	if name != "" {
		updated.Name = name
	}
	if image != nil {
		if updated.Image, err = s.store(ctx, image); err != nil {
			return nil, err
		}
	}

	saved, err := s.repo.UpdateCategory(ctx, updated)
	if err != nil {
		if image != nil {
			s.orphaned(updated.Image, err)
		}
		if errors.Is(err, db.ErrDuplicate) {
			return nil, fmt.Errorf("%w: category %q already exists", ErrConflict, name)
		}
		return nil, mapRepoErr(err, "Category")
	}

	if image != nil {
		s.removeFiles(ctx, current.Image)
	}
	return saved, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id int64) (*model.Category, error) {
	deleted, err := s.repo.DeleteCategory(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrReferenceMissing) {
			return nil, fmt.Errorf("%w: category still has products", ErrConflict)
		}
		return nil, mapRepoErr(err, "Category")
	}
	s.removeFiles(ctx, deleted.Image)
	return deleted, nil
}

// --- products ---

func (s *CatalogService) CreateProduct(ctx context.Context, form model.ProductForm, images []*model.Upload) (*model.Product, error) {
	product, err := parseProductForm(form, nil)
	if err != nil {
		return nil, err
	}

	// The existence check and the insert are separate statements; the
	// foreign key still rejects a category deleted in between.
	if _, err := s.repo.GetCategory(ctx, product.CategoryID); err != nil {
		return nil, mapRepoErr(err, "Category")
	}

	product.Images, err = s.storeAll(ctx, images)
	if err != nil {
		return nil, err
	}

	saved, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		s.orphaned(strings.Join(product.Images, ","), err)
		if errors.Is(err, db.ErrReferenceMissing) {
			return nil, notFound("Category")
		}
		return nil, err
	}
	return saved, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "Product")
	}
	return product, nil
}

// ListProducts returns all products with their categories populated.
func (s *CatalogService) ListProducts(ctx context.Context) ([]model.Product, error) {
	return s.repo.ListProducts(ctx)
}

// ListProductsByCategory answers ErrNotFound when the category has no products.
func (s *CatalogService) ListProductsByCategory(ctx context.Context, categoryID int64) ([]model.Product, error) {
	products, err := s.repo.ListProductsByCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, notFound("Products for this category")
	}
	return products, nil
}

func (s *CatalogService) SpecialOffers(ctx context.Context, limit int) ([]model.Product, error) {
	if limit <= 0 {
		limit = DefaultSpecialOfferLimit
	}
	if limit > MaxSpecialOfferLimit {
		limit = MaxSpecialOfferLimit
	}
	return s.repo.SampleInStockProducts(ctx, limit)
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, form model.ProductForm, images []*model.Upload) (*model.Product, error) {
	current, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := parseProductForm(form, current)
	if err != nil {
		return nil, err
	}

	if updated.CategoryID != current.CategoryID {
		if _, err := s.repo.GetCategory(ctx, updated.CategoryID); err != nil {
			return nil, mapRepoErr(err, "Category")
		}
	}

	replaceImages := len(images) > 0
	if replaceImages {
		if updated.Images, err = s.storeAll(ctx, images); err != nil {
			return nil, err
		}
	}

	saved, err := s.repo.UpdateProduct(ctx, updated)
	if err != nil {
		if replaceImages {
			s.orphaned(strings.Join(updated.Images, ","), err)
		}
		if errors.Is(err, db.ErrReferenceMissing) {
			return nil, notFound("Category")
		}
		return nil, mapRepoErr(err, "Product")
	}

	if replaceImages {
		s.removeFiles(ctx, current.Images...)
	}
	return saved, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) (*model.Product, error) {
	deleted, err := s.repo.DeleteProduct(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "Product")
	}
	s.removeFiles(ctx, deleted.Images...)
	return deleted, nil
}

// --- banners ---

func (s *CatalogService) CreateBanner(ctx context.Context, title string, image *model.Upload) (*model.Banner, error) {
	title = strings.TrimSpace(title)
	if title == "" || image == nil {
		return nil, invalid("", "Title and banner image are required")
	}

	imagePath, err := s.store(ctx, image)
	if err != nil {
		return nil, err
	}

	banner, err := s.repo.CreateBanner(ctx, title, imagePath)
	if err != nil {
		s.orphaned(imagePath, err)
		return nil, err
	}
	return banner, nil
}

func (s *CatalogService) ListBanners(ctx context.Context) ([]model.Banner, error) {
	return s.repo.ListBanners(ctx)
}

func (s *CatalogService) UpdateBanner(ctx context.Context, id int64, title string, image *model.Upload) (*model.Banner, error) {
	title = strings.TrimSpace(title)
	if title == "" && image == nil {
		return nil, invalid("", "Nothing to update")
	}

	current, err := s.repo.GetBanner(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "Banner")
	}

	updated := *current
	if title != "" {
		updated.Title = title
	}
	if image != nil {
		if updated.ImageURL, err = s.store(ctx, image); err != nil {
			return nil, err
		}
	}

	saved, err := s.repo.UpdateBanner(ctx, updated)
	if err != nil {
		if image != nil {
			s.orphaned(updated.ImageURL, err)
		}
		return nil, mapRepoErr(err, "Banner")
	}

	if image != nil {
		s.removeFiles(ctx, current.ImageURL)
	}
	return saved, nil
}

func (s *CatalogService) DeleteBanner(ctx context.Context, id int64) (*model.Banner, error) {
	deleted, err := s.repo.DeleteBanner(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "Banner")
	}
	s.removeFiles(ctx, deleted.ImageURL)
	return deleted, nil
}

// --- helpers ---

func (s *CatalogService) store(ctx context.Context, upload *model.Upload) (string, error) {
	f, err := upload.Open()
	if err != nil {
		return "", fmt.Errorf("open upload %q: %w", upload.Filename, err)
	}
	defer f.Close()

	stored, err := s.files.Save(ctx, upload.Filename, f)
	if err != nil {
		return "", err
	}
	if s.uploads != nil {
		s.uploads.Inc()
	}
	return stored, nil
}

func (s *CatalogService) storeAll(ctx context.Context, uploads []*model.Upload) ([]string, error) {
	paths := make([]string, 0, len(uploads))
	for _, upload := range uploads {
		stored, err := s.store(ctx, upload)
		if err != nil {
			// drop what this request already stored
			s.removeFiles(context.WithoutCancel(ctx), paths...)
			return nil, err
		}
		paths = append(paths, stored)
	}
	return paths, nil
}

func (s *CatalogService) removeFiles(ctx context.Context, paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := s.files.Remove(ctx, p); err != nil {
			log.Warnf("failed to remove stored file %s: %v", p, err)
		}
	}
}

func (s *CatalogService) orphaned(paths string, cause error) {
	if paths == "" {
		return
	}
	log.Warnf("record save failed, uploaded file(s) left orphaned [%s]: %v", paths, cause)
}

func mapRepoErr(err error, resource string) error {
	if db.IsNoRows(err) {
		return notFound(resource)
	}
	return err
}

// ParseID parses a positive numeric resource id.
func ParseID(raw, field string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, invalid(field, "Invalid "+field+" ID")
	}
	return id, nil
}

// parseProductForm validates the form. With a nil base every field is
// required; otherwise empty fields keep the base values.
func parseProductForm(form model.ProductForm, base *model.Product) (model.Product, error) {
	var p model.Product
	if base != nil {
		p = *base
		p.Category = nil
	}

	required := base == nil
	if required && (strings.TrimSpace(form.Name) == "" ||
		strings.TrimSpace(form.Description) == "" ||
		strings.TrimSpace(form.MRP) == "" ||
		strings.TrimSpace(form.OfferPrice) == "" ||
		strings.TrimSpace(form.Stock) == "" ||
		strings.TrimSpace(form.Category) == "") {
		return model.Product{}, invalid("", "Invalid or missing required fields")
	}

	if v := strings.TrimSpace(form.Name); v != "" {
		p.Name = v
	}
	if v := strings.TrimSpace(form.Description); v != "" {
		p.Description = v
	}
	if v := strings.TrimSpace(form.MRP); v != "" {
		mrp, err := parsePrice(v)
		if err != nil {
			return model.Product{}, invalid("mrp", "must be a non-negative number")
		}
		p.MRP = mrp
	}
	if v := strings.TrimSpace(form.OfferPrice); v != "" {
		offer, err := parsePrice(v)
		if err != nil {
			return model.Product{}, invalid("offerPrice", "must be a non-negative number")
		}
		p.OfferPrice = offer
	}
	if v := strings.TrimSpace(form.Stock); v != "" {
		stock, err := strconv.Atoi(v)
		if err != nil || stock < 0 {
			return model.Product{}, invalid("stock", "must be a non-negative integer")
		}
		p.Stock = stock
	}
	if v := strings.TrimSpace(form.Category); v != "" {
		id, err := ParseID(v, "category")
		if err != nil {
			return model.Product{}, err
		}
		p.CategoryID = id
	}
	return p, nil
}

func parsePrice(v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, ErrInvalidInput
	}
	return f, nil
}
