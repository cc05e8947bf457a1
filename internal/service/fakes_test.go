package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/shopfront/backend/internal/db"
	"github.com/shopfront/backend/internal/model"
)

type fakeCredentialStore struct {
	mu     sync.Mutex
	nextID int64
	admins []model.Admin
}

func (f *fakeCredentialStore) FindAdminByUsername(ctx context.Context, username string) (*model.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.admins {
		if a.Username == username {
			found := a
			return &found, nil
		}
	}
	return nil, db.ErrNotFound
}

func (f *fakeCredentialStore) FindAdminByEmail(ctx context.Context, email string) (*model.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.admins {
		if a.Email == email {
			found := a
			return &found, nil
		}
	}
	return nil, db.ErrNotFound
}

func (f *fakeCredentialStore) CreateAdmin(ctx context.Context, admin model.Admin) (*model.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.admins {
		if a.Username == admin.Username || a.Email == admin.Email {
			return nil, fmt.Errorf("%w: admins_email_key", db.ErrDuplicate)
		}
	}
	f.nextID++
	admin.ID = f.nextID
	admin.CreatedAt = time.Now()
	f.admins = append(f.admins, admin)
	return &admin, nil
}

type fakeCatalogRepo struct {
	mu         sync.Mutex
	nextID     int64
	categories map[int64]model.Category
	products   map[int64]model.Product
	banners    map[int64]model.Banner

	failProductSave error
	sampleLimit     int
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{
		categories: map[int64]model.Category{},
		products:   map[int64]model.Product{},
		banners:    map[int64]model.Banner{},
	}
}

func (f *fakeCatalogRepo) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeCatalogRepo) CreateCategory(ctx context.Context, name, image string) (*model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.categories {
		if c.Name == name {
			return nil, fmt.Errorf("%w: categories_name_key", db.ErrDuplicate)
		}
	}
	c := model.Category{ID: f.id(), Name: name, Image: image}
	f.categories[c.ID] = c
	return &c, nil
}

func (f *fakeCatalogRepo) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.categories[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &c, nil
}

func (f *fakeCatalogRepo) ListCategories(ctx context.Context) ([]model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Category, 0, len(f.categories))
	for _, c := range f.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeCatalogRepo) UpdateCategory(ctx context.Context, c model.Category) (*model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.categories[c.ID]; !ok {
		return nil, db.ErrNotFound
	}
	f.categories[c.ID] = c
	return &c, nil
}

func (f *fakeCatalogRepo) DeleteCategory(ctx context.Context, id int64) (*model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.categories[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	for _, p := range f.products {
		if p.CategoryID == id {
			return nil, fmt.Errorf("%w: products_category_id_fkey", db.ErrReferenceMissing)
		}
	}
	delete(f.categories, id)
	return &c, nil
}

func (f *fakeCatalogRepo) CreateProduct(ctx context.Context, p model.Product) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failProductSave != nil {
		return nil, f.failProductSave
	}
	if _, ok := f.categories[p.CategoryID]; !ok {
		return nil, fmt.Errorf("%w: products_category_id_fkey", db.ErrReferenceMissing)
	}
	p.ID = f.id()
	f.products[p.ID] = p
	return &p, nil
}

func (f *fakeCatalogRepo) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	if c, ok := f.categories[p.CategoryID]; ok {
		p.Category = &c
	}
	return &p, nil
}

func (f *fakeCatalogRepo) ListProducts(ctx context.Context) ([]model.Product, error) {
	return f.filterProducts(func(model.Product) bool { return true }), nil
}

func (f *fakeCatalogRepo) ListProductsByCategory(ctx context.Context, categoryID int64) ([]model.Product, error) {
	return f.filterProducts(func(p model.Product) bool { return p.CategoryID == categoryID }), nil
}

func (f *fakeCatalogRepo) SampleInStockProducts(ctx context.Context, limit int) ([]model.Product, error) {
	f.mu.Lock()
	f.sampleLimit = limit
	f.mu.Unlock()
	out := f.filterProducts(func(p model.Product) bool { return p.Stock > 0 })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeCatalogRepo) filterProducts(keep func(model.Product) bool) []model.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Product{}
	for _, p := range f.products {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeCatalogRepo) UpdateProduct(ctx context.Context, p model.Product) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[p.ID]; !ok {
		return nil, db.ErrNotFound
	}
	f.products[p.ID] = p
	return &p, nil
}

func (f *fakeCatalogRepo) DeleteProduct(ctx context.Context, id int64) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	delete(f.products, id)
	return &p, nil
}

func (f *fakeCatalogRepo) CreateBanner(ctx context.Context, title, imageURL string) (*model.Banner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := model.Banner{ID: f.id(), Title: title, ImageURL: imageURL}
	f.banners[b.ID] = b
	return &b, nil
}

func (f *fakeCatalogRepo) GetBanner(ctx context.Context, id int64) (*model.Banner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.banners[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &b, nil
}

func (f *fakeCatalogRepo) ListBanners(ctx context.Context) ([]model.Banner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Banner, 0, len(f.banners))
	for _, b := range f.banners {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeCatalogRepo) UpdateBanner(ctx context.Context, b model.Banner) (*model.Banner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.banners[b.ID]; !ok {
		return nil, db.ErrNotFound
	}
	f.banners[b.ID] = b
	return &b, nil
}

func (f *fakeCatalogRepo) DeleteBanner(ctx context.Context, id int64) (*model.Banner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.banners[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	delete(f.banners, id)
	return &b, nil
}

type fakeContentStore struct {
	mu      sync.Mutex
	saved   []string
	removed []string
	failErr error
}

func (f *fakeContentStore) Save(ctx context.Context, originalName string, r io.Reader) (string, error) {
	if f.failErr != nil {
		return "", f.failErr
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	path := fmt.Sprintf("/uploads/%d-%s", len(f.saved)+1, originalName)
	f.saved = append(f.saved, path)
	return path, nil
}

func (f *fakeContentStore) Remove(ctx context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, path)
	return nil
}

func upload(name string) *model.Upload {
	data := []byte("fake image bytes")
	return &model.Upload{
		Filename: name,
		Size:     int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}
