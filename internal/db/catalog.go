package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shopfront/backend/internal/model"
)

func (db *Postgres) EnsureCatalogSchema(ctx context.Context) error {
	queries := []string{
		`
		CREATE TABLE IF NOT EXISTS categories (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			image TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
		`,
		`
		CREATE TABLE IF NOT EXISTS products (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL,
			mrp DOUBLE PRECISION NOT NULL,
			offer_price DOUBLE PRECISION NOT NULL,
			stock INTEGER NOT NULL,
			category_id BIGINT NOT NULL REFERENCES categories(id) ON DELETE RESTRICT,
			images TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
		`,
		`CREATE INDEX IF NOT EXISTS products_category_id_idx ON products(category_id)`,
		`
		CREATE TABLE IF NOT EXISTS banners (
			id BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			image_url TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
		`,
	}

	for _, query := range queries {
		if _, err := db.Pool.Exec(ctx, query); err != nil {
			return err
		}
	}
	return nil
}

// --- categories ---

const categoryColumns = `id, name, image, created_at, updated_at`

func scanCategory(row pgx.Row) (*model.Category, error) {
	var c model.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Image, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, translateErr(err)
	}
	return &c, nil
}

func (db *Postgres) CreateCategory(ctx context.Context, name, image string) (*model.Category, error) {
	query := `
		INSERT INTO categories (name, image, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING ` + categoryColumns
	return scanCategory(db.Pool.QueryRow(ctx, query, name, image))
}

func (db *Postgres) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`
	return scanCategory(db.Pool.QueryRow(ctx, query, id))
}

func (db *Postgres) ListCategories(ctx context.Context) ([]model.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories ORDER BY created_at DESC`
	rows, err := db.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *c)
	}
	return list, rows.Err()
}

func (db *Postgres) UpdateCategory(ctx context.Context, c model.Category) (*model.Category, error) {
	query := `
		UPDATE categories
		SET name = $2, image = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + categoryColumns
	return scanCategory(db.Pool.QueryRow(ctx, query, c.ID, c.Name, c.Image))
}

func (db *Postgres) DeleteCategory(ctx context.Context, id int64) (*model.Category, error) {
	query := `DELETE FROM categories WHERE id = $1 RETURNING ` + categoryColumns
	return scanCategory(db.Pool.QueryRow(ctx, query, id))
}

// --- products ---

const productColumns = `p.id, p.name, p.description, p.mrp, p.offer_price, p.stock, p.category_id, p.images, p.created_at, p.updated_at`

func scanProduct(row pgx.Row) (*model.Product, error) {
	var p model.Product
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.MRP,
		&p.OfferPrice,
		&p.Stock,
		&p.CategoryID,
		&p.Images,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, translateErr(err)
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	return &p, nil
}

func scanProductWithCategory(row pgx.Row) (*model.Product, error) {
	var p model.Product
	var c model.Category
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.MRP,
		&p.OfferPrice,
		&p.Stock,
		&p.CategoryID,
		&p.Images,
		&p.CreatedAt,
		&p.UpdatedAt,
		&c.ID,
		&c.Name,
		&c.Image,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, translateErr(err)
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	p.Category = &c
	return &p, nil
}

func collectProducts(rows pgx.Rows, scan func(pgx.Row) (*model.Product, error)) ([]model.Product, error) {
	defer rows.Close()

	list := []model.Product{}
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}

func (db *Postgres) CreateProduct(ctx context.Context, p model.Product) (*model.Product, error) {
	query := `
		INSERT INTO products AS p (name, description, mrp, offer_price, stock, category_id, images, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING ` + productColumns
	return scanProduct(db.Pool.QueryRow(ctx, query,
		p.Name, p.Description, p.MRP, p.OfferPrice, p.Stock, p.CategoryID, p.Images,
	))
}

// GetProduct returns the product with its category populated.
func (db *Postgres) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	query := `
		SELECT ` + productColumns + `, c.id, c.name, c.image, c.created_at, c.updated_at
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1`
	return scanProductWithCategory(db.Pool.QueryRow(ctx, query, id))
}

// ListProducts returns every product with its category populated.
func (db *Postgres) ListProducts(ctx context.Context) ([]model.Product, error) {
	query := `
		SELECT ` + productColumns + `, c.id, c.name, c.image, c.created_at, c.updated_at
		FROM products p
		JOIN categories c ON c.id = p.category_id
		ORDER BY p.created_at DESC`
	rows, err := db.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows, scanProductWithCategory)
}

func (db *Postgres) ListProductsByCategory(ctx context.Context, categoryID int64) ([]model.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products p
		WHERE p.category_id = $1
		ORDER BY p.created_at DESC`
	rows, err := db.Pool.Query(ctx, query, categoryID)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows, scanProduct)
}

// SampleInStockProducts picks up to limit random products that still have stock.
func (db *Postgres) SampleInStockProducts(ctx context.Context, limit int) ([]model.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products p
		WHERE p.stock > 0
		ORDER BY random()
		LIMIT $1`
	rows, err := db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows, scanProduct)
}

func (db *Postgres) UpdateProduct(ctx context.Context, p model.Product) (*model.Product, error) {
	query := `
		UPDATE products AS p
		SET name = $2, description = $3, mrp = $4, offer_price = $5, stock = $6,
			category_id = $7, images = $8, updated_at = NOW()
		WHERE p.id = $1
		RETURNING ` + productColumns
	return scanProduct(db.Pool.QueryRow(ctx, query,
		p.ID, p.Name, p.Description, p.MRP, p.OfferPrice, p.Stock, p.CategoryID, p.Images,
	))
}

func (db *Postgres) DeleteProduct(ctx context.Context, id int64) (*model.Product, error) {
	query := `DELETE FROM products AS p WHERE p.id = $1 RETURNING ` + productColumns
	return scanProduct(db.Pool.QueryRow(ctx, query, id))
}

// --- banners ---

const bannerColumns = `id, title, image_url, created_at, updated_at`

func scanBanner(row pgx.Row) (*model.Banner, error) {
	var b model.Banner
	if err := row.Scan(&b.ID, &b.Title, &b.ImageURL, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, translateErr(err)
	}
	return &b, nil
}

func (db *Postgres) CreateBanner(ctx context.Context, title, imageURL string) (*model.Banner, error) {
	query := `
		INSERT INTO banners (title, image_url, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING ` + bannerColumns
	return scanBanner(db.Pool.QueryRow(ctx, query, title, imageURL))
}

func (db *Postgres) GetBanner(ctx context.Context, id int64) (*model.Banner, error) {
	query := `SELECT ` + bannerColumns + ` FROM banners WHERE id = $1`
	return scanBanner(db.Pool.QueryRow(ctx, query, id))
}

func (db *Postgres) ListBanners(ctx context.Context) ([]model.Banner, error) {
	query := `SELECT ` + bannerColumns + ` FROM banners ORDER BY created_at DESC`
	rows, err := db.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.Banner{}
	for rows.Next() {
		b, err := scanBanner(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *b)
	}
	return list, rows.Err()
}

func (db *Postgres) UpdateBanner(ctx context.Context, b model.Banner) (*model.Banner, error) {
	query := `
		UPDATE banners
		SET title = $2, image_url = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + bannerColumns
	return scanBanner(db.Pool.QueryRow(ctx, query, b.ID, b.Title, b.ImageURL))
}

func (db *Postgres) DeleteBanner(ctx context.Context, id int64) (*model.Banner, error) {
	query := `DELETE FROM banners WHERE id = $1 RETURNING ` + bannerColumns
	return scanBanner(db.Pool.QueryRow(ctx, query, id))
}
