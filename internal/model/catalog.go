package model

import (
	"io"
	"time"
)

type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	MRP         float64   `json:"mrp"`
	OfferPrice  float64   `json:"offerPrice"`
	Stock       int       `json:"stock"`
	CategoryID  int64     `json:"categoryId"`
	Category    *Category `json:"category,omitempty"`
	Images      []string  `json:"images"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Banner struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	ImageURL  string    `json:"imageUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProductForm carries the raw product form fields. On update an empty field
// leaves the stored value unchanged.
type ProductForm struct {
	Name        string `form:"name"`
	Description string `form:"description"`
	MRP         string `form:"mrp"`
	OfferPrice  string `form:"offerPrice"`
	Stock       string `form:"stock"`
	Category    string `form:"category"`
}

// Upload is a file received from a multipart form.
type Upload struct {
	Filename string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

type CategoryResponse struct {
	Message  string    `json:"message"`
	Category *Category `json:"category"`
}

type CategoryListResponse struct {
	Message    string     `json:"message"`
	Categories []Category `json:"categories"`
}

type ProductResponse struct {
	Message string   `json:"message"`
	Product *Product `json:"product"`
}

type ProductListResponse struct {
	Success  bool      `json:"success"`
	Products []Product `json:"products"`
}

type BannerResponse struct {
	Message string  `json:"message"`
	Banner  *Banner `json:"banner"`
}

type BannerListResponse struct {
	Message string   `json:"message"`
	Banners []Banner `json:"banners"`
}
