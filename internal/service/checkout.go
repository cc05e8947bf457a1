package service

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/shopfront/backend/internal/config"
	"github.com/shopfront/backend/internal/model"
	tmpl "github.com/shopfront/backend/internal/template"
)

const (
	whatsAppBaseURL = "https://wa.me/"
	maxQuantity     = 99
	maxCartLines    = 100
)

type productReader interface {
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
}

// CheckoutService prices a client-side cart against the catalog and builds
// the WhatsApp link that hands the order over to the shop. Nothing is persisted.
type CheckoutService struct {
	products productReader
	phone    string
	template string
}

func NewCheckoutService(products productReader, cfg config.CheckoutConfig) (*CheckoutService, error) {
	phone := strings.TrimLeft(strings.TrimSpace(cfg.WhatsAppPhone), "+")
	for _, r := range phone {
		if r < '0' || r > '9' {
			return nil, fmt.Errorf("%w: WHATSAPP_PHONE must be digits only", ErrMisconfigured)
		}
	}
	return &CheckoutService{
		products: products,
		phone:    phone,
		template: cfg.MessageTemplate,
	}, nil
}

func (s *CheckoutService) Checkout(ctx context.Context, req model.CheckoutRequest) (*model.CheckoutResponse, error) {
	if s.phone == "" {
		return nil, fmt.Errorf("%w: WHATSAPP_PHONE is not set", ErrMisconfigured)
	}
	if len(req.Items) == 0 {
		return nil, invalid("items", "Cart is empty")
	}
	if len(req.Items) > maxCartLines {
		return nil, invalid("items", "Too many cart lines")
	}

	lines := make([]model.CheckoutLine, 0, len(req.Items))
	total := 0.0
	for _, item := range req.Items {
		if item.ProductID <= 0 {
			return nil, invalid("productId", "Invalid product ID")
		}
		if item.Quantity < 1 || item.Quantity > maxQuantity {
			return nil, invalid("quantity", fmt.Sprintf("must be between 1 and %d", maxQuantity))
		}

		product, err := s.products.GetProduct(ctx, item.ProductID)
		if err != nil {
			return nil, mapRepoErr(err, "Product")
		}

		subtotal := roundCents(product.OfferPrice * float64(item.Quantity))
		lines = append(lines, model.CheckoutLine{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  item.Quantity,
			UnitPrice: product.OfferPrice,
			Subtotal:  subtotal,
		})
		total += subtotal
	}
	total = roundCents(total)

	message := tmpl.RenderOrder(s.template, tmpl.OrderData{
		Lines:   lines,
		Total:   total,
		PageURL: strings.TrimSpace(req.PageURL),
	})

	return &model.CheckoutResponse{
		Message: message,
		Lines:   lines,
		Total:   total,
		URL:     whatsAppBaseURL + s.phone + "?text=" + escapeText(message),
	}, nil
}

// escapeText percent-encodes like encodeURIComponent: spaces become %20, not '+'.
func escapeText(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
