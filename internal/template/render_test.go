package template

import (
	"testing"

	"github.com/shopfront/backend/internal/model"
)

func TestRenderOrder(t *testing.T) {
	order := OrderData{
		Lines: []model.CheckoutLine{
			{Name: "Tea", Quantity: 2, Subtotal: 19.98},
			{Name: "Cup", Quantity: 1, Subtotal: 5},
		},
		Total: 24.98,
	}

	tests := []struct {
		name    string
		body    string
		pageURL string
		want    string
	}{
		{
			name: "default-template",
			want: "Hello! I would like to place an order for:\n\nTea (Qty: 2) - $19.98\nCup (Qty: 1) - $5.00\n\nTotal: $24.98",
		},
		{
			name:    "page-url-appended",
			body:    "Order total {{order.total}}",
			pageURL: "https://shop.example.com/cart",
			want:    "Order total 24.98\n\nPage URL: https://shop.example.com/cart",
		},
		{
			name:    "page-url-placeholder",
			body:    "{{order.item_count}} items from {{order.page_url}}",
			pageURL: "https://shop.example.com",
			want:    "3 items from https://shop.example.com",
		},
		{
			name: "unknown-placeholder-kept",
			body: "{{order.coupon}} {{order.total}}",
			want: "{{order.coupon}} 24.98",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := order
			data.PageURL = tt.pageURL
			if got := RenderOrder(tt.body, data); got != tt.want {
				t.Fatalf("RenderOrder() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatAmount(t *testing.T) {
	tests := map[float64]string{
		0:      "0.00",
		5:      "5.00",
		19.98:  "19.98",
		0.1:    "0.10",
		1234.5: "1234.50",
	}
	for in, want := range tests {
		if got := FormatAmount(in); got != want {
			t.Fatalf("FormatAmount(%v) = %q, want %q", in, got, want)
		}
	}
}
