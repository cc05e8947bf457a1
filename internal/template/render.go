// Package template renders the WhatsApp order message.
//
// Supported variables:
//
//	{{order.lines}}, {{order.total}}, {{order.item_count}}, {{order.page_url}}
package template

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopfront/backend/internal/model"
)

// DefaultOrderMessage is the greeting sent when no custom template is configured.
const DefaultOrderMessage = "Hello! I would like to place an order for:\n\n{{order.lines}}\n\nTotal: ${{order.total}}"

// OrderData - values substituted into an order message template
type OrderData struct {
	Lines   []model.CheckoutLine
	Total   float64
	PageURL string
}

// ItemCount - total quantity over all lines
func (o OrderData) ItemCount() int {
	n := 0
	for _, l := range o.Lines {
		n += l.Quantity
	}
	return n
}

// FormatLine renders one cart line as "<name> (Qty: <q>) - $<subtotal>".
func FormatLine(line model.CheckoutLine) string {
	return fmt.Sprintf("%s (Qty: %d) - $%s", line.Name, line.Quantity, FormatAmount(line.Subtotal))
}

// FormatAmount renders money with two decimals.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// RenderOrder - replaces template variables with order values
//
// An empty body falls back to DefaultOrderMessage. When the template does not
// mention {{order.page_url}} but a page URL is present, it is appended.
func RenderOrder(body string, order OrderData) string {
	if strings.TrimSpace(body) == "" {
		body = DefaultOrderMessage
	}

	lines := make([]string, 0, len(order.Lines))
	for _, l := range order.Lines {
		lines = append(lines, FormatLine(l))
	}

	pairs := []string{
		"{{order.lines}}", strings.Join(lines, "\n"),
		"{{order.total}}", FormatAmount(order.Total),
		"{{order.item_count}}", strconv.Itoa(order.ItemCount()),
		"{{order.page_url}}", order.PageURL,
	}

	out := strings.NewReplacer(pairs...).Replace(body)
	if order.PageURL != "" && !strings.Contains(body, "{{order.page_url}}") {
		out += "\n\nPage URL: " + order.PageURL
	}
	return out
}
