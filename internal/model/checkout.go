package model

type CheckoutItem struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type CheckoutRequest struct {
	Items   []CheckoutItem `json:"items"`
	PageURL string         `json:"pageUrl"`
}

type CheckoutLine struct {
	ProductID int64   `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	Subtotal  float64 `json:"subtotal"`
}

type CheckoutResponse struct {
	Message string         `json:"message"`
	Lines   []CheckoutLine `json:"lines"`
	Total   float64        `json:"total"`
	URL     string         `json:"url"`
}
