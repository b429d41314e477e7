package models

// Product is a financial product record as stored by the backend.
// The backend is authoritative for final stored values; a Product built
// client-side is only ever a draft.
type Product struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Logo         string `json:"logo"`
	DateRelease  Date   `json:"date_release"`
	DateRevision Date   `json:"date_revision"`
}

// ListResponse is the envelope returned by GET /bp/products.
type ListResponse struct {
	Data []Product `json:"data"`
}

// MutationResponse is the envelope returned by create and update.
type MutationResponse struct {
	Message string  `json:"message"`
	Data    Product `json:"data"`
}
