package entity

// InvoiceStatus tracks an invoice through its lifecycle.
type InvoiceStatus string

const (
	InvoiceDraft  InvoiceStatus = "draft"
	InvoiceSent   InvoiceStatus = "sent"
	InvoiceSigned InvoiceStatus = "signed"
	InvoicePaid   InvoiceStatus = "paid"
)

// Invoice is one payout record for a contractor.
type Invoice struct {
	ContractorID  string        `json:"contractor_id" bson:"contractor_id"`
	InvoiceNumber int           `json:"invoice_number" bson:"invoice_number"`
	Month         string        `json:"month" bson:"month"` // "2026-08"
	Amount        float64       `json:"amount" bson:"amount"`
	Currency      Currency      `json:"currency" bson:"currency"`
	ArticleIDs    []string      `json:"article_ids" bson:"article_ids"`
	Status        InvoiceStatus `json:"status" bson:"status"`
}
