package domain

import "math"

type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "pending"
	InvoiceStatusPaid    InvoiceStatus = "paid"
)

// MaxAmountCents is the largest amount the invoices.amount column (int4)
// can hold.
const MaxAmountCents = math.MaxInt32

// Invoice is a stored invoice. Amount is in cents and Date is YYYY-MM-DD.
// ID and Date are assigned on creation and never change.
type Invoice struct {
	ID         string        `json:"id"`
	CustomerID string        `json:"customerId"`
	Amount     int64         `json:"amount"`
	Status     InvoiceStatus `json:"status"`
	Date       string        `json:"date"`
}

// Customer is referenced by invoices. It is read-only here.
type Customer struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	ImageURL string `json:"imageUrl"`
}

// InvoiceRow is one line of the invoice listing.
type InvoiceRow struct {
	Invoice
	Name     string `json:"name"`
	Email    string `json:"email"`
	ImageURL string `json:"imageUrl"`
}

type InvoicePage struct {
	Invoices   []InvoiceRow `json:"invoices"`
	Page       int          `json:"page"`
	TotalPages int          `json:"totalPages"`
}
