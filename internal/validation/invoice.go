package validation

import (
	"errors"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/totegamma/invoice-dashboard/internal/domain"
)

const (
	FieldCustomerID = "customerId"
	FieldAmount     = "amount"
	FieldStatus     = "status"
)

var invoiceMessages = map[string]string{
	FieldCustomerID: "Please select a Customer.",
	FieldAmount:     "Please Enter amount greater than $0",
	FieldStatus:     "Please select an Invoice Status.",
}

// invoiceSchema is the user-editable part of an invoice. id and date are
// assigned by the server and are never read from the form.
type invoiceSchema struct {
	CustomerID string          `form:"customerId" validate:"required"`
	Amount     decimal.Decimal `form:"amount" validate:"gt=0"`
	Status     string          `form:"status" validate:"oneof=pending paid"`
}

// InvoiceInput is a validated invoice form.
type InvoiceInput struct {
	CustomerID string
	Amount     decimal.Decimal
	Status     domain.InvoiceStatus
}

// AmountInCents converts the dollar amount to integer cents, rounding half
// away from zero. ValidateInvoice guarantees the result is in
// 1..domain.MaxAmountCents.
func (in InvoiceInput) AmountInCents() int64 {
	return in.Amount.Shift(2).Round(0).IntPart()
}

// ValidateInvoice checks every field of an invoice form and collects one
// message per failing field. The returned FieldErrors is nil on success.
func ValidateInvoice(form url.Values) (InvoiceInput, domain.FieldErrors) {
	schema := invoiceSchema{
		CustomerID: strings.TrimSpace(form.Get(FieldCustomerID)),
		Amount:     coerceAmount(form.Get(FieldAmount)),
		Status:     form.Get(FieldStatus),
	}

	fieldErrors := domain.FieldErrors{}
	err := validate.Struct(schema)
	if err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return InvoiceInput{}, domain.FieldErrors{"": {err.Error()}}
		}
		for _, fe := range verrs {
			field := fe.Field()
			msg, ok := invoiceMessages[field]
			if !ok {
				msg = fe.Error()
			}
			fieldErrors[field] = append(fieldErrors[field], msg)
		}
	}

	// the stored cents must be positive and fit the amount column
	if _, failed := fieldErrors[FieldAmount]; !failed && !centsInRange(schema.Amount) {
		fieldErrors[FieldAmount] = append(fieldErrors[FieldAmount], invoiceMessages[FieldAmount])
	}

	if len(fieldErrors) > 0 {
		return InvoiceInput{}, fieldErrors
	}

	return InvoiceInput{
		CustomerID: schema.CustomerID,
		Amount:     schema.Amount,
		Status:     domain.InvoiceStatus(schema.Status),
	}, nil
}

var maxAmountCents = decimal.NewFromInt(domain.MaxAmountCents)

func centsInRange(amount decimal.Decimal) bool {
	cents := amount.Shift(2).Round(0)
	return cents.Sign() > 0 && cents.LessThanOrEqual(maxAmountCents)
}

// coerceAmount turns the submitted amount into a number. Blank and
// unparsable input become zero so the positivity rule rejects them.
func coerceAmount(raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}
