package repository

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/totegamma/invoice-dashboard/internal/domain"
	"github.com/totegamma/invoice-dashboard/internal/infra/database/models"
)

const invoicesPerPage = 6

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// amountColumn narrows cents to the int4 amount column.
func amountColumn(cents int64) (int32, error) {
	if cents < 1 || cents > domain.MaxAmountCents {
		return 0, errors.Errorf("amount %d is out of range", cents)
	}
	return int32(cents), nil
}

func (r *InvoiceRepository) Create(ctx context.Context, invoice domain.Invoice) (domain.Invoice, error) {
	amount, err := amountColumn(invoice.Amount)
	if err != nil {
		return domain.Invoice{}, errors.Wrap(err, "InvoiceRepository.Create")
	}

	date, err := time.Parse(time.DateOnly, invoice.Date)
	if err != nil {
		return domain.Invoice{}, errors.Wrap(err, "invalid invoice date")
	}

	// INSERT INTO invoices (customer_id, amount, status, date) VALUES (...) RETURNING id
	model := models.Invoice{
		CustomerID: invoice.CustomerID,
		Amount:     amount,
		Status:     string(invoice.Status),
		Date:       date,
	}
	err = r.db.WithContext(ctx).
		Omit(clause.Associations).
		Create(&model).Error
	if err != nil {
		return domain.Invoice{}, errors.Wrap(err, "InvoiceRepository.Create")
	}

	invoice.ID = model.ID
	return invoice, nil
}

func (r *InvoiceRepository) Update(ctx context.Context, id string, customerID string, cents int64, status domain.InvoiceStatus) error {
	amount, err := amountColumn(cents)
	if err != nil {
		return errors.Wrap(err, "InvoiceRepository.Update")
	}

	err = r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"customer_id": customerID,
			"amount":      amount,
			"status":      string(status),
		}).Error
	if err != nil {
		return errors.Wrap(err, "InvoiceRepository.Update")
	}
	return nil
}

// Delete removes the invoice with the given id. Removing nothing is not an
// error.
func (r *InvoiceRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).
		Delete(&models.Invoice{}, "id = ?", id).Error
	if err != nil {
		return errors.Wrap(err, "InvoiceRepository.Delete")
	}
	return nil
}

type invoiceRow struct {
	ID         string    `gorm:"column:id"`
	CustomerID string    `gorm:"column:customer_id"`
	Amount     int64     `gorm:"column:amount"`
	Status     string    `gorm:"column:status"`
	Date       time.Time `gorm:"column:date"`
	Name       string    `gorm:"column:name"`
	Email      string    `gorm:"column:email"`
	ImageURL   string    `gorm:"column:image_url"`
}

func (r *InvoiceRepository) filtered(ctx context.Context, query string) *gorm.DB {
	tx := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Joins("JOIN customers ON invoices.customer_id = customers.id")

	if query != "" {
		pattern := "%" + query + "%"
		tx = tx.Where(
			"customers.name ILIKE ? OR customers.email ILIKE ? OR invoices.amount::text ILIKE ? OR invoices.date::text ILIKE ? OR invoices.status ILIKE ?",
			pattern, pattern, pattern, pattern, pattern,
		)
	}
	return tx
}

// List returns one page of invoices joined with their customer, newest first.
func (r *InvoiceRepository) List(ctx context.Context, query string, page int) ([]domain.InvoiceRow, error) {
	if page < 1 {
		page = 1
	}

	var rows []invoiceRow
	err := r.filtered(ctx, query).
		Select("invoices.id, invoices.customer_id, invoices.amount, invoices.status, invoices.date, customers.name, customers.email, customers.image_url").
		Order("invoices.date DESC").
		Order("invoices.id").
		Limit(invoicesPerPage).
		Offset((page - 1) * invoicesPerPage).
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "InvoiceRepository.List")
	}

	result := make([]domain.InvoiceRow, 0, len(rows))
	for _, row := range rows {
		result = append(result, domain.InvoiceRow{
			Invoice: domain.Invoice{
				ID:         row.ID,
				CustomerID: row.CustomerID,
				Amount:     row.Amount,
				Status:     domain.InvoiceStatus(row.Status),
				Date:       row.Date.Format(time.DateOnly),
			},
			Name:     row.Name,
			Email:    row.Email,
			ImageURL: row.ImageURL,
		})
	}
	return result, nil
}

func (r *InvoiceRepository) CountPages(ctx context.Context, query string) (int, error) {
	var count int64
	err := r.filtered(ctx, query).Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "InvoiceRepository.CountPages")
	}
	return pageCount(count), nil
}

func pageCount(count int64) int {
	return int(math.Ceil(float64(count) / invoicesPerPage))
}
