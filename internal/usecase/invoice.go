package usecase

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/invoice-dashboard/internal/domain"
	"github.com/totegamma/invoice-dashboard/internal/validation"
)

var tracer = otel.Tracer("usecase")

type InvoiceUsecase struct {
	repo        InvoiceRepository
	revalidator Revalidator
	now         func() time.Time
}

func NewInvoiceUsecase(repo InvoiceRepository, revalidator Revalidator) *InvoiceUsecase {
	return &InvoiceUsecase{
		repo:        repo,
		revalidator: revalidator,
		now:         time.Now,
	}
}

func listingRedirect() *domain.Redirect {
	return &domain.Redirect{Location: domain.InvoicesRoute, Type: domain.RedirectReplace}
}

// Create validates the form, inserts a new invoice dated today and, on
// success, invalidates the listing and asks for a replace navigation to it.
// The previous state is accepted for form-action compatibility and unused.
func (uc *InvoiceUsecase) Create(ctx context.Context, _ domain.ActionState, form url.Values) domain.ActionState {
	ctx, span := tracer.Start(ctx, "Invoice.Usecase.Create")
	defer span.End()

	input, fieldErrors := validation.ValidateInvoice(form)
	if fieldErrors != nil {
		return domain.ActionState{
			Errors:  fieldErrors,
			Message: domain.MessageCreateMissingField,
		}
	}

	invoice := domain.Invoice{
		CustomerID: input.CustomerID,
		Amount:     input.AmountInCents(),
		Status:     input.Status,
		Date:       uc.now().UTC().Format(time.DateOnly),
	}

	created, err := uc.repo.Create(ctx, invoice)
	if err != nil {
		span.RecordError(err)
		slog.ErrorContext(
			ctx, "failed to create invoice",
			slog.String("error", err.Error()),
			slog.String("module", "invoice"),
		)
		return domain.ActionState{Message: domain.MessageCreateFailed}
	}
	span.SetAttributes(attribute.String("invoice.id", created.ID))

	uc.revalidate(ctx)
	return domain.ActionState{Redirect: listingRedirect()}
}

// Update validates the form and rewrites customer, amount and status of the
// invoice. Invalid input is reported the same way Create reports it.
func (uc *InvoiceUsecase) Update(ctx context.Context, id string, form url.Values) domain.ActionState {
	ctx, span := tracer.Start(ctx, "Invoice.Usecase.Update")
	defer span.End()
	span.SetAttributes(attribute.String("invoice.id", id))

	input, fieldErrors := validation.ValidateInvoice(form)
	if fieldErrors != nil {
		return domain.ActionState{
			Errors:  fieldErrors,
			Message: domain.MessageUpdateMissingField,
		}
	}

	err := uc.repo.Update(ctx, id, input.CustomerID, input.AmountInCents(), input.Status)
	if err != nil {
		span.RecordError(err)
		slog.ErrorContext(
			ctx, "failed to update invoice",
			slog.String("id", id),
			slog.String("error", err.Error()),
			slog.String("module", "invoice"),
		)
		return domain.ActionState{Message: domain.MessageUpdateFailed}
	}

	uc.revalidate(ctx)
	return domain.ActionState{Redirect: listingRedirect()}
}

// Delete removes the invoice and invalidates the listing. Deleting an id
// that does not exist is not an error. No navigation is requested.
func (uc *InvoiceUsecase) Delete(ctx context.Context, id string) domain.ActionState {
	ctx, span := tracer.Start(ctx, "Invoice.Usecase.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("invoice.id", id))

	err := uc.repo.Delete(ctx, id)
	if err != nil {
		span.RecordError(err)
		slog.ErrorContext(
			ctx, "failed to delete invoice",
			slog.String("id", id),
			slog.String("error", err.Error()),
			slog.String("module", "invoice"),
		)
		return domain.ActionState{Message: domain.MessageDeleteFailed}
	}

	uc.revalidate(ctx)
	return domain.ActionState{}
}

// List returns one page of the invoice listing.
func (uc *InvoiceUsecase) List(ctx context.Context, query string, page int) (domain.InvoicePage, error) {
	ctx, span := tracer.Start(ctx, "Invoice.Usecase.List")
	defer span.End()

	if page < 1 {
		page = 1
	}

	invoices, err := uc.repo.List(ctx, query, page)
	if err != nil {
		span.RecordError(err)
		return domain.InvoicePage{}, err
	}
	if invoices == nil {
		invoices = []domain.InvoiceRow{}
	}

	totalPages, err := uc.repo.CountPages(ctx, query)
	if err != nil {
		span.RecordError(err)
		return domain.InvoicePage{}, err
	}

	return domain.InvoicePage{
		Invoices:   invoices,
		Page:       page,
		TotalPages: totalPages,
	}, nil
}

// revalidate runs after the write committed. A failure leaves stale pages
// behind until they expire, so it is logged rather than reported.
func (uc *InvoiceUsecase) revalidate(ctx context.Context) {
	err := uc.revalidator.Revalidate(ctx, domain.InvoicesPath)
	if err != nil {
		slog.WarnContext(
			ctx, "failed to revalidate invoice listing",
			slog.String("error", err.Error()),
			slog.String("module", "invoice"),
		)
	}
}
