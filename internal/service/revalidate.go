package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/invoice-dashboard/internal/domain"
)

// PagePurger drops cached pages.
type PagePurger interface {
	Purge(path string) error
	PurgeLocal(path string)
}

// EventBus carries revalidation events between instances.
type EventBus interface {
	Publish(ctx context.Context, event domain.RevalidateEvent) error
	Realtime(ctx context.Context, output chan<- domain.RevalidateEvent) error
}

// RevalidateService purges a path from the page cache and tells the other
// instances (and connected browsers) to do the same.
type RevalidateService struct {
	pages    PagePurger
	bus      EventBus
	instance string
	now      func() time.Time
}

// NewRevalidateService builds the service. bus may be nil for a single
// instance deployment.
func NewRevalidateService(pages PagePurger, bus EventBus) *RevalidateService {
	return &RevalidateService{
		pages:    pages,
		bus:      bus,
		instance: uuid.NewString(),
		now:      time.Now,
	}
}

func (s *RevalidateService) Revalidate(ctx context.Context, path string) error {
	ctx, span := tracer.Start(ctx, "Revalidate.Service.Revalidate")
	defer span.End()

	path = domain.NormalizePath(path)
	span.SetAttributes(attribute.String("path", path))

	var errs []error
	if err := s.pages.Purge(path); err != nil {
		errs = append(errs, pkgerrors.Wrap(err, "page purge failed"))
	}

	if s.bus != nil {
		err := s.bus.Publish(ctx, domain.RevalidateEvent{
			Type:   domain.RevalidateEventType,
			Path:   path,
			Origin: s.instance,
			At:     s.now(),
		})
		if err != nil {
			errs = append(errs, pkgerrors.Wrap(err, "revalidate publish failed"))
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// Listen purges local pages for paths revalidated by other instances until
// ctx is done.
func (s *RevalidateService) Listen(ctx context.Context) error {
	if s.bus == nil {
		<-ctx.Done()
		return ctx.Err()
	}

	events := make(chan domain.RevalidateEvent)
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.bus.Realtime(ctx, events)
	}()

	for {
		select {
		case err := <-errCh:
			return err
		case event := <-events:
			if event.Origin == s.instance {
				continue
			}
			s.pages.PurgeLocal(domain.NormalizePath(event.Path))
			slog.DebugContext(
				ctx, "Purged revalidated path",
				slog.String("path", event.Path),
				slog.String("origin", event.Origin),
				slog.String("module", "revalidate"),
			)
		}
	}
}
