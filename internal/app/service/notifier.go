package service

import (
	"context"
	"errors"

	"github.com/ikkim/storefront-backend/internal/app/model"
)

// OrderNotifier is told about every committed order. Implementations must not
// block for long; the caller is still serving the HTTP request.
type OrderNotifier interface {
	OrderCreated(ctx context.Context, order *model.Order) error
}

// MultiNotifier fans a notification out to every notifier and joins their errors.
type MultiNotifier []OrderNotifier

func (m MultiNotifier) OrderCreated(ctx context.Context, order *model.Order) error {
	var errs []error
	for _, notifier := range m {
		if err := notifier.OrderCreated(ctx, order); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
