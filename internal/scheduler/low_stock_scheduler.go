package scheduler

import (
	"context"
	"time"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

const runTimeout = 30 * time.Second

// LowStockLister is the slice of ProductService the scheduler needs
type LowStockLister interface {
	ListLowStock(ctx context.Context, threshold int) ([]model.Product, error)
}

// LowStockScheduler periodically reports products at or below the stock threshold
type LowStockScheduler struct {
	cron      *cron.Cron
	products  LowStockLister
	schedule  string
	threshold int
}

func NewLowStockScheduler(products LowStockLister, schedule string, threshold int) *LowStockScheduler {
	return &LowStockScheduler{
		cron:      cron.New(),
		products:  products,
		schedule:  schedule,
		threshold: threshold,
	}
}

// Start registers the job on the cron expression and starts the scheduler
func (s *LowStockScheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()

		if _, err := s.RunOnce(ctx); err != nil {
			logger.Error("Scheduled low stock check failed", err)
		}
	})
	if err != nil {
		logger.Error("Failed to add cron job for low stock check", err, map[string]interface{}{
			"schedule": s.schedule,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Low stock scheduler started", map[string]interface{}{
		"schedule":  s.schedule,
		"threshold": s.threshold,
	})
	return nil
}

// RunOnce performs a single check and returns the products it flagged
func (s *LowStockScheduler) RunOnce(ctx context.Context) ([]model.Product, error) {
	products, err := s.products.ListLowStock(ctx, s.threshold)
	if err != nil {
		return nil, err
	}

	for _, p := range products {
		logger.Warn("Product stock is low", map[string]interface{}{
			"product_id": p.ID,
			"name":       p.Name,
			"stock":      p.Stock,
			"threshold":  s.threshold,
		})
	}

	logger.Info("Low stock check completed", map[string]interface{}{
		"flagged": len(products),
	})
	return products, nil
}

func (s *LowStockScheduler) Stop() {
	logger.Info("Stopping low stock scheduler...")
	<-s.cron.Stop().Done()
	logger.Info("Low stock scheduler stopped")
}
