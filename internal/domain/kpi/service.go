package kpi

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type Service struct {
	store StoreAPI
	now   func() time.Time
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store, now: time.Now}
}

// WithClock replaces the clock used to decide the current month.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// inputs holds the global configuration read once per computation so that
// every employee and month of a run sees the same weights.
type inputs struct {
	settings Settings
	weights  map[string]int
}

func (s *Service) loadInputs(ctx context.Context) (inputs, error) {
	settings, err := s.Settings(ctx)
	if err != nil {
		return inputs{}, err
	}
	weights, err := s.store.ListImportanceWeights(ctx)
	if err != nil {
		return inputs{}, err
	}
	return inputs{settings: settings, weights: WeightTable(weights)}, nil
}
