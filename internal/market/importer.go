package market

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/tradingquiz/internal/contracts"
	"github.com/wonny/tradingquiz/pkg/logger"
)

const (
	// ImportWindow is the number of daily points behind each imported sample.
	ImportWindow = 60
	// ImportTimeframe labels imported samples.
	ImportTimeframe = "1D"
)

// HistoryProvider is satisfied by *HistoryService.
type HistoryProvider interface {
	History(ctx context.Context, days int) (*History, error)
}

// Importer turns price history into quiz samples
type Importer struct {
	history HistoryProvider
	samples contracts.SampleRepository
	logger  *logger.Logger
	intn    func(int) int
	now     func() time.Time
}

// NewImporter creates an importer
func NewImporter(history HistoryProvider, samples contracts.SampleRepository, log *logger.Logger) *Importer {
	return &Importer{
		history: history,
		samples: samples,
		logger:  log,
		intn:    rand.IntN,
		now:     time.Now,
	}
}

// Import creates count samples from random windows of the last year.
func (im *Importer) Import(ctx context.Context, count int) (int, error) {
	if count <= 0 {
		return 0, fmt.Errorf("%w: count must be positive", contracts.ErrInvalidInput)
	}

	h, err := im.history.History(ctx, MaxDays)
	if err != nil {
		return 0, err
	}
	samples, err := im.Build(h, count)
	if err != nil {
		return 0, err
	}
	if err := im.samples.CreateBatch(ctx, samples); err != nil {
		return 0, fmt.Errorf("store samples: %w", err)
	}

	im.logger.WithFields(map[string]interface{}{
		"count":  len(samples),
		"source": h.Source,
	}).Info("Samples imported")
	return len(samples), nil
}

// Build cuts count windows out of h. Each sample's outcome is up when the
// last visible close is below the window's final close.
func (im *Importer) Build(h *History, count int) ([]*contracts.Sample, error) {
	window := ImportWindow
	if len(h.Data) < window {
		window = len(h.Data)
	}
	if window < 2 {
		return nil, fmt.Errorf("%w: history too short to import", contracts.ErrInvalidInput)
	}

	created := im.now().UTC()
	samples := make([]*contracts.Sample, 0, count)
	for i := 0; i < count; i++ {
		start := im.intn(len(h.Data) - window + 1)
		points := h.Data[start : start+window]

		cutoff, err := PickCutoff(len(points), im.intn)
		if err != nil {
			return nil, err
		}

		samples = append(samples, &contracts.Sample{
			ID:        uuid.NewString(),
			AssetName: h.Symbol,
			Timeframe: ImportTimeframe,
			ImageRef:  fmt.Sprintf("/charts/%s/%d-%d", h.Symbol, points[0].Time, points[cutoff-1].Time),
			Outcome:   OutcomeAt(points, cutoff),
			CreatedAt: created,
		})
	}
	return samples, nil
}
