package preferences

import (
	"fmt"
	"log/slog"

	"github.com/jsamuelsen/quote-gallery/internal/ports"
)

// Prober is implemented by stores that can check they are usable before
// being selected.
type Prober interface {
	Probe() error
}

// FirstUsable returns the first candidate that passes its probe. Stores
// without a Probe method are assumed usable. When every candidate fails a
// MemoryStore is returned, so preferences still work for the session.
func FirstUsable(logger *slog.Logger, candidates ...ports.PreferenceStore) ports.PreferenceStore {
	if logger == nil {
		logger = slog.Default()
	}

	for _, store := range candidates {
		if store == nil {
			continue
		}

		if p, ok := store.(Prober); ok {
			if err := p.Probe(); err != nil {
				logger.Warn("preference store unusable",
					slog.String("store", fmt.Sprintf("%T", store)),
					slog.Any("error", err),
				)
				continue
			}
		}

		logger.Debug("preference store selected", slog.String("store", fmt.Sprintf("%T", store)))

		return store
	}

	logger.Warn("no persistent preference store; preferences last for this session only")

	return NewMemoryStore()
}
