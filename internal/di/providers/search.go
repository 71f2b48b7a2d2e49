package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/listenupapp/bookclub-server/internal/config"
	"github.com/listenupapp/bookclub-server/internal/logger"
	"github.com/listenupapp/bookclub-server/internal/search"
	"github.com/listenupapp/bookclub-server/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
// ReviewIndex is nil when search is disabled.
type SearchIndexHandle struct {
	*search.ReviewIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	if h.ReviewIndex == nil {
		return nil
	}
	return h.Close()
}

// Indexer returns the index as a service.ReviewIndexer, or a nil interface
// when search is disabled.
func (h *SearchIndexHandle) Indexer() service.ReviewIndexer {
	if h.ReviewIndex == nil {
		return nil
	}
	return h.ReviewIndex
}

// ProvideSearchIndex provides the bleve review index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Search.Enabled {
		log.Info("Review search disabled by configuration")
		return &SearchIndexHandle{}, nil
	}

	index, err := search.NewReviewIndex(search.Options{
		Path:   cfg.Data.SearchIndexPath(),
		Logger: log.Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocCount()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{ReviewIndex: index}, nil
}

// TriggerSearchReindexIfNeeded fills an empty index from the database in
// the background. Should be called after all services are wired.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	reviews := do.MustInvoke[*service.ReviewService](i)
	log := do.MustInvoke[*logger.Logger](i)

	go func() {
		n, err := reviews.ReindexIfEmpty(context.Background())
		if err != nil {
			log.Error("Initial search reindex failed", "error", err)
			return
		}
		if n > 0 {
			log.Info("Initial search reindex completed", "reviews", n)
		}
	}()
}
