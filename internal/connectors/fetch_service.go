package connectors

import (
	"context"

	"go.uber.org/zap"

	"nydb/internal/storage"
)

type FetchService struct {
	db        *storage.DB
	connector MailConnector
	store     *MailStoreService
	logger    *zap.Logger
}

type FetchResult struct {
	Fetched int
	Stored  int
}

func NewFetchService(db *storage.DB, mailDir string, connector MailConnector, logger *zap.Logger) *FetchService {
	return &FetchService{
		db:        db,
		connector: connector,
		store:     NewMailStoreService(db, mailDir),
		logger:    logger,
	}
}

// FetchAndStore pulls up to max messages from label. Stored counts messages that were
// not already on disk.
func (s *FetchService) FetchAndStore(ctx context.Context, label string, max int) (FetchResult, error) {
	messages, err := s.connector.FetchInbox(ctx, label, max)
	if err != nil {
		return FetchResult{}, err
	}

	stored := 0
	for _, msg := range messages {
		row, created, err := s.store.Store(msg)
		if err != nil {
			return FetchResult{}, err
		}
		if created {
			stored++
			s.logger.Info("stored message", zap.String("provider", row.Provider),
				zap.String("messageId", row.MessageID), zap.String("path", row.RawRef))
		}
	}

	return FetchResult{Fetched: len(messages), Stored: stored}, nil
}
