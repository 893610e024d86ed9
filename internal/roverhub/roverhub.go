package roverhub

import (
	"context"

	"github.com/autopeer-io/roverhub/internal/roverhub/server"
	"github.com/autopeer-io/roverhub/internal/roverhub/storage"
	"github.com/autopeer-io/roverhub/pkg/log"
)

// HubServer is the assembled rover hub.
type HubServer struct {
	serverManager *server.Manager
	archive       *storage.MinIO
}

// Run serves until ctx is canceled.
func (s *HubServer) Run(ctx context.Context) error {
	if s.archive != nil {
		// Archiving is best effort; distress alerts never wait on it.
		if err := s.archive.CheckBucket(ctx); err != nil {
			log.Error(err, "Audio archive unavailable")
		}
	}

	log.Info("Rover hub starting")
	return s.serverManager.Start(ctx)
}
