package mastery

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"studyroom/internal/models"
)

// Service fans prediction calls out across room members and aggregates the
// results into group statistics.
type Service struct {
	client *Client
	log    *zap.Logger
}

func NewService(client *Client, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{client: client, log: log}
}

// Collect queries mastery for every member concurrently. A failed query
// degrades to an empty mastery map for that member; the group result is
// best effort as of dispatch time.
func (s *Service) Collect(ctx context.Context, members []models.Member, prior *models.GroupMastery) *models.GroupMastery {
	individual := make(map[string]map[string]float64, len(members))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, m := range members {
		wg.Add(1)
		go func(m models.Member) {
			defer wg.Done()
			var priorMastery map[string]float64
			if prior != nil {
				priorMastery = prior.Individual[m.User.ID]
			}
			mastery, err := s.client.Predict(ctx, m.User.ID, priorMastery)
			if err != nil {
				s.log.Warn("mastery prediction failed",
					zap.String("user", m.User.ID), zap.Error(err))
				mastery = map[string]float64{}
			}
			mu.Lock()
			individual[m.User.ID] = mastery
			mu.Unlock()
		}(m)
	}
	wg.Wait()

	return &models.GroupMastery{
		Individual: individual,
		Aggregate:  Aggregate(individual),
		UpdatedAt:  time.Now(),
	}
}
