package services

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"viewora-deals/internal/domain"
	"viewora-deals/pkg/logger"
)

// PendingInterestReminder nudges brokers who still have requested or
// assigned interests. It runs on the leader instance only, so a scaled-out
// deployment sends one reminder per broker, not one per replica.
type PendingInterestReminder struct {
	cron       *cron.Cron
	users      domain.UserRepository
	dispatcher domain.NotificationDispatcher
	leader     domain.LeaderElection
	instanceID string
	schedule   string
	log        logger.Logger
}

func NewPendingInterestReminder(
	users domain.UserRepository,
	dispatcher domain.NotificationDispatcher,
	leader domain.LeaderElection,
	instanceID string,
	schedule string,
	log logger.Logger,
) *PendingInterestReminder {
	return &PendingInterestReminder{
		cron:       cron.New(cron.WithSeconds()),
		users:      users,
		dispatcher: dispatcher,
		leader:     leader,
		instanceID: instanceID,
		schedule:   schedule,
		log:        log,
	}
}

func (r *PendingInterestReminder) Start(ctx context.Context) error {
	r.log.Info("Starting pending interest reminder", "schedule", r.schedule)

	_, err := r.cron.AddFunc(r.schedule, func() {
		r.run(ctx)
	})
	if err != nil {
		return err
	}

	r.cron.Start()
	return nil
}

func (r *PendingInterestReminder) Stop() error {
	r.log.Info("Stopping pending interest reminder")
	r.cron.Stop()
	return nil
}

func (r *PendingInterestReminder) run(ctx context.Context) {
	isLeader, err := r.leader.IsLeader(ctx, r.instanceID)
	if err != nil {
		r.log.Error("Failed to check leadership", "error", err)
		return
	}
	if !isLeader {
		return
	}

	counts, err := r.users.PendingInterestCounts(ctx)
	if err != nil {
		r.log.Error("Failed to count pending interests", "error", err)
		return
	}

	for brokerID, count := range counts {
		if count == 0 {
			continue
		}

		r.dispatcher.Notify(ctx, brokerID,
			"Pending Property Interests",
			fmt.Sprintf("You have %d pending client interests. Please review them.", count),
			map[string]string{
				"type":          "daily_reminder",
				"pending_count": fmt.Sprintf("%d", count),
			})
	}

	r.log.Info("Pending interest reminder completed", "brokers", len(counts))
}
