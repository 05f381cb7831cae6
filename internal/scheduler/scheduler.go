// Package scheduler runs the periodic maintenance jobs: expiring
// overdue packages, warning users whose package is about to expire and
// sending class reminders. The same job functions back the /v1/cron
// trigger endpoints so an external scheduler can drive them instead of
// the built-in ticker.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/lunafit/studio-booking/internal/config"
	"github.com/lunafit/studio-booking/internal/notify"
	"github.com/lunafit/studio-booking/internal/queue"
	"github.com/lunafit/studio-booking/internal/repository"
)

// Scheduler owns the background sweeps.
type Scheduler struct {
	Cfg      config.Config
	ClientPk *repository.ClientPackageRepo
	Bookings *repository.BookingRepo
	Classes  *repository.ClassRepo
	Users    *repository.UserRepo
}

func New(cfg config.Config, clientPk *repository.ClientPackageRepo, bookings *repository.BookingRepo,
	classes *repository.ClassRepo, users *repository.UserRepo) *Scheduler {
	if clientPk == nil || bookings == nil || classes == nil || users == nil {
		panic("nil repository passed to scheduler.New")
	}
	return &Scheduler{Cfg: cfg, ClientPk: clientPk, Bookings: bookings, Classes: classes, Users: users}
}

// Run blocks, executing both sweeps on every tick until ctx is
// cancelled. One sweep failing does not stop the other.
func (s *Scheduler) Run(ctx context.Context) {
	interval := time.Duration(s.Cfg.SweepIntervalMinutes) * time.Minute
	log.Printf("scheduler: running every %s", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Println("scheduler: stopped")
			return
		case <-ticker.C:
			if err := s.SweepPackages(ctx); err != nil {
				log.Printf("scheduler: package sweep: %v", err)
			}
			if err := s.SweepReminders(ctx); err != nil {
				log.Printf("scheduler: reminder sweep: %v", err)
			}
		}
	}
}

// SweepPackages expires ledger entries past their expires_at and warns
// owners whose active package ends within the configured lookahead.
// Each entry is warned once; the notified flag flips only after a
// successful publish so a dead broker retries on the next tick.
func (s *Scheduler) SweepPackages(ctx context.Context) error {
	now := time.Now().UTC()

	expired, err := s.ClientPk.ExpireOverdue(ctx, now)
	if err != nil {
		return err
	}
	if expired > 0 {
		log.Printf("scheduler: expired %d overdue packages", expired)
	}

	lookahead := time.Duration(s.Cfg.ExpiryLookaheadDays) * 24 * time.Hour
	soon, err := s.ClientPk.ListExpiringSoon(ctx, now, lookahead)
	if err != nil {
		return err
	}
	for _, cp := range soon {
		u, err := s.Users.GetByID(ctx, cp.UserID)
		if err != nil {
			log.Printf("scheduler: load user %d: %v", cp.UserID, err)
			continue
		}
		ev := queue.NotificationEvent{
			Kind:           queue.KindPackageExpiring,
			UserID:         u.ID,
			RecipientEmail: u.Email,
			RecipientName:  u.FirstName,
			PackageTitle:   cp.Title,
			Unlimited:      cp.Unlimited(),
			ExpiresAt:      cp.ExpiresAt.UTC().Format(time.RFC3339),
			OccurredAt:     now.Format(time.RFC3339),
		}
		if cp.Credits != nil {
			ev.Credits = *cp.Credits
		}
		if err := notify.Publish(ctx, ev); err != nil {
			continue
		}
		if err := s.ClientPk.MarkExpiryNotified(ctx, cp.ID); err != nil {
			log.Printf("scheduler: mark expiry notified %d: %v", cp.ID, err)
		}
	}
	return nil
}

// SweepReminders emails active bookings whose class starts within the
// lookahead window. Walk-ins carry no address and are filtered out by
// the query.
func (s *Scheduler) SweepReminders(ctx context.Context) error {
	now := time.Now().UTC()
	lookahead := time.Duration(s.Cfg.ReminderLookaheadHours) * time.Hour

	due, err := s.Bookings.ListDueReminders(ctx, now, lookahead)
	if err != nil {
		return err
	}
	for _, b := range due {
		if b.UserID == nil {
			continue
		}
		u, err := s.Users.GetByID(ctx, *b.UserID)
		if err != nil {
			log.Printf("scheduler: load user %d: %v", *b.UserID, err)
			continue
		}
		cl, err := s.Classes.GetByID(ctx, b.ClassID)
		if err != nil {
			log.Printf("scheduler: load class %d: %v", b.ClassID, err)
			continue
		}
		ev := queue.NotificationEvent{
			Kind:           queue.KindClassReminder,
			UserID:         u.ID,
			RecipientEmail: u.Email,
			RecipientName:  u.FirstName,
			ClassTitle:     cl.Title,
			InstructorName: cl.InstructorName,
			StartsAt:       cl.StartsAt.UTC().Format(time.RFC3339),
			OccurredAt:     now.Format(time.RFC3339),
		}
		if err := notify.Publish(ctx, ev); err != nil {
			continue
		}
		if err := s.Bookings.MarkReminderSent(ctx, b.ID); err != nil {
			log.Printf("scheduler: mark reminder sent %d: %v", b.ID, err)
		}
	}
	return nil
}
