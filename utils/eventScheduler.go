package utils

import (
	"log"
	"time"

	"ninma/models"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// InitializeEventScheduler starts the event lifecycle sweep on the given cron
// spec. The caller stops the returned scheduler on shutdown.
func InitializeEventScheduler(db *gorm.DB, spec string) (*cron.Cron, error) {
	log.Println("[EVENT-SCHEDULER] Initializing event lifecycle scheduler...")

	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		log.Println("[EVENT-SCHEDULER] Running event lifecycle sweep...")
		if _, _, err := AdvanceEventLifecycle(db, time.Now().UTC()); err != nil {
			log.Printf("[EVENT-SCHEDULER] Sweep failed: %v", err)
		}
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	log.Printf("[EVENT-SCHEDULER] Event scheduler started - spec %q", spec)
	return c, nil
}

// AdvanceEventLifecycle completes events whose end has passed and moves
// running OPEN/CLOSED events to IN_PROGRESS.
func AdvanceEventLifecycle(db *gorm.DB, now time.Time) (started, completed int64, err error) {
	result := db.Model(&models.Event{}).
		Where("status IN ? AND end_date < ?", []string{models.EventOpen, models.EventClosed, models.EventInProgress}, now).
		Update("status", models.EventCompleted)
	if result.Error != nil {
		return 0, 0, result.Error
	}
	completed = result.RowsAffected

	result = db.Model(&models.Event{}).
		Where("status IN ? AND start_date <= ? AND end_date >= ?", []string{models.EventOpen, models.EventClosed}, now, now).
		Update("status", models.EventInProgress)
	if result.Error != nil {
		return 0, completed, result.Error
	}
	started = result.RowsAffected

	if started > 0 || completed > 0 {
		log.Printf("[EVENT-SCHEDULER] %d event(s) started, %d completed", started, completed)
	}
	return started, completed, nil
}
