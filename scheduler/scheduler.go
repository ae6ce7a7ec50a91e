// Package scheduler runs periodic maintenance jobs against the database.
package scheduler

import (
	"github.com/bouvin87/SystemBySelections-sub001/app"
	"github.com/bouvin87/SystemBySelections-sub001/log"
	"github.com/robfig/cron/v3"
)

// Start launches the background jobs and returns the runner so the caller
// can stop it on shutdown.
func Start(app app.App) *cron.Cron {
	c := cron.New()

	_, err := c.AddFunc("@every 15m", func() {
		if err := sweepOverdueDeviations(app); err != nil {
			log.Errorf("scheduler.overdue_sweep: %s", err)
		}
	})
	if err != nil {
		log.Fatal("scheduler.add_job:", err)
	}

	c.Start()
	log.Info("Scheduler started")
	return c
}

// sweepOverdueDeviations appends an overdue log entry, at most once, to
// every open deviation past its due date.
func sweepOverdueDeviations(app app.App) error {
	res, err := app.Exec(`
		INSERT INTO deviation_log (deviation_id, message)
		SELECT d.id, 'overdue'
		FROM deviation d
		WHERE d.due_date IS NOT NULL
			AND d.due_date < CURRENT_TIMESTAMP
			AND d.status != 'done'
			AND NOT EXISTS (
				SELECT 1 FROM deviation_log l
				WHERE l.deviation_id = d.id AND l.message = 'overdue'
			)`)
	if err != nil {
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n > 0 {
		log.Infof("scheduler.overdue_sweep: flagged %d deviations", n)
	}
	return nil
}
