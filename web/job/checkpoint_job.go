// Package job contains the scheduled maintenance tasks of the portal.
package job

import (
	"memberhub/database"
	"memberhub/logger"
)

// CheckpointJob periodically flushes the sqlite WAL so the main database
// file stays current between restarts.
type CheckpointJob struct{}

func NewCheckpointJob() *CheckpointJob {
	return new(CheckpointJob)
}

func (j *CheckpointJob) Run() {
	if err := database.Checkpoint(); err != nil {
		logger.Warning("wal checkpoint failed:", err)
	}
}
