package pipeline

import (
	"time"

	"git.home.luguber.info/inful/sandboxer/internal/models"
)

// MultiObserver fans callbacks out to every observer in order.
type MultiObserver []models.RunObserver

func (m MultiObserver) OnStageStart(stage models.StageName) {
	for _, o := range m {
		o.OnStageStart(stage)
	}
}

func (m MultiObserver) OnStageComplete(stage models.StageName, d time.Duration, res models.StageResult) {
	for _, o := range m {
		o.OnStageComplete(stage, d, res)
	}
}

func (m MultiObserver) OnRunComplete(report *models.Report) {
	for _, o := range m {
		o.OnRunComplete(report)
	}
}
