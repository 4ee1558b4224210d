package repository

import (
	"jobdash/internal/db"
	"jobdash/internal/model"
	"strings"
	"time"
)

type TriggerRepository struct{}

func NewTriggerRepository() *TriggerRepository {
	return &TriggerRepository{}
}

func (r *TriggerRepository) Save(runID string, req model.RunRequest, source model.TriggerSource, actor string, runErr error) error {
	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
	}

	trigger := model.Trigger{
		RunID:       runID,
		Scrapers:    strings.Join(req.Scrapers, ","),
		DBMode:      string(req.DBMode),
		Source:      source,
		Actor:       actor,
		ErrMsg:      errMsg,
		TriggeredAt: time.Now(),
	}

	return db.DB.Create(&trigger).Error
}

func (r *TriggerRepository) GetRecent(limit int) ([]model.Trigger, error) {
	var triggers []model.Trigger
	result := db.DB.
		Order("triggered_at desc").
		Limit(limit).
		Find(&triggers)

	return triggers, result.Error
}

func (r *TriggerRepository) GetFailed() ([]model.Trigger, error) {
	var triggers []model.Trigger
	result := db.DB.
		Where("err_msg <> ''").
		Order("triggered_at desc").
		Find(&triggers)

	return triggers, result.Error
}
