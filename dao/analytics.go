package dao

import (
	"encoding/json"
	"time"

	"github.com/asdine/storm/v3/q"
	"github.com/firstfin/sarah/model"
)

type AnalyticsDao interface {
	//Log appends one fact row; data is marshalled to JSON
	Log(eventType, phone string, data interface{}) error
	//CountByType returns the number of events of the given type
	CountByType(eventType string) (int, error)
	//GetRecent returns up to limit events newest first
	GetRecent(limit int) ([]model.AnalyticsEvent, error)
}

func NewAnalyticsDao(db Db) AnalyticsDao {
	return &analyticsDao{db: db}
}

type analyticsDao struct {
	db Db
}

func (d analyticsDao) Log(eventType, phone string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return d.db.Save(&model.AnalyticsEvent{
		EventType: eventType,
		Phone:     phone,
		Data:      string(payload),
		CreatedAt: time.Now(),
	})
}

func (d analyticsDao) CountByType(eventType string) (int, error) {
	count, err := d.db.Select(q.Eq("EventType", eventType)).Count(&model.AnalyticsEvent{})
	if notFound(err) {
		return 0, nil
	}
	return count, err
}

func (d analyticsDao) GetRecent(limit int) ([]model.AnalyticsEvent, error) {
	var events []model.AnalyticsEvent
	err := d.db.Select().OrderBy("CreatedAt").Reverse().Limit(limit).Find(&events)
	if notFound(err) {
		return nil, nil
	}
	return events, err
}
