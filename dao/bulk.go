package dao

import (
	"strings"
	"time"

	"github.com/asdine/storm/v3/q"
	"github.com/firstfin/sarah/model"
)

type CampaignStats struct {
	Total   int `json:"total"`
	Sent    int `json:"sent"`
	Pending int `json:"pending"`
	Failed  int `json:"failed"`
}

type BulkDao interface {
	//SaveAll persists a campaign's job rows in a single transaction
	SaveAll(jobs []*model.BulkMessage) ([]uint32, error)
	//PendingDue returns up to limit pending jobs due at now, earliest scheduled first
	PendingDue(now time.Time, limit int) ([]model.BulkMessage, error)
	//MarkSent finalizes a job as delivered
	MarkSent(id uint32) error
	//MarkFailed finalizes a job with the delivery error
	MarkFailed(id uint32, errMsg string) error
	//MarkBlocked finalizes a job refused by the blacklist
	MarkBlocked(id uint32, reason string) error
	//CancelPending flips every pending job to cancelled, returns the count
	CancelPending(reason string) (int, error)
	//CampaignStats aggregates per-status counts for one campaign
	CampaignStats(campaignName string) (CampaignStats, error)
	//StatusCounts aggregates counts across all campaigns keyed by status
	StatusCounts() (map[string]int, error)
	//DeleteByPhoneContaining removes every job whose recipient contains the fragment
	DeleteByPhoneContaining(fragment string) (int, error)
}

func NewBulkDao(db Db) BulkDao {
	return &bulkDao{db: db}
}

type bulkDao struct {
	db Db
}

func (d bulkDao) SaveAll(jobs []*model.BulkMessage) ([]uint32, error) {
	tx, err := d.db.Begin(true)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	ids := make([]uint32, 0, len(jobs))
	for _, job := range jobs {
		job.CreatedAt = time.Now()
		if err := tx.Save(job); err != nil {
			return nil, err
		}
		ids = append(ids, job.Id)
	}

	return ids, tx.Commit()
}

func (d bulkDao) PendingDue(now time.Time, limit int) ([]model.BulkMessage, error) {
	var jobs []model.BulkMessage
	err := d.db.Select(q.Eq("Status", model.BulkPending), q.Lte("ScheduledAt", now)).
		OrderBy("ScheduledAt").Limit(limit).Find(&jobs)
	if notFound(err) {
		return nil, nil
	}
	return jobs, err
}

func (d bulkDao) MarkSent(id uint32) error {
	return d.finalize(id, model.BulkSent, "", time.Now())
}

func (d bulkDao) MarkFailed(id uint32, errMsg string) error {
	return d.finalize(id, model.BulkFailed, errMsg, time.Time{})
}

func (d bulkDao) MarkBlocked(id uint32, reason string) error {
	return d.finalize(id, model.BulkBlocked, reason, time.Time{})
}

func (d bulkDao) finalize(id uint32, status, errMsg string, sentAt time.Time) error {
	var job model.BulkMessage
	if err := d.db.One("Id", id, &job); err != nil {
		return err
	}
	job.Status = status
	job.ErrorMessage = errMsg
	if !sentAt.IsZero() {
		job.SentAt = sentAt
	}
	return d.db.Update(&job)
}

func (d bulkDao) CancelPending(reason string) (int, error) {
	var jobs []model.BulkMessage
	err := d.db.Find("Status", model.BulkPending, &jobs)
	if notFound(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	tx, err := d.db.Begin(true)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	for i := range jobs {
		jobs[i].Status = model.BulkCancelled
		jobs[i].ErrorMessage = reason
		if err := tx.Update(&jobs[i]); err != nil {
			return 0, err
		}
	}
	return len(jobs), tx.Commit()
}

func (d bulkDao) CampaignStats(campaignName string) (CampaignStats, error) {
	var jobs []model.BulkMessage
	err := d.db.Find("CampaignName", campaignName, &jobs)
	if notFound(err) {
		return CampaignStats{}, nil
	}
	if err != nil {
		return CampaignStats{}, err
	}

	stats := CampaignStats{Total: len(jobs)}
	for _, job := range jobs {
		switch job.Status {
		case model.BulkSent:
			stats.Sent++
		case model.BulkPending:
			stats.Pending++
		case model.BulkFailed:
			stats.Failed++
		}
	}
	return stats, nil
}

func (d bulkDao) StatusCounts() (map[string]int, error) {
	var jobs []model.BulkMessage
	err := d.db.All(&jobs)
	if err != nil && !notFound(err) {
		return nil, err
	}

	counts := make(map[string]int)
	for _, job := range jobs {
		counts[job.Status]++
	}
	return counts, nil
}

func (d bulkDao) DeleteByPhoneContaining(fragment string) (int, error) {
	var jobs []model.BulkMessage
	err := d.db.All(&jobs)
	if err != nil && !notFound(err) {
		return 0, err
	}

	removed := 0
	for i := range jobs {
		if strings.Contains(jobs[i].RecipientPhone, fragment) {
			if err := d.db.DeleteStruct(&jobs[i]); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}
