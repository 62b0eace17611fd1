package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/firstfin/sarah/dao"
	"github.com/firstfin/sarah/log"
	"github.com/firstfin/sarah/model"
	"github.com/firstfin/sarah/service/dto"
	"github.com/firstfin/sarah/sms"
	"github.com/firstfin/sarah/util"
	"go.uber.org/zap"
)

const (
	templateMaxLen  = 1600
	namePlaceholder = "{name}"

	//first job goes out a minute after creation, the rest fan out behind it
	firstSendDelay = 60 * time.Second
	sendStagger    = 15 * time.Second

	drainInterval = 5 * time.Second
	drainBatch    = 5
)

// numbers that must never receive campaign traffic
var blacklist = []string{"2899688778", "12899688778"}

type BulkService interface {
	//CreateCampaign validates and schedules a campaign's jobs with staggered send times
	CreateCampaign(req dto.CampaignRequest) (dto.CampaignResult, error)
	//ParseContactsCSV extracts name/phone pairs from a CSV upload, collecting per-row errors
	ParseContactsCSV(r io.Reader) (dto.ParsedContacts, error)
	//Start launches the background drain loop
	Start()
	//Pause suspends sending without touching the schedule
	Pause()
	//Resume lifts a pause
	Resume()
	//StopBulk cancels every pending job, the drain loop keeps running
	StopBulk() (int, error)
	//EmergencyStop cancels every pending job and halts the drain loop
	EmergencyStop() (int, error)
	//CampaignStats aggregates per-status counts for one campaign
	CampaignStats(campaignName string) (dao.CampaignStats, error)
	//Status reports the scheduler state and global job counts
	Status() (dto.BulkStatus, error)
	//PurgeBlacklisted deletes every stored job and lead touching a blacklisted number
	PurgeBlacklisted() (int, error)
}

type bulkService struct {
	transport       sms.Transport
	bulkDao         dao.BulkDao
	customerDao     dao.CustomerDao
	conversationDao dao.ConversationDao
	messageDao      dao.MessageDao
	leadDao         dao.LeadDao

	running  atomic.Bool
	paused   atomic.Bool
	halted   atomic.Bool
	draining sync.Mutex
	stop     chan struct{}
}

func NewBulkService(transport sms.Transport, bulkDao dao.BulkDao, customerDao dao.CustomerDao,
	conversationDao dao.ConversationDao, messageDao dao.MessageDao, leadDao dao.LeadDao) BulkService {
	return &bulkService{
		transport:       transport,
		bulkDao:         bulkDao,
		customerDao:     customerDao,
		conversationDao: conversationDao,
		messageDao:      messageDao,
		leadDao:         leadDao,
		stop:            make(chan struct{}),
	}
}

func (s *bulkService) CreateCampaign(req dto.CampaignRequest) (dto.CampaignResult, error) {
	if util.IsBlank(req.CampaignName) {
		return dto.CampaignResult{}, NewInvalidPayloadError("campaign name is required")
	}
	if len(req.Contacts) == 0 {
		return dto.CampaignResult{}, NewInvalidPayloadError("contact list is empty")
	}
	if !strings.Contains(req.Template, namePlaceholder) {
		return dto.CampaignResult{}, NewInvalidPayloadError("template must contain the {name} placeholder")
	}
	if len(req.Template) > templateMaxLen {
		return dto.CampaignResult{}, NewInvalidPayloadError(fmt.Sprintf("template exceeds %d characters", templateMaxLen))
	}

	var jobs []*model.BulkMessage
	var skipped []dto.SkippedContact
	next := time.Now().Add(firstSendDelay)

	for _, contact := range req.Contacts {
		phone, err := util.NormalizePhone(contact.Phone)
		if err != nil {
			skipped = append(skipped, dto.SkippedContact{Name: contact.Name, Phone: contact.Phone, Reason: err.Error()})
			continue
		}
		jobs = append(jobs, &model.BulkMessage{
			CampaignName:   req.CampaignName,
			Template:       req.Template,
			RecipientName:  contact.Name,
			RecipientPhone: phone,
			Status:         model.BulkPending,
			ScheduledAt:    next,
		})
		next = next.Add(sendStagger)
	}

	if len(jobs) == 0 {
		return dto.CampaignResult{}, NewInvalidPayloadError("no valid phone numbers in contact list")
	}

	if _, err := s.bulkDao.SaveAll(jobs); err != nil {
		return dto.CampaignResult{}, err
	}

	zap.S().Infow("campaign scheduled",
		"campaign", req.CampaignName, "jobs", len(jobs), "skipped", len(skipped))

	return dto.CampaignResult{
		CampaignName: req.CampaignName,
		Scheduled:    len(jobs),
		Skipped:      skipped,
		FirstSendAt:  jobs[0].ScheduledAt,
		LastSendAt:   jobs[len(jobs)-1].ScheduledAt,
	}, nil
}

// ParseContactsCSV accepts rows of "name,phone" with an optional header line.
// Rows with a missing or unparseable phone, duplicates and blacklisted numbers
// are reported per row, not fatal.
func (s *bulkService) ParseContactsCSV(r io.Reader) (dto.ParsedContacts, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var result dto.ParsedContacts
	seen := map[string]bool{}
	row := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", row, err))
			continue
		}
		if len(record) < 2 {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: expected name,phone", row))
			continue
		}

		name := strings.TrimSpace(record[0])
		rawPhone := strings.TrimSpace(record[1])
		if row == 1 && strings.EqualFold(name, "name") {
			continue
		}

		phone, err := util.NormalizePhone(rawPhone)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %q is %v", row, rawPhone, err))
			continue
		}
		if isBlacklisted(phone) {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %s is blacklisted", row, phone))
			continue
		}
		if seen[phone] {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: duplicate of %s", row, phone))
			continue
		}
		seen[phone] = true
		result.Contacts = append(result.Contacts, dto.Contact{Name: name, Phone: phone})
	}

	if len(result.Contacts) == 0 && len(result.Errors) == 0 {
		return result, NewInvalidPayloadError("csv contains no contacts")
	}
	return result, nil
}

func (s *bulkService) Start() {
	if !s.running.CompareAndSwap(false, true) {
		return
	}
	go s.drainLoop()
}

func (s *bulkService) drainLoop() {
	ticker := time.NewTicker(drainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			s.running.Store(false)
			return
		case <-ticker.C:
			if s.paused.Load() {
				continue
			}
			s.drain()
		}
	}
}

// drain sends one batch of due jobs. TryLock keeps a slow batch from being
// overlapped by the next tick.
func (s *bulkService) drain() {
	if !s.draining.TryLock() {
		return
	}
	defer s.draining.Unlock()

	jobs, err := s.bulkDao.PendingDue(time.Now(), drainBatch)
	if err != nil {
		zap.S().Errorw("failed to load due campaign jobs", "error", err)
		return
	}

	for _, job := range jobs {
		s.sendJob(job)
	}
}

func (s *bulkService) sendJob(job model.BulkMessage) {
	if isBlacklisted(job.RecipientPhone) {
		log.WarnIfErr("", s.bulkDao.MarkBlocked(job.Id, "recipient is blacklisted"))
		return
	}

	name := job.RecipientName
	if name == "" {
		name = "there"
	}
	text := strings.ReplaceAll(job.Template, namePlaceholder, name)

	if _, err := s.transport.SendMessage(context.Background(), job.RecipientPhone, text); err != nil {
		zap.S().Warnw("campaign send failed",
			"campaign", job.CampaignName, "phone", job.RecipientPhone, "error", err)
		log.WarnIfErr("", s.bulkDao.MarkFailed(job.Id, err.Error()))
		return
	}

	log.WarnIfErr("", s.bulkDao.MarkSent(job.Id))
	s.recordOnConversation(job.RecipientPhone, text)
}

// recordOnConversation mirrors the campaign text into the recipient's chat log so
// the dialogue engine sees the full history when they reply.
func (s *bulkService) recordOnConversation(phone, text string) {
	if _, err := s.customerDao.GetOrCreate(phone); err != nil {
		zap.S().Warnw("failed to upsert campaign recipient", "phone", phone, "error", err)
		return
	}
	conv, err := s.conversationDao.GetOrCreateActive(phone)
	if err != nil {
		zap.S().Warnw("failed to open conversation for campaign recipient", "phone", phone, "error", err)
		return
	}
	if _, err := s.messageDao.Append(conv.Id, phone, model.RoleAssistant, text); err != nil {
		zap.S().Warnw("failed to record campaign message", "phone", phone, "error", err)
	}
}

func (s *bulkService) Pause() {
	s.paused.Store(true)
	zap.S().Infow("bulk sending paused")
}

func (s *bulkService) Resume() {
	s.paused.Store(false)
	zap.S().Infow("bulk sending resumed")
}

func (s *bulkService) StopBulk() (int, error) {
	return s.bulkDao.CancelPending("stopped by operator")
}

func (s *bulkService) EmergencyStop() (int, error) {
	cancelled, err := s.bulkDao.CancelPending("emergency stop")
	if err != nil {
		return 0, err
	}
	if s.halted.CompareAndSwap(false, true) {
		close(s.stop)
	}
	zap.S().Warnw("emergency stop executed", "cancelled", cancelled)
	return cancelled, nil
}

func (s *bulkService) CampaignStats(campaignName string) (dao.CampaignStats, error) {
	if util.IsBlank(campaignName) {
		return dao.CampaignStats{}, NewInvalidPayloadError("campaign name is required")
	}
	return s.bulkDao.CampaignStats(campaignName)
}

func (s *bulkService) Status() (dto.BulkStatus, error) {
	counts, err := s.bulkDao.StatusCounts()
	if err != nil {
		return dto.BulkStatus{}, err
	}
	return dto.BulkStatus{
		Running: s.running.Load(),
		Paused:  s.paused.Load(),
		Counts:  counts,
	}, nil
}

func (s *bulkService) PurgeBlacklisted() (int, error) {
	removed := 0
	for _, fragment := range []string{"2899688778"} {
		n, err := s.bulkDao.DeleteByPhoneContaining(fragment)
		if err != nil {
			return removed, err
		}
		removed += n

		n, err = s.leadDao.DeleteByPhoneContaining(fragment)
		if err != nil {
			return removed, err
		}
		removed += n
	}
	return removed, nil
}

func isBlacklisted(phone string) bool {
	for _, fragment := range blacklist {
		if strings.Contains(phone, fragment) {
			return true
		}
	}
	return false
}
