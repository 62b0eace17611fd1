package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/firstfin/sarah/dao"
	"github.com/firstfin/sarah/dialog"
	"github.com/firstfin/sarah/log"
	"github.com/firstfin/sarah/model"
	"github.com/firstfin/sarah/notify"
	"github.com/firstfin/sarah/service/dto"
	"github.com/firstfin/sarah/sms"
	"github.com/firstfin/sarah/util"
	"go.uber.org/zap"
)

// identical inbound texts within this window are treated as carrier retries
const dedupWindow = 30 * time.Second

type ConvoService interface {
	//HandleInbound runs one inbound SMS through the dialogue engine and sends the reply.
	//The returned text is empty when the conversation stays silent.
	HandleInbound(from, body string) (string, error)
	//StartSMS opens a conversation with an outbound greeting
	StartSMS(req dto.StartSMS) error
	//ManualReply sends a staff-typed message on the customer's conversation
	ManualReply(req dto.ManualReply) error
	//DealFunded sends the post-sale congratulation follow-up
	DealFunded(phone string) error
	//PlaceVoiceDrop places a voice call that offers to text the customer
	PlaceVoiceDrop(req dto.VoiceDrop) error
	//HandleKeypress reacts to a digit pressed during a voice drop
	HandleKeypress(from, digits string) (string, error)
	//GetRecentConversations lists conversations newest-updated first
	GetRecentConversations(limit int) ([]dto.ConversationSummary, error)
	//GetConversation returns the newest conversation for the phone with its full message log
	GetConversation(phone string) (dto.ConversationDetail, error)
	//DeleteConversation removes the phone's newest conversation, messages and leads
	DeleteConversation(phone string) error
	//DashboardStats aggregates funnel counters for the dashboard
	DashboardStats() (dto.DashboardStats, error)
}

type convoService struct {
	transport       sms.Transport
	notifier        notify.Notifier
	customerDao     dao.CustomerDao
	conversationDao dao.ConversationDao
	messageDao      dao.MessageDao
	leadDao         dao.LeadDao
	analyticsDao    dao.AnalyticsDao
	locks           sync.Map // phone -> *sync.Mutex
}

func NewConvoService(transport sms.Transport, notifier notify.Notifier,
	customerDao dao.CustomerDao, conversationDao dao.ConversationDao, messageDao dao.MessageDao,
	leadDao dao.LeadDao, analyticsDao dao.AnalyticsDao) ConvoService {
	return &convoService{
		transport:       transport,
		notifier:        notifier,
		customerDao:     customerDao,
		conversationDao: conversationDao,
		messageDao:      messageDao,
		leadDao:         leadDao,
		analyticsDao:    analyticsDao,
	}
}

// phoneLock serializes turns per phone so two carrier retries cannot interleave.
func (s *convoService) phoneLock(phone string) *sync.Mutex {
	lock, _ := s.locks.LoadOrStore(phone, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func (s *convoService) HandleInbound(from, body string) (string, error) {
	phone, err := util.NormalizePhone(from)
	if err != nil {
		return "", NewInvalidPayloadError("invalid sender phone number")
	}
	if util.IsBlank(body) {
		return "", nil
	}

	lock := s.phoneLock(phone)
	lock.Lock()
	defer lock.Unlock()

	if _, err := s.customerDao.GetOrCreate(phone); err != nil {
		return "", err
	}

	conv, err := s.conversationDao.GetMostRecent(phone)
	if notFoundErr(err) {
		conv, err = s.conversationDao.GetOrCreateActive(phone)
	}
	if err != nil {
		return "", err
	}

	dup, err := s.messageDao.ExistsRecently(conv.Id, model.RoleUser, body, dedupWindow)
	if err != nil {
		return "", err
	}
	if dup {
		zap.S().Infow("dropped duplicate inbound message", "phone", phone)
		return "", nil
	}

	if _, err := s.messageDao.Append(conv.Id, phone, model.RoleUser, body); err != nil {
		return "", err
	}
	log.WarnIfErr("", s.analyticsDao.Log("message_received", phone, map[string]interface{}{"stage": conv.Stage}))

	result := dialog.Respond(conv, phone, body)
	if err := s.applyResult(conv, phone, result); err != nil {
		return "", err
	}

	if result.Reply == "" {
		return "", nil
	}

	dup, err = s.messageDao.ExistsRecently(conv.Id, model.RoleAssistant, result.Reply, dedupWindow)
	if err != nil {
		return "", err
	}
	if dup {
		return "", nil
	}

	if _, err := s.messageDao.Append(conv.Id, phone, model.RoleAssistant, result.Reply); err != nil {
		return "", err
	}
	if _, err := s.transport.SendMessage(context.Background(), phone, result.Reply); err != nil {
		return "", err
	}

	log.WarnIfErr("", s.customerDao.TouchContact(phone))
	return result.Reply, nil
}

// applyResult persists the state delta and runs the turn's side effects.
func (s *convoService) applyResult(conv model.Conversation, phone string, result dialog.Result) error {
	if len(result.Updates) > 0 {
		if err := s.conversationDao.Update(conv.Id, result.Updates); err != nil {
			return err
		}
	}

	if result.CustomerName != "" {
		log.WarnIfErr("", s.customerDao.SetName(phone, result.CustomerName))
	}

	if result.Appointment != nil {
		lead := result.Appointment
		_, err := s.leadDao.SaveAppointment(model.Appointment{
			Phone:        lead.Phone,
			Name:         lead.Name,
			VehicleType:  lead.VehicleType,
			Budget:       lead.Budget,
			BudgetAmount: lead.BudgetAmount,
			Datetime:     lead.Datetime,
		})
		if err != nil {
			return err
		}
	}

	if result.Callback != nil {
		lead := result.Callback
		_, err := s.leadDao.SaveCallback(model.Callback{
			Phone:        lead.Phone,
			Name:         lead.Name,
			VehicleType:  lead.VehicleType,
			Budget:       lead.Budget,
			BudgetAmount: lead.BudgetAmount,
			Datetime:     lead.Datetime,
		})
		if err != nil {
			return err
		}
	}

	for _, event := range result.Events {
		log.WarnIfErr("", s.analyticsDao.Log(event.Type, phone, event.Payload))
	}
	for _, alert := range result.Notify {
		s.notifier.Publish(alert.Subject, alert.Body)
	}
	return nil
}

func (s *convoService) StartSMS(req dto.StartSMS) error {
	phone, err := util.NormalizePhone(req.Phone)
	if err != nil {
		return NewInvalidPayloadError("invalid phone number")
	}

	lock := s.phoneLock(phone)
	lock.Lock()
	defer lock.Unlock()

	customer, err := s.customerDao.GetOrCreate(phone)
	if err != nil {
		return err
	}
	if !util.IsBlank(req.Name) && customer.Name == "" {
		log.WarnIfErr("", s.customerDao.SetName(phone, req.Name))
	}

	conv, err := s.conversationDao.GetOrCreateActive(phone)
	if err != nil {
		return err
	}

	name := req.Name
	if name == "" {
		name = customer.Name
	}
	greeting := "Hi! It's Sarah from First Financial 👋 Are you still looking for a vehicle? We have SUVs, Trucks, Sedans and more - what type interests you?"
	if name != "" {
		greeting = fmt.Sprintf("Hi %s! It's Sarah from First Financial 👋 Are you still looking for a vehicle? We have SUVs, Trucks, Sedans and more - what type interests you?", name)
	}

	if _, err := s.messageDao.Append(conv.Id, phone, model.RoleAssistant, greeting); err != nil {
		return err
	}
	if _, err := s.transport.SendMessage(context.Background(), phone, greeting); err != nil {
		return err
	}
	return s.analyticsDao.Log("outreach_started", phone, map[string]interface{}{"name": name})
}

func (s *convoService) ManualReply(req dto.ManualReply) error {
	phone, err := util.NormalizePhone(req.Phone)
	if err != nil {
		return NewInvalidPayloadError("invalid phone number")
	}
	if util.IsBlank(req.Text) {
		return NewInvalidPayloadError("message text is required")
	}

	lock := s.phoneLock(phone)
	lock.Lock()
	defer lock.Unlock()

	conv, err := s.conversationDao.GetMostRecent(phone)
	if notFoundErr(err) {
		return NewNotFoundError("no conversation for this phone")
	}
	if err != nil {
		return err
	}

	if _, err := s.messageDao.Append(conv.Id, phone, model.RoleAssistant, req.Text); err != nil {
		return err
	}
	_, err = s.transport.SendMessage(context.Background(), phone, req.Text)
	return err
}

func (s *convoService) DealFunded(phone string) error {
	normalized, err := util.NormalizePhone(phone)
	if err != nil {
		return NewInvalidPayloadError("invalid phone number")
	}

	lock := s.phoneLock(normalized)
	lock.Lock()
	defer lock.Unlock()

	conv, err := s.conversationDao.GetMostRecent(normalized)
	if notFoundErr(err) {
		return NewNotFoundError("no conversation for this phone")
	}
	if err != nil {
		return err
	}

	name := conv.CustomerName
	if name == "" {
		name = "there"
	}
	text := fmt.Sprintf("🎉 Congratulations %s! Your deal is funded and your new ride is ready. Thank you for choosing First Financial - enjoy every kilometre! If you ever need anything, just text me here. 🚗", name)

	if _, err := s.messageDao.Append(conv.Id, normalized, model.RoleAssistant, text); err != nil {
		return err
	}
	if _, err := s.transport.SendMessage(context.Background(), normalized, text); err != nil {
		return err
	}
	return s.analyticsDao.Log("deal_funded", normalized, map[string]interface{}{"name": conv.CustomerName})
}

func (s *convoService) PlaceVoiceDrop(req dto.VoiceDrop) error {
	phone, err := util.NormalizePhone(req.Phone)
	if err != nil {
		return NewInvalidPayloadError("invalid phone number")
	}

	speech := req.Speech
	if util.IsBlank(speech) {
		speech = "Hi! This is Sarah from First Financial. We have great vehicle deals right now. Press 1 and I'll text you the details."
	}

	callbackURL := util.GetEnv("PUBLIC_BASE_URL", "") + "/webhook/keypress"
	if _, err := s.transport.PlaceVoiceDrop(context.Background(), phone, speech, callbackURL); err != nil {
		return err
	}
	return s.analyticsDao.Log("voice_drop", phone, map[string]interface{}{"speech": speech})
}

func (s *convoService) HandleKeypress(from, digits string) (string, error) {
	phone, err := util.NormalizePhone(from)
	if err != nil {
		return "", NewInvalidPayloadError("invalid caller phone number")
	}

	log.WarnIfErr("", s.analyticsDao.Log("voice_keypress", phone, map[string]interface{}{"digits": digits}))

	if digits != "1" {
		return "Thanks for your time. Goodbye!", nil
	}

	if err := s.StartSMS(dto.StartSMS{Phone: phone}); err != nil {
		return "", err
	}
	return "Perfect! I just texted you the details. Talk soon!", nil
}

func (s *convoService) GetRecentConversations(limit int) ([]dto.ConversationSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	convs, err := s.conversationDao.GetRecent(limit)
	if err != nil {
		return nil, err
	}

	summaries := make([]dto.ConversationSummary, 0, len(convs))
	for _, conv := range convs {
		summaries = append(summaries, toSummary(conv))
	}
	return summaries, nil
}

func (s *convoService) GetConversation(phone string) (dto.ConversationDetail, error) {
	normalized, err := util.NormalizePhone(phone)
	if err != nil {
		return dto.ConversationDetail{}, NewInvalidPayloadError("invalid phone number")
	}

	conv, err := s.conversationDao.GetMostRecent(normalized)
	if notFoundErr(err) {
		return dto.ConversationDetail{}, NewNotFoundError("no conversation for this phone")
	}
	if err != nil {
		return dto.ConversationDetail{}, err
	}

	msgs, err := s.messageDao.GetAllByConversation(conv.Id)
	if err != nil {
		return dto.ConversationDetail{}, err
	}

	detail := dto.ConversationDetail{ConversationSummary: toSummary(conv)}
	for _, msg := range msgs {
		detail.Messages = append(detail.Messages, dto.ChatMessage{
			Role:      msg.Role,
			Content:   msg.Content,
			CreatedAt: msg.CreatedAt,
		})
	}
	return detail, nil
}

func (s *convoService) DeleteConversation(phone string) error {
	normalized, err := util.NormalizePhone(phone)
	if err != nil {
		return NewInvalidPayloadError("invalid phone number")
	}

	lock := s.phoneLock(normalized)
	lock.Lock()
	defer lock.Unlock()

	removed, err := s.conversationDao.DeleteCascade(normalized)
	if err != nil {
		return err
	}
	if !removed {
		return NewNotFoundError("no conversation for this phone")
	}
	return nil
}

func (s *convoService) DashboardStats() (dto.DashboardStats, error) {
	stats := dto.DashboardStats{Conversations: map[string]int{}}

	for _, status := range []string{model.StatusActive, model.StatusStopped, model.StatusConverted} {
		count, err := s.conversationDao.CountByStatus(status)
		if err != nil {
			return stats, err
		}
		stats.Conversations[status] = count
	}

	var err error
	if stats.Messages, err = s.messageDao.Count(); err != nil {
		return stats, err
	}
	if stats.Customers, err = s.customerDao.Count(); err != nil {
		return stats, err
	}
	if stats.Appointments, err = s.analyticsDao.CountByType("appointment_booked"); err != nil {
		return stats, err
	}
	if stats.Callbacks, err = s.analyticsDao.CountByType("callback_requested"); err != nil {
		return stats, err
	}
	if stats.OptOuts, err = s.analyticsDao.CountByType("conversation_stopped"); err != nil {
		return stats, err
	}
	return stats, nil
}

func toSummary(conv model.Conversation) dto.ConversationSummary {
	return dto.ConversationSummary{
		Id:           conv.Id,
		Phone:        conv.Phone,
		Status:       conv.Status,
		Stage:        conv.Stage,
		VehicleType:  conv.VehicleType,
		Budget:       conv.Budget,
		CustomerName: conv.CustomerName,
		Datetime:     conv.Datetime,
		UpdatedAt:    conv.UpdatedAt,
	}
}
