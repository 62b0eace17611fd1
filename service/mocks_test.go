package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/asdine/storm/v3"
	"github.com/firstfin/sarah/dao"
	"github.com/firstfin/sarah/model"
)

type sentMessage struct {
	To   string
	Body string
}

type mockTransport struct {
	mu      sync.Mutex
	sent    []sentMessage
	calls   []sentMessage
	sendErr error
}

func (m *mockTransport) SendMessage(ctx context.Context, to, body string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return "", m.sendErr
	}
	m.sent = append(m.sent, sentMessage{To: to, Body: body})
	return "SM1", nil
}

func (m *mockTransport) PlaceVoiceDrop(ctx context.Context, to, speech, callbackURL string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, sentMessage{To: to, Body: speech})
	return "CA1", nil
}

func (m *mockTransport) allSent() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMessage(nil), m.sent...)
}

type mockNotifier struct {
	mu     sync.Mutex
	alerts []string
}

func (m *mockNotifier) Publish(subject, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, subject)
}

func (m *mockNotifier) Stop() {}

type mockCustomerDao struct {
	customers map[string]*model.Customer
	nextId    uint32
}

func newMockCustomerDao() *mockCustomerDao {
	return &mockCustomerDao{customers: map[string]*model.Customer{}}
}

func (m *mockCustomerDao) GetOrCreate(phone string) (model.Customer, error) {
	if c, ok := m.customers[phone]; ok {
		return *c, nil
	}
	m.nextId++
	c := &model.Customer{Id: m.nextId, Phone: phone, CreatedAt: time.Now()}
	m.customers[phone] = c
	return *c, nil
}

func (m *mockCustomerDao) SetName(phone, name string) error {
	if c, ok := m.customers[phone]; ok {
		c.Name = name
		return nil
	}
	return storm.ErrNotFound
}

func (m *mockCustomerDao) TouchContact(phone string) error {
	if c, ok := m.customers[phone]; ok {
		c.LastContact = time.Now()
		return nil
	}
	return storm.ErrNotFound
}

func (m *mockCustomerDao) Count() (int, error) {
	return len(m.customers), nil
}

type mockConversationDao struct {
	convs  []*model.Conversation
	nextId uint32
}

func newMockConversationDao() *mockConversationDao {
	return &mockConversationDao{}
}

func (m *mockConversationDao) GetOrCreateActive(phone string) (model.Conversation, error) {
	for i := len(m.convs) - 1; i >= 0; i-- {
		if m.convs[i].Phone == phone && m.convs[i].Status == model.StatusActive {
			return *m.convs[i], nil
		}
	}
	m.nextId++
	conv := &model.Conversation{
		Id:        m.nextId,
		Phone:     phone,
		Status:    model.StatusActive,
		Stage:     model.StageGreeting,
		StartedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.convs = append(m.convs, conv)
	return *conv, nil
}

func (m *mockConversationDao) GetMostRecent(phone string) (model.Conversation, error) {
	for i := len(m.convs) - 1; i >= 0; i-- {
		if m.convs[i].Phone == phone {
			return *m.convs[i], nil
		}
	}
	return model.Conversation{}, storm.ErrNotFound
}

func (m *mockConversationDao) GetById(id uint32) (model.Conversation, error) {
	for _, c := range m.convs {
		if c.Id == id {
			return *c, nil
		}
	}
	return model.Conversation{}, storm.ErrNotFound
}

func (m *mockConversationDao) HasActive(phone string) (bool, error) {
	for _, c := range m.convs {
		if c.Phone == phone && c.Status == model.StatusActive {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockConversationDao) Update(id uint32, updates map[string]interface{}) error {
	for _, c := range m.convs {
		if c.Id != id {
			continue
		}
		for key, value := range updates {
			switch key {
			case "status":
				c.Status = value.(string)
			case "stage":
				c.Stage = value.(string)
			case "vehicle_type":
				c.VehicleType = value.(string)
			case "budget":
				c.Budget = value.(string)
			case "budget_amount":
				c.BudgetAmount = value.(int)
			case "customer_name":
				c.CustomerName = value.(string)
			case "intent":
				c.Intent = value.(string)
			case "datetime":
				c.Datetime = value.(string)
			}
		}
		c.UpdatedAt = time.Now()
		return nil
	}
	return storm.ErrNotFound
}

func (m *mockConversationDao) Touch(id uint32) error { return nil }

func (m *mockConversationDao) GetRecent(limit int) ([]model.Conversation, error) {
	var out []model.Conversation
	for i := len(m.convs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, *m.convs[i])
	}
	return out, nil
}

func (m *mockConversationDao) DeleteCascade(phone string) (bool, error) {
	for i := len(m.convs) - 1; i >= 0; i-- {
		if m.convs[i].Phone == phone {
			m.convs = append(m.convs[:i], m.convs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *mockConversationDao) Count() (int, error) { return len(m.convs), nil }

func (m *mockConversationDao) CountByStatus(status string) (int, error) {
	count := 0
	for _, c := range m.convs {
		if c.Status == status {
			count++
		}
	}
	return count, nil
}

type mockMessageDao struct {
	msgs   []model.Message
	nextId uint32
}

func newMockMessageDao() *mockMessageDao {
	return &mockMessageDao{}
}

func (m *mockMessageDao) Append(conversationId uint32, phone, role, content string) (uint32, error) {
	m.nextId++
	m.msgs = append(m.msgs, model.Message{
		Id:             m.nextId,
		ConversationId: conversationId,
		Phone:          phone,
		Role:           role,
		Content:        content,
		CreatedAt:      time.Now(),
	})
	return m.nextId, nil
}

func (m *mockMessageDao) ExistsRecently(conversationId uint32, role, content string, window time.Duration) (bool, error) {
	cutoff := time.Now().Add(-window)
	for _, msg := range m.msgs {
		if msg.ConversationId == conversationId && msg.Role == role && msg.Content == content && msg.CreatedAt.After(cutoff) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockMessageDao) GetAllByConversation(conversationId uint32) ([]model.Message, error) {
	var out []model.Message
	for _, msg := range m.msgs {
		if msg.ConversationId == conversationId {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *mockMessageDao) CountByConversation(conversationId uint32) (int, error) {
	out, _ := m.GetAllByConversation(conversationId)
	return len(out), nil
}

func (m *mockMessageDao) Count() (int, error) { return len(m.msgs), nil }

type mockLeadDao struct {
	appointments []model.Appointment
	callbacks    []model.Callback
	nextId       uint32
}

func newMockLeadDao() *mockLeadDao {
	return &mockLeadDao{}
}

func (m *mockLeadDao) SaveAppointment(lead model.Appointment) (uint32, error) {
	m.nextId++
	lead.Id = m.nextId
	m.appointments = append(m.appointments, lead)
	return lead.Id, nil
}

func (m *mockLeadDao) SaveCallback(lead model.Callback) (uint32, error) {
	m.nextId++
	lead.Id = m.nextId
	m.callbacks = append(m.callbacks, lead)
	return lead.Id, nil
}

func (m *mockLeadDao) GetRecentAppointments(limit int) ([]model.Appointment, error) {
	return m.appointments, nil
}

func (m *mockLeadDao) GetRecentCallbacks(limit int) ([]model.Callback, error) {
	return m.callbacks, nil
}

func (m *mockLeadDao) DeleteAppointment(id uint32) error { return nil }
func (m *mockLeadDao) DeleteCallback(id uint32) error    { return nil }

func (m *mockLeadDao) DeleteByPhoneContaining(fragment string) (int, error) {
	removed := 0
	var appts []model.Appointment
	for _, lead := range m.appointments {
		if strings.Contains(lead.Phone, fragment) {
			removed++
			continue
		}
		appts = append(appts, lead)
	}
	m.appointments = appts

	var calls []model.Callback
	for _, lead := range m.callbacks {
		if strings.Contains(lead.Phone, fragment) {
			removed++
			continue
		}
		calls = append(calls, lead)
	}
	m.callbacks = calls
	return removed, nil
}

type mockAnalyticsDao struct {
	events []model.AnalyticsEvent
}

func newMockAnalyticsDao() *mockAnalyticsDao {
	return &mockAnalyticsDao{}
}

func (m *mockAnalyticsDao) Log(eventType, phone string, data interface{}) error {
	m.events = append(m.events, model.AnalyticsEvent{EventType: eventType, Phone: phone, CreatedAt: time.Now()})
	return nil
}

func (m *mockAnalyticsDao) CountByType(eventType string) (int, error) {
	count := 0
	for _, e := range m.events {
		if e.EventType == eventType {
			count++
		}
	}
	return count, nil
}

func (m *mockAnalyticsDao) GetRecent(limit int) ([]model.AnalyticsEvent, error) {
	return m.events, nil
}

type mockBulkDao struct {
	jobs   []*model.BulkMessage
	nextId uint32
}

func newMockBulkDao() *mockBulkDao {
	return &mockBulkDao{}
}

func (m *mockBulkDao) SaveAll(jobs []*model.BulkMessage) ([]uint32, error) {
	var ids []uint32
	for _, job := range jobs {
		m.nextId++
		job.Id = m.nextId
		job.CreatedAt = time.Now()
		m.jobs = append(m.jobs, job)
		ids = append(ids, job.Id)
	}
	return ids, nil
}

func (m *mockBulkDao) PendingDue(now time.Time, limit int) ([]model.BulkMessage, error) {
	var out []model.BulkMessage
	for _, job := range m.jobs {
		if job.Status == model.BulkPending && !job.ScheduledAt.After(now) {
			out = append(out, *job)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *mockBulkDao) finalize(id uint32, status, errMsg string) error {
	for _, job := range m.jobs {
		if job.Id == id {
			job.Status = status
			job.ErrorMessage = errMsg
			return nil
		}
	}
	return storm.ErrNotFound
}

func (m *mockBulkDao) MarkSent(id uint32) error { return m.finalize(id, model.BulkSent, "") }

func (m *mockBulkDao) MarkFailed(id uint32, errMsg string) error {
	return m.finalize(id, model.BulkFailed, errMsg)
}

func (m *mockBulkDao) MarkBlocked(id uint32, reason string) error {
	return m.finalize(id, model.BulkBlocked, reason)
}

func (m *mockBulkDao) CancelPending(reason string) (int, error) {
	count := 0
	for _, job := range m.jobs {
		if job.Status == model.BulkPending {
			job.Status = model.BulkCancelled
			job.ErrorMessage = reason
			count++
		}
	}
	return count, nil
}

func (m *mockBulkDao) CampaignStats(campaignName string) (dao.CampaignStats, error) {
	stats := dao.CampaignStats{}
	for _, job := range m.jobs {
		if job.CampaignName != campaignName {
			continue
		}
		stats.Total++
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

func (m *mockBulkDao) StatusCounts() (map[string]int, error) {
	counts := map[string]int{}
	for _, job := range m.jobs {
		counts[job.Status]++
	}
	return counts, nil
}

func (m *mockBulkDao) DeleteByPhoneContaining(fragment string) (int, error) {
	removed := 0
	kept := m.jobs[:0]
	for _, job := range m.jobs {
		if strings.Contains(job.RecipientPhone, fragment) {
			removed++
			continue
		}
		kept = append(kept, job)
	}
	m.jobs = kept
	return removed, nil
}

type mockDeskDao struct {
	users     map[uint32]*model.DeskUser
	byEmail   map[string]uint32
	tokens    map[string]model.DeskRefreshToken
	vehicles  map[string]*model.InventoryVehicle
	crm       []*model.CRMEntry
	dealLog   []*model.DealLogEntry
	rates     map[uint32]string
	scenarios []*model.Scenario
	nextId    uint32
}

func newMockDeskDao() *mockDeskDao {
	return &mockDeskDao{
		users:    map[uint32]*model.DeskUser{},
		byEmail:  map[string]uint32{},
		tokens:   map[string]model.DeskRefreshToken{},
		vehicles: map[string]*model.InventoryVehicle{},
		rates:    map[uint32]string{},
	}
}

func (m *mockDeskDao) CreateUser(user *model.DeskUser) error {
	if _, exists := m.byEmail[user.Email]; exists {
		return storm.ErrAlreadyExists
	}
	m.nextId++
	user.Id = m.nextId
	user.CreatedAt = time.Now()
	m.users[user.Id] = user
	m.byEmail[user.Email] = user.Id
	return nil
}

func (m *mockDeskDao) GetUserByEmail(email string) (model.DeskUser, error) {
	if id, ok := m.byEmail[email]; ok {
		return *m.users[id], nil
	}
	return model.DeskUser{}, storm.ErrNotFound
}

func (m *mockDeskDao) GetUserById(id uint32) (model.DeskUser, error) {
	if user, ok := m.users[id]; ok {
		return *user, nil
	}
	return model.DeskUser{}, storm.ErrNotFound
}

func (m *mockDeskDao) TouchLogin(id uint32) error {
	if user, ok := m.users[id]; ok {
		user.LastLogin = time.Now()
		return nil
	}
	return storm.ErrNotFound
}

func (m *mockDeskDao) SaveSettings(userId uint32, settingsJSON string) error {
	if user, ok := m.users[userId]; ok {
		user.SettingsJSON = settingsJSON
		return nil
	}
	return storm.ErrNotFound
}

func (m *mockDeskDao) SaveRefreshToken(userId uint32, tokenHash string, expiresAt time.Time) error {
	m.tokens[tokenHash] = model.DeskRefreshToken{UserId: userId, TokenHash: tokenHash, ExpiresAt: expiresAt}
	return nil
}

func (m *mockDeskDao) GetRefreshToken(tokenHash string) (model.DeskRefreshToken, error) {
	if token, ok := m.tokens[tokenHash]; ok {
		return token, nil
	}
	return model.DeskRefreshToken{}, storm.ErrNotFound
}

func (m *mockDeskDao) DeleteRefreshToken(tokenHash string) error {
	if _, ok := m.tokens[tokenHash]; !ok {
		return storm.ErrNotFound
	}
	delete(m.tokens, tokenHash)
	return nil
}

func (m *mockDeskDao) DeleteRefreshTokensForUser(userId uint32) error {
	for hash, token := range m.tokens {
		if token.UserId == userId {
			delete(m.tokens, hash)
		}
	}
	return nil
}

func (m *mockDeskDao) UpsertVehicle(v *model.InventoryVehicle) error {
	m.vehicles[v.Stock] = v
	return nil
}

func (m *mockDeskDao) GetAvailableVehicles() ([]model.InventoryVehicle, error) {
	var out []model.InventoryVehicle
	for _, v := range m.vehicles {
		if v.Status == "available" {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (m *mockDeskDao) ReplaceInventory(vehicles []*model.InventoryVehicle) error {
	for _, v := range m.vehicles {
		v.Status = "delisted"
	}
	for _, v := range vehicles {
		v.Status = "available"
		m.vehicles[v.Stock] = v
	}
	return nil
}

func (m *mockDeskDao) DeleteVehicle(stock string) error {
	if _, ok := m.vehicles[stock]; !ok {
		return storm.ErrNotFound
	}
	delete(m.vehicles, stock)
	return nil
}

func (m *mockDeskDao) GetCRMEntries(userId uint32) ([]model.CRMEntry, error) {
	var out []model.CRMEntry
	for _, e := range m.crm {
		if e.UserId == userId {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *mockDeskDao) AddCRMEntry(entry *model.CRMEntry) error {
	m.nextId++
	entry.Id = m.nextId
	m.crm = append(m.crm, entry)
	return nil
}

func (m *mockDeskDao) ReplaceCRMEntries(userId uint32, entries []*model.CRMEntry) error {
	kept := m.crm[:0]
	for _, e := range m.crm {
		if e.UserId != userId {
			kept = append(kept, e)
		}
	}
	m.crm = kept
	for _, e := range entries {
		e.UserId = userId
		if err := m.AddCRMEntry(e); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockDeskDao) DeleteCRMEntry(userId, id uint32) error {
	for i, e := range m.crm {
		if e.Id == id && e.UserId == userId {
			m.crm = append(m.crm[:i], m.crm[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *mockDeskDao) GetDealLog(userId uint32) ([]model.DealLogEntry, error) {
	var out []model.DealLogEntry
	for _, e := range m.dealLog {
		if e.UserId == userId {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *mockDeskDao) AddDealLogEntry(entry *model.DealLogEntry) error {
	m.nextId++
	entry.Id = m.nextId
	entry.CreatedAt = time.Now()
	m.dealLog = append(m.dealLog, entry)
	return nil
}

func (m *mockDeskDao) ReplaceDealLog(userId uint32, entries []*model.DealLogEntry) error {
	kept := m.dealLog[:0]
	for _, e := range m.dealLog {
		if e.UserId != userId {
			kept = append(kept, e)
		}
	}
	m.dealLog = kept
	for _, e := range entries {
		e.UserId = userId
		if err := m.AddDealLogEntry(e); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockDeskDao) DeleteDealLogEntry(userId, id uint32) error {
	for i, e := range m.dealLog {
		if e.Id == id && e.UserId == userId {
			m.dealLog = append(m.dealLog[:i], m.dealLog[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *mockDeskDao) GetLenderRates(userId uint32) (model.LenderRates, error) {
	if overrides, ok := m.rates[userId]; ok {
		return model.LenderRates{UserId: userId, OverridesJSON: overrides}, nil
	}
	return model.LenderRates{}, storm.ErrNotFound
}

func (m *mockDeskDao) SaveLenderRates(userId uint32, overridesJSON string) error {
	m.rates[userId] = overridesJSON
	return nil
}

func (m *mockDeskDao) DeleteLenderRates(userId uint32) error {
	delete(m.rates, userId)
	return nil
}

func (m *mockDeskDao) GetScenarios(userId uint32) ([]model.Scenario, error) {
	var out []model.Scenario
	for _, s := range m.scenarios {
		if s.UserId == userId {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockDeskDao) ReplaceScenarios(userId uint32, scenarios []*model.Scenario) error {
	kept := m.scenarios[:0]
	for _, s := range m.scenarios {
		if s.UserId != userId {
			kept = append(kept, s)
		}
	}
	m.scenarios = kept
	for _, s := range scenarios {
		s.UserId = userId
		m.nextId++
		s.Id = m.nextId
		m.scenarios = append(m.scenarios, s)
	}
	return nil
}
