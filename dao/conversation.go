package dao

import (
	"time"

	"github.com/asdine/storm/v3/q"
	"github.com/firstfin/sarah/model"
	"go.uber.org/zap"
)

// Conversation columns the dialogue engine may touch. Anything else is dropped with a warning.
var allowedConversationFields = map[string]bool{
	"status":        true,
	"stage":         true,
	"vehicle_type":  true,
	"budget":        true,
	"budget_amount": true,
	"customer_name": true,
	"intent":        true,
	"datetime":      true,
}

type ConversationDao interface {
	//GetOrCreateActive returns the most recent active conversation for the phone, creating one if none
	GetOrCreateActive(phone string) (model.Conversation, error)
	//GetMostRecent returns the newest conversation for the phone regardless of status
	GetMostRecent(phone string) (model.Conversation, error)
	//GetById returns a conversation by id
	GetById(id uint32) (model.Conversation, error)
	//HasActive reports whether the phone has an active conversation
	HasActive(phone string) (bool, error)
	//Update applies an allow-listed field map and bumps UpdatedAt
	Update(id uint32, updates map[string]interface{}) error
	//Touch bumps UpdatedAt only
	Touch(id uint32) error
	//GetRecent returns up to limit conversations ordered newest-updated first
	GetRecent(limit int) ([]model.Conversation, error)
	//DeleteCascade removes the phone's newest conversation, its messages and that phone's leads
	DeleteCascade(phone string) (bool, error)
	//Count returns the total number of conversations
	Count() (int, error)
	//CountByStatus returns the number of conversations in the given status
	CountByStatus(status string) (int, error)
}

func NewConversationDao(db Db) ConversationDao {
	return &conversationDao{db: db}
}

type conversationDao struct {
	db Db
}

func (d conversationDao) GetOrCreateActive(phone string) (model.Conversation, error) {
	var convs []model.Conversation
	err := d.db.Select(q.Eq("Phone", phone), q.Eq("Status", model.StatusActive)).
		OrderBy("StartedAt").Reverse().Limit(1).Find(&convs)
	if err != nil && !notFound(err) {
		return model.Conversation{}, err
	}
	if len(convs) > 0 {
		conv := convs[0]
		return conv, d.Touch(conv.Id)
	}

	conv := model.Conversation{
		Phone:     phone,
		Status:    model.StatusActive,
		Stage:     model.StageGreeting,
		StartedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	err = d.db.Save(&conv)
	return conv, err
}

func (d conversationDao) GetMostRecent(phone string) (model.Conversation, error) {
	var convs []model.Conversation
	err := d.db.Select(q.Eq("Phone", phone)).OrderBy("StartedAt").Reverse().Limit(1).Find(&convs)
	if err != nil {
		return model.Conversation{}, err
	}
	return convs[0], nil
}

func (d conversationDao) GetById(id uint32) (conv model.Conversation, err error) {
	err = d.db.One("Id", id, &conv)
	return
}

func (d conversationDao) HasActive(phone string) (bool, error) {
	var convs []model.Conversation
	err := d.db.Select(q.Eq("Phone", phone), q.Eq("Status", model.StatusActive)).Limit(1).Find(&convs)
	if notFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return len(convs) > 0, nil
}

func (d conversationDao) Update(id uint32, updates map[string]interface{}) error {
	var conv model.Conversation
	if err := d.db.One("Id", id, &conv); err != nil {
		return err
	}

	for key, value := range updates {
		if !allowedConversationFields[key] {
			zap.L().Warn("Ignored unknown conversation field", zap.String("field", key))
			continue
		}
		switch key {
		case "status":
			conv.Status = asString(value)
		case "stage":
			conv.Stage = asString(value)
		case "vehicle_type":
			conv.VehicleType = asString(value)
		case "budget":
			conv.Budget = asString(value)
		case "budget_amount":
			conv.BudgetAmount = asInt(value)
		case "customer_name":
			conv.CustomerName = asString(value)
		case "intent":
			conv.Intent = asString(value)
		case "datetime":
			conv.Datetime = asString(value)
		}
	}
	conv.UpdatedAt = time.Now()
	return d.db.Update(&conv)
}

func (d conversationDao) Touch(id uint32) error {
	return d.db.UpdateField(&model.Conversation{Id: id}, "UpdatedAt", time.Now())
}

func (d conversationDao) GetRecent(limit int) ([]model.Conversation, error) {
	var convs []model.Conversation
	err := d.db.Select().OrderBy("UpdatedAt").Reverse().Limit(limit).Find(&convs)
	if notFound(err) {
		return nil, nil
	}
	return convs, err
}

func (d conversationDao) DeleteCascade(phone string) (bool, error) {
	conv, err := d.GetMostRecent(phone)
	if notFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	for _, del := range []error{
		ignoreNotFound(d.db.Select(q.Eq("ConversationId", conv.Id)).Delete(&model.Message{})),
		ignoreNotFound(d.db.Select(q.Eq("Phone", phone)).Delete(&model.Appointment{})),
		ignoreNotFound(d.db.Select(q.Eq("Phone", phone)).Delete(&model.Callback{})),
		d.db.DeleteStruct(&conv),
	} {
		if del != nil {
			return false, del
		}
	}
	return true, nil
}

func (d conversationDao) Count() (int, error) {
	var convs []model.Conversation
	err := d.db.All(&convs)
	if notFound(err) {
		return 0, nil
	}
	return len(convs), err
}

func (d conversationDao) CountByStatus(status string) (int, error) {
	count, err := d.db.Select(q.Eq("Status", status)).Count(&model.Conversation{})
	if notFound(err) {
		return 0, nil
	}
	return count, err
}

func ignoreNotFound(err error) error {
	if notFound(err) {
		return nil
	}
	return err
}

func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func asInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}
