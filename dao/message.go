package dao

import (
	"time"

	"github.com/asdine/storm/v3/q"
	"github.com/firstfin/sarah/model"
)

type MessageDao interface {
	//Append records a message on the conversation log
	Append(conversationId uint32, phone, role, content string) (uint32, error)
	//ExistsRecently reports whether the same (conversation, role, content) was recorded within the window
	ExistsRecently(conversationId uint32, role, content string, window time.Duration) (bool, error)
	//GetAllByConversation returns a conversation's messages oldest first
	GetAllByConversation(conversationId uint32) ([]model.Message, error)
	//CountByConversation returns the number of messages on a conversation
	CountByConversation(conversationId uint32) (int, error)
	//Count returns the total number of messages
	Count() (int, error)
}

func NewMessageDao(db Db) MessageDao {
	return &messageDao{db: db}
}

type messageDao struct {
	db Db
}

func (d messageDao) Append(conversationId uint32, phone, role, content string) (uint32, error) {
	msg := &model.Message{
		ConversationId: conversationId,
		Phone:          phone,
		Role:           role,
		Content:        content,
		CreatedAt:      time.Now(),
	}
	err := d.db.Save(msg)
	return msg.Id, err
}

func (d messageDao) ExistsRecently(conversationId uint32, role, content string, window time.Duration) (bool, error) {
	count, err := d.db.Select(
		q.Eq("ConversationId", conversationId),
		q.Eq("Role", role),
		q.Eq("Content", content),
		q.Gte("CreatedAt", time.Now().Add(-window)),
	).Count(&model.Message{})
	if notFound(err) {
		return false, nil
	}
	return count > 0, err
}

func (d messageDao) GetAllByConversation(conversationId uint32) ([]model.Message, error) {
	var msgs []model.Message
	err := d.db.Select(q.Eq("ConversationId", conversationId)).OrderBy("CreatedAt").Find(&msgs)
	if notFound(err) {
		return nil, nil
	}
	return msgs, err
}

func (d messageDao) CountByConversation(conversationId uint32) (int, error) {
	count, err := d.db.Select(q.Eq("ConversationId", conversationId)).Count(&model.Message{})
	if notFound(err) {
		return 0, nil
	}
	return count, err
}

func (d messageDao) Count() (int, error) {
	var msgs []model.Message
	err := d.db.All(&msgs)
	if notFound(err) {
		return 0, nil
	}
	return len(msgs), err
}
