package dao

import (
	"strings"
	"time"

	"github.com/firstfin/sarah/model"
)

// LeadDao owns the terminal appointment and callback records produced by converted conversations.
type LeadDao interface {
	//SaveAppointment records a booked test drive
	SaveAppointment(lead model.Appointment) (uint32, error)
	//SaveCallback records a requested sales call
	SaveCallback(lead model.Callback) (uint32, error)
	//GetRecentAppointments returns up to limit appointments newest first
	GetRecentAppointments(limit int) ([]model.Appointment, error)
	//GetRecentCallbacks returns up to limit callbacks newest first
	GetRecentCallbacks(limit int) ([]model.Callback, error)
	//DeleteAppointment removes one appointment by id
	DeleteAppointment(id uint32) error
	//DeleteCallback removes one callback by id
	DeleteCallback(id uint32) error
	//DeleteByPhoneContaining removes every lead whose phone contains the fragment, returns removed count
	DeleteByPhoneContaining(fragment string) (int, error)
}

func NewLeadDao(db Db) LeadDao {
	return &leadDao{db: db}
}

type leadDao struct {
	db Db
}

func (d leadDao) SaveAppointment(lead model.Appointment) (uint32, error) {
	lead.CreatedAt = time.Now()
	err := d.db.Save(&lead)
	return lead.Id, err
}

func (d leadDao) SaveCallback(lead model.Callback) (uint32, error) {
	lead.CreatedAt = time.Now()
	err := d.db.Save(&lead)
	return lead.Id, err
}

func (d leadDao) GetRecentAppointments(limit int) ([]model.Appointment, error) {
	var leads []model.Appointment
	err := d.db.Select().OrderBy("CreatedAt").Reverse().Limit(limit).Find(&leads)
	if notFound(err) {
		return nil, nil
	}
	return leads, err
}

func (d leadDao) GetRecentCallbacks(limit int) ([]model.Callback, error) {
	var leads []model.Callback
	err := d.db.Select().OrderBy("CreatedAt").Reverse().Limit(limit).Find(&leads)
	if notFound(err) {
		return nil, nil
	}
	return leads, err
}

func (d leadDao) DeleteAppointment(id uint32) error {
	return d.db.DeleteStruct(&model.Appointment{Id: id})
}

func (d leadDao) DeleteCallback(id uint32) error {
	return d.db.DeleteStruct(&model.Callback{Id: id})
}

func (d leadDao) DeleteByPhoneContaining(fragment string) (int, error) {
	removed := 0

	var appts []model.Appointment
	if err := d.db.All(&appts); err != nil && !notFound(err) {
		return 0, err
	}
	for i := range appts {
		if strings.Contains(appts[i].Phone, fragment) {
			if err := d.db.DeleteStruct(&appts[i]); err != nil {
				return removed, err
			}
			removed++
		}
	}

	var calls []model.Callback
	if err := d.db.All(&calls); err != nil && !notFound(err) {
		return removed, err
	}
	for i := range calls {
		if strings.Contains(calls[i].Phone, fragment) {
			if err := d.db.DeleteStruct(&calls[i]); err != nil {
				return removed, err
			}
			removed++
		}
	}

	return removed, nil
}
