package dao

import (
	"time"

	"github.com/firstfin/sarah/model"
)

type CustomerDao interface {
	//GetOrCreate returns the customer with the given phone, creating it on first contact
	GetOrCreate(phone string) (model.Customer, error)
	//SetName stores the captured name and bumps the last-contact timestamp
	SetName(phone, name string) error
	//TouchContact bumps the last-contact timestamp only
	TouchContact(phone string) error
	//Count returns the total number of customers
	Count() (int, error)
}

func NewCustomerDao(db Db) CustomerDao {
	return &customerDao{db: db}
}

type customerDao struct {
	db Db
}

func (d customerDao) GetOrCreate(phone string) (model.Customer, error) {
	var customer model.Customer
	err := d.db.One("Phone", phone, &customer)
	if err == nil {
		return customer, nil
	}
	if !notFound(err) {
		return customer, err
	}

	customer = model.Customer{Phone: phone, LastContact: time.Now(), CreatedAt: time.Now()}
	err = d.db.Save(&customer)
	return customer, err
}

func (d customerDao) SetName(phone, name string) error {
	var customer model.Customer
	if err := d.db.One("Phone", phone, &customer); err != nil {
		return err
	}
	customer.Name = name
	customer.LastContact = time.Now()
	return d.db.Update(&customer)
}

func (d customerDao) TouchContact(phone string) error {
	var customer model.Customer
	if err := d.db.One("Phone", phone, &customer); err != nil {
		return err
	}
	customer.LastContact = time.Now()
	return d.db.Update(&customer)
}

func (d customerDao) Count() (int, error) {
	var customers []model.Customer
	err := d.db.All(&customers)
	if notFound(err) {
		return 0, nil
	}
	return len(customers), err
}
