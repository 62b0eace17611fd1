package dao

import (
	"testing"

	"github.com/firstfin/sarah/model"
	"github.com/stretchr/testify/require"
)

func TestCustomerDao_GetOrCreate(t *testing.T) {
	db := createDB(t)
	custDao := NewCustomerDao(db)

	customer, err := custDao.GetOrCreate(PHONE)
	require.NoError(t, err)
	require.True(t, customer.Id > 0)
	require.False(t, customer.CreatedAt.IsZero())

	again, err := custDao.GetOrCreate(PHONE)
	require.NoError(t, err)
	require.Equal(t, customer.Id, again.Id)

	count, err := custDao.Count()
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestCustomerDao_SetName(t *testing.T) {
	db := createDB(t)
	custDao := NewCustomerDao(db)

	require.Error(t, custDao.SetName(PHONE, "John"))

	_, err := custDao.GetOrCreate(PHONE)
	require.NoError(t, err)
	require.NoError(t, custDao.SetName(PHONE, "John Smith"))

	customer, err := custDao.GetOrCreate(PHONE)
	require.NoError(t, err)
	require.Equal(t, "John Smith", customer.Name)
}

func TestLeadDao_SaveAndList(t *testing.T) {
	db := createDB(t)
	leadDao := NewLeadDao(db)

	id, err := leadDao.SaveAppointment(model.Appointment{
		Phone: PHONE, Name: "John Smith", VehicleType: "SUV",
		Budget: "$30k-$50k", BudgetAmount: 30000, Datetime: "Tomorrow afternoon",
	})
	require.NoError(t, err)
	require.True(t, id > 0)

	_, err = leadDao.SaveCallback(model.Callback{Phone: "+14031234567", Name: "Amy"})
	require.NoError(t, err)

	appts, err := leadDao.GetRecentAppointments(10)
	require.NoError(t, err)
	require.Len(t, appts, 1)
	require.Equal(t, "Tomorrow afternoon", appts[0].Datetime)

	calls, err := leadDao.GetRecentCallbacks(10)
	require.NoError(t, err)
	require.Len(t, calls, 1)

	removed, err := leadDao.DeleteByPhoneContaining("4031234567")
	require.NoError(t, err)
	require.Equal(t, 1, removed)
}

func TestAnalyticsDao_LogAndCount(t *testing.T) {
	db := createDB(t)
	analyticsDao := NewAnalyticsDao(db)

	require.NoError(t, analyticsDao.Log("conversation_stopped", PHONE, map[string]interface{}{"message": "STOP"}))
	require.NoError(t, analyticsDao.Log("conversation_stopped", "+14031234567", nil))
	require.NoError(t, analyticsDao.Log("appointment_booked", PHONE, nil))

	count, err := analyticsDao.CountByType("conversation_stopped")
	require.NoError(t, err)
	require.Equal(t, 2, count)

	events, err := analyticsDao.GetRecent(2)
	require.NoError(t, err)
	require.Len(t, events, 2)
}
