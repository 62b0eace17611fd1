package dao

import (
	"testing"

	"github.com/firstfin/sarah/model"
	"github.com/stretchr/testify/require"
)

const PHONE = "+15873066133"

func TestConversationDao_GetOrCreateActive(t *testing.T) {
	db := createDB(t)
	convDao := NewConversationDao(db)

	conv, err := convDao.GetOrCreateActive(PHONE)
	require.NoError(t, err)
	require.True(t, conv.Id > 0)
	require.Equal(t, model.StatusActive, conv.Status)
	require.Equal(t, model.StageGreeting, conv.Stage)

	// second call reuses the open conversation
	again, err := convDao.GetOrCreateActive(PHONE)
	require.NoError(t, err)
	require.Equal(t, conv.Id, again.Id)
}

func TestConversationDao_GetOrCreateActiveSkipsStopped(t *testing.T) {
	db := createDB(t)
	convDao := NewConversationDao(db)

	conv, err := convDao.GetOrCreateActive(PHONE)
	require.NoError(t, err)
	require.NoError(t, convDao.Update(conv.Id, map[string]interface{}{"status": model.StatusStopped}))

	fresh, err := convDao.GetOrCreateActive(PHONE)
	require.NoError(t, err)
	require.NotEqual(t, conv.Id, fresh.Id)
}

func TestConversationDao_UpdateAppliesAllowedFields(t *testing.T) {
	db := createDB(t)
	convDao := NewConversationDao(db)

	conv, err := convDao.GetOrCreateActive(PHONE)
	require.NoError(t, err)

	err = convDao.Update(conv.Id, map[string]interface{}{
		"stage":         model.StageBudget,
		"vehicle_type":  "SUV",
		"budget_amount": 30000,
		"bogus_field":   "ignored",
	})
	require.NoError(t, err)

	got, err := convDao.GetById(conv.Id)
	require.NoError(t, err)
	require.Equal(t, model.StageBudget, got.Stage)
	require.Equal(t, "SUV", got.VehicleType)
	require.Equal(t, 30000, got.BudgetAmount)
	require.True(t, got.UpdatedAt.After(conv.UpdatedAt) || got.UpdatedAt.Equal(conv.UpdatedAt))
}

func TestConversationDao_GetMostRecent(t *testing.T) {
	db := createDB(t)
	convDao := NewConversationDao(db)

	_, err := convDao.GetMostRecent(PHONE)
	require.Error(t, err)

	conv, err := convDao.GetOrCreateActive(PHONE)
	require.NoError(t, err)
	require.NoError(t, convDao.Update(conv.Id, map[string]interface{}{"status": model.StatusStopped}))

	got, err := convDao.GetMostRecent(PHONE)
	require.NoError(t, err)
	require.Equal(t, conv.Id, got.Id)
	require.Equal(t, model.StatusStopped, got.Status)
}

func TestConversationDao_DeleteCascade(t *testing.T) {
	db := createDB(t)
	convDao := NewConversationDao(db)
	msgDao := NewMessageDao(db)
	leadDao := NewLeadDao(db)

	conv, err := convDao.GetOrCreateActive(PHONE)
	require.NoError(t, err)
	_, err = msgDao.Append(conv.Id, PHONE, model.RoleUser, "suv")
	require.NoError(t, err)
	_, err = leadDao.SaveAppointment(model.Appointment{Phone: PHONE, Name: "John"})
	require.NoError(t, err)

	removed, err := convDao.DeleteCascade(PHONE)
	require.NoError(t, err)
	require.True(t, removed)

	count, err := msgDao.CountByConversation(conv.Id)
	require.NoError(t, err)
	require.Zero(t, count)

	appts, err := leadDao.GetRecentAppointments(10)
	require.NoError(t, err)
	require.Empty(t, appts)

	removed, err = convDao.DeleteCascade(PHONE)
	require.NoError(t, err)
	require.False(t, removed)
}

func TestConversationDao_CountByStatus(t *testing.T) {
	db := createDB(t)
	convDao := NewConversationDao(db)

	conv, err := convDao.GetOrCreateActive(PHONE)
	require.NoError(t, err)
	require.NoError(t, convDao.Update(conv.Id, map[string]interface{}{"status": model.StatusConverted}))
	_, err = convDao.GetOrCreateActive("+14031234567")
	require.NoError(t, err)

	converted, err := convDao.CountByStatus(model.StatusConverted)
	require.NoError(t, err)
	require.Equal(t, 1, converted)

	active, err := convDao.CountByStatus(model.StatusActive)
	require.NoError(t, err)
	require.Equal(t, 1, active)
}
