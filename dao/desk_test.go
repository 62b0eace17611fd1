package dao

import (
	"testing"
	"time"

	"github.com/firstfin/sarah/model"
	"github.com/stretchr/testify/require"
)

func TestDeskDao_UserLifecycle(t *testing.T) {
	db := createDB(t)
	deskDao := NewDeskDao(db)

	user := &model.DeskUser{Email: "agent@firstfin.ca", PasswordHash: "x", DisplayName: "Amy", Role: "agent"}
	require.NoError(t, deskDao.CreateUser(user))
	require.True(t, user.Id > 0)

	// unique email index
	err := deskDao.CreateUser(&model.DeskUser{Email: "agent@firstfin.ca", PasswordHash: "y"})
	require.Error(t, err)

	got, err := deskDao.GetUserByEmail("agent@firstfin.ca")
	require.NoError(t, err)
	require.Equal(t, user.Id, got.Id)

	require.NoError(t, deskDao.TouchLogin(user.Id))
	require.NoError(t, deskDao.SaveSettings(user.Id, `{"theme":"dark"}`))

	got, err = deskDao.GetUserById(user.Id)
	require.NoError(t, err)
	require.False(t, got.LastLogin.IsZero())
	require.Equal(t, `{"theme":"dark"}`, got.SettingsJSON)
}

func TestDeskDao_RefreshTokens(t *testing.T) {
	db := createDB(t)
	deskDao := NewDeskDao(db)

	expires := time.Now().Add(time.Hour)
	require.NoError(t, deskDao.SaveRefreshToken(1, "hash-a", expires))
	require.NoError(t, deskDao.SaveRefreshToken(1, "hash-b", expires))

	token, err := deskDao.GetRefreshToken("hash-a")
	require.NoError(t, err)
	require.Equal(t, uint32(1), token.UserId)

	require.NoError(t, deskDao.DeleteRefreshToken("hash-a"))
	_, err = deskDao.GetRefreshToken("hash-a")
	require.Error(t, err)

	require.NoError(t, deskDao.DeleteRefreshTokensForUser(1))
	_, err = deskDao.GetRefreshToken("hash-b")
	require.Error(t, err)
}

func TestDeskDao_ReplaceInventoryDelistsMissing(t *testing.T) {
	db := createDB(t)
	deskDao := NewDeskDao(db)

	require.NoError(t, deskDao.ReplaceInventory([]*model.InventoryVehicle{
		{Stock: "A100", Make: "Ford", Model: "Explorer"},
		{Stock: "A101", Make: "Toyota", Model: "RAV4"},
	}))

	vehicles, err := deskDao.GetAvailableVehicles()
	require.NoError(t, err)
	require.Len(t, vehicles, 2)

	// re-import without A101: it drops off the available list
	require.NoError(t, deskDao.ReplaceInventory([]*model.InventoryVehicle{
		{Stock: "A100", Make: "Ford", Model: "Explorer", Price: 39999},
	}))

	vehicles, err = deskDao.GetAvailableVehicles()
	require.NoError(t, err)
	require.Len(t, vehicles, 1)
	require.Equal(t, "A100", vehicles[0].Stock)
	require.Equal(t, 39999.0, vehicles[0].Price)
}

func TestDeskDao_CRMScoping(t *testing.T) {
	db := createDB(t)
	deskDao := NewDeskDao(db)

	require.NoError(t, deskDao.AddCRMEntry(&model.CRMEntry{UserId: 1, Name: "Mine"}))
	require.NoError(t, deskDao.AddCRMEntry(&model.CRMEntry{UserId: 2, Name: "Theirs"}))

	mine, err := deskDao.GetCRMEntries(1)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	// cross-user delete is a silent no-op
	require.NoError(t, deskDao.DeleteCRMEntry(2, mine[0].Id))
	mine, err = deskDao.GetCRMEntries(1)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	require.NoError(t, deskDao.ReplaceCRMEntries(1, []*model.CRMEntry{{Name: "Replaced"}}))
	mine, err = deskDao.GetCRMEntries(1)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, "Replaced", mine[0].Name)

	theirs, err := deskDao.GetCRMEntries(2)
	require.NoError(t, err)
	require.Len(t, theirs, 1)
}

func TestDeskDao_LenderRatesUpsert(t *testing.T) {
	db := createDB(t)
	deskDao := NewDeskDao(db)

	_, err := deskDao.GetLenderRates(1)
	require.Error(t, err)

	require.NoError(t, deskDao.SaveLenderRates(1, `{"prime":6.95}`))
	require.NoError(t, deskDao.SaveLenderRates(1, `{"prime":7.25}`))

	rates, err := deskDao.GetLenderRates(1)
	require.NoError(t, err)
	require.Equal(t, `{"prime":7.25}`, rates.OverridesJSON)

	require.NoError(t, deskDao.DeleteLenderRates(1))
	require.NoError(t, deskDao.DeleteLenderRates(1))
}

func TestDeskDao_ScenariosReplace(t *testing.T) {
	db := createDB(t)
	deskDao := NewDeskDao(db)

	require.NoError(t, deskDao.ReplaceScenarios(1, []*model.Scenario{
		{Slot: 2, Label: "Stretch", DealJSON: "{}"},
		{Slot: 1, Label: "Base", DealJSON: "{}"},
	}))

	scenarios, err := deskDao.GetScenarios(1)
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	require.Equal(t, 1, scenarios[0].Slot)
	require.Equal(t, 2, scenarios[1].Slot)

	require.NoError(t, deskDao.ReplaceScenarios(1, nil))
	scenarios, err = deskDao.GetScenarios(1)
	require.NoError(t, err)
	require.Empty(t, scenarios)
}
