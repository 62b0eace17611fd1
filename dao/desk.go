package dao

import (
	"time"

	"github.com/asdine/storm/v3/q"
	"github.com/firstfin/sarah/model"
)

// DeskDao backs the Desk module: users, refresh tokens, inventory, CRM, deal log,
// lender rates and scenario slots. All per-user data is scoped by user id.
type DeskDao interface {
	CreateUser(user *model.DeskUser) error
	GetUserByEmail(email string) (model.DeskUser, error)
	GetUserById(id uint32) (model.DeskUser, error)
	TouchLogin(id uint32) error
	SaveSettings(userId uint32, settingsJSON string) error

	SaveRefreshToken(userId uint32, tokenHash string, expiresAt time.Time) error
	GetRefreshToken(tokenHash string) (model.DeskRefreshToken, error)
	DeleteRefreshToken(tokenHash string) error
	DeleteRefreshTokensForUser(userId uint32) error

	UpsertVehicle(v *model.InventoryVehicle) error
	GetAvailableVehicles() ([]model.InventoryVehicle, error)
	ReplaceInventory(vehicles []*model.InventoryVehicle) error
	DeleteVehicle(stock string) error

	GetCRMEntries(userId uint32) ([]model.CRMEntry, error)
	AddCRMEntry(entry *model.CRMEntry) error
	ReplaceCRMEntries(userId uint32, entries []*model.CRMEntry) error
	DeleteCRMEntry(userId, id uint32) error

	GetDealLog(userId uint32) ([]model.DealLogEntry, error)
	AddDealLogEntry(entry *model.DealLogEntry) error
	ReplaceDealLog(userId uint32, entries []*model.DealLogEntry) error
	DeleteDealLogEntry(userId, id uint32) error

	GetLenderRates(userId uint32) (model.LenderRates, error)
	SaveLenderRates(userId uint32, overridesJSON string) error
	DeleteLenderRates(userId uint32) error

	GetScenarios(userId uint32) ([]model.Scenario, error)
	ReplaceScenarios(userId uint32, scenarios []*model.Scenario) error
}

func NewDeskDao(db Db) DeskDao {
	return &deskDao{db: db}
}

type deskDao struct {
	db Db
}

func (d deskDao) CreateUser(user *model.DeskUser) error {
	user.CreatedAt = time.Now()
	return d.db.Save(user)
}

func (d deskDao) GetUserByEmail(email string) (user model.DeskUser, err error) {
	err = d.db.One("Email", email, &user)
	return
}

func (d deskDao) GetUserById(id uint32) (user model.DeskUser, err error) {
	err = d.db.One("Id", id, &user)
	return
}

func (d deskDao) TouchLogin(id uint32) error {
	return d.db.UpdateField(&model.DeskUser{Id: id}, "LastLogin", time.Now())
}

func (d deskDao) SaveSettings(userId uint32, settingsJSON string) error {
	return d.db.UpdateField(&model.DeskUser{Id: userId}, "SettingsJSON", settingsJSON)
}

func (d deskDao) SaveRefreshToken(userId uint32, tokenHash string, expiresAt time.Time) error {
	return d.db.Save(&model.DeskRefreshToken{
		UserId:    userId,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	})
}

func (d deskDao) GetRefreshToken(tokenHash string) (token model.DeskRefreshToken, err error) {
	err = d.db.One("TokenHash", tokenHash, &token)
	return
}

func (d deskDao) DeleteRefreshToken(tokenHash string) error {
	var token model.DeskRefreshToken
	if err := d.db.One("TokenHash", tokenHash, &token); err != nil {
		return err
	}
	return d.db.DeleteStruct(&token)
}

func (d deskDao) DeleteRefreshTokensForUser(userId uint32) error {
	return ignoreNotFound(d.db.Select(q.Eq("UserId", userId)).Delete(&model.DeskRefreshToken{}))
}

func (d deskDao) UpsertVehicle(v *model.InventoryVehicle) error {
	var existing model.InventoryVehicle
	err := d.db.One("Stock", v.Stock, &existing)
	if err != nil && !notFound(err) {
		return err
	}
	if err == nil {
		v.Id = existing.Id
		v.UpdatedAt = time.Now()
		return d.db.Update(v)
	}
	v.UpdatedAt = time.Now()
	return d.db.Save(v)
}

func (d deskDao) GetAvailableVehicles() ([]model.InventoryVehicle, error) {
	var vehicles []model.InventoryVehicle
	err := d.db.Select(q.Eq("Status", "available")).OrderBy("Stock").Find(&vehicles)
	if notFound(err) {
		return nil, nil
	}
	return vehicles, err
}

// ReplaceInventory delists everything then upserts the incoming set as available,
// mirroring a full CSV re-import.
func (d deskDao) ReplaceInventory(vehicles []*model.InventoryVehicle) error {
	var current []model.InventoryVehicle
	if err := d.db.All(&current); err != nil && !notFound(err) {
		return err
	}
	for i := range current {
		current[i].Status = "delisted"
		if err := d.db.Update(&current[i]); err != nil {
			return err
		}
	}

	for _, v := range vehicles {
		v.Status = "available"
		if err := d.UpsertVehicle(v); err != nil {
			return err
		}
	}
	return nil
}

func (d deskDao) DeleteVehicle(stock string) error {
	var v model.InventoryVehicle
	if err := d.db.One("Stock", stock, &v); err != nil {
		return err
	}
	return d.db.DeleteStruct(&v)
}

func (d deskDao) GetCRMEntries(userId uint32) ([]model.CRMEntry, error) {
	var entries []model.CRMEntry
	err := d.db.Select(q.Eq("UserId", userId)).OrderBy("UpdatedAt").Reverse().Find(&entries)
	if notFound(err) {
		return nil, nil
	}
	return entries, err
}

func (d deskDao) AddCRMEntry(entry *model.CRMEntry) error {
	entry.UpdatedAt = time.Now()
	return d.db.Save(entry)
}

func (d deskDao) ReplaceCRMEntries(userId uint32, entries []*model.CRMEntry) error {
	if err := ignoreNotFound(d.db.Select(q.Eq("UserId", userId)).Delete(&model.CRMEntry{})); err != nil {
		return err
	}
	for _, entry := range entries {
		entry.UserId = userId
		if err := d.AddCRMEntry(entry); err != nil {
			return err
		}
	}
	return nil
}

func (d deskDao) DeleteCRMEntry(userId, id uint32) error {
	var entry model.CRMEntry
	if err := d.db.One("Id", id, &entry); err != nil {
		return err
	}
	if entry.UserId != userId {
		return nil
	}
	return d.db.DeleteStruct(&entry)
}

func (d deskDao) GetDealLog(userId uint32) ([]model.DealLogEntry, error) {
	var entries []model.DealLogEntry
	err := d.db.Select(q.Eq("UserId", userId)).OrderBy("CreatedAt").Reverse().Find(&entries)
	if notFound(err) {
		return nil, nil
	}
	return entries, err
}

func (d deskDao) AddDealLogEntry(entry *model.DealLogEntry) error {
	entry.CreatedAt = time.Now()
	return d.db.Save(entry)
}

func (d deskDao) ReplaceDealLog(userId uint32, entries []*model.DealLogEntry) error {
	if err := ignoreNotFound(d.db.Select(q.Eq("UserId", userId)).Delete(&model.DealLogEntry{})); err != nil {
		return err
	}
	for _, entry := range entries {
		entry.UserId = userId
		if err := d.AddDealLogEntry(entry); err != nil {
			return err
		}
	}
	return nil
}

func (d deskDao) DeleteDealLogEntry(userId, id uint32) error {
	var entry model.DealLogEntry
	if err := d.db.One("Id", id, &entry); err != nil {
		return err
	}
	if entry.UserId != userId {
		return nil
	}
	return d.db.DeleteStruct(&entry)
}

func (d deskDao) GetLenderRates(userId uint32) (rates model.LenderRates, err error) {
	err = d.db.One("UserId", userId, &rates)
	return
}

func (d deskDao) SaveLenderRates(userId uint32, overridesJSON string) error {
	var rates model.LenderRates
	err := d.db.One("UserId", userId, &rates)
	if err != nil && !notFound(err) {
		return err
	}
	if notFound(err) {
		return d.db.Save(&model.LenderRates{UserId: userId, OverridesJSON: overridesJSON, UpdatedAt: time.Now()})
	}
	rates.OverridesJSON = overridesJSON
	rates.UpdatedAt = time.Now()
	return d.db.Update(&rates)
}

func (d deskDao) DeleteLenderRates(userId uint32) error {
	var rates model.LenderRates
	err := d.db.One("UserId", userId, &rates)
	if notFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return d.db.DeleteStruct(&rates)
}

func (d deskDao) GetScenarios(userId uint32) ([]model.Scenario, error) {
	var scenarios []model.Scenario
	err := d.db.Select(q.Eq("UserId", userId)).OrderBy("Slot").Find(&scenarios)
	if notFound(err) {
		return nil, nil
	}
	return scenarios, err
}

func (d deskDao) ReplaceScenarios(userId uint32, scenarios []*model.Scenario) error {
	if err := ignoreNotFound(d.db.Select(q.Eq("UserId", userId)).Delete(&model.Scenario{})); err != nil {
		return err
	}
	for _, s := range scenarios {
		s.UserId = userId
		s.SavedAt = time.Now()
		if err := d.db.Save(s); err != nil {
			return err
		}
	}
	return nil
}
