package service

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/dchest/uniuri"
	"github.com/firstfin/sarah/dao"
	"github.com/firstfin/sarah/log"
	"github.com/firstfin/sarah/model"
	"github.com/firstfin/sarah/service/dto"
	"github.com/firstfin/sarah/util"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessTokenTTL  = 4 * time.Hour
	refreshTokenTTL = 7 * 24 * time.Hour
	bcryptCost      = 12
	refreshTokenLen = 64
)

type DeskService interface {
	//Register creates a desk user and returns a fresh token pair
	Register(creds dto.Credentials) (dto.TokenPair, error)
	//Login verifies the password and returns a fresh token pair
	Login(creds dto.Credentials) (dto.TokenPair, error)
	//Refresh rotates a valid refresh token and returns a new pair
	Refresh(refreshToken string) (dto.TokenPair, error)
	//Logout revokes one refresh token
	Logout(refreshToken string) error
	//VerifyAccessToken validates a bearer token and returns the caller's profile
	VerifyAccessToken(token string) (dto.DeskProfile, error)

	GetSettings(userId uint32) (string, error)
	SaveSettings(userId uint32, settingsJSON string) error

	GetInventory() ([]model.InventoryVehicle, error)
	ReplaceInventory(vehicles []*model.InventoryVehicle) error
	DeleteVehicle(stock string) error

	GetCRM(userId uint32) ([]model.CRMEntry, error)
	ReplaceCRM(userId uint32, entries []*model.CRMEntry) error
	DeleteCRMEntry(userId, id uint32) error

	GetDealLog(userId uint32) ([]model.DealLogEntry, error)
	AddDealLogEntry(userId uint32, dealJSON string) (uint32, error)
	ReplaceDealLog(userId uint32, entries []*model.DealLogEntry) error
	DeleteDealLogEntry(userId, id uint32) error

	GetLenderRates(userId uint32) (string, error)
	SaveLenderRates(userId uint32, overridesJSON string) error
	ResetLenderRates(userId uint32) error

	GetScenarios(userId uint32) ([]model.Scenario, error)
	ReplaceScenarios(userId uint32, scenarios []*model.Scenario) error

	//LoadAll returns every desk dataset for the user in one round trip
	LoadAll(userId uint32) (dto.DeskData, error)
}

type deskService struct {
	deskDao   dao.DeskDao
	jwtSecret []byte
}

func NewDeskService(deskDao dao.DeskDao, jwtSecret string) DeskService {
	return &deskService{deskDao: deskDao, jwtSecret: []byte(jwtSecret)}
}

func (s *deskService) Register(creds dto.Credentials) (dto.TokenPair, error) {
	if util.IsBlank(creds.Email) || util.IsBlank(creds.Password) {
		return dto.TokenPair{}, NewInvalidPayloadError("email and password are required")
	}
	if len(creds.Password) < 8 {
		return dto.TokenPair{}, NewInvalidPayloadError("password must be at least 8 characters")
	}
	if _, err := s.deskDao.GetUserByEmail(creds.Email); err == nil {
		return dto.TokenPair{}, NewInvalidPayloadError("email is already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcryptCost)
	if err != nil {
		return dto.TokenPair{}, err
	}

	user := model.DeskUser{
		Email:        creds.Email,
		PasswordHash: string(hash),
		DisplayName:  creds.Name,
		Role:         "agent",
	}
	if err := s.deskDao.CreateUser(&user); err != nil {
		return dto.TokenPair{}, err
	}
	return s.issueTokens(user)
}

func (s *deskService) Login(creds dto.Credentials) (dto.TokenPair, error) {
	user, err := s.deskDao.GetUserByEmail(creds.Email)
	if notFoundErr(err) {
		return dto.TokenPair{}, NewUnauthorizedError("invalid email or password")
	}
	if err != nil {
		return dto.TokenPair{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)) != nil {
		return dto.TokenPair{}, NewUnauthorizedError("invalid email or password")
	}

	log.WarnIfErr("", s.deskDao.TouchLogin(user.Id))
	return s.issueTokens(user)
}

func (s *deskService) Refresh(refreshToken string) (dto.TokenPair, error) {
	if util.IsBlank(refreshToken) {
		return dto.TokenPair{}, NewUnauthorizedError("refresh token is required")
	}

	stored, err := s.deskDao.GetRefreshToken(hashToken(refreshToken))
	if notFoundErr(err) {
		return dto.TokenPair{}, NewUnauthorizedError("unknown refresh token")
	}
	if err != nil {
		return dto.TokenPair{}, err
	}

	//single use: the presented token is dead whether or not it expired
	if err := s.deskDao.DeleteRefreshToken(stored.TokenHash); err != nil {
		return dto.TokenPair{}, err
	}
	if time.Now().After(stored.ExpiresAt) {
		return dto.TokenPair{}, NewUnauthorizedError("refresh token expired")
	}

	user, err := s.deskDao.GetUserById(stored.UserId)
	if err != nil {
		return dto.TokenPair{}, err
	}
	return s.issueTokens(user)
}

func (s *deskService) Logout(refreshToken string) error {
	if util.IsBlank(refreshToken) {
		return nil
	}
	err := s.deskDao.DeleteRefreshToken(hashToken(refreshToken))
	if notFoundErr(err) {
		return nil
	}
	return err
}

func (s *deskService) VerifyAccessToken(token string) (dto.DeskProfile, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, NewUnauthorizedError("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return dto.DeskProfile{}, NewUnauthorizedError("invalid access token")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return dto.DeskProfile{}, NewUnauthorizedError("invalid access token")
	}

	userId, _ := claims["userId"].(float64)
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	role, _ := claims["role"].(string)
	if userId <= 0 {
		return dto.DeskProfile{}, NewUnauthorizedError("invalid access token")
	}

	return dto.DeskProfile{Id: uint32(userId), Email: email, DisplayName: name, Role: role}, nil
}

func (s *deskService) issueTokens(user model.DeskUser) (dto.TokenPair, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"userId": user.Id,
		"email":  user.Email,
		"name":   user.DisplayName,
		"role":   user.Role,
		"iat":    now.Unix(),
		"exp":    now.Add(accessTokenTTL).Unix(),
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return dto.TokenPair{}, err
	}

	refresh := uniuri.NewLen(refreshTokenLen)
	if err := s.deskDao.SaveRefreshToken(user.Id, hashToken(refresh), now.Add(refreshTokenTTL)); err != nil {
		return dto.TokenPair{}, err
	}

	return dto.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(accessTokenTTL.Seconds()),
	}, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *deskService) GetSettings(userId uint32) (string, error) {
	user, err := s.deskDao.GetUserById(userId)
	if notFoundErr(err) {
		return "", NewNotFoundError("user not found")
	}
	if err != nil {
		return "", err
	}
	return user.SettingsJSON, nil
}

func (s *deskService) SaveSettings(userId uint32, settingsJSON string) error {
	return s.deskDao.SaveSettings(userId, settingsJSON)
}

func (s *deskService) GetInventory() ([]model.InventoryVehicle, error) {
	return s.deskDao.GetAvailableVehicles()
}

func (s *deskService) ReplaceInventory(vehicles []*model.InventoryVehicle) error {
	for _, v := range vehicles {
		if util.IsBlank(v.Stock) {
			return NewInvalidPayloadError("every vehicle needs a stock number")
		}
	}
	return s.deskDao.ReplaceInventory(vehicles)
}

func (s *deskService) DeleteVehicle(stock string) error {
	err := s.deskDao.DeleteVehicle(stock)
	if notFoundErr(err) {
		return NewNotFoundError("vehicle not found")
	}
	return err
}

func (s *deskService) GetCRM(userId uint32) ([]model.CRMEntry, error) {
	return s.deskDao.GetCRMEntries(userId)
}

func (s *deskService) ReplaceCRM(userId uint32, entries []*model.CRMEntry) error {
	return s.deskDao.ReplaceCRMEntries(userId, entries)
}

func (s *deskService) DeleteCRMEntry(userId, id uint32) error {
	err := s.deskDao.DeleteCRMEntry(userId, id)
	if notFoundErr(err) {
		return NewNotFoundError("crm entry not found")
	}
	return err
}

func (s *deskService) GetDealLog(userId uint32) ([]model.DealLogEntry, error) {
	return s.deskDao.GetDealLog(userId)
}

func (s *deskService) AddDealLogEntry(userId uint32, dealJSON string) (uint32, error) {
	if util.IsBlank(dealJSON) {
		return 0, NewInvalidPayloadError("deal payload is required")
	}
	entry := model.DealLogEntry{UserId: userId, DealJSON: dealJSON}
	err := s.deskDao.AddDealLogEntry(&entry)
	return entry.Id, err
}

func (s *deskService) ReplaceDealLog(userId uint32, entries []*model.DealLogEntry) error {
	return s.deskDao.ReplaceDealLog(userId, entries)
}

func (s *deskService) DeleteDealLogEntry(userId, id uint32) error {
	err := s.deskDao.DeleteDealLogEntry(userId, id)
	if notFoundErr(err) {
		return NewNotFoundError("deal log entry not found")
	}
	return err
}

func (s *deskService) GetLenderRates(userId uint32) (string, error) {
	rates, err := s.deskDao.GetLenderRates(userId)
	if notFoundErr(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return rates.OverridesJSON, nil
}

func (s *deskService) SaveLenderRates(userId uint32, overridesJSON string) error {
	return s.deskDao.SaveLenderRates(userId, overridesJSON)
}

func (s *deskService) ResetLenderRates(userId uint32) error {
	return s.deskDao.DeleteLenderRates(userId)
}

func (s *deskService) GetScenarios(userId uint32) ([]model.Scenario, error) {
	return s.deskDao.GetScenarios(userId)
}

func (s *deskService) ReplaceScenarios(userId uint32, scenarios []*model.Scenario) error {
	for _, sc := range scenarios {
		if sc.Slot < 1 || sc.Slot > 3 {
			return NewInvalidPayloadError("scenario slot must be 1, 2 or 3")
		}
	}
	return s.deskDao.ReplaceScenarios(userId, scenarios)
}

func (s *deskService) LoadAll(userId uint32) (dto.DeskData, error) {
	var data dto.DeskData

	settings, err := s.GetSettings(userId)
	if err != nil {
		return data, err
	}
	data.Settings = settings

	inventory, err := s.GetInventory()
	if err != nil {
		return data, err
	}
	crm, err := s.GetCRM(userId)
	if err != nil {
		return data, err
	}
	dealLog, err := s.GetDealLog(userId)
	if err != nil {
		return data, err
	}
	rates, err := s.GetLenderRates(userId)
	if err != nil {
		return data, err
	}
	scenarios, err := s.GetScenarios(userId)
	if err != nil {
		return data, err
	}

	data.Inventory = marshalOrEmpty(inventory)
	data.CRM = marshalOrEmpty(crm)
	data.DealLog = marshalOrEmpty(dealLog)
	data.LenderRates = rates
	data.Scenarios = marshalOrEmpty(scenarios)
	return data, nil
}
