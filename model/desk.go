package model

import "time"

type DeskUser struct {
	Id           uint32 `storm:"id,increment"`
	Email        string `storm:"unique"`
	PasswordHash string
	DisplayName  string
	Role         string
	SettingsJSON string
	LastLogin    time.Time
	CreatedAt    time.Time `storm:"index"`
}

// DeskRefreshToken stores only the sha256 of the opaque token handed to the client.
type DeskRefreshToken struct {
	Id        uint32 `storm:"id,increment"`
	UserId    uint32 `storm:"index"`
	TokenHash string `storm:"unique"`
	ExpiresAt time.Time
	CreatedAt time.Time
}

type InventoryVehicle struct {
	Id        uint32 `storm:"id,increment"`
	Stock     string `storm:"unique"`
	Year      int
	Make      string
	Model     string
	Mileage   int
	Price     float64
	Condition string
	Carfax    float64
	Type      string
	Status    string `storm:"index"`
	UpdatedAt time.Time
}

type CRMEntry struct {
	Id          uint32 `storm:"id,increment"`
	UserId      uint32 `storm:"index"`
	Name        string
	Phone       string
	Email       string
	Beacon      int
	Income      float64
	Obligations float64
	Status      string
	Source      string
	Notes       string
	UpdatedAt   time.Time `storm:"index"`
}

// DealLogEntry keeps the desk sheet as an opaque JSON blob, one row per logged deal.
type DealLogEntry struct {
	Id        uint32 `storm:"id,increment"`
	UserId    uint32 `storm:"index"`
	DealJSON  string
	CreatedAt time.Time `storm:"index"`
}

type LenderRates struct {
	Id            uint32 `storm:"id,increment"`
	UserId        uint32 `storm:"unique"`
	OverridesJSON string
	UpdatedAt     time.Time
}

// Scenario is one of three per-user save slots holding a working deal sheet.
type Scenario struct {
	Id       uint32 `storm:"id,increment"`
	UserId   uint32 `storm:"index"`
	Slot     int
	Label    string
	DealJSON string
	SavedAt  time.Time
}
