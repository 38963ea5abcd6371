package persistence

import "time"

// KVEntry backs the generic KV store spec.md §6 lists: get_value(key) →
// T?, set_value(key, T) with JSON encoding. One row per key, value stored
// as a JSON blob so any Go value the core wants to persist (schedules,
// reservations, task-manager state) fits without its own table.
type KVEntry struct {
	Key       string `gorm:"column:key;primaryKey"`
	ValueJSON string `gorm:"column:value_json;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (KVEntry) TableName() string { return "kv_entries" }

// SystemRecord is a cached star system (spec.md §3 System entity).
type SystemRecord struct {
	Symbol    string `gorm:"column:symbol;primaryKey"`
	X         float64 `gorm:"column:x;not null"`
	Y         float64 `gorm:"column:y;not null"`
	Warps     string  `gorm:"column:warps;type:text"` // JSON []string
	LoadedAt  time.Time `gorm:"column:loaded_at;not null"`
}

func (SystemRecord) TableName() string { return "systems" }

// WaypointRecord is a cached waypoint.
type WaypointRecord struct {
	Symbol       string  `gorm:"column:symbol;primaryKey"`
	SystemSymbol string  `gorm:"column:system_symbol;not null;index"`
	Type         string  `gorm:"column:type"`
	X            float64 `gorm:"column:x;not null"`
	Y            float64 `gorm:"column:y;not null"`
	Traits       string  `gorm:"column:traits;type:text"`
	HasFuel      bool    `gorm:"column:has_fuel;not null;default:false"`
	Orbitals     string  `gorm:"column:orbitals;type:text"`
}

func (WaypointRecord) TableName() string { return "waypoints" }

// MarketRecord is one (waypoint, good) row of a cached market snapshot.
type MarketRecord struct {
	WaypointSymbol string    `gorm:"column:waypoint_symbol;primaryKey"`
	GoodSymbol     string    `gorm:"column:good_symbol;primaryKey"`
	GoodType       string    `gorm:"column:good_type"` // EXPORT/IMPORT/EXCHANGE
	Supply         string    `gorm:"column:supply"`
	Activity       string    `gorm:"column:activity"`
	PurchasePrice  int       `gorm:"column:purchase_price"`
	SellPrice      int       `gorm:"column:sell_price"`
	TradeVolume    int       `gorm:"column:trade_volume"`
	UpdatedAt      time.Time `gorm:"column:updated_at;not null"`
}

func (MarketRecord) TableName() string { return "markets" }

// ShipyardRecord is one ship-model offering row of a cached shipyard
// snapshot.
type ShipyardRecord struct {
	WaypointSymbol string    `gorm:"column:waypoint_symbol;primaryKey"`
	ShipModel      string    `gorm:"column:ship_model;primaryKey"`
	PurchasePrice  int       `gorm:"column:purchase_price"`
	UpdatedAt      time.Time `gorm:"column:updated_at;not null"`
}

func (ShipyardRecord) TableName() string { return "shipyards" }

// ConstructionRecord is a cached jump-gate construction site snapshot.
type ConstructionRecord struct {
	WaypointSymbol string    `gorm:"column:waypoint_symbol;primaryKey"`
	MaterialsJSON  string    `gorm:"column:materials_json;type:text"`
	Complete       bool      `gorm:"column:complete"`
	UpdatedAt      time.Time `gorm:"column:updated_at;not null"`
}

func (ConstructionRecord) TableName() string { return "construction_sites" }

// TransactionRecord backs the ledger's audit trail (internal/domain/ledger.Transaction).
type TransactionRecord struct {
	ID                string    `gorm:"column:id;primaryKey"`
	Timestamp         time.Time `gorm:"column:timestamp;not null;index"`
	TransactionType   string    `gorm:"column:transaction_type;not null"`
	Category          string    `gorm:"column:category;not null"`
	Amount            int       `gorm:"column:amount;not null"`
	BalanceBefore     int       `gorm:"column:balance_before"`
	BalanceAfter      int       `gorm:"column:balance_after"`
	Description       string    `gorm:"column:description"`
	RelatedEntityType string    `gorm:"column:related_entity_type"`
	RelatedEntityID   string    `gorm:"column:related_entity_id"`
	OperationType     string    `gorm:"column:operation_type"`
}

func (TransactionRecord) TableName() string { return "transactions" }
