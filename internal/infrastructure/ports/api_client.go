// Package ports declares the external service boundary the application
// layer depends on. APIClient sits here rather than in a domain package
// because it is an adapter-facing contract, not a domain invariant.
package ports

import (
	"context"
	"time"
)

// ShipData is the wire snapshot of a ship returned by the game API, used
// to reconstruct or refresh a navigation.Ship aggregate.
type ShipData struct {
	Symbol            string
	SystemSymbol      string
	Location          string
	NavStatus         string
	FlightMode        string
	ArrivalTime       string // ISO8601, only set while IN_TRANSIT
	OriginSymbol      string
	FuelCurrent       int
	FuelCapacity      int
	CargoCapacity     int
	CargoUnits        int
	Cargo             []CargoItemData
	EngineSpeed       int
	FrameSymbol       string
	Role              string
	Modules           []string
	Mounts            []string
	CooldownExpiresAt string
	Conditions        map[string]float64
}

type CargoItemData struct {
	Symbol      string
	Name        string
	Description string
	Units       int
}

type NavigationResult struct {
	Destination    string
	ArrivalTimeStr string
	FuelConsumed   int
}

type RefuelResult struct {
	FuelAdded   int
	CreditsCost int
}

type WarpResult struct {
	Destination    string
	ArrivalTimeStr string
	FuelConsumed   int
}

type JumpResult struct {
	Destination  string
	CooldownSecs int
	CreditsCost  int
}

type JumpGateData struct {
	WaypointSymbol     string
	ConnectedSystems   []string
}

type SurveyData struct {
	Signature  string
	Waypoint   string
	Deposits   []string
	Size       string
	Expiration string
}

type SurveyResult struct {
	CooldownSecs int
	Surveys      []SurveyData
}

// ExtractionResult carries either a successful extraction yield or, for
// error codes 4221 (survey invalid/expired) and 4224 (survey exhausted),
// the code alone so the caller can evict the survey without treating the
// call as a hard failure.
type ExtractionResult struct {
	Symbol       string
	Units        int
	CooldownSecs int
	ErrorCode    int
}

type SiphonResult struct {
	Symbol       string
	Units        int
	CooldownSecs int
}

type PurchaseResult struct {
	TotalCost  int
	UnitsAdded int
}

type SellResult struct {
	TotalRevenue int
	UnitsSold    int
}

type TransferResult struct {
	UnitsTransferred int
}

type ShipTypeInfo struct {
	Model         string
	PurchasePrice int
}

type ShipPurchaseResult struct {
	ShipSymbol    string
	TotalPrice    int
	WaypointSymbol string
}

type ShipyardListingData struct {
	WaypointSymbol string
	ShipTypes      []ShipTypeInfo
	ModifiedAt     time.Time
}

type TradeGoodData struct {
	Symbol        string
	Supply        string
	Activity      string
	SellPrice     int
	PurchasePrice int
	TradeVolume   int
}

type MarketData struct {
	Symbol     string
	Imports    []string
	Exports    []string
	Exchange   []string
	TradeGoods []TradeGoodData
}

type ConstructionMaterialData struct {
	TradeSymbol string
	Required    int
	Fulfilled   int
}

type ConstructionData struct {
	WaypointSymbol string
	Materials      []ConstructionMaterialData
	Complete       bool
}

type ConstructionSupplyResponse struct {
	Construction ConstructionData
	Cargo        []CargoItemData
}

type PaymentData struct {
	OnAccepted  int
	OnFulfilled int
}

type DeliveryData struct {
	TradeSymbol       string
	DestinationSymbol string
	UnitsRequired     int
	UnitsFulfilled    int
}

type ContractTermsData struct {
	DeadlineToAccept string
	Deadline         string
	Payment          PaymentData
	Deliveries       []DeliveryData
}

type ContractData struct {
	ID            string
	FactionSymbol string
	Type          string
	Terms         ContractTermsData
	Accepted      bool
	Fulfilled     bool
}

// ContractNegotiationResult carries either a freshly negotiated contract
// or, for error code 4511 ("agent already has a contract"), the id of the
// contract already on file so the caller can fetch it instead of failing.
type ContractNegotiationResult struct {
	Contract           *ContractData
	ErrorCode          int
	ExistingContractID string
}

type AgentData struct {
	AccountID       string
	Symbol          string
	Headquarters    string
	Credits         int64
	StartingFaction string
}

type WaypointAPIData struct {
	Symbol       string
	SystemSymbol string
	Type         string
	X            float64
	Y            float64
	Traits       []string
	Orbitals     []string
	HasFuel      bool
}

type PaginationMeta struct {
	Total int
	Page  int
	Limit int
}

type WaypointsListResponse struct {
	Data []WaypointAPIData
	Meta PaginationMeta
}

type SystemData struct {
	Symbol string
	X      float64
	Y      float64
}

type StatusData struct {
	ResetDate string
}

type RegisterResult struct {
	Token string
	Agent AgentData
}

// APIClient defines the remote operations the fleet core depends on. It is
// intentionally flat (no sub-interfaces per concern) to mirror how the
// application layer actually consumes it: one token-scoped client per
// agent, called from many goroutines.
type APIClient interface {
	// Agent & registration
	GetAgent(ctx context.Context, token string) (*AgentData, error)
	GetStatus(ctx context.Context) (*StatusData, error)
	RegisterAgent(ctx context.Context, callsign, faction string) (*RegisterResult, error)

	// Ships
	GetShip(ctx context.Context, symbol, token string) (*ShipData, error)
	ListShips(ctx context.Context, token string) ([]*ShipData, error)
	NavigateShip(ctx context.Context, symbol, destination, token string) (*NavigationResult, error)
	WarpShip(ctx context.Context, symbol, destination, token string) (*WarpResult, error)
	JumpShip(ctx context.Context, symbol, destination, token string) (*JumpResult, error)
	OrbitShip(ctx context.Context, symbol, token string) error
	DockShip(ctx context.Context, symbol, token string) error
	RefuelShip(ctx context.Context, symbol, token string, units *int) (*RefuelResult, error)
	SetFlightMode(ctx context.Context, symbol, flightMode, token string) error
	ScrapShip(ctx context.Context, symbol, token string) (int, error)

	// Cargo & trade
	PurchaseCargo(ctx context.Context, shipSymbol, goodSymbol string, units int, token string) (*PurchaseResult, error)
	SellCargo(ctx context.Context, shipSymbol, goodSymbol string, units int, token string) (*SellResult, error)
	JettisonCargo(ctx context.Context, shipSymbol, goodSymbol string, units int, token string) error
	TransferCargo(ctx context.Context, shipSymbol, goodSymbol string, units int, destinationShip, token string) (*TransferResult, error)

	// Mining & gas
	CreateSurvey(ctx context.Context, shipSymbol, token string) (*SurveyResult, error)
	ExtractResources(ctx context.Context, shipSymbol, token string) (*ExtractionResult, error)
	ExtractResourcesWithSurvey(ctx context.Context, shipSymbol string, survey SurveyData, token string) (*ExtractionResult, error)
	SiphonResources(ctx context.Context, shipSymbol, token string) (*SiphonResult, error)

	// Shipyards & purchasing
	GetShipyard(ctx context.Context, systemSymbol, waypointSymbol, token string) (*ShipyardListingData, error)
	PurchaseShip(ctx context.Context, shipModel, waypointSymbol, token string) (*ShipPurchaseResult, error)

	// Markets & waypoints
	GetMarket(ctx context.Context, systemSymbol, waypointSymbol, token string) (*MarketData, error)
	ListWaypoints(ctx context.Context, systemSymbol, token string, page, limit int) (*WaypointsListResponse, error)
	GetJumpGate(ctx context.Context, systemSymbol, waypointSymbol, token string) (*JumpGateData, error)

	// Construction
	GetConstruction(ctx context.Context, systemSymbol, waypointSymbol, token string) (*ConstructionData, error)
	SupplyConstruction(ctx context.Context, systemSymbol, waypointSymbol, shipSymbol, tradeSymbol string, units int, token string) (*ConstructionSupplyResponse, error)

	// Contracts
	NegotiateContract(ctx context.Context, shipSymbol, token string) (*ContractNegotiationResult, error)
	GetContract(ctx context.Context, contractID, token string) (*ContractData, error)
	ListContracts(ctx context.Context, token string) ([]ContractData, error)
	AcceptContract(ctx context.Context, contractID, token string) (*ContractData, error)
	DeliverContract(ctx context.Context, contractID, shipSymbol, tradeSymbol string, units int, token string) (*ContractData, error)
	FulfillContract(ctx context.Context, contractID, token string) (*ContractData, error)
}
