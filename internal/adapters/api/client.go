// Package api is the rate-limited, circuit-broken HTTP client for the
// SpaceTraders-compatible game REST API. It is a thin adapter: it knows
// nothing about fleet strategy, only request/response shapes, so it stays
// small relative to the coordination core it serves.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/kestrel-systems/fleetcore/internal/domain/shared"
	"github.com/kestrel-systems/fleetcore/internal/infrastructure/ports"
)

const (
	defaultBaseURL          = "https://api.spacetraders.io/v2"
	defaultTimeout          = 30 * time.Second
	defaultMaxRetries       = 5
	defaultBackoffBase      = time.Second
	defaultCircuitThreshold = 5
	defaultCircuitTimeout   = 60 * time.Second
)

// SpaceTradersClient implements ports.APIClient against the live game API.
type SpaceTradersClient struct {
	httpClient     *http.Client
	rateLimiter    *rate.Limiter
	baseURL        string
	maxRetries     int
	backoffBase    time.Duration
	circuitBreaker *CircuitBreaker
	clock          shared.Clock
	interceptor    EventInterceptor
	sliceID        string
	requestSeq     int64
}

// NewSpaceTradersClient creates a client with the teacher's defaults: 2
// req/sec rate limit (burst 2), 5 retries with 1s exponential backoff, and
// a circuit breaker that opens after 5 consecutive failures for 60s.
func NewSpaceTradersClient(baseURL, sliceID string, interceptor EventInterceptor) *SpaceTradersClient {
	return NewSpaceTradersClientWithConfig(
		baseURL,
		defaultMaxRetries,
		defaultBackoffBase,
		defaultCircuitThreshold,
		defaultCircuitTimeout,
		nil,
		sliceID,
		interceptor,
	)
}

// NewSpaceTradersClientWithConfig allows overriding every retry/circuit
// knob and injecting a Clock, used by tests to make backoff sleeps instant.
func NewSpaceTradersClientWithConfig(
	baseURL string,
	maxRetries int,
	backoffBase time.Duration,
	circuitThreshold int,
	circuitTimeout time.Duration,
	clock shared.Clock,
	sliceID string,
	interceptor EventInterceptor,
) *SpaceTradersClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if clock == nil {
		clock = shared.NewRealClock()
	}
	if interceptor == nil {
		interceptor = NoopInterceptor{}
	}
	return &SpaceTradersClient{
		httpClient:     &http.Client{Timeout: defaultTimeout},
		rateLimiter:    rate.NewLimiter(rate.Limit(2), 2),
		baseURL:        baseURL,
		maxRetries:     maxRetries,
		backoffBase:    backoffBase,
		circuitBreaker: NewCircuitBreaker(circuitThreshold, circuitTimeout, clock),
		clock:          clock,
		interceptor:    interceptor,
		sliceID:        sliceID,
	}
}

// GetShip retrieves ship details.
func (c *SpaceTradersClient) GetShip(ctx context.Context, symbol, token string) (*ports.ShipData, error) {
	path := fmt.Sprintf("/my/ships/%s", symbol)
	var response struct {
		Data shipWire `json:"data"`
	}
	if err := c.request(ctx, "GET", path, token, nil, &response); err != nil {
		return nil, fmt.Errorf("get ship: %w", err)
	}
	return response.Data.toShipData(), nil
}

// ListShips retrieves every ship owned by the agent, paging 20 at a time.
func (c *SpaceTradersClient) ListShips(ctx context.Context, token string) ([]*ports.ShipData, error) {
	var all []*ports.ShipData
	for page := 1; ; page++ {
		path := fmt.Sprintf("/my/ships?page=%d&limit=20", page)
		var response struct {
			Data []shipWire `json:"data"`
		}
		if err := c.request(ctx, "GET", path, token, nil, &response); err != nil {
			return nil, fmt.Errorf("list ships (page %d): %w", page, err)
		}
		if len(response.Data) == 0 {
			break
		}
		for i := range response.Data {
			all = append(all, response.Data[i].toShipData())
		}
	}
	return all, nil
}

type shipWire struct {
	Symbol string `json:"symbol"`
	Nav    struct {
		SystemSymbol   string `json:"systemSymbol"`
		WaypointSymbol string `json:"waypointSymbol"`
		Status         string `json:"status"`
		FlightMode     string `json:"flightMode"`
		Route          *struct {
			OriginSymbol string `json:"originSymbol"`
			Arrival      string `json:"arrival"`
		} `json:"route,omitempty"`
	} `json:"nav"`
	Fuel struct {
		Current  int `json:"current"`
		Capacity int `json:"capacity"`
	} `json:"fuel"`
	Cargo struct {
		Capacity  int `json:"capacity"`
		Units     int `json:"units"`
		Inventory []struct {
			Symbol      string `json:"symbol"`
			Name        string `json:"name"`
			Description string `json:"description"`
			Units       int    `json:"units"`
		} `json:"inventory"`
	} `json:"cargo"`
	Engine struct {
		Speed int `json:"speed"`
	} `json:"engine"`
	Frame struct {
		Symbol    string `json:"symbol"`
		Condition float64 `json:"condition"`
	} `json:"frame"`
	Reactor struct {
		Condition float64 `json:"condition"`
	} `json:"reactor"`
	Registration struct {
		Role string `json:"role"`
	} `json:"registration"`
	Modules []struct {
		Symbol string `json:"symbol"`
	} `json:"modules"`
	Mounts []struct {
		Symbol string `json:"symbol"`
	} `json:"mounts"`
	Cooldown struct {
		Expiration string `json:"expiration"`
	} `json:"cooldown"`
}

func (w *shipWire) toShipData() *ports.ShipData {
	inventory := make([]ports.CargoItemData, len(w.Cargo.Inventory))
	for i, item := range w.Cargo.Inventory {
		inventory[i] = ports.CargoItemData{
			Symbol: item.Symbol, Name: item.Name,
			Description: item.Description, Units: item.Units,
		}
	}
	modules := make([]string, len(w.Modules))
	for i, m := range w.Modules {
		modules[i] = m.Symbol
	}
	mounts := make([]string, len(w.Mounts))
	for i, m := range w.Mounts {
		mounts[i] = m.Symbol
	}

	arrivalTime, origin := "", ""
	if w.Nav.Route != nil {
		arrivalTime = w.Nav.Route.Arrival
		origin = w.Nav.Route.OriginSymbol
	}

	return &ports.ShipData{
		Symbol:            w.Symbol,
		SystemSymbol:      w.Nav.SystemSymbol,
		Location:          w.Nav.WaypointSymbol,
		NavStatus:         w.Nav.Status,
		FlightMode:        w.Nav.FlightMode,
		ArrivalTime:       arrivalTime,
		OriginSymbol:      origin,
		FuelCurrent:       w.Fuel.Current,
		FuelCapacity:      w.Fuel.Capacity,
		CargoCapacity:     w.Cargo.Capacity,
		CargoUnits:        w.Cargo.Units,
		Cargo:             inventory,
		EngineSpeed:       w.Engine.Speed,
		FrameSymbol:       w.Frame.Symbol,
		Role:              w.Registration.Role,
		Modules:           modules,
		Mounts:            mounts,
		CooldownExpiresAt: w.Cooldown.Expiration,
		Conditions: map[string]float64{
			"FRAME":   w.Frame.Condition,
			"REACTOR": w.Reactor.Condition,
		},
	}
}

// NavigateShip navigates a ship under the Cruise/Drift/Burn flight mode
// already set on it via SetFlightMode.
func (c *SpaceTradersClient) NavigateShip(ctx context.Context, symbol, destination, token string) (*ports.NavigationResult, error) {
	path := fmt.Sprintf("/my/ships/%s/navigate", symbol)
	body := map[string]string{"waypointSymbol": destination}

	var response struct {
		Data struct {
			Fuel struct {
				Consumed struct {
					Amount int `json:"amount"`
				} `json:"consumed"`
			} `json:"fuel"`
			Nav struct {
				WaypointSymbol string `json:"waypointSymbol"`
				Route          struct {
					Arrival string `json:"arrival"`
				} `json:"route"`
			} `json:"nav"`
		} `json:"data"`
	}
	if err := c.request(ctx, "POST", path, token, body, &response); err != nil {
		return nil, fmt.Errorf("navigate ship: %w", err)
	}
	return &ports.NavigationResult{
		Destination:    response.Data.Nav.WaypointSymbol,
		ArrivalTimeStr: response.Data.Nav.Route.Arrival,
		FuelConsumed:   response.Data.Fuel.Consumed.Amount,
	}, nil
}

// WarpShip moves a ship across systems along a known warp lane.
func (c *SpaceTradersClient) WarpShip(ctx context.Context, symbol, destination, token string) (*ports.WarpResult, error) {
	path := fmt.Sprintf("/my/ships/%s/warp", symbol)
	body := map[string]string{"waypointSymbol": destination}

	var response struct {
		Data struct {
			Fuel struct {
				Consumed struct {
					Amount int `json:"amount"`
				} `json:"consumed"`
			} `json:"fuel"`
			Nav struct {
				WaypointSymbol string `json:"waypointSymbol"`
				Route          struct {
					Arrival string `json:"arrival"`
				} `json:"route"`
			} `json:"nav"`
		} `json:"data"`
	}
	if err := c.request(ctx, "POST", path, token, body, &response); err != nil {
		return nil, fmt.Errorf("warp ship: %w", err)
	}
	return &ports.WarpResult{
		Destination:    response.Data.Nav.WaypointSymbol,
		ArrivalTimeStr: response.Data.Nav.Route.Arrival,
		FuelConsumed:   response.Data.Fuel.Consumed.Amount,
	}, nil
}

// JumpShip moves a ship through a jump gate to another system, spending a
// gate cooldown rather than fuel.
func (c *SpaceTradersClient) JumpShip(ctx context.Context, symbol, destination, token string) (*ports.JumpResult, error) {
	path := fmt.Sprintf("/my/ships/%s/jump", symbol)
	body := map[string]string{"waypointSymbol": destination}

	var response struct {
		Data struct {
			Nav struct {
				WaypointSymbol string `json:"waypointSymbol"`
			} `json:"nav"`
			Cooldown struct {
				RemainingSeconds int `json:"remainingSeconds"`
			} `json:"cooldown"`
			Transaction struct {
				TotalPrice int `json:"totalPrice"`
			} `json:"transaction"`
		} `json:"data"`
	}
	if err := c.request(ctx, "POST", path, token, body, &response); err != nil {
		return nil, fmt.Errorf("jump ship: %w", err)
	}
	return &ports.JumpResult{
		Destination:  response.Data.Nav.WaypointSymbol,
		CooldownSecs: response.Data.Cooldown.RemainingSeconds,
		CreditsCost:  response.Data.Transaction.TotalPrice,
	}, nil
}

func (c *SpaceTradersClient) OrbitShip(ctx context.Context, symbol, token string) error {
	path := fmt.Sprintf("/my/ships/%s/orbit", symbol)
	if err := c.request(ctx, "POST", path, token, map[string]interface{}{}, nil); err != nil {
		return fmt.Errorf("orbit ship: %w", err)
	}
	return nil
}

func (c *SpaceTradersClient) DockShip(ctx context.Context, symbol, token string) error {
	path := fmt.Sprintf("/my/ships/%s/dock", symbol)
	if err := c.request(ctx, "POST", path, token, map[string]interface{}{}, nil); err != nil {
		return fmt.Errorf("dock ship: %w", err)
	}
	return nil
}

func (c *SpaceTradersClient) RefuelShip(ctx context.Context, symbol, token string, units *int) (*ports.RefuelResult, error) {
	path := fmt.Sprintf("/my/ships/%s/refuel", symbol)
	body := map[string]interface{}{}
	if units != nil {
		body["units"] = *units
	}

	var response struct {
		Data struct {
			Transaction struct {
				Units      int `json:"units"`
				TotalPrice int `json:"totalPrice"`
			} `json:"transaction"`
		} `json:"data"`
	}
	if err := c.request(ctx, "POST", path, token, body, &response); err != nil {
		return nil, fmt.Errorf("refuel ship: %w", err)
	}
	return &ports.RefuelResult{
		FuelAdded:   response.Data.Transaction.Units,
		CreditsCost: response.Data.Transaction.TotalPrice,
	}, nil
}

func (c *SpaceTradersClient) SetFlightMode(ctx context.Context, symbol, flightMode, token string) error {
	path := fmt.Sprintf("/my/ships/%s/nav", symbol)
	body := map[string]string{"flightMode": flightMode}
	if err := c.request(ctx, "PATCH", path, token, body, nil); err != nil {
		return fmt.Errorf("set flight mode: %w", err)
	}
	return nil
}

func (c *SpaceTradersClient) ScrapShip(ctx context.Context, symbol, token string) (int, error) {
	path := fmt.Sprintf("/my/ships/%s/scrap", symbol)
	var response struct {
		Data struct {
			Transaction struct {
				TotalPrice int `json:"totalPrice"`
			} `json:"transaction"`
		} `json:"data"`
	}
	if err := c.request(ctx, "POST", path, token, map[string]interface{}{}, &response); err != nil {
		return 0, fmt.Errorf("scrap ship: %w", err)
	}
	return response.Data.Transaction.TotalPrice, nil
}

func (c *SpaceTradersClient) PurchaseCargo(ctx context.Context, shipSymbol, goodSymbol string, units int, token string) (*ports.PurchaseResult, error) {
	path := fmt.Sprintf("/my/ships/%s/purchase", shipSymbol)
	body := map[string]interface{}{"symbol": goodSymbol, "units": units}

	var response struct {
		Data struct {
			Transaction struct {
				TotalPrice int `json:"totalPrice"`
				Units      int `json:"units"`
			} `json:"transaction"`
		} `json:"data"`
	}
	if err := c.request(ctx, "POST", path, token, body, &response); err != nil {
		return nil, fmt.Errorf("purchase cargo: %w", err)
	}
	return &ports.PurchaseResult{
		TotalCost:  response.Data.Transaction.TotalPrice,
		UnitsAdded: response.Data.Transaction.Units,
	}, nil
}

func (c *SpaceTradersClient) SellCargo(ctx context.Context, shipSymbol, goodSymbol string, units int, token string) (*ports.SellResult, error) {
	path := fmt.Sprintf("/my/ships/%s/sell", shipSymbol)
	body := map[string]interface{}{"symbol": goodSymbol, "units": units}

	var response struct {
		Data struct {
			Transaction struct {
				TotalPrice int `json:"totalPrice"`
				Units      int `json:"units"`
			} `json:"transaction"`
		} `json:"data"`
	}
	if err := c.request(ctx, "POST", path, token, body, &response); err != nil {
		return nil, fmt.Errorf("sell cargo: %w", err)
	}
	return &ports.SellResult{
		TotalRevenue: response.Data.Transaction.TotalPrice,
		UnitsSold:    response.Data.Transaction.Units,
	}, nil
}

func (c *SpaceTradersClient) JettisonCargo(ctx context.Context, shipSymbol, goodSymbol string, units int, token string) error {
	path := fmt.Sprintf("/my/ships/%s/jettison", shipSymbol)
	body := map[string]interface{}{"symbol": goodSymbol, "units": units}
	if err := c.request(ctx, "POST", path, token, body, nil); err != nil {
		return fmt.Errorf("jettison cargo: %w", err)
	}
	return nil
}

func (c *SpaceTradersClient) TransferCargo(ctx context.Context, shipSymbol, goodSymbol string, units int, destinationShip, token string) (*ports.TransferResult, error) {
	path := fmt.Sprintf("/my/ships/%s/transfer", shipSymbol)
	body := map[string]interface{}{
		"tradeSymbol": goodSymbol,
		"units":       units,
		"shipSymbol":  destinationShip,
	}
	if err := c.request(ctx, "POST", path, token, body, nil); err != nil {
		return nil, fmt.Errorf("transfer cargo: %w", err)
	}
	return &ports.TransferResult{UnitsTransferred: units}, nil
}

func (c *SpaceTradersClient) CreateSurvey(ctx context.Context, shipSymbol, token string) (*ports.SurveyResult, error) {
	path := fmt.Sprintf("/my/ships/%s/survey", shipSymbol)
	var response struct {
		Data struct {
			Cooldown struct {
				RemainingSeconds int `json:"remainingSeconds"`
			} `json:"cooldown"`
			Surveys []struct {
				Signature  string   `json:"signature"`
				Symbol     string   `json:"symbol"`
				Deposits   []string `json:"deposits"`
				Expiration string   `json:"expiration"`
				Size       string   `json:"size"`
			} `json:"surveys"`
		} `json:"data"`
	}
	if err := c.request(ctx, "POST", path, token, map[string]interface{}{}, &response); err != nil {
		return nil, fmt.Errorf("create survey: %w", err)
	}
	surveys := make([]ports.SurveyData, len(response.Data.Surveys))
	for i, s := range response.Data.Surveys {
		surveys[i] = ports.SurveyData{
			Signature: s.Signature, Waypoint: s.Symbol,
			Deposits: s.Deposits, Size: s.Size, Expiration: s.Expiration,
		}
	}
	return &ports.SurveyResult{
		CooldownSecs: response.Data.Cooldown.RemainingSeconds,
		Surveys:      surveys,
	}, nil
}

func (c *SpaceTradersClient) ExtractResources(ctx context.Context, shipSymbol, token string) (*ports.ExtractionResult, error) {
	path := fmt.Sprintf("/my/ships/%s/extract", shipSymbol)
	return c.extract(ctx, path, nil, token)
}

func (c *SpaceTradersClient) ExtractResourcesWithSurvey(ctx context.Context, shipSymbol string, survey ports.SurveyData, token string) (*ports.ExtractionResult, error) {
	path := fmt.Sprintf("/my/ships/%s/extract/survey", shipSymbol)
	body := map[string]interface{}{
		"signature":  survey.Signature,
		"symbol":     survey.Waypoint,
		"deposits":   survey.Deposits,
		"expiration": survey.Expiration,
		"size":       survey.Size,
	}
	return c.extract(ctx, path, body, token)
}

func (c *SpaceTradersClient) extract(ctx context.Context, path string, body interface{}, token string) (*ports.ExtractionResult, error) {
	var response struct {
		Data struct {
			Cooldown struct {
				RemainingSeconds int `json:"remainingSeconds"`
			} `json:"cooldown"`
			Extraction struct {
				Yield struct {
					Symbol string `json:"symbol"`
					Units  int    `json:"units"`
				} `json:"yield"`
			} `json:"extraction"`
		} `json:"data"`
	}
	if err := c.request(ctx, "POST", path, token, body, &response); err != nil {
		if apiErr, ok := asAPIError(err); ok && (apiErr.Code == 4221 || apiErr.Code == 4224) {
			return &ports.ExtractionResult{ErrorCode: apiErr.Code}, nil
		}
		return nil, fmt.Errorf("extract resources: %w", err)
	}
	return &ports.ExtractionResult{
		Symbol:       response.Data.Extraction.Yield.Symbol,
		Units:        response.Data.Extraction.Yield.Units,
		CooldownSecs: response.Data.Cooldown.RemainingSeconds,
	}, nil
}

func (c *SpaceTradersClient) SiphonResources(ctx context.Context, shipSymbol, token string) (*ports.SiphonResult, error) {
	path := fmt.Sprintf("/my/ships/%s/siphon", shipSymbol)
	var response struct {
		Data struct {
			Cooldown struct {
				RemainingSeconds int `json:"remainingSeconds"`
			} `json:"cooldown"`
			Siphon struct {
				Yield struct {
					Symbol string `json:"symbol"`
					Units  int    `json:"units"`
				} `json:"yield"`
			} `json:"siphon"`
		} `json:"data"`
	}
	if err := c.request(ctx, "POST", path, token, map[string]interface{}{}, &response); err != nil {
		return nil, fmt.Errorf("siphon resources: %w", err)
	}
	return &ports.SiphonResult{
		Symbol:       response.Data.Siphon.Yield.Symbol,
		Units:        response.Data.Siphon.Yield.Units,
		CooldownSecs: response.Data.Cooldown.RemainingSeconds,
	}, nil
}

func (c *SpaceTradersClient) PurchaseShip(ctx context.Context, shipModel, waypointSymbol, token string) (*ports.ShipPurchaseResult, error) {
	path := "/my/ships"
	body := map[string]string{"shipType": shipModel, "waypointSymbol": waypointSymbol}

	var response struct {
		Data struct {
			Ship       shipWire `json:"ship"`
			Transaction struct {
				TotalPrice     int    `json:"totalPrice"`
				WaypointSymbol string `json:"waypointSymbol"`
			} `json:"transaction"`
		} `json:"data"`
	}
	if err := c.request(ctx, "POST", path, token, body, &response); err != nil {
		return nil, fmt.Errorf("purchase ship: %w", err)
	}
	return &ports.ShipPurchaseResult{
		ShipSymbol:     response.Data.Ship.Symbol,
		TotalPrice:     response.Data.Transaction.TotalPrice,
		WaypointSymbol: response.Data.Transaction.WaypointSymbol,
	}, nil
}

// request makes an HTTP request with rate limiting, circuit breaking, and
// retries, and fires the configured EventInterceptor with the outcome.
func (c *SpaceTradersClient) request(ctx context.Context, method, path, token string, body interface{}, result interface{}) error {
	url := c.baseURL + path
	requestID := atomic.AddInt64(&c.requestSeq, 1)

	var reqBytes []byte
	if body != nil {
		var err error
		reqBytes, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
	}

	var lastErr error
	var lastStatus int
	var lastRespBody []byte

	err := c.circuitBreaker.Call(func() error {
		for attempt := 0; attempt <= c.maxRetries; attempt++ {
			if err := c.rateLimiter.Wait(ctx); err != nil {
				return fmt.Errorf("rate limiter: %w", err)
			}

			var reqBody io.Reader
			if reqBytes != nil {
				reqBody = bytes.NewBuffer(reqBytes)
			}
			req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
			if err != nil {
				return fmt.Errorf("build request: %w", err)
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+token)

			resp, err := c.httpClient.Do(req)
			if err != nil {
				lastErr = &retryableError{message: fmt.Errorf("network error: %w", err).Error()}
				if attempt >= c.maxRetries || ctx.Err() != nil {
					break
				}
				c.clock.Sleep(c.backoffBase * time.Duration(1<<attempt))
				continue
			}

			respBody, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				return fmt.Errorf("read response: %w", readErr)
			}
			lastStatus = resp.StatusCode
			lastRespBody = respBody

			switch {
			case resp.StatusCode == http.StatusTooManyRequests:
				delay := c.backoffBase * time.Duration(1<<attempt)
				if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
					if seconds, convErr := strconv.Atoi(retryAfter); convErr == nil {
						delay = time.Duration(seconds) * time.Second
					}
				}
				lastErr = &retryableError{message: "rate limited (429)", retryAfter: delay}
				if attempt >= c.maxRetries || ctx.Err() != nil {
					break
				}
				c.clock.Sleep(delay)
				continue

			case resp.StatusCode == http.StatusServiceUnavailable, resp.StatusCode >= 500:
				lastErr = &retryableError{message: fmt.Sprintf("server error (%d)", resp.StatusCode)}
				if attempt >= c.maxRetries || ctx.Err() != nil {
					break
				}
				c.clock.Sleep(c.backoffBase * time.Duration(1<<attempt))
				continue

			case resp.StatusCode >= 400 && resp.StatusCode < 500:
				return newAPIError(resp.StatusCode, respBody)

			case resp.StatusCode < 200 || resp.StatusCode >= 300:
				return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
			}

			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				if result != nil {
					if err := json.Unmarshal(respBody, result); err != nil {
						return fmt.Errorf("unmarshal response: %w", err)
					}
				}
				return nil
			}
		}

		if lastErr != nil {
			return fmt.Errorf("max retries exceeded: %w", lastErr)
		}
		return fmt.Errorf("max retries exceeded")
	})

	c.interceptor.Intercept(ctx, RequestEvent{
		SliceID: c.sliceID, RequestID: requestID, Method: method, Path: path,
		Status: lastStatus, RequestBody: reqBytes, ResponseBody: lastRespBody,
	})

	var circuitErr *CircuitOpenError
	if errors.As(err, &circuitErr) {
		return fmt.Errorf("circuit breaker open: %w", circuitErr)
	}
	return err
}

type retryableError struct {
	message    string
	retryAfter time.Duration
}

func (e *retryableError) Error() string { return e.message }

// APIError carries the structured SpaceTraders error code (e.g. 4221
// survey expired, 4224 survey exhausted, 4511 agent already has a
// contract) so callers can branch on it instead of string-matching.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
	Data       map[string]interface{}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d (status %d): %s", e.Code, e.StatusCode, e.Message)
}

func newAPIError(statusCode int, body []byte) error {
	var parsed struct {
		Error struct {
			Message string                 `json:"message"`
			Code    int                    `json:"code"`
			Data    map[string]interface{} `json:"data"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Error.Code == 0 {
		return fmt.Errorf("API error (status %d): %s", statusCode, string(body))
	}
	return &APIError{
		StatusCode: statusCode,
		Code:       parsed.Error.Code,
		Message:    parsed.Error.Message,
		Data:       parsed.Error.Data,
	}
}

