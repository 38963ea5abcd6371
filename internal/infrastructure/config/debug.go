package config

// DebugConfig carries the fleet's operational overrides: job filtering,
// scrap switches, the construction no-gate mode, task-family kill
// switches, and a manual era override. Booleans go through viper's usual
// string-to-bool decoding (strconv.ParseBool), so "1", "true" and "TRUE"
// all enable a switch; an empty value leaves it off, and any other
// non-boolean string makes LoadConfig fail.
type DebugConfig struct {
	JobIDFilter                     string `mapstructure:"job_id_filter"`
	ScrapAllShips                   bool   `mapstructure:"scrap_all_ships"`
	ScrapUnassigned                 bool   `mapstructure:"scrap_unassigned"`
	NoGateMode                      bool   `mapstructure:"no_gate_mode"`
	DisableTradingTasks             bool   `mapstructure:"disable_trading_tasks"`
	DisableContractTasks            bool   `mapstructure:"disable_contract_tasks"`
	OverrideConstructionSupplyCheck bool   `mapstructure:"override_construction_supply_check"`

	// EraOverride short-circuits the era state machine to a chosen state
	// (spec.md §4.1's era machine); empty means derive it from credits.
	EraOverride string `mapstructure:"era_override"`
}
