// Command fleetctl is a read-only inspector over the fleet orchestrator's
// persisted state, querying the same database cmd/fleetd writes to.
package main

import "github.com/kestrel-systems/fleetcore/internal/adapters/cli"

func main() {
	cli.Execute()
}
