package bot

import (
	"testing"

	"okx-grid-bot-go/internal/models"

	"github.com/stretchr/testify/assert"
)

// TestRiskGateOverload verifies buy suppression at the position ceiling.
func TestRiskGateOverload(t *testing.T) {
	gate := RiskGate{MaxPosition: 10}
	snap := models.MarketSnapshot{CurrentPosition: 10, AvgEntryPrice: 100}

	// every buy is suppressed regardless of price
	assert.Equal(t, ReasonOverloaded, gate.Evaluate(models.Buy, 50, snap))
	assert.Equal(t, ReasonOverloaded, gate.Evaluate(models.Buy, 500, snap))

	// sells are unaffected by the ceiling
	assert.Equal(t, ReasonNone, gate.Evaluate(models.Sell, 500, snap))

	// below the ceiling buys pass
	snap.CurrentPosition = 9.5
	assert.Equal(t, ReasonNone, gate.Evaluate(models.Buy, 50, snap))
}

// TestRiskGateProfitProtection verifies sells below the cost-basis markup are
// withheld while a position is held.
func TestRiskGateProfitProtection(t *testing.T) {
	gate := RiskGate{MinProfitGap: 0.05}
	snap := models.MarketSnapshot{CurrentPosition: 2, AvgEntryPrice: 100}

	// minProfitPrice = 100 * 1.05 = 105
	assert.Equal(t, ReasonProtected, gate.Evaluate(models.Sell, 102, snap))
	assert.Equal(t, ReasonNone, gate.Evaluate(models.Sell, 110, snap))

	// flat position: nothing to protect
	snap.CurrentPosition = 0
	assert.Equal(t, ReasonNone, gate.Evaluate(models.Sell, 102, snap))
}

// TestRiskGateUnconfigured verifies both rules are inert when not configured.
func TestRiskGateUnconfigured(t *testing.T) {
	gate := RiskGate{}
	snap := models.MarketSnapshot{CurrentPosition: 1000, AvgEntryPrice: 100}

	assert.Equal(t, ReasonNone, gate.Evaluate(models.Buy, 50, snap))
	assert.Equal(t, ReasonNone, gate.Evaluate(models.Sell, 1, snap))
}
