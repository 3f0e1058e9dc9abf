package ledger

import (
	"fmt"
	"strings"

	"github.com/sambhavthakkar/PulseDrive/core/model"
)

// DefaultServiceType is used when a booking does not name one.
const DefaultServiceType = "general"

// PricingConfig is the static service type to cost table.
type PricingConfig struct {
	Currency    string             `json:"currency"`
	DefaultCost float64            `json:"default_cost"`
	Costs       map[string]float64 `json:"costs"`
}

// SetDefaults installs the standard workshop price list. Configured
// entries override the matching defaults.
func (c *PricingConfig) SetDefaults() {
	if c.Currency == "" {
		c.Currency = "₹"
	}
	if c.DefaultCost == 0 {
		c.DefaultCost = 2000
	}
	if c.Costs == nil {
		c.Costs = make(map[string]float64, len(defaultCosts))
	}
	for k, v := range defaultCosts {
		if _, ok := c.Costs[k]; !ok {
			c.Costs[k] = v
		}
	}
}

var defaultCosts = map[string]float64{
	"brake_service":   3500,
	"oil_change":      1200,
	"full_inspection": 2500,
	"tire_rotation":   800,
	"general":         1500,
}

// Validate rejects negative prices.
func (c PricingConfig) Validate() error {
	if c.DefaultCost < 0 {
		return fmt.Errorf("default_cost must not be negative")
	}
	for k, v := range c.Costs {
		if v < 0 {
			return fmt.Errorf("cost for %s must not be negative", k)
		}
	}
	return nil
}

// Estimate looks up the cost of a service type. Unknown types get the
// default cost.
func (c PricingConfig) Estimate(serviceType string) model.Price {
	amount, ok := c.Costs[NormalizeServiceType(serviceType)]
	if !ok {
		amount = c.DefaultCost
	}
	return model.Price{Amount: amount, Currency: c.Currency}
}

// NormalizeServiceType lower-cases the type and joins words with
// underscores: "Oil Change" becomes "oil_change".
func NormalizeServiceType(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultServiceType
	}
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == '-' || r == '_' }), "_")
}
