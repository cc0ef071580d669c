package config

import (
	"fmt"

	"github.com/shopspring/decimal"

	"service-portal-backend/internal/domain"
)

// DefaultAmounts parses ledger.default_amounts. Amounts must be
// non-negative and keyed by a known service type.
func (c LedgerConfig) DefaultAmounts() (map[domain.ServiceType]decimal.Decimal, error) {
	out := make(map[domain.ServiceType]decimal.Decimal, len(c.Amounts))
	for key, raw := range c.Amounts {
		st := domain.ServiceType(key)
		if !st.IsValid() {
			return nil, fmt.Errorf("default amount for %q: %w", key, domain.ErrUnknownServiceType)
		}
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("default amount for %q: %w", key, err)
		}
		if amount.IsNegative() {
			return nil, fmt.Errorf("default amount for %q must not be negative", key)
		}
		out[st] = amount.Round(2)
	}
	return out, nil
}
