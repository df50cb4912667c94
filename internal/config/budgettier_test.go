package config_test

import (
	"testing"

	"github.com/MrWong99/glyphoxa/internal/config"
	"github.com/MrWong99/glyphoxa/internal/mcp"
)

func TestBudgetTier_MCPBudgetTier(t *testing.T) {
	cases := []struct {
		in   config.BudgetTier
		want mcp.BudgetTier
	}{
		{config.BudgetTierFast, mcp.BudgetFast},
		{config.BudgetTierStandard, mcp.BudgetStandard},
		{config.BudgetTierDeep, mcp.BudgetDeep},
		{"", mcp.BudgetFast},
		{"bogus", mcp.BudgetFast},
	}
	for _, c := range cases {
		if got := c.in.MCPBudgetTier(); got != c.want {
			t.Errorf("%q.MCPBudgetTier() = %v, want %v", c.in, got, c.want)
		}
	}
}
