// Runit - Running Events Content Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/runit

package analytics

// ChurnPanel is the churn and lifetime value panel. The backend exposes no
// retention data yet, so the panel is served from a fixed fixture and
// flagged Demo.
type ChurnPanel struct {
	Demo              bool            `json:"demo"`
	MonthlyChurnRate  float64         `json:"monthlyChurnRate"` // percent
	RetentionRate     float64         `json:"retentionRate"`    // percent
	AverageLTV        float64         `json:"averageLtv"`       // BRL
	AverageTenure     float64         `json:"averageTenureMonths"`
	AtRiskMembers     int             `json:"atRiskMembers"`
	ChurnByMembership []MembershipLTV `json:"churnByMembership"`
	Trend             []MonthlyChurn  `json:"trend"`
}

// MembershipLTV is churn and LTV for one membership tier.
type MembershipLTV struct {
	Membership string  `json:"membership"`
	ChurnRate  float64 `json:"churnRate"`
	LTV        float64 `json:"ltv"`
}

// MonthlyChurn is one month of the churn trend.
type MonthlyChurn struct {
	Month     string  `json:"month"` // YYYY-MM
	ChurnRate float64 `json:"churnRate"`
}

// ChurnDemo returns the fixture behind the churn panel. The values are
// constant; LTV is the tier price over its churn rate.
func ChurnDemo() ChurnPanel {
	tiers := []MembershipLTV{
		{Membership: "Básico", ChurnRate: 6.5, LTV: ltv(29.90, 6.5)},
		{Membership: "Intermediário", ChurnRate: 4.2, LTV: ltv(49.90, 4.2)},
		{Membership: "Premium", ChurnRate: 2.8, LTV: ltv(89.90, 2.8)},
	}
	return ChurnPanel{
		Demo:              true,
		MonthlyChurnRate:  4.5,
		RetentionRate:     95.5,
		AverageLTV:        ltv(54.90, 4.5),
		AverageTenure:     1 / 0.045,
		AtRiskMembers:     12,
		ChurnByMembership: tiers,
		Trend: []MonthlyChurn{
			{Month: "2025-01", ChurnRate: 5.8},
			{Month: "2025-02", ChurnRate: 5.4},
			{Month: "2025-03", ChurnRate: 5.1},
			{Month: "2025-04", ChurnRate: 4.9},
			{Month: "2025-05", ChurnRate: 4.6},
			{Month: "2025-06", ChurnRate: 4.5},
		},
	}
}

// ltv is monthly price divided by monthly churn, rounded to cents.
func ltv(monthlyPrice, churnPercent float64) float64 {
	v := monthlyPrice / (churnPercent / 100)
	return float64(int64(v*100+0.5)) / 100
}
