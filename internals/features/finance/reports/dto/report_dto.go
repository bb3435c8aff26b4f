package dto

/* ===================== Finance overview ===================== */

type FinanceStatsResponse struct {
	Payments      PaymentStats      `json:"payments"`
	Plans         PlanStats         `json:"installment_plans"`
	Registrations RegistrationStats `json:"registrations"`
}

type PaymentStats struct {
	ByStatus        map[string]int64 `json:"by_status"`
	ByType          map[string]int64 `json:"by_type"`
	RevenueIDR      int64            `json:"revenue_idr"`       // sum of successful payments
	PendingIDR      int64            `json:"pending_idr"`       // open exposure at the gateway
}

type PlanStats struct {
	ByStatus       map[string]int64 `json:"by_status"`
	ByCadence      map[string]int64 `json:"by_cadence"`
	OutstandingIDR int64            `json:"outstanding_idr"` // sum of remaining on active plans
}

type RegistrationStats struct {
	ByStatus map[string]int64 `json:"by_status"`
}
