package model

import "time"

// SaleWindowMetrics stores aggregated sale activity for one time window.
type SaleWindowMetrics struct {
	ProgramID       string    `json:"program_id"`
	WindowSizeSecs  int64     `json:"window_size_seconds"`
	WindowStart     time.Time `json:"window_start"`
	WindowEnd       time.Time `json:"window_end"`
	BuyCount        uint64    `json:"buy_count"`
	ClaimCount      uint64    `json:"claim_count"`
	UniqueBuyers    uint64    `json:"unique_buyers"`
	StableVolume    string    `json:"stable_volume"`
	AllocationSold  string    `json:"allocation_sold"`
	AllocationClaim string    `json:"allocation_claimed"`
	LastSqrtPrice   *string   `json:"last_sqrt_price,omitempty"`
	LastPrice       *string   `json:"last_price,omitempty"`
	AvgPrice        *string   `json:"avg_price,omitempty"`
}

// ReportCheckpoint records how far the report has consumed the event log.
// Every record with Seq <= LastSeq belongs to a window that is closed and
// written. OpenWindowStart is the start of the window that was still open
// when the checkpoint was taken (0 if none); that window is rebuilt from its
// first record on the next run.
type ReportCheckpoint struct {
	ProgramID       string    `json:"program_id"`
	WindowSizeSecs  int64     `json:"window_size_seconds"`
	LastSeq         uint64    `json:"last_seq"`
	OpenWindowStart uint64    `json:"open_window_start,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}
