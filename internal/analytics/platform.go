package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"vaultspark/internal/ledger/models"
	profilemodels "vaultspark/internal/profile/models"
)

const (
	// VolumeDays is the length of the volumeByDay window, today included.
	VolumeDays = 7
	// DefaultRecentUsers is the size of the recent users view.
	DefaultRecentUsers = 10
	anonymousUsername  = "Anonymous"
	dayLayout          = "2006-01-02"
)

// PlatformInput is everything the admin view aggregates over.
type PlatformInput struct {
	Profiles     []profilemodels.Profile
	Transactions []models.Transaction
	// RecentLimit bounds RecentUsers. Zero means DefaultRecentUsers.
	RecentLimit int
}

// DayVolume is the completed volume for one local calendar day.
type DayVolume struct {
	Date   string          `json:"date"`
	Volume decimal.Decimal `json:"volume"`
}

// RecentUser is one row of the recent users view.
type RecentUser struct {
	Username        string    `json:"username"`
	WalletAddress   string    `json:"wallet_address,omitempty"`
	WalletConnected bool      `json:"wallet_connected"`
	CreatedAt       time.Time `json:"created_at"`
}

// PlatformStats is the admin view over all users.
type PlatformStats struct {
	TotalUsers         int             `json:"total_users"`
	TotalTransactions  int             `json:"total_transactions"`
	ConnectedWallets   int             `json:"connected_wallets"`
	TotalVolume        decimal.Decimal `json:"total_volume"`
	TransactionsByType map[string]int  `json:"transactions_by_type"`
	VolumeByDay        []DayVolume     `json:"volume_by_day"`
	RecentUsers        []RecentUser    `json:"recent_users"`
}

type civilDate struct {
	year  int
	month time.Month
	day   int
}

func dateIn(t time.Time, loc *time.Location) civilDate {
	y, m, d := t.In(loc).Date()
	return civilDate{y, m, d}
}

// Platform computes the admin view. Volume is gross: every completed amount
// adds, whatever its type. volumeByDay covers today and the six days before it
// in loc, oldest first, and buckets rows by calendar date in loc.
func Platform(in PlatformInput, now time.Time, loc *time.Location) PlatformStats {
	if loc == nil {
		loc = time.Local
	}

	stats := PlatformStats{
		TotalUsers:         len(in.Profiles),
		TotalVolume:        decimal.Zero,
		TransactionsByType: make(map[string]int),
	}
	for i := range in.Profiles {
		if in.Profiles[i].HasWallet() {
			stats.ConnectedWallets++
		}
	}

	today := now.In(loc)
	days := make([]civilDate, VolumeDays)
	byDay := make(map[civilDate]decimal.Decimal, VolumeDays)
	for i := range VolumeDays {
		d := dateIn(today.AddDate(0, 0, i-(VolumeDays-1)), loc)
		days[i] = d
		byDay[d] = decimal.Zero
	}

	for _, tx := range in.Transactions {
		if !tx.IsCompleted() {
			continue
		}
		amount := tx.AmountOrZero()
		stats.TotalTransactions++
		stats.TotalVolume = stats.TotalVolume.Add(amount)
		stats.TransactionsByType[tx.TransactionType]++

		d := dateIn(tx.CreatedAt, loc)
		if v, ok := byDay[d]; ok {
			byDay[d] = v.Add(amount)
		}
	}

	stats.VolumeByDay = make([]DayVolume, VolumeDays)
	for i, d := range days {
		stats.VolumeByDay[i] = DayVolume{
			Date:   time.Date(d.year, d.month, d.day, 0, 0, 0, 0, loc).Format(dayLayout),
			Volume: byDay[d],
		}
	}

	limit := in.RecentLimit
	if limit <= 0 {
		limit = DefaultRecentUsers
	}
	stats.RecentUsers = RecentUsers(in.Profiles, limit)
	return stats
}

// RecentUsers returns the n most recently created profiles, newest first.
// Ties are broken by user id so the result does not depend on input order.
func RecentUsers(profiles []profilemodels.Profile, n int) []RecentUser {
	sorted := make([]profilemodels.Profile, len(profiles))
	copy(sorted, profiles)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
		}
		return sorted[i].UserID.String() < sorted[j].UserID.String()
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}

	out := make([]RecentUser, 0, len(sorted))
	for _, p := range sorted {
		name := p.Username
		if name == "" {
			name = anonymousUsername
		}
		out = append(out, RecentUser{
			Username:        name,
			WalletAddress:   p.WalletAddress,
			WalletConnected: p.HasWallet(),
			CreatedAt:       p.CreatedAt,
		})
	}
	return out
}
