package models

import (
	"time"

	id "vaultspark/pkg/domain"
)

// Profile is the per-user record kept by the profile store.
//
// WalletAddress, once set, is a lower-cased 0x-prefixed 40 hex digit string
// and is only replaced by a successful wallet link.
type Profile struct {
	UserID        id.UserID `json:"id"`
	Username      string    `json:"username,omitempty"`
	WalletAddress string    `json:"wallet_address,omitempty"`
	AvatarURL     string    `json:"avatar_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HasWallet reports whether a wallet address has been linked.
func (p *Profile) HasWallet() bool {
	return p != nil && p.WalletAddress != ""
}

// Update is a partial profile update. Nil fields are left untouched.
type Update struct {
	Username      *string
	AvatarURL     *string
	WalletAddress *string
}

// IsEmpty reports whether the update changes nothing.
func (u Update) IsEmpty() bool {
	return u.Username == nil && u.AvatarURL == nil && u.WalletAddress == nil
}

// Apply copies the set fields of u onto p and stamps UpdatedAt.
func (u Update) Apply(p *Profile, now time.Time) {
	if u.Username != nil {
		p.Username = *u.Username
	}
	if u.AvatarURL != nil {
		p.AvatarURL = *u.AvatarURL
	}
	if u.WalletAddress != nil {
		p.WalletAddress = *u.WalletAddress
	}
	p.UpdatedAt = now
}
