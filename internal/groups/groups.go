// Package groups mendefinisikan kontrak klien grup WhatsApp yang dipakai
// workflow dan batch, terlepas dari library WhatsApp yang dipakai.
package groups

import (
	"context"
	"errors"
	"strings"
)

// Group snapshot grup saat workflow dimulai
type Group struct {
	ID      string
	Name    string
	IsAdmin bool // akun bot adalah admin grup ini
}

// Member peserta grup yang relevan untuk pencarian admin
type Member struct {
	ID      string // JID lengkap, contoh 628xx@s.whatsapp.net atau 1234@lid
	Phone   string // nomor tanpa domain jika diketahui
	IsAdmin bool
}

// Service operasi grup yang dibutuhkan bot. owner adalah id user Telegram.
type Service interface {
	IsConnected(owner int64) bool
	ListGroups(ctx context.Context, owner int64) ([]Group, error)
	ListGroupAdmins(ctx context.Context, owner int64, groupID string) ([]Member, error)
	IsMember(ctx context.Context, owner int64, groupID, target string) (bool, error)
	AddMember(ctx context.Context, owner int64, groupID, target string) error
	PromoteMember(ctx context.Context, owner int64, groupID, target string) error
	DemoteMember(ctx context.Context, owner int64, groupID, target string) error
	RenameGroup(ctx context.Context, owner int64, groupID, newName string) error
}

var (
	ErrNotConnected  = errors.New("WhatsApp not connected")
	ErrAlreadyMember = errors.New("participant already in group")
	ErrAlreadyAdmin  = errors.New("participant already admin")
	ErrNotAdmin      = errors.New("participant is not admin")
	ErrRateLimited   = errors.New("rate-overlimit")
)

// IsIdempotentFailure true jika error berarti kondisi akhir yang diinginkan sudah tercapai
func IsIdempotentFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAlreadyMember) || errors.Is(err, ErrAlreadyAdmin) || errors.Is(err, ErrNotAdmin) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "sudah ada") || strings.Contains(msg, "already")
}

// IsRateLimit true jika error berasal dari pembatasan rate WhatsApp
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate-overlimit") || strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests")
}

// MatchesNumber true jika member cocok dengan nomor: JID <n>@s.whatsapp.net,
// <n>@lid, atau bagian user sebelum '@'/':'
func (m Member) MatchesNumber(number string) bool {
	if number == "" {
		return false
	}
	if m.ID == number+"@s.whatsapp.net" || m.ID == number+"@lid" || m.Phone == number {
		return true
	}
	user := m.ID
	if i := strings.IndexByte(user, '@'); i >= 0 {
		user = user[:i]
	}
	if i := strings.IndexByte(user, ':'); i >= 0 {
		user = user[:i]
	}
	return user == number
}
