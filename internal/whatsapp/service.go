// Package whatsapp mengimplementasikan groups.Service di atas whatsmeow.
package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"whatsapp-bot/internal/groups"
	"whatsapp-bot/utils"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/types"
)

// ClientSource mengembalikan client WhatsApp aktif untuk user Telegram
type ClientSource func(owner int64) *whatsmeow.Client

// Service adapter groups.Service
type Service struct {
	clients ClientSource
	timeout time.Duration
}

var _ groups.Service = (*Service)(nil)

// NewService membuat adapter; timeout membatasi satu panggilan API
func NewService(clients ClientSource, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Service{clients: clients, timeout: timeout}
}

func (s *Service) client(owner int64) (*whatsmeow.Client, error) {
	client := s.clients(owner)
	if client == nil || !client.IsConnected() || client.Store == nil || client.Store.ID == nil {
		return nil, groups.ErrNotConnected
	}
	return client, nil
}

// IsConnected true jika client terhubung dan sudah login
func (s *Service) IsConnected(owner int64) bool {
	_, err := s.client(owner)
	return err == nil
}

// AccountNumber nomor akun WhatsApp yang sedang login
func (s *Service) AccountNumber(owner int64) string {
	client, err := s.client(owner)
	if err != nil {
		return ""
	}
	return client.Store.ID.User
}

// Logout keluar dari akun WhatsApp dan menghapus sesi di store
func (s *Service) Logout(ctx context.Context, owner int64) error {
	client, err := s.client(owner)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := client.Logout(ctx); err != nil {
		return fmt.Errorf("gagal logout: %w", mapError(err))
	}
	return nil
}

// ListGroups semua grup yang diikuti akun
func (s *Service) ListGroups(ctx context.Context, owner int64) ([]groups.Group, error) {
	client, err := s.client(owner)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 2*s.timeout)
	defer cancel()
	joined, err := client.GetJoinedGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("gagal mengambil daftar grup: %w", mapError(err))
	}

	result := make([]groups.Group, 0, len(joined))
	for _, info := range joined {
		if info == nil {
			continue
		}
		name := strings.TrimSpace(info.Name)
		if name == "" {
			name = info.JID.User
		}
		result = append(result, groups.Group{
			ID:      info.JID.String(),
			Name:    name,
			IsAdmin: isSelfAdmin(client, info),
		})
	}
	utils.GetLogger().Debug("ListGroups: %d grup untuk user %d", len(result), owner)
	return result, nil
}

// ListGroupAdmins admin dan superadmin grup
func (s *Service) ListGroupAdmins(ctx context.Context, owner int64, groupID string) ([]groups.Member, error) {
	members, err := s.members(ctx, owner, groupID)
	if err != nil {
		return nil, err
	}
	var admins []groups.Member
	for _, m := range members {
		if m.IsAdmin {
			admins = append(admins, m)
		}
	}
	return admins, nil
}

// IsMember true jika target ada di grup
func (s *Service) IsMember(ctx context.Context, owner int64, groupID, target string) (bool, error) {
	members, err := s.members(ctx, owner, groupID)
	if err != nil {
		return false, err
	}
	for _, m := range members {
		if m.MatchesNumber(target) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) members(ctx context.Context, owner int64, groupID string) ([]groups.Member, error) {
	client, err := s.client(owner)
	if err != nil {
		return nil, err
	}
	jid, err := types.ParseJID(groupID)
	if err != nil {
		return nil, fmt.Errorf("JID grup tidak valid %q: %w", groupID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	info, err := client.GetGroupInfo(ctx, jid)
	if err != nil {
		return nil, fmt.Errorf("gagal mengambil info grup: %w", mapError(err))
	}
	return toMembers(info.Participants), nil
}

// AddMember menambahkan nomor ke grup
func (s *Service) AddMember(ctx context.Context, owner int64, groupID, target string) error {
	return s.change(ctx, owner, groupID, target, whatsmeow.ParticipantChangeAdd)
}

// PromoteMember menjadikan nomor admin grup
func (s *Service) PromoteMember(ctx context.Context, owner int64, groupID, target string) error {
	return s.change(ctx, owner, groupID, target, whatsmeow.ParticipantChangePromote)
}

// DemoteMember mencabut admin nomor di grup
func (s *Service) DemoteMember(ctx context.Context, owner int64, groupID, target string) error {
	return s.change(ctx, owner, groupID, target, whatsmeow.ParticipantChangeDemote)
}

func (s *Service) change(ctx context.Context, owner int64, groupID, target string, action whatsmeow.ParticipantChange) error {
	client, err := s.client(owner)
	if err != nil {
		return err
	}
	groupJID, err := types.ParseJID(groupID)
	if err != nil {
		return fmt.Errorf("JID grup tidak valid %q: %w", groupID, err)
	}
	participant := participantJID(target)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	results, err := client.UpdateGroupParticipants(ctx, groupJID, []types.JID{participant}, action)
	if err != nil {
		return mapError(err)
	}
	for _, r := range results {
		if r.Error != 0 {
			return participantError(action, r.Error)
		}
	}
	return nil
}

// RenameGroup mengganti nama grup
func (s *Service) RenameGroup(ctx context.Context, owner int64, groupID, newName string) error {
	client, err := s.client(owner)
	if err != nil {
		return err
	}
	jid, err := types.ParseJID(groupID)
	if err != nil {
		return fmt.Errorf("JID grup tidak valid %q: %w", groupID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := client.SetGroupName(ctx, jid, newName); err != nil {
		return mapError(err)
	}
	return nil
}

// participantJID nomor polos menjadi <n>@s.whatsapp.net, JID lengkap dipakai apa adanya
func participantJID(target string) types.JID {
	if strings.Contains(target, "@") {
		if jid, err := types.ParseJID(target); err == nil {
			return jid
		}
	}
	return types.NewJID(target, types.DefaultUserServer)
}

func toMembers(participants []types.GroupParticipant) []groups.Member {
	members := make([]groups.Member, 0, len(participants))
	for _, p := range participants {
		phone := ""
		switch {
		case !p.PhoneNumber.IsEmpty():
			phone = p.PhoneNumber.User
		case p.JID.Server == types.DefaultUserServer:
			phone = p.JID.User
		}
		members = append(members, groups.Member{
			ID:      p.JID.String(),
			Phone:   phone,
			IsAdmin: p.IsAdmin || p.IsSuperAdmin,
		})
		if !p.LID.IsEmpty() && p.LID != p.JID {
			members = append(members, groups.Member{
				ID:      p.LID.String(),
				Phone:   phone,
				IsAdmin: p.IsAdmin || p.IsSuperAdmin,
			})
		}
	}
	return members
}

func isSelfAdmin(client *whatsmeow.Client, info *types.GroupInfo) bool {
	own := client.Store.ID.ToNonAD()
	ownLID := client.Store.LID.ToNonAD()
	for _, p := range info.Participants {
		jid := p.JID.ToNonAD()
		if jid == own || (!ownLID.IsEmpty() && (jid == ownLID || p.LID.ToNonAD() == ownLID)) {
			return p.IsAdmin || p.IsSuperAdmin
		}
	}
	return false
}

// participantError kode error per peserta dari UpdateGroupParticipants
func participantError(action whatsmeow.ParticipantChange, code int) error {
	switch code {
	case 409:
		switch action {
		case whatsmeow.ParticipantChangeAdd:
			return groups.ErrAlreadyMember
		case whatsmeow.ParticipantChangePromote:
			return groups.ErrAlreadyAdmin
		case whatsmeow.ParticipantChangeDemote:
			return groups.ErrNotAdmin
		}
	case 429:
		return groups.ErrRateLimited
	case 401, 403:
		return fmt.Errorf("not-authorized (kode %d)", code)
	case 404:
		return fmt.Errorf("item-not-found (kode %d)", code)
	case 408:
		return fmt.Errorf("nomor baru saja keluar dari grup (kode %d)", code)
	}
	return fmt.Errorf("gagal %s peserta (kode %d)", action, code)
}

// mapError menerjemahkan IQError rate limit ke sentinel
func mapError(err error) error {
	var iq *whatsmeow.IQError
	if errors.As(err, &iq) && iq.Code == 429 {
		return fmt.Errorf("%w: %v", groups.ErrRateLimited, err)
	}
	if errors.Is(err, whatsmeow.ErrNotConnected) || errors.Is(err, whatsmeow.ErrNotLoggedIn) {
		return fmt.Errorf("%w: %v", groups.ErrNotConnected, err)
	}
	return err
}
