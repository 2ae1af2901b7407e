package discord

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"vocalgate/internal/gate"
)

// ErrChannelUnavailable reports that the monitored channel could not be
// resolved on the platform; every synchronizer operation is a no-op in that
// case.
var ErrChannelUnavailable = errors.New("monitored voice channel unavailable")

const allowVoiceBits = discordgo.PermissionViewChannel |
	discordgo.PermissionVoiceConnect |
	discordgo.PermissionVoiceSpeak

// syncAPI is the slice of the discordgo session the synchronizer touches.
type syncAPI interface {
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelPermissionSet(channelID, targetID string, targetType discordgo.PermissionOverwriteType, allow, deny int64, options ...discordgo.RequestOption) error
	ChannelPermissionDelete(channelID, targetID string, options ...discordgo.RequestOption) error
}

// overwrite is one planned permission-overwrite write.
type overwrite struct {
	id    string
	kind  discordgo.PermissionOverwriteType
	allow int64
	deny  int64
}

// Sync translates allow-list and lock state into permission overwrites on
// the one monitored channel. Failures are returned to the caller for an
// operator-visible notice and never propagate further.
type Sync struct {
	api          syncAPI
	channelID    string
	blockedRoles []string
	logger       *zap.Logger
}

func NewSync(api syncAPI, channelID string, blockedRoles []string, logger *zap.Logger) *Sync {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sync{api: api, channelID: channelID, blockedRoles: blockedRoles, logger: logger}
}

// HardLock rewrites the channel's overwrite table so only operators and
// allow-listed identities can connect: existing overwrites are cleared,
// @everyone is denied connect (the channel stays visible), blocked roles
// get an explicit deny, then every allow-listed identity gets connect,
// view and speak. Deny writes go first; a later write for the same identity
// replaces an earlier one.
func (s *Sync) HardLock(operators, users, roles []string) error {
	ch, err := s.resolve()
	if err != nil {
		return err
	}
	if err := s.clearOverwrites(ch); err != nil {
		return err
	}
	for _, ow := range lockPlan(ch.GuildID, operators, users, roles, s.blockedRoles) {
		if err := s.api.ChannelPermissionSet(ch.ID, ow.id, ow.kind, ow.allow, ow.deny); err != nil {
			return fmt.Errorf("set overwrite for %s: %w", ow.id, err)
		}
	}
	s.logger.Info("channel hard-locked",
		zap.String("channel", ch.ID),
		zap.Int("users", len(users)),
		zap.Int("roles", len(roles)))
	return nil
}

// HardUnlock removes every overwrite so the channel reverts to inherited
// permissions. The result does not depend on what the allow-list held at
// lock time.
func (s *Sync) HardUnlock() error {
	ch, err := s.resolve()
	if err != nil {
		return err
	}
	if err := s.clearOverwrites(ch); err != nil {
		return err
	}
	s.logger.Info("channel hard-unlocked", zap.String("channel", ch.ID))
	return nil
}

// Grant sets an allow overwrite for one identity so the remote table tracks
// an allow-list addition without a full hard-lock pass.
func (s *Sync) Grant(t gate.Target) error {
	ch, err := s.resolve()
	if err != nil {
		return err
	}
	if err := s.api.ChannelPermissionSet(ch.ID, t.ID, overwriteType(t), allowVoiceBits, 0); err != nil {
		return fmt.Errorf("grant %s: %w", t.ID, err)
	}
	return nil
}

// Revoke clears the identity's overwrite entirely, reverting it to
// inherited permissions rather than an explicit deny.
func (s *Sync) Revoke(t gate.Target) error {
	ch, err := s.resolve()
	if err != nil {
		return err
	}
	if err := s.api.ChannelPermissionDelete(ch.ID, t.ID); err != nil {
		return fmt.Errorf("revoke %s: %w", t.ID, err)
	}
	return nil
}

// Resolved reports whether the monitored channel currently resolves to a
// guild voice channel, for the status command.
func (s *Sync) Resolved() bool {
	_, err := s.resolve()
	return err == nil
}

func (s *Sync) resolve() (*discordgo.Channel, error) {
	ch, err := s.api.Channel(s.channelID)
	if err != nil {
		s.logger.Warn("cannot resolve monitored channel", zap.String("channel", s.channelID), zap.Error(err))
		return nil, ErrChannelUnavailable
	}
	if ch.Type != discordgo.ChannelTypeGuildVoice {
		s.logger.Warn("monitored channel is not a voice channel",
			zap.String("channel", s.channelID), zap.Int("type", int(ch.Type)))
		return nil, ErrChannelUnavailable
	}
	return ch, nil
}

func (s *Sync) clearOverwrites(ch *discordgo.Channel) error {
	for _, ow := range ch.PermissionOverwrites {
		if err := s.api.ChannelPermissionDelete(ch.ID, ow.ID); err != nil {
			return fmt.Errorf("clear overwrite %s: %w", ow.ID, err)
		}
	}
	return nil
}

// lockPlan builds the ordered overwrite writes for a hard lock. The deny
// entries (@everyone, blocked roles) come before the allows so an identity
// appearing on both sides ends up allowed.
func lockPlan(guildID string, operators, users, roles, blockedRoles []string) []overwrite {
	plan := []overwrite{{
		// @everyone shares the guild id. View stays allowed so the channel
		// remains visible but unjoinable.
		id:    guildID,
		kind:  discordgo.PermissionOverwriteTypeRole,
		allow: discordgo.PermissionViewChannel,
		deny:  discordgo.PermissionVoiceConnect,
	}}
	for _, rid := range blockedRoles {
		plan = append(plan, overwrite{id: rid, kind: discordgo.PermissionOverwriteTypeRole, deny: discordgo.PermissionVoiceConnect})
	}

	seen := make(map[string]struct{})
	for _, uid := range append(append([]string{}, operators...), users...) {
		if _, dup := seen[uid]; dup {
			continue
		}
		seen[uid] = struct{}{}
		plan = append(plan, overwrite{id: uid, kind: discordgo.PermissionOverwriteTypeMember, allow: allowVoiceBits})
	}
	for _, rid := range roles {
		plan = append(plan, overwrite{id: rid, kind: discordgo.PermissionOverwriteTypeRole, allow: allowVoiceBits})
	}
	return plan
}

func overwriteType(t gate.Target) discordgo.PermissionOverwriteType {
	if t.Kind == gate.TargetRole {
		return discordgo.PermissionOverwriteTypeRole
	}
	return discordgo.PermissionOverwriteTypeMember
}
