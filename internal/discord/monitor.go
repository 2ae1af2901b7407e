package discord

import (
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"vocalgate/internal/gate"
)

// disconnector is the single session call the monitor needs: a member move
// with a nil destination drops the member from voice.
type disconnector interface {
	GuildMemberMove(guildID, userID string, channelID *string, options ...discordgo.RequestOption) error
}

// Monitor reacts to join events on the monitored channel. While the
// enforcement flag is armed it evicts any joiner the allow-list rejects.
// It only ever sees join events; members already connected when the flag
// flips are left alone.
type Monitor struct {
	channelID string
	flag      *gate.Enforcement
	allow     *gate.AllowList
	logger    *zap.Logger
}

func NewMonitor(channelID string, flag *gate.Enforcement, allow *gate.AllowList, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{channelID: channelID, flag: flag, allow: allow, logger: logger}
}

// HandleVoiceState evaluates one voice state transition. Events for
// different members are independent; an eviction failure is logged and
// never retried.
func (m *Monitor) HandleVoiceState(api disconnector, v *discordgo.VoiceStateUpdate) {
	if v == nil || v.VoiceState == nil || v.ChannelID != m.channelID {
		return
	}
	if !m.flag.Armed() {
		return
	}

	var roleIDs []string
	if v.Member != nil {
		roleIDs = v.Member.Roles
	}
	if m.allow.Allowed(v.UserID, roleIDs) {
		return
	}

	if err := api.GuildMemberMove(v.GuildID, v.UserID, nil); err != nil {
		m.logger.Warn("failed to disconnect member",
			zap.String("user", v.UserID),
			zap.String("channel", m.channelID),
			zap.Error(err))
		return
	}
	m.logger.Info("disconnected non-allow-listed member",
		zap.String("user", v.UserID),
		zap.String("channel", m.channelID))
}
