// Package discord wires the gate state to the platform: a gateway session,
// the prefix command surface, the permission synchronizer for the monitored
// voice channel and the join-event enforcement monitor.
package discord

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"vocalgate/internal/config"
	"vocalgate/internal/gate"
)

// Bot owns the gateway session and the handlers registered on it.
type Bot struct {
	session   *discordgo.Session
	commands  *Commands
	monitor   *Monitor
	replies   *Replies
	prefix    string
	logger    *zap.Logger
	closeOnce sync.Once
}

func New(cfg config.Config, guard *gate.Guard, allow *gate.AllowList, flag *gate.Enforcement, logger *zap.Logger) (*Bot, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	replies := NewReplies(logger)
	syncer := NewSync(session, cfg.VoiceChannelID, cfg.BlockedRoles, logger.Named("sync"))
	commands := NewCommands(cfg.Prefix, cfg.VoiceChannelID, guard, allow, flag, syncer, replies, logger.Named("commands"))
	monitor := NewMonitor(cfg.VoiceChannelID, flag, allow, logger.Named("monitor"))

	b := &Bot{
		session:  session,
		commands: commands,
		monitor:  monitor,
		replies:  replies,
		prefix:   cfg.Prefix,
		logger:   logger,
	}

	session.AddHandler(b.onReady)
	session.AddHandler(commands.HandleMessage)
	session.AddHandler(func(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
		monitor.HandleVoiceState(s, v)
	})
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildVoiceStates

	return b, nil
}

// Start opens the gateway connection.
func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}
	return nil
}

// Stop cancels pending transient-reply deletions and closes the session.
func (b *Bot) Stop() error {
	var err error
	b.closeOnce.Do(func() {
		b.replies.Close()
		err = b.session.Close()
	})
	return err
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.logger.Info("connected",
		zap.String("user", r.User.Username),
		zap.String("id", r.User.ID))
	if err := s.UpdateGameStatus(0, b.prefix+"help"); err != nil {
		b.logger.Warn("failed to set presence", zap.Error(err))
	}
}
