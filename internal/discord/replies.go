package discord

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const transientReplyDelay = 6 * time.Second

// messenger is the slice of the session the reply helpers use.
type messenger interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
}

// Replies sends command feedback. Confirmations are transient: the reply is
// deleted after a short delay by a background task that is cancelled on
// shutdown so the process never waits out pending timers.
type Replies struct {
	delay  time.Duration
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewReplies(logger *zap.Logger) *Replies {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Replies{delay: transientReplyDelay, logger: logger, ctx: ctx, cancel: cancel}
}

// Close cancels pending deletions and waits for their goroutines to exit.
func (r *Replies) Close() {
	r.cancel()
	r.wg.Wait()
}

// Send posts a plain reply to the triggering message without mentioning the
// author. Send failures are best effort.
func (r *Replies) Send(api messenger, m *discordgo.Message, text string) {
	if _, err := r.reply(api, m, text); err != nil {
		r.logger.Warn("failed to send reply", zap.String("channel", m.ChannelID), zap.Error(err))
	}
}

// Transient posts a reply and schedules its deletion.
func (r *Replies) Transient(api messenger, m *discordgo.Message, text string) {
	sent, err := r.reply(api, m, text)
	if err != nil {
		r.logger.Warn("failed to send reply", zap.String("channel", m.ChannelID), zap.Error(err))
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		select {
		case <-r.ctx.Done():
		case <-time.After(r.delay):
			if err := api.ChannelMessageDelete(sent.ChannelID, sent.ID); err != nil {
				r.logger.Debug("failed to delete transient reply", zap.String("message", sent.ID), zap.Error(err))
			}
		}
	}()
}

func (r *Replies) reply(api messenger, m *discordgo.Message, text string) (*discordgo.Message, error) {
	return api.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
		Content:         text,
		Reference:       m.Reference(),
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	})
}
