package discord

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"vocalgate/internal/gate"
)

// commandAPI is what a command handler may do with the session.
type commandAPI interface {
	messenger
	HeartbeatLatency() time.Duration
}

// Commands routes prefix commands to the gate, the permission synchronizer
// and the reply helpers. Every command is operator-only; unauthorized
// invocations are dropped without a reply so the privileged surface stays
// invisible.
type Commands struct {
	prefix    string
	channelID string
	guard     *gate.Guard
	allow     *gate.AllowList
	flag      *gate.Enforcement
	sync      *Sync
	replies   *Replies
	logger    *zap.Logger
}

func NewCommands(prefix, channelID string, guard *gate.Guard, allow *gate.AllowList, flag *gate.Enforcement, sync *Sync, replies *Replies, logger *zap.Logger) *Commands {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Commands{
		prefix:    prefix,
		channelID: channelID,
		guard:     guard,
		allow:     allow,
		flag:      flag,
		sync:      sync,
		replies:   replies,
		logger:    logger,
	}
}

// HandleMessage is the MessageCreate handler.
func (c *Commands) HandleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	name, arg, ok := splitCommand(m.Content, c.prefix)
	if !ok {
		return
	}

	var perms int64
	if p, err := s.State.UserChannelPermissions(m.Author.ID, m.ChannelID); err == nil {
		perms = p
	}
	if !c.guard.Authorized(m.Author.ID, perms) {
		return
	}

	c.dispatch(s, m.Message, name, arg)
}

func (c *Commands) dispatch(api commandAPI, m *discordgo.Message, name, arg string) {
	switch name {
	case "help":
		c.handleHelp(api, m)
	case "ping":
		c.replies.Send(api, m, fmt.Sprintf("Pong! `%dms`", api.HeartbeatLatency().Milliseconds()))
	case "status":
		c.handleStatus(api, m)
	case "lock":
		c.persistFlag(c.flag.Arm())
		c.replies.Transient(api, m, "🔒 Automatic eviction **armed**.")
	case "unlock":
		c.persistFlag(c.flag.Disarm())
		c.replies.Transient(api, m, "🔓 Automatic eviction **disarmed**.")
	case "locksalon":
		c.handleHardLock(api, m)
	case "unlocksalon":
		c.handleHardUnlock(api, m)
	case "add":
		c.handleUser(api, m, arg, true)
	case "del":
		c.handleUser(api, m, arg, false)
	case "addrole":
		c.handleRole(api, m, arg, true)
	case "delrole":
		c.handleRole(api, m, arg, false)
	case "wl":
		c.handleList(api, m)
	}
}

func (c *Commands) handleHelp(api commandAPI, m *discordgo.Message) {
	p := c.prefix
	c.replies.Send(api, m, strings.Join([]string{
		"**🛠️ Commands (operators only)**",
		fmt.Sprintf("- `%sstatus` → quick diagnostics", p),
		fmt.Sprintf("- `%slock` / `%sunlock` → arm/disarm automatic eviction", p, p),
		fmt.Sprintf("- `%slocksalon` / `%sunlocksalon` → lock/unlock the channel via permissions", p, p),
		fmt.Sprintf("- `%sadd @user` / `%sdel @user` → add/remove an allow-listed user (grants/revokes channel access)", p, p),
		fmt.Sprintf("- `%saddrole @role` / `%sdelrole @role` → add/remove an allow-listed role (grants/revokes channel access)", p, p),
		fmt.Sprintf("- `%swl` → show the allow-list", p),
	}, "\n"))
}

func (c *Commands) handleStatus(api commandAPI, m *discordgo.Message) {
	resolved := "OK"
	if !c.sync.Resolved() {
		resolved = "not found"
	}
	users, roles := c.allow.Counts()
	c.replies.Send(api, m, strings.Join([]string{
		"**Status**",
		fmt.Sprintf("- Eviction armed: `%t`", c.flag.Armed()),
		fmt.Sprintf("- Monitored voice channel: `%s` → %s", c.channelID, resolved),
		fmt.Sprintf("- Allow-listed users: `%d` | roles: `%d`", users, roles),
	}, "\n"))
}

func (c *Commands) handleHardLock(api commandAPI, m *discordgo.Message) {
	users, roles := c.allow.Snapshot()
	if err := c.sync.HardLock(c.guard.Operators(), users, roles); err != nil {
		c.replies.Transient(api, m, "❌ Channel not found or missing permissions.")
		return
	}
	c.replies.Transient(api, m, "🔐 Channel **locked** (allow-list and operators only).")
}

func (c *Commands) handleHardUnlock(api commandAPI, m *discordgo.Message) {
	if err := c.sync.HardUnlock(); err != nil {
		c.replies.Transient(api, m, "❌ Channel not found or missing permissions.")
		return
	}
	c.replies.Transient(api, m, "🔓 Voice channel **unlocked**.")
}

func (c *Commands) handleUser(api commandAPI, m *discordgo.Message, arg string, add bool) {
	id, ok := parseUserID(arg)
	if !ok {
		c.replies.Transient(api, m, "Could not read a user from that. Use a mention or a raw id.")
		return
	}

	if add {
		if err := c.allow.AddUser(id); err != nil {
			c.logger.Error("failed to persist user allow-list", zap.Error(err))
		}
		c.replies.Transient(api, m, c.withSyncNote(
			fmt.Sprintf("✅ <@%s> added to the allow-list and **granted** channel access.", id),
			c.sync.Grant(gate.User(id))))
		return
	}

	if err := c.allow.RemoveUser(id); err != nil {
		c.logger.Error("failed to persist user allow-list", zap.Error(err))
	}
	c.replies.Transient(api, m, c.withSyncNote(
		fmt.Sprintf("❌ <@%s> removed from the allow-list; specific channel access **revoked**.", id),
		c.sync.Revoke(gate.User(id))))
}

func (c *Commands) handleRole(api commandAPI, m *discordgo.Message, arg string, add bool) {
	id, ok := parseRoleID(arg)
	if !ok {
		c.replies.Transient(api, m, "Could not read a role from that. Use a mention or a raw id.")
		return
	}

	if add {
		if err := c.allow.AddRole(id); err != nil {
			c.logger.Error("failed to persist role allow-list", zap.Error(err))
		}
		c.replies.Transient(api, m, c.withSyncNote(
			fmt.Sprintf("✅ Role <@&%s> added to the allow-list and **granted** channel access.", id),
			c.sync.Grant(gate.Role(id))))
		return
	}

	if err := c.allow.RemoveRole(id); err != nil {
		c.logger.Error("failed to persist role allow-list", zap.Error(err))
	}
	c.replies.Transient(api, m, c.withSyncNote(
		fmt.Sprintf("❌ Role <@&%s> removed from the allow-list; specific channel access **revoked**.", id),
		c.sync.Revoke(gate.Role(id))))
}

func (c *Commands) handleList(api commandAPI, m *discordgo.Message) {
	users, roles := c.allow.Snapshot()

	var b strings.Builder
	b.WriteString("**📋 Allow-list**\n\n**Users:**\n")
	if len(users) == 0 {
		b.WriteString("None.")
	}
	for _, id := range users {
		fmt.Fprintf(&b, "- <@%s> (`%s`)\n", id, id)
	}
	b.WriteString("\n**Roles:**\n")
	if len(roles) == 0 {
		b.WriteString("None.")
	}
	for _, id := range roles {
		fmt.Fprintf(&b, "- <@&%s> (`%s`)\n", id, id)
	}
	c.replies.Send(api, m, b.String())
}

// persistFlag logs a failed flag persist; the in-memory flag already
// flipped and stays authoritative.
func (c *Commands) persistFlag(err error) {
	if err != nil {
		c.logger.Error("failed to persist enforcement flag", zap.Error(err))
	}
}

// withSyncNote appends an operator-visible note when the remote overwrite
// update failed; the allow-list change itself already took effect.
func (c *Commands) withSyncNote(text string, err error) string {
	if err == nil {
		return text
	}
	c.logger.Warn("channel overwrite update failed", zap.Error(err))
	return text + "\n⚠️ Channel permissions could not be updated."
}

// splitCommand strips the prefix and separates the command word from its
// argument tail. The command word is matched case-insensitively.
func splitCommand(content, prefix string) (name, arg string, ok bool) {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, prefix) {
		return "", "", false
	}
	rest := strings.TrimSpace(strings.TrimPrefix(content, prefix))
	if rest == "" {
		return "", "", false
	}
	name, arg, _ = strings.Cut(rest, " ")
	return strings.ToLower(name), strings.TrimSpace(arg), true
}

// parseUserID accepts <@id>, <@!id> or a bare numeric id.
func parseUserID(arg string) (string, bool) {
	if id, ok := strings.CutPrefix(arg, "<@"); ok {
		id = strings.TrimPrefix(id, "!")
		id, ok = strings.CutSuffix(id, ">")
		return id, ok && isDigits(id)
	}
	return arg, isDigits(arg)
}

// parseRoleID accepts <@&id> or a bare numeric id.
func parseRoleID(arg string) (string, bool) {
	if id, ok := strings.CutPrefix(arg, "<@&"); ok {
		id, ok = strings.CutSuffix(id, ">")
		return id, ok && isDigits(id)
	}
	return arg, isDigits(arg)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
