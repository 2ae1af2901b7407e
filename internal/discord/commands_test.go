package discord

import (
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"vocalgate/internal/config"
	"vocalgate/internal/gate"
)

// fakeSession records sent messages and satisfies commandAPI.
type fakeSession struct {
	sent    []string
	deleted []string
}

func (f *fakeSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.sent = append(f.sent, data.Content)
	return &discordgo.Message{ID: "reply", ChannelID: channelID}, nil
}

func (f *fakeSession) ChannelMessageDelete(channelID, messageID string, _ ...discordgo.RequestOption) error {
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeSession) HeartbeatLatency() time.Duration { return 42 * time.Millisecond }

func (f *fakeSession) lastSent() string {
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1]
}

type commandFixture struct {
	commands *Commands
	session  *fakeSession
	channel  *fakeChannelAPI
	allow    *gate.AllowList
	flag     *gate.Enforcement
	msg      *discordgo.Message
}

func newCommandFixture(t *testing.T) *commandFixture {
	t.Helper()
	guard := gate.NewGuard([]string{"op"}, config.OperatorModeList)
	allow := gate.NewAllowList(nil, nil, guard, nopPersist{})
	flag := gate.NewEnforcement(false, nopPersist{})
	channel := newFakeChannelAPI(discordgo.ChannelTypeGuildVoice)
	syncer := NewSync(channel, "chan", []string{"blocked"}, nil)
	replies := NewReplies(nil)
	t.Cleanup(replies.Close)

	return &commandFixture{
		commands: NewCommands(",", "chan", guard, allow, flag, syncer, replies, nil),
		session:  &fakeSession{},
		channel:  channel,
		allow:    allow,
		flag:     flag,
		msg:      &discordgo.Message{ID: "msg", ChannelID: "text", GuildID: "guild"},
	}
}

func (fx *commandFixture) run(t *testing.T, command string) {
	t.Helper()
	name, arg, ok := splitCommand(command, ",")
	if !ok {
		t.Fatalf("command %q did not parse", command)
	}
	fx.commands.dispatch(fx.session, fx.msg, name, arg)
}

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		prefix   string
		wantName string
		wantArg  string
		wantOK   bool
	}{
		{name: "bare command", content: ",lock", prefix: ",", wantName: "lock", wantOK: true},
		{name: "command with argument", content: ",add <@1>", prefix: ",", wantName: "add", wantArg: "<@1>", wantOK: true},
		{name: "case folded", content: ",LOCK", prefix: ",", wantName: "lock", wantOK: true},
		{name: "surrounding whitespace", content: "  ,wl  ", prefix: ",", wantName: "wl", wantOK: true},
		{name: "no prefix", content: "lock", prefix: ",", wantOK: false},
		{name: "prefix only", content: ",", prefix: ",", wantOK: false},
		{name: "multi char prefix", content: "vg!status", prefix: "vg!", wantName: "status", wantOK: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			name, arg, ok := splitCommand(tc.content, tc.prefix)
			if ok != tc.wantOK || name != tc.wantName || arg != tc.wantArg {
				t.Fatalf("splitCommand(%q, %q) = (%q, %q, %t), want (%q, %q, %t)",
					tc.content, tc.prefix, name, arg, ok, tc.wantName, tc.wantArg, tc.wantOK)
			}
		})
	}
}

func TestParseTargetIDs(t *testing.T) {
	tests := []struct {
		arg      string
		userID   string
		userOK   bool
		roleID   string
		roleOK   bool
	}{
		{arg: "<@123>", userID: "123", userOK: true, roleOK: false},
		{arg: "<@!123>", userID: "123", userOK: true, roleOK: false},
		{arg: "<@&456>", userOK: false, roleID: "456", roleOK: true},
		{arg: "789", userID: "789", userOK: true, roleID: "789", roleOK: true},
		{arg: "steve", userOK: false, roleOK: false},
		{arg: "<@12a3>", userOK: false, roleOK: false},
		{arg: "", userOK: false, roleOK: false},
	}

	for _, tc := range tests {
		t.Run(tc.arg, func(t *testing.T) {
			id, ok := parseUserID(tc.arg)
			if ok != tc.userOK || (ok && id != tc.userID) {
				t.Fatalf("parseUserID(%q) = (%q, %t), want (%q, %t)", tc.arg, id, ok, tc.userID, tc.userOK)
			}
			id, ok = parseRoleID(tc.arg)
			if ok != tc.roleOK || (ok && id != tc.roleID) {
				t.Fatalf("parseRoleID(%q) = (%q, %t), want (%q, %t)", tc.arg, id, ok, tc.roleID, tc.roleOK)
			}
		})
	}
}

func TestCommands_LockUnlock(t *testing.T) {
	fx := newCommandFixture(t)

	fx.run(t, ",lock")
	if !fx.flag.Armed() {
		t.Fatal("expected lock to arm enforcement")
	}
	fx.run(t, ",unlock")
	if fx.flag.Armed() {
		t.Fatal("expected unlock to disarm enforcement")
	}
	if len(fx.session.sent) != 2 {
		t.Fatalf("expected 2 confirmations, got %d", len(fx.session.sent))
	}
}

func TestCommands_AddUserGrantsAccess(t *testing.T) {
	fx := newCommandFixture(t)

	fx.run(t, ",add <@55>")

	if !fx.allow.Allowed("55", nil) {
		t.Fatal("expected user allow-listed")
	}
	ow := fx.channel.overwrites["55"]
	if ow == nil || ow.Type != discordgo.PermissionOverwriteTypeMember || ow.Allow != allowVoiceBits {
		t.Fatalf("expected member grant overwrite, got %+v", ow)
	}
	if !strings.Contains(fx.session.lastSent(), "<@55>") {
		t.Fatalf("unexpected confirmation: %q", fx.session.lastSent())
	}
}

func TestCommands_DelUserRevokesAccess(t *testing.T) {
	fx := newCommandFixture(t)

	fx.run(t, ",add 55")
	fx.run(t, ",del 55")

	if fx.allow.Allowed("55", nil) {
		t.Fatal("expected user removed from allow-list")
	}
	if _, ok := fx.channel.overwrites["55"]; ok {
		t.Fatal("expected overwrite cleared on removal")
	}
}

func TestCommands_RoleLifecycle(t *testing.T) {
	fx := newCommandFixture(t)

	fx.run(t, ",addrole <@&7>")
	if !fx.allow.Allowed("member", []string{"7"}) {
		t.Fatal("expected role allow-listed")
	}
	if ow := fx.channel.overwrites["7"]; ow == nil || ow.Type != discordgo.PermissionOverwriteTypeRole {
		t.Fatalf("expected role overwrite, got %+v", ow)
	}

	fx.run(t, ",delrole 7")
	if fx.allow.Allowed("member", []string{"7"}) {
		t.Fatal("expected role removed")
	}
}

func TestCommands_MalformedArgumentMutatesNothing(t *testing.T) {
	fx := newCommandFixture(t)

	fx.run(t, ",add not-an-id")
	fx.run(t, ",addrole not-an-id")

	users, roles := fx.allow.Counts()
	if users != 0 || roles != 0 {
		t.Fatalf("expected no mutation, got %d users %d roles", users, roles)
	}
	if len(fx.channel.overwrites) != 0 {
		t.Fatal("expected no overwrite writes")
	}
	if len(fx.session.sent) != 2 {
		t.Fatalf("expected 2 notices, got %d", len(fx.session.sent))
	}
}

func TestCommands_HardLockReportsFailure(t *testing.T) {
	fx := newCommandFixture(t)
	fx.channel.channel = nil

	fx.run(t, ",locksalon")

	if !strings.Contains(fx.session.lastSent(), "❌") {
		t.Fatalf("expected failure notice, got %q", fx.session.lastSent())
	}
}

func TestCommands_StatusAndList(t *testing.T) {
	fx := newCommandFixture(t)
	fx.run(t, ",add 55")
	fx.run(t, ",addrole 7")
	fx.run(t, ",lock")

	fx.run(t, ",status")
	status := fx.session.lastSent()
	for _, want := range []string{"`true`", "chan", "`1`"} {
		if !strings.Contains(status, want) {
			t.Fatalf("status missing %q: %q", want, status)
		}
	}

	fx.run(t, ",wl")
	list := fx.session.lastSent()
	if !strings.Contains(list, "<@55>") || !strings.Contains(list, "<@&7>") {
		t.Fatalf("allow-list report missing entries: %q", list)
	}
}

func TestCommands_UnknownCommandSilent(t *testing.T) {
	fx := newCommandFixture(t)

	fx.run(t, ",selfdestruct")

	if len(fx.session.sent) != 0 {
		t.Fatalf("expected silence for unknown command, got %v", fx.session.sent)
	}
}
