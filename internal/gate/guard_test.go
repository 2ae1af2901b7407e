package gate

import (
	"testing"

	"github.com/bwmarrin/discordgo"

	"vocalgate/internal/config"
)

func TestGuard_Authorized(t *testing.T) {
	const admin = int64(discordgo.PermissionAdministrator)

	tests := []struct {
		name        string
		mode        config.OperatorMode
		operators   []string
		userID      string
		permissions int64
		want        bool
	}{
		{name: "list mode accepts operator", mode: config.OperatorModeList, operators: []string{"op"}, userID: "op", want: true},
		{name: "list mode rejects admin bit", mode: config.OperatorModeList, operators: []string{"op"}, userID: "u", permissions: admin, want: false},
		{name: "admin mode accepts admin bit", mode: config.OperatorModeAdmin, userID: "u", permissions: admin, want: true},
		{name: "admin mode rejects operator without bit", mode: config.OperatorModeAdmin, operators: []string{"op"}, userID: "op", want: false},
		{name: "either mode accepts operator", mode: config.OperatorModeEither, operators: []string{"op"}, userID: "op", want: true},
		{name: "either mode accepts admin bit", mode: config.OperatorModeEither, operators: []string{"op"}, userID: "u", permissions: admin, want: true},
		{name: "either mode rejects plain member", mode: config.OperatorModeEither, operators: []string{"op"}, userID: "u", want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := NewGuard(tc.operators, tc.mode)
			if got := g.Authorized(tc.userID, tc.permissions); got != tc.want {
				t.Fatalf("Authorized(%s, %d) = %t, want %t", tc.userID, tc.permissions, got, tc.want)
			}
		})
	}
}

func TestGuard_IsOperatorIgnoresMode(t *testing.T) {
	g := NewGuard([]string{"op"}, config.OperatorModeAdmin)
	if !g.IsOperator("op") {
		t.Fatal("expected fixed-list membership regardless of mode")
	}
	if g.IsOperator("other") {
		t.Fatal("expected non-listed id to be rejected")
	}
}
