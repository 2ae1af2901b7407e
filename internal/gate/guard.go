package gate

import (
	"github.com/bwmarrin/discordgo"

	"vocalgate/internal/config"
)

// Guard decides whether a command issuer may invoke privileged operations.
// Denials are silent at the command layer so the privileged surface is not
// advertised to non-operators.
type Guard struct {
	operators map[string]struct{}
	mode      config.OperatorMode
}

func NewGuard(operators []string, mode config.OperatorMode) *Guard {
	set := make(map[string]struct{}, len(operators))
	for _, id := range operators {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return &Guard{operators: set, mode: mode}
}

// Authorized reports whether the issuer may run privileged commands.
// permissions is the issuer's computed guild permission bitfield, consulted
// only in the admin and either modes.
func (g *Guard) Authorized(userID string, permissions int64) bool {
	admin := permissions&discordgo.PermissionAdministrator != 0
	switch g.mode {
	case config.OperatorModeAdmin:
		return admin
	case config.OperatorModeEither:
		return admin || g.IsOperator(userID)
	default:
		return g.IsOperator(userID)
	}
}

// IsOperator reports fixed-list membership, ignoring the mode. Operators
// are always allow-listed for channel presence regardless of how command
// authorization is configured.
func (g *Guard) IsOperator(userID string) bool {
	_, ok := g.operators[userID]
	return ok
}

// Operators returns the fixed operator ids in unspecified order.
func (g *Guard) Operators() []string {
	out := make([]string, 0, len(g.operators))
	for id := range g.operators {
		out = append(out, id)
	}
	return out
}
