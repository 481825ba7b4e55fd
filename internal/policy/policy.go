// Package policy decides who may run privileged commands and which messages
// the mirror feature reacts to.
package policy

import "github.com/bwmarrin/discordgo"

// CashAdmins lists the users and the role allowed to adjust balances.
type CashAdmins struct {
	UserIDs []string
	RoleID  string
}

// Allows reports whether the author of m may run !cash. The role check only
// applies to guild messages.
func (c CashAdmins) Allows(m *discordgo.Message) bool {
	if m == nil || m.Author == nil {
		return false
	}
	if contains(c.UserIDs, m.Author.ID) {
		return true
	}
	if c.RoleID != "" && m.GuildID != "" && m.Member != nil {
		return contains(m.Member.Roles, c.RoleID)
	}
	return false
}

// MentionsAnyRole reports whether m mentions at least one of roleIDs. An
// empty allow list matches nothing.
func MentionsAnyRole(m *discordgo.Message, roleIDs []string) bool {
	if m == nil || len(roleIDs) == 0 {
		return false
	}
	return intersects(roleIDs, m.MentionRoles)
}

func intersects(needles, haystack []string) bool {
	set := make(map[string]struct{}, len(needles))
	for _, n := range needles {
		set[n] = struct{}{}
	}
	for _, h := range haystack {
		if _, ok := set[h]; ok {
			return true
		}
	}
	return false
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
