package discord

import "github.com/bwmarrin/discordgo"

// HasRole checks whether the member behind an interaction has a role. Empty roleID always
// returns true; direct messages have no member and therefore no roles.
func HasRole(member *discordgo.Member, roleID string) bool {
	if roleID == "" {
		return true
	}
	if member == nil {
		return false
	}
	for _, role := range member.Roles {
		if role == roleID {
			return true
		}
	}
	return false
}

// InvokerID returns the id of the user behind an interaction in a guild or a DM.
func InvokerID(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
