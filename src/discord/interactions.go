package discord

import (
	"strings"

	"github.com/bwmarrin/discordgo"
)

// DeferResponse acknowledges an interaction so slow work can follow.
func DeferResponse(s *discordgo.Session, i *discordgo.Interaction, ephemeral bool) error {
	resp := &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}
	if ephemeral {
		resp.Data = &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral}
	}
	return s.InteractionRespond(i, resp)
}

// EditResponse replaces the deferred reply. Content beyond one message is sent as
// follow-ups.
func EditResponse(s *discordgo.Session, i *discordgo.Interaction, content string, embeds ...*discordgo.MessageEmbed) error {
	chunks := SplitLines(strings.Split(content, "\n"), MaxDiscordMessageLen)
	if len(chunks) == 0 {
		chunks = []string{""}
	}

	first := chunks[0]
	edit := &discordgo.WebhookEdit{
		Content:         &first,
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	}
	if len(embeds) > 0 {
		edit.Embeds = &embeds
	}
	if _, err := s.InteractionResponseEdit(i, edit); err != nil {
		return err
	}

	for _, chunk := range chunks[1:] {
		if _, err := s.FollowupMessageCreate(i, true, &discordgo.WebhookParams{
			Content:         chunk,
			AllowedMentions: &discordgo.MessageAllowedMentions{},
		}); err != nil {
			return err
		}
	}
	return nil
}
