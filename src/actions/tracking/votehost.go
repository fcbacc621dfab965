package tracking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	shareddiscord "github.com/stake-plus/gemtracker/src/discord"
	sharedtracking "github.com/stake-plus/gemtracker/src/shared/tracking"
)

// Discord numbers poll answers from 1 in the order they were sent.
const (
	yesAnswerID = 1
	noAnswerID  = 2

	maxPollHours = 32 * 24
)

// messageAPI is the part of *discordgo.Session the vote host needs.
type messageAPI interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
}

// DiscordHost runs votes as native Discord polls and posts outcome messages.
type DiscordHost struct {
	api messageAPI
}

var (
	_ sharedtracking.VoteHost = (*DiscordHost)(nil)
	_ sharedtracking.Notifier = (*DiscordHost)(nil)
)

func NewDiscordHost(api messageAPI) *DiscordHost {
	return &DiscordHost{api: api}
}

// CreateVote posts a yes/no poll and returns its message id.
func (h *DiscordHost) CreateVote(ctx context.Context, channelID, question string, duration time.Duration) (string, error) {
	msg, err := h.api.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Poll: &discordgo.Poll{
			Question: discordgo.PollMedia{Text: shareddiscord.Truncate(question, 300)},
			Answers: []discordgo.PollAnswer{
				{Media: &discordgo.PollMedia{Text: "Yes", Emoji: &discordgo.ComponentEmoji{Name: "✅"}}},
				{Media: &discordgo.PollMedia{Text: "No", Emoji: &discordgo.ComponentEmoji{Name: "❌"}}},
			},
			Duration: pollHours(duration),
		},
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("create poll in %s: %w", channelID, err)
	}
	if msg == nil || msg.ID == "" {
		return "", errors.New("create poll: discord returned no message")
	}
	return msg.ID, nil
}

// VoteStatus reads the poll message. A deleted or unreachable message counts as gone;
// every other failure is returned so the vote is checked again later.
func (h *DiscordHost) VoteStatus(ctx context.Context, channelID, voteID string) (sharedtracking.VoteStatus, error) {
	msg, err := h.api.ChannelMessage(channelID, voteID, discordgo.WithContext(ctx))
	if err != nil {
		if shareddiscord.IsUnknownResource(err) || shareddiscord.IsMissingAccess(err) {
			return sharedtracking.VoteStatus{State: sharedtracking.VoteNotFound}, nil
		}
		return sharedtracking.VoteStatus{}, fmt.Errorf("fetch poll %s: %w", voteID, err)
	}
	return pollStatus(msg), nil
}

// CancelVote deletes the poll message. A message that is already gone is not an error.
func (h *DiscordHost) CancelVote(ctx context.Context, channelID, voteID string) error {
	err := h.api.ChannelMessageDelete(channelID, voteID, discordgo.WithContext(ctx))
	if err != nil && !shareddiscord.IsUnknownResource(err) {
		return fmt.Errorf("delete poll %s: %w", voteID, err)
	}
	return nil
}

// Notify posts text to the channel, split over several messages when needed.
func (h *DiscordHost) Notify(ctx context.Context, channelID, text string) error {
	for _, chunk := range shareddiscord.SplitLines(strings.Split(text, "\n"), shareddiscord.SafeChunkLen) {
		if _, err := h.api.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
			Content:         chunk,
			AllowedMentions: &discordgo.MessageAllowedMentions{},
		}, discordgo.WithContext(ctx)); err != nil {
			return fmt.Errorf("notify %s: %w", channelID, err)
		}
	}
	return nil
}

func pollStatus(msg *discordgo.Message) sharedtracking.VoteStatus {
	if msg == nil || msg.Poll == nil {
		return sharedtracking.VoteStatus{State: sharedtracking.VoteNotFound}
	}
	results := msg.Poll.Results
	if results == nil || !results.Finalized {
		return sharedtracking.VoteStatus{State: sharedtracking.VoteRunning}
	}

	status := sharedtracking.VoteStatus{State: sharedtracking.VoteConcluded}
	for _, count := range results.AnswerCounts {
		if count == nil {
			continue
		}
		switch count.ID {
		case yesAnswerID:
			status.Tally.Yes = count.Count
		case noAnswerID:
			status.Tally.No = count.Count
		}
	}
	return status
}

func pollHours(d time.Duration) int {
	hours := int((d + time.Hour - 1) / time.Hour)
	if hours < 1 {
		return 1
	}
	if hours > maxPollHours {
		return maxPollHours
	}
	return hours
}
