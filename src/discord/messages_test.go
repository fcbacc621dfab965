package discord

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func TestSplitLines(t *testing.T) {
	lines := []string{"aaaa", "bbbb", "cccc"}
	assert.Equal(t, []string{"aaaa\nbbbb", "cccc"}, SplitLines(lines, 9))
	assert.Equal(t, []string{"aaaa\nbbbb\ncccc"}, SplitLines(lines, 100))
	assert.Nil(t, SplitLines(nil, 10))

	long := strings.Repeat("x", 30)
	chunks := SplitLines([]string{long}, 10)
	assert.Len(t, chunks, 1)
	assert.LessOrEqual(t, len(chunks[0]), 10)
}

func TestTruncateKeepsRunes(t *testing.T) {
	s := "⭐⭐⭐⭐"
	out := Truncate(s, 8)
	assert.LessOrEqual(t, len(out), 8)
	assert.True(t, strings.HasSuffix(out, "…"))
	assert.True(t, strings.HasPrefix(out, "⭐"))
	assert.Equal(t, "short", Truncate("short", 8))
}

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, `\*\*Bold\*\* \_bot\_`, EscapeMarkdown("**Bold** _bot_"))
}

func TestRESTErrorClassification(t *testing.T) {
	unknown := &discordgo.RESTError{Message: &discordgo.APIErrorMessage{Code: discordgo.ErrCodeUnknownMessage}}
	assert.True(t, IsUnknownResource(fmt.Errorf("fetch: %w", unknown)))
	assert.False(t, IsMissingAccess(unknown))

	forbidden := &discordgo.RESTError{Message: &discordgo.APIErrorMessage{Code: discordgo.ErrCodeMissingAccess}}
	assert.True(t, IsMissingAccess(forbidden))
	assert.False(t, IsUnknownResource(forbidden))

	assert.False(t, IsUnknownResource(errors.New("timeout")))
	assert.Zero(t, RESTErrorCode(nil))
}

func TestHasRole(t *testing.T) {
	member := &discordgo.Member{Roles: []string{"1", "2"}}
	assert.True(t, HasRole(member, ""))
	assert.True(t, HasRole(member, "2"))
	assert.False(t, HasRole(member, "3"))
	assert.False(t, HasRole(nil, "2"))
	assert.True(t, HasRole(nil, ""))
}

func TestCommandDefinitions(t *testing.T) {
	track, ok := CommandDefinition(CommandTrack)
	assert.True(t, ok)
	var subs []string
	for _, opt := range track.Options {
		subs = append(subs, opt.Name)
	}
	assert.Equal(t, []string{SubcommandList, SubcommandAdd, SubcommandRemove}, subs)

	poll, ok := CommandDefinition(CommandPollTrack)
	assert.True(t, ok)
	assert.Len(t, poll.Options[0].Choices, 2)
}
