package tracking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	sharedtracking "github.com/stake-plus/gemtracker/src/shared/tracking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessageAPI struct {
	sent     []*discordgo.MessageSend
	messages map[string]*discordgo.Message
	fetchErr error
	sendErr  error
	deleted  []string
	delErr   error
}

func (f *fakeMessageAPI) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent = append(f.sent, data)
	return &discordgo.Message{ID: "msg-1", ChannelID: channelID}, nil
}

func (f *fakeMessageAPI) ChannelMessage(_, messageID string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.messages[messageID], nil
}

func (f *fakeMessageAPI) ChannelMessageDelete(_, messageID string, _ ...discordgo.RequestOption) error {
	if f.delErr != nil {
		return f.delErr
	}
	f.deleted = append(f.deleted, messageID)
	return nil
}

func restError(code int) error {
	return &discordgo.RESTError{Message: &discordgo.APIErrorMessage{Code: code, Message: "boom"}}
}

func TestCreateVote_PostsYesNoPoll(t *testing.T) {
	api := &fakeMessageAPI{}
	host := NewDiscordHost(api)

	id, err := host.CreateVote(context.Background(), "chan-1", "Should 'Bar' (C) be added?", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)

	require.Len(t, api.sent, 1)
	poll := api.sent[0].Poll
	require.NotNil(t, poll)
	assert.Equal(t, "Should 'Bar' (C) be added?", poll.Question.Text)
	assert.Equal(t, 1, poll.Duration)
	assert.False(t, poll.AllowMultiselect)
	require.Len(t, poll.Answers, 2)
	assert.Equal(t, "Yes", poll.Answers[0].Media.Text)
	assert.Equal(t, "No", poll.Answers[1].Media.Text)
}

func TestCreateVote_Error(t *testing.T) {
	api := &fakeMessageAPI{sendErr: restError(discordgo.ErrCodeMissingPermissions)}
	_, err := NewDiscordHost(api).CreateVote(context.Background(), "chan-1", "q", time.Hour)
	assert.Error(t, err)
}

func TestVoteStatus_Mapping(t *testing.T) {
	finalized := func(counts ...*discordgo.PollAnswerCount) *discordgo.Message {
		return &discordgo.Message{Poll: &discordgo.Poll{Results: &discordgo.PollResults{Finalized: true, AnswerCounts: counts}}}
	}

	tests := []struct {
		name string
		msg  *discordgo.Message
		want sharedtracking.VoteStatus
	}{
		{"no poll", &discordgo.Message{}, sharedtracking.VoteStatus{State: sharedtracking.VoteNotFound}},
		{"no results yet", &discordgo.Message{Poll: &discordgo.Poll{}}, sharedtracking.VoteStatus{State: sharedtracking.VoteRunning}},
		{"running", &discordgo.Message{Poll: &discordgo.Poll{Results: &discordgo.PollResults{
			AnswerCounts: []*discordgo.PollAnswerCount{{ID: 1, Count: 4}},
		}}}, sharedtracking.VoteStatus{State: sharedtracking.VoteRunning}},
		{"concluded", finalized(&discordgo.PollAnswerCount{ID: 1, Count: 3}, &discordgo.PollAnswerCount{ID: 2, Count: 1}),
			sharedtracking.VoteStatus{State: sharedtracking.VoteConcluded, Tally: sharedtracking.Tally{Yes: 3, No: 1}}},
		{"concluded without votes", finalized(),
			sharedtracking.VoteStatus{State: sharedtracking.VoteConcluded}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeMessageAPI{messages: map[string]*discordgo.Message{"vote-1": tt.msg}}
			got, err := NewDiscordHost(api).VoteStatus(context.Background(), "chan-1", "vote-1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVoteStatus_Errors(t *testing.T) {
	ctx := context.Background()

	for _, code := range []int{discordgo.ErrCodeUnknownMessage, discordgo.ErrCodeUnknownChannel, discordgo.ErrCodeMissingAccess} {
		api := &fakeMessageAPI{fetchErr: restError(code)}
		got, err := NewDiscordHost(api).VoteStatus(ctx, "chan-1", "vote-1")
		require.NoError(t, err)
		assert.Equal(t, sharedtracking.VoteNotFound, got.State, code)
	}

	api := &fakeMessageAPI{fetchErr: errors.New("502 bad gateway")}
	_, err := NewDiscordHost(api).VoteStatus(ctx, "chan-1", "vote-1")
	assert.Error(t, err)
}

func TestCancelVote(t *testing.T) {
	ctx := context.Background()

	api := &fakeMessageAPI{}
	require.NoError(t, NewDiscordHost(api).CancelVote(ctx, "chan-1", "vote-1"))
	assert.Equal(t, []string{"vote-1"}, api.deleted)

	api = &fakeMessageAPI{delErr: restError(discordgo.ErrCodeUnknownMessage)}
	assert.NoError(t, NewDiscordHost(api).CancelVote(ctx, "chan-1", "vote-1"))

	api = &fakeMessageAPI{delErr: restError(discordgo.ErrCodeMissingPermissions)}
	assert.Error(t, NewDiscordHost(api).CancelVote(ctx, "chan-1", "vote-1"))
}

func TestNotify(t *testing.T) {
	api := &fakeMessageAPI{}
	require.NoError(t, NewDiscordHost(api).Notify(context.Background(), "chan-1", "line one\nline two"))
	require.Len(t, api.sent, 1)
	assert.Equal(t, "line one\nline two", api.sent[0].Content)
	assert.NotNil(t, api.sent[0].AllowedMentions)
}

func TestPollHours(t *testing.T) {
	assert.Equal(t, 1, pollHours(0))
	assert.Equal(t, 1, pollHours(30*time.Minute))
	assert.Equal(t, 2, pollHours(61*time.Minute))
	assert.Equal(t, 24, pollHours(24*time.Hour))
	assert.Equal(t, maxPollHours, pollHours(100*24*time.Hour))
}
