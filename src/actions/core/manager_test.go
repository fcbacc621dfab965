package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	events []string
}

type stubModule struct {
	name string
	err  error
	rec  *recorder
}

func (s *stubModule) Name() string { return s.name }

func (s *stubModule) Start(context.Context) error {
	if s.err != nil {
		return s.err
	}
	s.rec.events = append(s.rec.events, "start "+s.name)
	return nil
}

func (s *stubModule) Stop(context.Context) {
	s.rec.events = append(s.rec.events, "stop "+s.name)
}

func TestManager_StartStopOrder(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	m := NewManager(&stubModule{name: "tracking", rec: rec})
	require.NoError(t, m.Add(&stubModule{name: "api", rec: rec}))
	assert.Equal(t, []string{"tracking", "api"}, m.Names())

	require.NoError(t, m.Start(ctx))
	assert.Error(t, m.Start(ctx))
	assert.Error(t, m.Add(&stubModule{name: "late", rec: rec}))

	m.Stop(ctx)
	m.Stop(ctx)
	assert.Equal(t, []string{"start tracking", "start api", "stop api", "stop tracking"}, rec.events)
}

func TestManager_FailedStartRollsBack(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	boom := errors.New("token rejected")
	m := NewManager(
		&stubModule{name: "api", rec: rec},
		&stubModule{name: "tracking", rec: rec, err: boom},
	)

	err := m.Start(ctx)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"start api", "stop api"}, rec.events)

	// nothing is left running, so Stop does nothing
	m.Stop(ctx)
	assert.Len(t, rec.events, 2)
}
