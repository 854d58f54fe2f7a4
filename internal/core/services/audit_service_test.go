package services

import (
	"context"
	"errors"
	"testing"

	"nodegate/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type failingAuditRepo struct{}

func (failingAuditRepo) Append(ctx context.Context, record domain.AuditRecord) error {
	return errors.New("disk full")
}

func (failingAuditRepo) List(ctx context.Context) ([]domain.AuditRecord, error) {
	return nil, errors.New("disk full")
}

func TestAuditService_RoutesToJournals(t *testing.T) {
	security := &memAuditRepo{}
	events := &memAuditRepo{}
	commands := &memAuditRepo{}
	svc := NewAuditService(security, events, commands, zaptest.NewLogger(t).Sugar())
	ctx := context.Background()

	svc.Security(ctx, domain.AuditWarn, "suspicious login", map[string]interface{}{"username": "alice"})
	svc.Event(ctx, domain.AuditInfo, "node registered", nil)
	svc.Command(ctx, map[string]interface{}{"command": "restart", "nodeId": "node_1"})

	secLog, err := svc.SecurityLog(ctx)
	require.NoError(t, err)
	require.Len(t, secLog, 1)
	assert.Equal(t, "suspicious login", secLog[0].Message)
	assert.Equal(t, domain.AuditWarn, secLog[0].Level)
	assert.Equal(t, "alice", secLog[0].Details["username"])
	assert.False(t, secLog[0].Timestamp.IsZero())

	evtLog, err := svc.EventLog(ctx)
	require.NoError(t, err)
	require.Len(t, evtLog, 1)
	assert.Equal(t, "node registered", evtLog[0].Message)

	cmdLog, err := svc.CommandLog(ctx)
	require.NoError(t, err)
	require.Len(t, cmdLog, 1)
	assert.Equal(t, "restart", cmdLog[0].Details["command"])
}

func TestAuditService_AppendFailureDoesNotPanic(t *testing.T) {
	svc := NewAuditService(failingAuditRepo{}, failingAuditRepo{}, failingAuditRepo{}, zaptest.NewLogger(t).Sugar())

	// Journal failures are logged and swallowed.
	assert.NotPanics(t, func() {
		svc.Security(context.Background(), domain.AuditError, "write should fail", nil)
		svc.Command(context.Background(), map[string]interface{}{"command": "noop"})
	})
}
