package journal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smpctl/core/engine"
	"smpctl/core/engine/enginetest"
	"smpctl/model"
	"smpctl/repository"
)

type memoryRepo struct {
	mu        sync.Mutex
	sessions  map[string]*model.Session
	records   []*model.CommandRecord
	recordErr error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{sessions: make(map[string]*model.Session)}
}

func (m *memoryRepo) CreateSession(_ context.Context, s *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *memoryRepo) EndSession(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		s.EndedAt = &at
	}
	return nil
}

func (m *memoryRepo) GetSession(_ context.Context, id string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id], nil
}

func (m *memoryRepo) RecentSessions(context.Context, int) ([]*model.Session, error) {
	return nil, nil
}

func (m *memoryRepo) Record(_ context.Context, rec *model.CommandRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recordErr != nil {
		return m.recordErr
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *memoryRepo) Recent(context.Context, repository.JournalQuery) ([]*model.CommandRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records, nil
}

func TestRecorderJournalsEveryResult(t *testing.T) {
	repo := newMemoryRepo()
	lib := enginetest.NewFakeLibrary().
		OK("getdrivers", "driver=ASIO4ALL v2,7").
		On("init", -1, "no such driver")

	ctx := context.Background()
	rec, err := Start(ctx, repo, model.SessionOriginCLI, lib)
	require.NoError(t, err)

	client := engine.NewClient(lib, 4096, engine.WithObserver(rec))
	defer client.Close()

	_, err = client.Exec(ctx, "command=getdrivers")
	require.NoError(t, err)
	_, err = client.Exec(ctx, "command=init;driver=9")
	require.NoError(t, err)
	require.NoError(t, rec.End(ctx))

	records, _ := repo.Recent(ctx, repository.JournalQuery{})
	require.Len(t, records, 2)

	assert.Equal(t, rec.SessionID(), records[0].SessionID)
	assert.Equal(t, "getdrivers", records[0].Name)
	assert.Equal(t, model.ValueMap{"driver": []string{"ASIO4ALL v2", "7"}}, records[0].Values)
	assert.True(t, records[0].OK())

	assert.Equal(t, int32(-1), records[1].Status)
	assert.Equal(t, "no such driver", records[1].Response)
	assert.Nil(t, records[1].Values)

	session, _ := repo.GetSession(ctx, rec.SessionID())
	require.NotNil(t, session)
	assert.Equal(t, "fake", session.Library)
	assert.NotNil(t, session.EndedAt)
}

func TestRecorderSwallowsWriteErrors(t *testing.T) {
	repo := newMemoryRepo()
	repo.recordErr = errors.New("db down")
	lib := enginetest.NewFakeLibrary().OK("show", "")

	rec, err := Start(context.Background(), repo, model.SessionOriginServer, nil)
	require.NoError(t, err)
	client := engine.NewClient(lib, 64, engine.WithObserver(rec))
	defer client.Close()

	res, err := client.Exec(context.Background(), "command=show")
	require.NoError(t, err)
	assert.True(t, res.OK())
}
