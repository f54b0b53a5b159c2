package updater

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"channel-catalog/config"
	"channel-catalog/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLogger captures log messages for assertions.
type TestLogger struct {
	mu   sync.Mutex
	logs []string

	logger.DefaultLogger
}

func (tl *TestLogger) Log(s string) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.logs = append(tl.logs, s)
}

func (tl *TestLogger) Logf(format string, a ...any) {
	tl.Log(fmt.Sprintf(format, a...))
}

func (tl *TestLogger) Debug(s string) {
	tl.Log(s)
}

func (tl *TestLogger) Debugf(format string, a ...any) {
	tl.Log(fmt.Sprintf(format, a...))
}

func (tl *TestLogger) Error(s string) {
	tl.Log(s)
}

func (tl *TestLogger) Errorf(format string, a ...any) {
	tl.Log(fmt.Sprintf(format, a...))
}

func (tl *TestLogger) contains(substr string) bool {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	for _, msg := range tl.logs {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}

type fakeRefresher struct {
	calls   atomic.Int32
	err     error
	block   chan struct{}
	started chan struct{}
}

func (f *fakeRefresher) Refresh(ctx context.Context) error {
	f.calls.Add(1)
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	return f.err
}

func TestInitialize_SyncOnBoot(t *testing.T) {
	tl := &TestLogger{}
	ref := &fakeRefresher{}
	config.SetConfig(config.Defaults())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	up, err := Initialize(ctx, tl, ref)
	require.NoError(t, err)
	require.NotNil(t, up.Cron)
	defer up.Stop()

	require.Eventually(t, func() bool {
		return tl.contains("Catalog refreshed")
	}, time.Second, 10*time.Millisecond)
	assert.True(t, tl.contains("SYNC_ON_BOOT enabled"))
	assert.Equal(t, int32(1), ref.calls.Load())
	assert.Len(t, up.Cron.Entries(), 1)
}

func TestInitialize_EmptyCronDisablesSchedule(t *testing.T) {
	tl := &TestLogger{}
	ref := &fakeRefresher{}
	cfg := config.Defaults()
	cfg.SyncCron = ""
	cfg.SyncOnBoot = false
	config.SetConfig(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	up, err := Initialize(ctx, tl, ref)
	require.NoError(t, err)
	assert.Nil(t, up.Cron)
	assert.True(t, tl.contains("Background catalog refresh disabled"))

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), ref.calls.Load())
}

func TestInitialize_InvalidCron(t *testing.T) {
	cfg := config.Defaults()
	cfg.SyncCron = "invalid-cron"
	cfg.SyncOnBoot = false
	config.SetConfig(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := Initialize(ctx, &TestLogger{}, &fakeRefresher{})
	assert.Error(t, err)
}

func TestUpdateCatalog_ContextCancelled(t *testing.T) {
	tl := &TestLogger{}
	ref := &fakeRefresher{}
	up := &Updater{sync: make(chan struct{}, 1), refresher: ref, logger: tl}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	up.UpdateCatalog(ctx)

	assert.Equal(t, int32(0), ref.calls.Load())
	assert.False(t, tl.contains("Refreshing channel catalog"))
}

func TestUpdateCatalog_LogsFailure(t *testing.T) {
	tl := &TestLogger{}
	ref := &fakeRefresher{err: errors.New("upstream down")}
	up := &Updater{sync: make(chan struct{}, 1), refresher: ref, logger: tl}

	up.UpdateCatalog(context.Background())

	assert.True(t, tl.contains("Error refreshing catalog: upstream down"))
	assert.False(t, tl.contains("Catalog refreshed"))
}

func TestUpdateCatalog_SkipsOverlappingRuns(t *testing.T) {
	tl := &TestLogger{}
	ref := &fakeRefresher{block: make(chan struct{}), started: make(chan struct{}, 1)}
	up := &Updater{sync: make(chan struct{}, 1), refresher: ref, logger: tl}

	done := make(chan struct{})
	go func() {
		up.UpdateCatalog(context.Background())
		close(done)
	}()
	<-ref.started

	up.UpdateCatalog(context.Background())
	assert.True(t, tl.contains("already running"))

	close(ref.block)
	<-done
	assert.Equal(t, int32(1), ref.calls.Load())
}
