package devreload

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherPollReportsChanges(t *testing.T) {
	dir := t.TempDir()
	post := filepath.Join(dir, "post.md")
	require.NoError(t, os.WriteFile(post, []byte("one"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "node_modules"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "node_modules", "x.js"), []byte("x"), 0o644))

	watcher := NewWatcher(WatcherConfig{Paths: []string{dir}})
	assert.Empty(t, watcher.Poll())

	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(post, later, later))
	created := filepath.Join(dir, "new.md")
	require.NoError(t, os.WriteFile(created, []byte("two"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "draft.swp"), []byte("swap"), 0o644))

	changed := watcher.Poll()
	sort.Strings(changed)
	assert.Equal(t, []string{created, post}, changed)

	require.NoError(t, os.Remove(created))
	assert.Equal(t, []string{created}, watcher.Poll())
	assert.Empty(t, watcher.Poll())
}

func TestBatchWaitsForQuietPoll(t *testing.T) {
	var pending batch

	assert.Nil(t, pending.next(nil))
	assert.Nil(t, pending.next([]string{"b.md"}))
	assert.Nil(t, pending.next([]string{"a.md", "b.md"}))
	assert.Equal(t, []string{"a.md", "b.md"}, pending.next(nil))
	assert.Nil(t, pending.next(nil))
}

func TestBatchFlushesContinuousChanges(t *testing.T) {
	var pending batch

	for i := 1; i < maxHeldPolls; i++ {
		require.Nil(t, pending.next([]string{"busy.log"}), "poll %d", i)
	}
	assert.Equal(t, []string{"busy.log"}, pending.next([]string{"busy.log"}))
	assert.Nil(t, pending.next(nil))
}

func TestWatcherRunCoalescesOneSave(t *testing.T) {
	dir := t.TempDir()
	watcher := NewWatcher(WatcherConfig{Paths: []string{dir}, Interval: 20 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	batches := make(chan []string, 4)
	go func() {
		_ = watcher.Run(ctx, func(changed []string) { batches <- changed })
	}()

	post := filepath.Join(dir, "post.md")
	tmp := filepath.Join(dir, "post.md.part")
	require.NoError(t, os.WriteFile(tmp, []byte("draft"), 0o644))
	require.NoError(t, os.Rename(tmp, post))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.md"), []byte("index"), 0o644))

	select {
	case changed := <-batches:
		assert.Subset(t, changed, []string{filepath.Join(dir, "index.md"), post})
	case <-time.After(2 * time.Second):
		t.Fatal("no change batch reported")
	}

	select {
	case changed := <-batches:
		t.Fatalf("unexpected second batch %v", changed)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHubBroadcastsToConnectedClients(t *testing.T) {
	hub := NewHub(nil)
	server := httptest.NewServer(hub)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.NotifyReload("content/posts/a.md")
	var msg Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(payload, &msg))
	assert.Equal(t, Message{Type: MessageReload, File: "content/posts/a.md"}, msg)

	hub.NotifyError(errors.New("template parse failed"))
	_, payload, err = conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(payload, &msg))
	assert.Equal(t, MessageError, msg.Type)
	assert.Equal(t, "template parse failed", msg.Error)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestScriptUsesPath(t *testing.T) {
	assert.Contains(t, Script(""), DefaultPath)
	assert.Contains(t, Script("/dev/socket"), "/dev/socket")
}
