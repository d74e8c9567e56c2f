package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/emojicoin/indexer/internal/config"
	"github.com/emojicoin/indexer/internal/event"
)

// mockFeedServer creates a test WebSocket feed. The handler receives the
// parsed stream request from the client.
func mockFeedServer(t *testing.T, handler func(*websocket.Conn, streamRequest)) *httptest.Server {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer conn.Close()

		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req streamRequest
		if err := json.Unmarshal(data, &req); err != nil {
			t.Logf("bad stream request: %v", err)
			return
		}
		handler(conn, req)
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func feedConfig(url string) config.FeedConfig {
	return config.FeedConfig{
		URL:                 url,
		ChannelBuffer:       16,
		ReconnectShortDelay: 5 * time.Millisecond,
		ReconnectLongDelay:  10 * time.Millisecond,
		RetryBudget:         3,
		HealthyDuration:     time.Hour,
	}
}

func sendBatch(conn *websocket.Conn, versions ...int64) error {
	batch := event.Batch{}
	for _, v := range versions {
		batch.Transactions = append(batch.Transactions, event.RawTransaction{Version: v})
	}
	data, err := json.Marshal(batch)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

func TestClientRunRange(t *testing.T) {
	server := mockFeedServer(t, func(conn *websocket.Conn, req streamRequest) {
		if req.StartingVersion != 10 {
			t.Errorf("starting_version = %d, want 10", req.StartingVersion)
		}
		if req.EndingVersion == nil || *req.EndingVersion != 15 {
			t.Errorf("ending_version = %v, want 15", req.EndingVersion)
		}
		sendBatch(conn, 10, 11, 12)
		sendBatch(conn, 13, 14, 15)
		time.Sleep(time.Second)
	})
	defer server.Close()

	client := NewClient(feedConfig(wsURL(server)), nil, nil)

	errCh := make(chan error, 1)
	go func() { errCh <- client.RunRange(context.Background(), 10, 15) }()

	var got []int64
	for batch := range client.Batches() {
		for _, txn := range batch.Transactions {
			got = append(got, txn.Version)
		}
	}
	if err := <-errCh; err != nil {
		t.Fatalf("RunRange failed: %v", err)
	}

	want := []int64{10, 11, 12, 13, 14, 15}
	if len(got) != len(want) {
		t.Fatalf("got %d versions, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("version %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestClientReconnectsOnGap(t *testing.T) {
	requests := make(chan int64, 8)
	server := mockFeedServer(t, func(conn *websocket.Conn, req streamRequest) {
		requests <- req.StartingVersion
		if req.StartingVersion == 0 {
			// First session: a valid batch, then a gap.
			sendBatch(conn, 0, 1)
			sendBatch(conn, 5, 6)
			time.Sleep(time.Second)
			return
		}
		// Reconnected session resumes from the next expected version.
		sendBatch(conn, 2, 3)
		time.Sleep(time.Second)
	})
	defer server.Close()

	client := NewClient(feedConfig(wsURL(server)), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Run(ctx, 0)

	var got []int64
	timeout := time.After(2 * time.Second)
	for len(got) < 4 {
		select {
		case batch := <-client.Batches():
			for _, txn := range batch.Transactions {
				got = append(got, txn.Version)
			}
		case <-timeout:
			t.Fatalf("timeout, received versions %v", got)
		}
	}

	want := []int64{0, 1, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("version %d: got %d, want %d", i, got[i], want[i])
		}
	}

	if first := <-requests; first != 0 {
		t.Errorf("first request from version %d, want 0", first)
	}
	if second := <-requests; second != 2 {
		t.Errorf("reconnect request from version %d, want 2", second)
	}
}

func TestClientRetryBudgetExhausted(t *testing.T) {
	// Nothing is listening here.
	cfg := feedConfig("ws://127.0.0.1:1")
	cfg.RetryBudget = 2
	client := NewClient(cfg, nil, nil)

	err := client.Run(context.Background(), 0)
	if !errors.Is(err, ErrRetryBudgetExhausted) {
		t.Fatalf("err = %v, want ErrRetryBudgetExhausted", err)
	}
}

func TestClientStopsOnCancel(t *testing.T) {
	server := mockFeedServer(t, func(conn *websocket.Conn, req streamRequest) {
		sendBatch(conn, 0)
		time.Sleep(time.Second)
	})
	defer server.Close()

	client := NewClient(feedConfig(wsURL(server)), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- client.Run(ctx, 0) }()

	<-client.Batches()
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestCheckContiguity(t *testing.T) {
	tests := []struct {
		name     string
		versions []int64
		expected int64
		wantErr  bool
	}{
		{"contiguous", []int64{5, 6, 7}, 5, false},
		{"single", []int64{5}, 5, false},
		{"wrong start", []int64{6, 7}, 5, true},
		{"internal gap", []int64{5, 7}, 5, true},
		{"duplicate", []int64{5, 5}, 5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch := &event.Batch{}
			for _, v := range tt.versions {
				batch.Transactions = append(batch.Transactions, event.RawTransaction{Version: v})
			}
			err := checkContiguity(batch, tt.expected)
			if (err != nil) != tt.wantErr {
				t.Errorf("checkContiguity(%v, %d) error = %v, wantErr %v",
					tt.versions, tt.expected, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrVersionGap) {
				t.Errorf("error %v is not ErrVersionGap", err)
			}
		})
	}
}

func TestSplitRange(t *testing.T) {
	tests := []struct {
		from, to int64
		n        int
		want     []versionRange
	}{
		{0, 9, 2, []versionRange{{0, 4}, {5, 9}}},
		{0, 10, 3, []versionRange{{0, 3}, {4, 7}, {8, 10}}},
		{5, 5, 4, []versionRange{{5, 5}}},
		{0, 2, 5, []versionRange{{0, 0}, {1, 1}, {2, 2}}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("[%d,%d]x%d", tt.from, tt.to, tt.n), func(t *testing.T) {
			got := splitRange(tt.from, tt.to, tt.n)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d ranges, want %d", len(got), len(tt.want))
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("range %d: got %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestBackfillMergesRanges(t *testing.T) {
	server := mockFeedServer(t, func(conn *websocket.Conn, req streamRequest) {
		// Serve the requested range exactly, one batch per two versions.
		v := req.StartingVersion
		for v <= *req.EndingVersion {
			last := v + 1
			if last > *req.EndingVersion {
				last = *req.EndingVersion
			}
			versions := make([]int64, 0, 2)
			for u := v; u <= last; u++ {
				versions = append(versions, u)
			}
			if err := sendBatch(conn, versions...); err != nil {
				return
			}
			v = last + 1
		}
		time.Sleep(time.Second)
	})
	defer server.Close()

	backfill := NewBackfill(feedConfig(wsURL(server)), 3, nil, nil)

	errCh := make(chan error, 1)
	go func() { errCh <- backfill.Run(context.Background(), 0, 19) }()

	seen := make(map[int64]bool)
	for batch := range backfill.Batches() {
		for _, txn := range batch.Transactions {
			if seen[txn.Version] {
				t.Errorf("version %d delivered twice", txn.Version)
			}
			seen[txn.Version] = true
		}
	}
	if err := <-errCh; err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for v := int64(0); v < 20; v++ {
		if !seen[v] {
			t.Errorf("version %d missing", v)
		}
	}
}
