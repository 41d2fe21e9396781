//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestRemoteAPI_MainEndpoints(t *testing.T) {
	baseURL := strings.TrimRight(envOr("E2E_BASE_URL", "http://127.0.0.1:8080"), "/")
	client := &http.Client{Timeout: 20 * time.Second}

	t.Run("action rejects unknown kind", func(t *testing.T) {
		status, body := mustJSON(t, client, http.MethodPost, baseURL+"/api/farm/action", "", map[string]any{"kind": "teleport", "row": 0, "col": 0})
		if status != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d body=%s", status, string(body))
		}
	})

	idempotencyKey := "remote-e2e-" + time.Now().UTC().Format("20060102150405")

	t.Run("snapshot action stats events ops", func(t *testing.T) {
		status, snapBody := mustJSON(t, client, http.MethodGet, baseURL+"/api/farm/snapshot?include_empty=true", "", nil)
		if status != http.StatusOK {
			t.Fatalf("snapshot status=%d body=%s", status, string(snapBody))
		}
		var snap map[string]any
		if err := json.Unmarshal(snapBody, &snap); err != nil {
			t.Fatalf("unmarshal snapshot: %v body=%s", err, string(snapBody))
		}
		plants := asSlice(asMap(snap["snapshot"])["plants"])
		if len(plants) == 0 {
			t.Fatalf("expected plants in snapshot")
		}
		cell := asMap(plants[0])

		actionReq := map[string]any{"kind": "scan", "row": cell["row"], "col": cell["col"]}
		status, firstBody := mustJSON(t, client, http.MethodPost, baseURL+"/api/farm/action", idempotencyKey, actionReq)
		if status != http.StatusOK {
			t.Fatalf("first action status=%d body=%s", status, string(firstBody))
		}
		status, secondBody := mustJSON(t, client, http.MethodPost, baseURL+"/api/farm/action", idempotencyKey, actionReq)
		if status != http.StatusOK {
			t.Fatalf("second action status=%d body=%s", status, string(secondBody))
		}
		var second map[string]any
		if err := json.Unmarshal(secondBody, &second); err != nil {
			t.Fatalf("unmarshal second action: %v body=%s", err, string(secondBody))
		}
		if second["replayed"] != true {
			t.Fatalf("expected idempotent replay, got %v", second)
		}

		status, statsBody := mustJSON(t, client, http.MethodGet, baseURL+"/api/farm/stats", "", nil)
		if status != http.StatusOK {
			t.Fatalf("stats status=%d body=%s", status, string(statsBody))
		}
		var st map[string]any
		if err := json.Unmarshal(statsBody, &st); err != nil {
			t.Fatalf("unmarshal stats: %v body=%s", err, string(statsBody))
		}
		if state, _ := st["state"].(string); strings.TrimSpace(state) == "" {
			t.Fatalf("expected state in stats response, got=%v", st)
		}

		status, eventsBody := mustJSON(t, client, http.MethodGet, baseURL+"/api/farm/events?limit=20", "", nil)
		if status != http.StatusOK {
			t.Fatalf("events status=%d body=%s", status, string(eventsBody))
		}
		var rep map[string]any
		if err := json.Unmarshal(eventsBody, &rep); err != nil {
			t.Fatalf("unmarshal events: %v body=%s", err, string(eventsBody))
		}
		if _, ok := rep["latest"]; !ok {
			t.Fatalf("expected latest in events response")
		}

		status, kpiBody := mustJSON(t, client, http.MethodGet, baseURL+"/ops/kpi", "", nil)
		if status != http.StatusOK {
			t.Fatalf("kpi status=%d body=%s", status, string(kpiBody))
		}
		var kpi map[string]any
		if err := json.Unmarshal(kpiBody, &kpi); err != nil {
			t.Fatalf("unmarshal kpi: %v body=%s", err, string(kpiBody))
		}
		if _, ok := kpi["cycles"]; !ok {
			t.Fatalf("expected cycles in kpi response")
		}
	})
}

func TestRemoteWS_StreamsEvents(t *testing.T) {
	wsURL := envOr("E2E_WS_URL", "ws://127.0.0.1:8081/ws")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(15 * time.Second))
	var e map[string]any
	if err := conn.ReadJSON(&e); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if typ, _ := e["type"].(string); typ == "" {
		t.Fatalf("expected typed event, got %v", e)
	}
}

func mustJSON(t *testing.T, client *http.Client, method, url, key string, body map[string]any) (int, []byte) {
	t.Helper()
	status, respBody, err := doRequest(client, method, url, key, body)
	if err != nil {
		t.Fatalf("%s %s request failed: %v", method, url, err)
	}
	return status, respBody
}

func doRequest(client *http.Client, method, url, key string, body map[string]any) (int, []byte, error) {
	var payloadBytes []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		payloadBytes = b
	}

	var lastStatus int
	var lastBody []byte
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		var payload io.Reader
		if len(payloadBytes) > 0 {
			payload = bytes.NewReader(payloadBytes)
		}
		req, err := http.NewRequest(method, url, payload)
		if err != nil {
			return 0, nil, err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if strings.TrimSpace(key) != "" {
			req.Header.Set("Idempotency-Key", key)
		}
		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(time.Duration(attempt+1) * 200 * time.Millisecond)
			continue
		}
		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			time.Sleep(time.Duration(attempt+1) * 200 * time.Millisecond)
			continue
		}
		lastStatus, lastBody, lastErr = resp.StatusCode, respBody, nil
		if resp.StatusCode >= 500 {
			time.Sleep(time.Duration(attempt+1) * 200 * time.Millisecond)
			continue
		}
		return resp.StatusCode, respBody, nil
	}
	if lastErr != nil {
		return 0, nil, lastErr
	}
	return lastStatus, lastBody, nil
}

func envOr(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}

func asMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func asSlice(v any) []any {
	if s, ok := v.([]any); ok {
		return s
	}
	return nil
}
