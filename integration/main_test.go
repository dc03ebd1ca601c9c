//go:build integration
// +build integration

// Package integration exercises a running server end to end. Start
// the server (and its Redis) first, then:
//
//	API_BASE_URL=http://localhost:8080 go test -tags integration ./integration/
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emberfall/pkg/world"
)

var apiBaseURL string

func TestMain(m *testing.M) {
	apiBaseURL = os.Getenv("API_BASE_URL")
	if apiBaseURL == "" {
		apiBaseURL = "http://localhost:8080"
	}

	fmt.Printf("Running Emberfall integration tests\n")
	fmt.Printf("   API Base URL: %s\n", apiBaseURL)

	os.Exit(m.Run())
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

func postJSON(t *testing.T, path string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := httpClient().Post(apiBaseURL+path, "application/json", bytes.NewBuffer(data))
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func TestHealthEndpoint(t *testing.T) {
	resp, err := httpClient().Get(apiBaseURL + "/health")
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWorldLifecycle(t *testing.T) {
	resp, body := postJSON(t, "/v1/worlds", map[string]string{})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var w world.World
	require.NoError(t, json.Unmarshal(body, &w))
	require.NotEmpty(t, w.Enemies)

	t.Run("read back", func(t *testing.T) {
		resp, err := httpClient().Get(apiBaseURL + "/v1/worlds/" + w.ID.String())
		require.NoError(t, err)
		defer func() {
			_ = resp.Body.Close()
		}()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("combat round trip", func(t *testing.T) {
		enemy := w.Enemies[0]

		resp, body := postJSON(t, "/v1/combat", map[string]string{
			"world_id": w.ID.String(),
			"action":   "engage",
			"enemy_id": enemy.ID,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

		// The enemy opens with a line; the player turn starts after
		// the pacing delay.
		time.Sleep(3500 * time.Millisecond)

		resp, body = postJSON(t, "/v1/combat", map[string]string{
			"world_id": w.ID.String(),
			"action":   "attack",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

		var combatResp struct {
			Attack *struct {
				Damage      int  `json:"damage"`
				EnemyHealth int  `json:"enemy_health"`
				Ignored     bool `json:"ignored"`
			} `json:"attack"`
		}
		require.NoError(t, json.Unmarshal(body, &combatResp))
		require.NotNil(t, combatResp.Attack)
		assert.False(t, combatResp.Attack.Ignored)
		assert.Positive(t, combatResp.Attack.Damage)

		resp, body = postJSON(t, "/v1/combat", map[string]string{
			"world_id": w.ID.String(),
			"action":   "flee",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	})

	t.Run("npc chat", func(t *testing.T) {
		if len(w.NPCs) == 0 {
			t.Skip("no NPCs placed in this world")
		}
		resp, body := postJSON(t, "/v1/chat", map[string]string{
			"world_id": w.ID.String(),
			"npc_id":   w.NPCs[0].ID,
			"message":  "Hello there.",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

		var reply struct {
			Message string `json:"message"`
		}
		require.NoError(t, json.Unmarshal(body, &reply))
		assert.NotEmpty(t, reply.Message, "chat degrades to a canned line, never empty")
	})

	t.Run("delete", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodDelete, apiBaseURL+"/v1/worlds/"+w.ID.String(), nil)
		require.NoError(t, err)
		resp, err := httpClient().Do(req)
		require.NoError(t, err)
		defer func() {
			_ = resp.Body.Close()
		}()
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})
}
