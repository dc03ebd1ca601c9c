package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"emberfall/internal/events"
	"emberfall/pkg/chat"
	"emberfall/pkg/combat"
	"emberfall/pkg/world"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// combatResponse mirrors the server's combat reply shape.
type combatResponse struct {
	Phase  combat.Phase         `json:"phase"`
	Attack *combat.AttackResult `json:"attack,omitempty"`
	Player struct {
		Health int `json:"health"`
		Level  int `json:"level"`
		Exp    int `json:"exp"`
		Gold   int `json:"gold"`
	} `json:"player"`
}

type apiClient struct {
	baseURL string
	client  *http.Client
}

func (a *apiClient) healthy() bool {
	resp, err := a.client.Get(a.baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

func (a *apiClient) listLayouts() (map[string]string, error) {
	resp, err := a.client.Get(a.baseURL + "/v1/layouts")
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var layouts map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&layouts); err != nil {
		return nil, err
	}
	return layouts, nil
}

func (a *apiClient) createWorld(layout string) (*world.World, error) {
	reqBody, err := json.Marshal(map[string]string{"layout": layout})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := a.client.Post(a.baseURL+"/v1/worlds", "application/json", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated {
		return nil, apiError(resp.StatusCode, body, "failed to create world")
	}

	var w world.World
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, fmt.Errorf("failed to parse world response: %w", err)
	}
	return &w, nil
}

func (a *apiClient) getWorld(id uuid.UUID) (*world.World, error) {
	resp, err := a.client.Get(fmt.Sprintf("%s/v1/worlds/%s", a.baseURL, id))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp.StatusCode, body, "failed to get world")
	}

	var w world.World
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, fmt.Errorf("failed to parse world response: %w", err)
	}
	return &w, nil
}

func (a *apiClient) chat(worldID uuid.UUID, npcID, message string) (*chat.NPCChatResponse, error) {
	reqBody, err := json.Marshal(chat.NPCChatRequest{
		WorldID: worldID,
		NPCID:   npcID,
		Message: message,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := a.client.Post(a.baseURL+"/v1/chat", "application/json", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp.StatusCode, body, "chat failed")
	}

	var reply chat.NPCChatResponse
	if err := json.Unmarshal(body, &reply); err != nil {
		return nil, fmt.Errorf("failed to parse chat response: %w", err)
	}
	return &reply, nil
}

func (a *apiClient) combatAction(worldID uuid.UUID, action, enemyID string) (*combatResponse, error) {
	reqBody, err := json.Marshal(map[string]string{
		"world_id": worldID.String(),
		"action":   action,
		"enemy_id": enemyID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := a.client.Post(a.baseURL+"/v1/combat", "application/json", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp.StatusCode, body, "combat action failed")
	}

	var cr combatResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return nil, fmt.Errorf("failed to parse combat response: %w", err)
	}
	return &cr, nil
}

func (a *apiClient) collectTreasure(worldID uuid.UUID, treasureID string) (*world.Treasure, error) {
	reqBody, err := json.Marshal(map[string]string{"treasure_id": treasureID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := a.client.Post(
		fmt.Sprintf("%s/v1/worlds/%s/treasure", a.baseURL, worldID),
		"application/json", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp.StatusCode, body, "failed to collect treasure")
	}

	var tr world.Treasure
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("failed to parse treasure response: %w", err)
	}
	return &tr, nil
}

// dialEvents connects to the server's event stream and delivers each
// event to out until the connection drops.
func (a *apiClient) dialEvents(out chan<- events.Event) error {
	wsURL := "ws" + strings.TrimPrefix(a.baseURL, "http") + "/v1/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to event stream: %w", err)
	}

	go func() {
		defer close(out)
		defer func() {
			_ = conn.Close()
		}()
		for {
			var ev events.Event
			if err := conn.ReadJSON(&ev); err != nil {
				return
			}
			out <- ev
		}
	}()
	return nil
}

func apiError(status int, body []byte, context string) error {
	var errorResp ErrorResponse
	if err := json.Unmarshal(body, &errorResp); err != nil || errorResp.Error == "" {
		return fmt.Errorf("API returned status %d: %s", status, string(body))
	}
	return fmt.Errorf("%s: %s", context, errorResp.Error)
}
