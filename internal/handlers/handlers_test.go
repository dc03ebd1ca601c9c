package handlers

import (
	"io"
	"log/slog"
	"math/rand"
	"testing"

	"emberfall/internal/game"
	"emberfall/internal/services"
	"emberfall/internal/storage"
	"emberfall/pkg/dialogue"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testFixture wires the common dependency graph for handler tests.
type testFixture struct {
	store     *storage.MockStorage
	llm       *services.MockLLM
	gateway   *dialogue.Gateway
	registry  *game.Registry
	generator *game.Generator
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()
	store := storage.NewMockStorage()
	llm := services.NewMockLLM()
	logger := testLogger()
	gateway := dialogue.NewGateway(llm, logger)
	return &testFixture{
		store:     store,
		llm:       llm,
		gateway:   gateway,
		registry:  game.NewRegistry(store, gateway, nil, nil, logger),
		generator: game.NewGenerator(rand.New(rand.NewSource(7)), logger),
	}
}
