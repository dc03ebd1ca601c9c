package main

import (
	"fmt"
	"net/http"
	"os"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type ConsoleConfig struct {
	APIBaseURL string
	Timeout    time.Duration
}

func main() {
	cfg := &ConsoleConfig{
		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:8080"),
		Timeout:    30 * time.Second,
	}

	api := &apiClient{
		baseURL: cfg.APIBaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
	}

	if !api.healthy() {
		fmt.Fprintf(os.Stderr, "Could not connect to the game server. Please ensure it is running.\nTry: docker-compose up -d\n")
		os.Exit(1)
	}

	layoutFile := chooseLayout(api)

	w, err := api.createWorld(layoutFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create world: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(NewConsoleUI(api, w),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

// chooseLayout lists the server's layouts and lets the player pick one
// or fall back to a procedural map. Returns the layout filename, or
// empty for procedural.
func chooseLayout(api *apiClient) string {
	layouts, err := api.listLayouts()
	if err != nil || len(layouts) == 0 {
		return ""
	}

	var names []string
	for name := range layouts {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("Available Maps:")
	fmt.Println("  0 - procedural (random)")
	for i, name := range names {
		fmt.Printf("  %d - %s (%s)\n", i+1, name, layouts[name])
	}
	fmt.Print("\nSelect a map by number: ")

	var choice int
	if _, err := fmt.Scanf("%d", &choice); err != nil || choice < 0 || choice > len(names) {
		fmt.Fprintf(os.Stderr, "Invalid selection\n")
		os.Exit(1)
	}
	if choice == 0 {
		return ""
	}
	return layouts[names[choice-1]]
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
