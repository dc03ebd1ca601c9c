package main

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"emberfall/internal/events"
	"emberfall/pkg/world"
)

const PlaceHolderText = "Talk, or type /help for commands..."

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	api          *apiClient
	world        *world.World
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	loading      bool

	// lines is the scrollback, re-wrapped on resize.
	lines []chatLine
	// selectedNPC receives plain (non-command) messages.
	selectedNPC string
	// lastReply is the most recent NPC or enemy line, for /copy.
	lastReply string
	phase     string

	eventCh chan events.Event
}

type chatLine struct {
	speaker string
	text    string
	kind    string // "you", "npc", "enemy", "system", "error"
}

type chatRespMsg struct {
	npcName string
	text    string
	err     error
}

type combatMsg struct {
	resp *combatResponse
	err  error
}

type treasureMsg struct {
	treasure *world.Treasure
	err      error
}

type serverEventMsg struct {
	event events.Event
	ok    bool
}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	npcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	enemyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")) // salmon

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey
)

func NewConsoleUI(api *apiClient, w *world.World) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 500
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true
	metaVp := viewport.New(20, 20)

	ui := ConsoleUI{
		api:          api,
		world:        w,
		textarea:     ta,
		chatViewport: chatVp,
		metaViewport: metaVp,
		phase:        "idle",
		eventCh:      make(chan events.Event, 16),
	}
	ui.lines = append(ui.lines, chatLine{
		kind: "system",
		text: "You arrive at the edge of the village. Type /help to see what you can do.",
	})
	for _, n := range w.NPCs {
		ui.selectedNPC = n.ID
		break
	}
	return ui
}

func (m ConsoleUI) Init() tea.Cmd {
	_ = m.api.dialEvents(m.eventCh)
	return tea.Batch(textarea.Blink, m.waitForEvent())
}

func (m ConsoleUI) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.eventCh
		return serverEventMsg{event: ev, ok: ok}
	}
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		taCmd tea.Cmd
		vpCmd tea.Cmd
	)
	m.textarea, taCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			input := strings.TrimSpace(m.textarea.Value())
			m.textarea.Reset()
			if input == "" || m.loading {
				return m, taCmd
			}
			return m.dispatch(input)
		}

	case chatRespMsg:
		m.loading = false
		if msg.err != nil {
			m.appendLine(chatLine{kind: "error", text: msg.err.Error()})
		} else {
			m.lastReply = msg.text
			m.appendLine(chatLine{kind: "npc", speaker: msg.npcName, text: msg.text})
		}

	case combatMsg:
		m.loading = false
		if msg.err != nil {
			m.appendLine(chatLine{kind: "error", text: msg.err.Error()})
		} else {
			m.applyCombat(msg.resp)
		}

	case treasureMsg:
		m.loading = false
		if msg.err != nil {
			m.appendLine(chatLine{kind: "error", text: msg.err.Error()})
		} else {
			m.applyTreasure(msg.treasure)
		}

	case serverEventMsg:
		if !msg.ok {
			m.appendLine(chatLine{kind: "error", text: "Event stream disconnected."})
			return m, tea.Batch(taCmd, vpCmd)
		}
		m.applyEvent(msg.event)
		return m, tea.Batch(taCmd, vpCmd, m.waitForEvent())
	}

	return m, tea.Batch(taCmd, vpCmd)
}

// dispatch routes one input line: slash commands act on the world,
// anything else is chat aimed at the selected NPC.
func (m ConsoleUI) dispatch(input string) (tea.Model, tea.Cmd) {
	if !strings.HasPrefix(input, "/") {
		if m.selectedNPC == "" {
			m.appendLine(chatLine{kind: "error", text: "Nobody is listening. Select someone with /npc <id>."})
			return m, nil
		}
		npc := m.world.NPCByID(m.selectedNPC)
		name := m.selectedNPC
		if npc != nil {
			name = npc.Name
		}
		m.appendLine(chatLine{kind: "you", text: input})
		m.loading = true
		m.refreshPanes()
		return m, m.sendChat(m.selectedNPC, name, input)
	}

	fields := strings.Fields(input)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/help":
		m.appendLine(chatLine{kind: "system", text: helpText})

	case "/npc":
		if len(args) != 1 || m.world.NPCByID(args[0]) == nil {
			m.appendLine(chatLine{kind: "error", text: "Usage: /npc <id>  (see the sidebar for ids)"})
			break
		}
		m.selectedNPC = args[0]
		m.appendLine(chatLine{kind: "system", text: "Now talking to " + m.world.NPCByID(args[0]).Name + "."})

	case "/engage":
		if len(args) != 1 {
			m.appendLine(chatLine{kind: "error", text: "Usage: /engage <enemy-id>"})
			break
		}
		m.loading = true
		m.refreshPanes()
		return m, m.sendCombat("engage", args[0])

	case "/attack":
		m.loading = true
		m.refreshPanes()
		return m, m.sendCombat("attack", "")

	case "/flee":
		m.loading = true
		m.refreshPanes()
		return m, m.sendCombat("flee", "")

	case "/collect":
		if len(args) != 1 {
			m.appendLine(chatLine{kind: "error", text: "Usage: /collect <treasure-id>"})
			break
		}
		m.loading = true
		m.refreshPanes()
		return m, m.sendCollect(args[0])

	case "/copy":
		if m.lastReply == "" {
			m.appendLine(chatLine{kind: "error", text: "Nothing to copy yet."})
			break
		}
		if err := clipboard.WriteAll(m.lastReply); err != nil {
			m.appendLine(chatLine{kind: "error", text: "Copy failed: " + err.Error()})
		} else {
			m.appendLine(chatLine{kind: "system", text: "Copied the last reply to the clipboard."})
		}

	default:
		m.appendLine(chatLine{kind: "error", text: "Unknown command " + cmd + ". Try /help."})
	}

	m.refreshPanes()
	return m, nil
}

const helpText = `Commands:
/npc <id>        choose who to talk to (plain text chats with them)
/engage <id>     start combat with an enemy
/attack          attack the engaged enemy
/flee            run from combat
/collect <id>    pick up a treasure
/copy            copy the last reply to the clipboard
Ctrl+C           quit`

func (m ConsoleUI) sendChat(npcID, npcName, message string) tea.Cmd {
	worldID := m.world.ID
	return func() tea.Msg {
		reply, err := m.api.chat(worldID, npcID, message)
		if err != nil {
			return chatRespMsg{err: err}
		}
		return chatRespMsg{npcName: npcName, text: reply.Message}
	}
}

func (m ConsoleUI) sendCombat(action, enemyID string) tea.Cmd {
	worldID := m.world.ID
	return func() tea.Msg {
		resp, err := m.api.combatAction(worldID, action, enemyID)
		return combatMsg{resp: resp, err: err}
	}
}

func (m ConsoleUI) sendCollect(treasureID string) tea.Cmd {
	worldID := m.world.ID
	return func() tea.Msg {
		tr, err := m.api.collectTreasure(worldID, treasureID)
		return treasureMsg{treasure: tr, err: err}
	}
}

func (m *ConsoleUI) applyCombat(resp *combatResponse) {
	m.phase = string(resp.Phase)
	m.world.Player.Health = resp.Player.Health
	m.world.Player.Level = resp.Player.Level
	m.world.Player.Exp = resp.Player.Exp
	m.world.Player.Gold = resp.Player.Gold

	if resp.Attack == nil {
		m.appendLine(chatLine{kind: "system", text: "Combat phase: " + m.phase})
		return
	}
	a := resp.Attack
	switch {
	case a.Ignored:
		m.appendLine(chatLine{kind: "system", text: "The enemy is still talking. Your swing goes nowhere."})
	case a.Victory:
		m.lastReply = a.Line.Text
		m.appendLine(chatLine{kind: "enemy", speaker: "Enemy", text: a.Line.Text})
		reward := fmt.Sprintf("Victory! +%d exp, +%d gold.", a.ExpGained, a.GoldGained)
		if a.LeveledUp {
			reward += fmt.Sprintf(" You reached level %d!", m.world.Player.Level)
		}
		m.appendLine(chatLine{kind: "system", text: reward})
	default:
		m.lastReply = a.Line.Text
		m.appendLine(chatLine{kind: "system", text: fmt.Sprintf("You hit for %d damage (%d health left).", a.Damage, a.EnemyHealth)})
		m.appendLine(chatLine{kind: "enemy", speaker: "Enemy", text: a.Line.Text})
	}
}

func (m *ConsoleUI) applyTreasure(tr *world.Treasure) {
	text := fmt.Sprintf("You open the chest: %d gold", tr.Gold)
	if tr.Item != "" {
		text += " and a " + tr.Item
	}
	m.appendLine(chatLine{kind: "system", text: text + "."})
	for _, wt := range m.world.Treasures {
		if wt.ID == tr.ID {
			wt.Collected = true
		}
	}
}

func (m *ConsoleUI) applyEvent(ev events.Event) {
	switch ev.Type {
	case events.TypeCombatMessage:
		payload, _ := ev.Payload.(map[string]interface{})
		if text, _ := payload["text"].(string); text != "" {
			m.lastReply = text
			m.appendLine(chatLine{kind: "enemy", speaker: "Enemy", text: text})
		}
	case events.TypeEmotionUpdate:
		// Affect changes steer dialogue server-side; nothing to render.
	case events.TypeWorldUpdate:
		// Another client changed the world; refetch lazily on demand.
	}
	m.refreshPanes()
}

func (m *ConsoleUI) appendLine(line chatLine) {
	m.lines = append(m.lines, line)
	m.refreshPanes()
}

func (m *ConsoleUI) resize() {
	metaWidth := m.width / 4
	if metaWidth < 24 {
		metaWidth = 24
	}
	chatWidth := m.width - metaWidth
	paneHeight := m.height - m.textarea.Height() - 3

	m.chatViewport.Width = chatWidth
	m.chatViewport.Height = paneHeight
	m.metaViewport.Width = metaWidth
	m.metaViewport.Height = paneHeight
	m.textarea.SetWidth(m.width - 4)
	m.refreshPanes()
}

func (m *ConsoleUI) refreshPanes() {
	m.chatViewport.SetContent(m.renderChat())
	m.chatViewport.GotoBottom()
	m.metaViewport.SetContent(m.renderMeta())
}

func (m *ConsoleUI) renderChat() string {
	chatWidth := m.chatViewport.Width - 6
	if chatWidth < 20 {
		chatWidth = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("EMBERFALL") + "\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", chatWidth-6)) + "\n\n")

	for _, line := range m.lines {
		wrapped := wordwrap.String(line.text, chatWidth-6)
		switch line.kind {
		case "you":
			content.WriteString(userStyle.Render("You: ") + wrapped + "\n\n")
		case "npc":
			content.WriteString(speakerStyle.Render(line.speaker+": ") + npcStyle.Render(wrapped) + "\n\n")
		case "enemy":
			content.WriteString(speakerStyle.Render(line.speaker+": ") + enemyStyle.Render(wrapped) + "\n\n")
		case "error":
			content.WriteString(errorStyle.Render(wrapped) + "\n\n")
		default:
			content.WriteString(wrapped + "\n\n")
		}
	}

	if m.loading {
		content.WriteString(loadingStyle.Render("...") + "\n")
	}
	return content.String()
}

func (m *ConsoleUI) renderMeta() string {
	var content strings.Builder
	p := m.world.Player

	content.WriteString(titleStyle.Render("WORLD") + "\n\n")
	content.WriteString("World ID:\n" + m.world.ID.String()[:8] + "...\n\n")

	content.WriteString(fmt.Sprintf("Level %d  (%d exp)\n", p.Level, p.Exp))
	content.WriteString(fmt.Sprintf("Health: %d/%d\n", p.Health, p.MaxHealth))
	content.WriteString(fmt.Sprintf("Gold: %d\n", p.Gold))
	content.WriteString("Combat: " + m.phase + "\n\n")

	if len(p.Inventory) > 0 {
		content.WriteString("Inventory:\n")
		for _, item := range p.Inventory {
			content.WriteString("• " + item + "\n")
		}
		content.WriteString("\n")
	}

	content.WriteString("People:\n")
	for _, n := range m.world.NPCs {
		marker := "  "
		if n.ID == m.selectedNPC {
			marker = "> "
		}
		content.WriteString(fmt.Sprintf("%s%s (%s)\n", marker, n.Name, n.ID))
	}
	content.WriteString("\nEnemies:\n")
	for _, e := range m.world.Enemies {
		if e.Defeated {
			content.WriteString(fmt.Sprintf("  %s: defeated\n", e.Name))
			continue
		}
		content.WriteString(fmt.Sprintf("  %s (%s) %d hp\n", e.Name, e.ID, e.Health))
	}
	content.WriteString("\nTreasures:\n")
	for _, tr := range m.world.Treasures {
		if tr.Collected {
			continue
		}
		content.WriteString("  " + tr.ID + "\n")
	}

	return content.String()
}

func (m ConsoleUI) View() string {
	if !m.ready {
		return "Loading..."
	}

	chat := chatPanelStyle.Render(m.chatViewport.View())
	meta := metaPanelStyle.Render(m.metaViewport.View())
	panes := lipgloss.JoinHorizontal(lipgloss.Top, chat, meta)

	return panes + "\n" + m.textarea.View()
}
