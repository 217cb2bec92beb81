package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/orchard-engine/pkg/world"
)

const PlaceHolderText = "plant 1 oak, water 1, /help..."

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	game         *Game
	feedViewport viewport.Model
	metaViewport viewport.Model
	input        textinput.Model
	ready        bool
	width        int
	height       int
	status       string

	showQuitModal bool
}

type frameMsg time.Time

var (
	feedPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingLeft(2)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	eventStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	playerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(game *Game) ConsoleUI {
	ti := textinput.New()
	ti.Placeholder = PlaceHolderText
	ti.Prompt = promptStyle.Render(":: ")
	ti.CharLimit = 200
	ti.Focus()

	feedVp := viewport.New(50, 20)
	feedVp.MouseWheelEnabled = true

	return ConsoleUI{
		game:         game,
		feedViewport: feedVp,
		metaViewport: viewport.New(30, 20),
		input:        ti,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.nextFrame())
}

func (m ConsoleUI) nextFrame() tea.Cmd {
	return tea.Tick(m.game.cfg.Frame, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true
		m.refresh()

	case frameMsg:
		m.advance(m.game.cfg.Frame.Seconds())
		m.refresh()
		return m, m.nextFrame()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			input := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			if input == "" {
				return m, nil
			}
			if strings.HasPrefix(input, "/") {
				m.handleCommand(input)
			} else {
				m.handleAction(input)
			}
			m.refresh()
			return m, nil
		}
	}

	m.input, tiCmd = m.input.Update(msg)
	m.feedViewport, vpCmd = m.feedViewport.Update(msg)
	return m, tea.Batch(tiCmd, vpCmd)
}

func (m *ConsoleUI) resize() {
	feedWidth := int(float64(m.width)*0.6) - 2
	metaWidth := m.width - feedWidth - 4
	m.feedViewport.Width = feedWidth - 2
	m.feedViewport.Height = m.height - 5
	m.metaViewport.Width = metaWidth
	m.metaViewport.Height = m.height - 2
	m.input.Width = feedWidth - 6
}

// advance runs the world forward by one frame of wall time, scaled by the
// configured speed.
func (m *ConsoleUI) advance(seconds float64) {
	g := m.game
	if g.paused {
		return
	}
	err := g.world.Tick(context.Background(), seconds*g.cfg.Speed)
	if err != nil && !errors.Is(err, world.ErrLoading) {
		g.feed.add(lineError, "Autosave failed: "+err.Error())
	}
}

func (m *ConsoleUI) handleAction(input string) {
	g := m.game
	a, err := parseAction(input)
	if err != nil {
		g.feed.add(lineError, err.Error())
		return
	}
	g.feed.add(linePlayer, describeAction(a))
	if err := g.world.Apply(context.Background(), a); err != nil {
		g.feed.add(lineError, err.Error())
	}
}

func (m *ConsoleUI) handleCommand(input string) {
	g := m.game
	fields := strings.Fields(strings.ToLower(input))

	switch fields[0] {
	case "/help":
		for _, line := range strings.Split(strings.TrimRight(helpText, "\n"), "\n") {
			g.feed.add(lineNotice, line)
		}
	case "/save":
		if err := g.world.Save(context.Background()); err != nil {
			g.feed.add(lineError, "Save failed: "+err.Error())
			return
		}
		m.status = "Saved."
	case "/copy":
		data, err := g.codec.Marshal(g.world.Export())
		if err == nil {
			err = clipboard.WriteAll(string(data))
		}
		if err != nil {
			g.feed.add(lineError, "Copy failed: "+err.Error())
			return
		}
		m.status = fmt.Sprintf("Copied %s save to clipboard.", g.codec.Name())
	case "/pause":
		g.paused = !g.paused
		m.status = map[bool]string{true: "Paused.", false: "Resumed."}[g.paused]
	case "/speed":
		if len(fields) < 2 {
			g.feed.add(lineError, "usage: /speed N")
			return
		}
		speed, err := strconv.ParseFloat(fields[1], 64)
		if err != nil || speed <= 0 {
			g.feed.add(lineError, "speed must be a positive number")
			return
		}
		g.cfg.Speed = speed
		m.status = fmt.Sprintf("Speed x%g.", speed)
	default:
		g.feed.add(lineError, fmt.Sprintf("unknown command %q, try /help", fields[0]))
	}
}

// refresh redraws both panels from the world.
func (m *ConsoleUI) refresh() {
	for _, n := range m.game.guide.Notices() {
		m.game.feed.add(lineNotice, n)
	}
	m.metaViewport.SetContent(writeMetadata(m.game.world.View(), m.metaViewport.Width))
	m.writeFeedContent()
}

func (m *ConsoleUI) writeFeedContent() {
	width := m.feedViewport.Width - 2
	if width < 10 {
		width = 10
	}
	atBottom := m.feedViewport.AtBottom()

	var content strings.Builder
	content.WriteString(titleStyle.Render("ORCHARD") + "\n\n")
	if narrative := m.game.world.View().Tutorial.Narrative; narrative != "" {
		content.WriteString(noticeStyle.Render(wordwrap.String(narrative, width)) + "\n\n")
	}
	for _, l := range m.game.feed.lines {
		text := wordwrap.String(l.text, width)
		switch l.kind {
		case linePlayer:
			text = playerStyle.Render(text)
		case lineNotice:
			text = noticeStyle.Render(text)
		case lineError:
			text = errorStyle.Render(text)
		default:
			text = eventStyle.Render(text)
		}
		content.WriteString(text + "\n")
	}
	m.feedViewport.SetContent(content.String())
	if atBottom {
		m.feedViewport.GotoBottom()
	}
}

func writeMetadata(v world.View, width int) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("FARM") + "\n\n")

	if v.Loading {
		content.WriteString(noticeStyle.Render("Loading save...") + "\n\n")
	}
	if v.Result != "" {
		content.WriteString(errorStyle.Render(strings.ToUpper(v.Result)) + "\n\n")
	}

	content.WriteString(fmt.Sprintf("%s %d (%d/%d xp)\n", labelStyle.Render("Level"), v.Level, v.XP, v.NextXP))
	content.WriteString(fmt.Sprintf("%s %d\n", labelStyle.Render("Coins"), v.Coins))
	water := fmt.Sprintf("%.0f/%.0f", v.Water, v.MaxWater)
	if v.Refilling {
		water += " (filling)"
	}
	content.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Water"), water))
	content.WriteString(fmt.Sprintf("%s %.0f%%\n\n", labelStyle.Render("Pollution"), v.Pollution))

	names := make([]string, 0, len(v.Seeds))
	for name := range v.Seeds {
		names = append(names, name)
	}
	sort.Strings(names)
	content.WriteString(labelStyle.Render("Inventory") + "\n")
	for _, name := range names {
		content.WriteString(fmt.Sprintf("• %s: %d seeds, %d fruit\n", name, v.Seeds[name], v.Fruits[name]))
	}

	content.WriteString("\n" + labelStyle.Render("Plots") + "\n")
	for _, p := range v.Plots {
		content.WriteString(fmt.Sprintf("• %s: %s\n", p.ID, describeTree(p.Tree)))
	}

	content.WriteString("\n" + labelStyle.Render("Quests") + "\n")
	if len(v.Quests) == 0 {
		content.WriteString("None\n")
	}
	for _, q := range v.Quests {
		line := fmt.Sprintf("• %s %s %d/%d [%s]", q.ID, q.Title, q.Progress, q.Required, q.Status)
		if q.Timed {
			line += fmt.Sprintf(" %.0fs", q.Remaining)
		}
		content.WriteString(wordwrap.String(line, width) + "\n")
	}

	if len(v.NPCs) > 0 {
		content.WriteString("\n" + labelStyle.Render("Villagers") + "\n")
		for _, n := range v.NPCs {
			state := n.Phase
			if n.Ready {
				state = "waiting"
			}
			content.WriteString(fmt.Sprintf("• %s (%s) %s\n", n.QuestID, n.Difficulty, state))
		}
	}

	if !v.Tutorial.Finished {
		content.WriteString("\n" + labelStyle.Render("Tutorial") + "\n")
		content.WriteString(v.Tutorial.Step + "\n")
		if v.Tutorial.Target != "" {
			content.WriteString("→ " + v.Tutorial.Target + "\n")
		}
	}
	return content.String()
}

func describeTree(t *world.TreeView) string {
	switch {
	case t == nil:
		return "empty"
	case t.Dead:
		return t.Name + " (dead)"
	case !t.FullyGrown:
		return fmt.Sprintf("%s growing %.0f%%, %.0f%% hp", t.Name, t.Progress*100, t.HealthPct)
	}
	s := fmt.Sprintf("%s %.0f%% hp", t.Name, t.HealthPct)
	if t.NeedsWater {
		s += ", thirsty"
	}
	if t.FruitOnTree > 0 || t.FruitOnGround > 0 {
		s += fmt.Sprintf(", fruit %d/%d", t.FruitOnTree, t.FruitOnGround)
	}
	return s
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case frameMsg:
		// time stands still while the modal is open
		return m, m.nextFrame()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				m.input.Focus()
				return m, textinput.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Game?"))
	content.WriteString("\n\n")
	content.WriteString("Your farm is saved when you quit.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	feedWidth := m.feedViewport.Width + 2
	status := m.status
	if m.game.paused {
		status = "Paused. " + status
	}

	feedPanel := feedPanelStyle.Width(feedWidth).Height(m.height - 1).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.feedViewport.View(),
			separatorStyle.Render(strings.Repeat("─", max(feedWidth-4, 1))),
			m.input.View(),
			promptStyle.Render(status),
		),
	)

	metaPanel := metaPanelStyle.Width(m.metaViewport.Width).Height(m.height - 1).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, feedPanel, metaPanel)
}
