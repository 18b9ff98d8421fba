package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/walrus/internal/config"
	"github.com/diogo/walrus/internal/exchange"
	"github.com/diogo/walrus/internal/models"
	"github.com/diogo/walrus/internal/render"
	"github.com/diogo/walrus/internal/store"
)

// Placeholders for the input box
const (
	PlaceholderReady    = "Ask Walrus to perform onchain actions..."
	PlaceholderNotReady = "Connect wallet to start chatting"
)

// Message types for the TUI
type (
	// refreshMsg means the log or the exchange state changed
	refreshMsg struct{}

	exchangeDoneMsg struct {
		err error
	}

	copiedMsg struct {
		err error
	}
)

// ChatOptions configures the chat screen
type ChatOptions struct {
	Backend string
	Render  render.Options
	// Copy writes text to the clipboard; clipboard.WriteAll when nil
	Copy func(string) error
}

// Model is the chat screen. All exchange state lives in the controller;
// the model mirrors it on every refresh.
type Model struct {
	ctx        context.Context
	controller *exchange.Controller
	backend    string
	renderOpts render.Options
	styles     Styles
	copyText   func(string) error

	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	updates     chan struct{}
	unsubscribe []func()
	cache       map[int]renderedMessage

	state    exchange.State
	messages []models.Message
	version  uint64
	inFlight bool
	notice   string
	err      error
	ready    bool

	width  int
	height int
}

type renderedMessage struct {
	text  string
	width int
	out   string
}

// NewChatModel creates a chat screen driving controller
func NewChatModel(ctx context.Context, controller *exchange.Controller, opts ChatOptions) Model {
	ta := textarea.New()
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.Focus()

	styles := NewStyles(render.PaletteFor(opts.Render.Style))
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(styles.Palette.Text)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(styles.Palette.TextDim)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = styles.Loading

	copyText := opts.Copy
	if copyText == nil {
		copyText = clipboard.WriteAll
	}

	// a one-slot buffer coalesces bursts of deltas into one refresh
	updates := make(chan struct{}, 1)
	signal := func() {
		select {
		case updates <- struct{}{}:
		default:
		}
	}

	m := Model{
		ctx:        ctx,
		controller: controller,
		backend:    opts.Backend,
		renderOpts: opts.Render,
		styles:     styles,
		copyText:   copyText,
		textarea:   ta,
		spinner:    s,
		updates:    updates,
		cache:      make(map[int]renderedMessage),
	}
	m.unsubscribe = []func(){
		controller.Store().Subscribe(func(store.Change) { signal() }),
		controller.OnStateChange(func(exchange.State) { signal() }),
	}
	m.sync()
	return m
}

// Close removes the model's subscriptions
func (m Model) Close() {
	for _, fn := range m.unsubscribe {
		fn()
	}
}

// Init starts listening for exchange updates
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.waitForUpdate(),
	)
}

// waitForUpdate blocks until the controller signals a change
func (m Model) waitForUpdate() tea.Cmd {
	updates := m.updates
	ctx := m.ctx
	return func() tea.Msg {
		select {
		case <-updates:
			return refreshMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

// submit runs one exchange off the UI goroutine
func (m Model) submit(prompt string) tea.Cmd {
	controller := m.controller
	ctx := m.ctx
	return func() tea.Msg {
		return exchangeDoneMsg{err: controller.Submit(ctx, prompt)}
	}
}

func (m Model) copyLast() tea.Cmd {
	text := lastAgentText(m.controller.Store())
	copyText := m.copyText
	return func() tea.Msg {
		if text == "" {
			return copiedMsg{err: fmt.Errorf("no agent message to copy")}
		}
		return copiedMsg{err: copyText(text)}
	}
}

func (m Model) loading() bool {
	return m.inFlight || m.state.Loading
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd := m.update(msg)
	m.layout()
	return m, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "ctrl+y":
			return m, m.copyLast()

		case "enter":
			return m.handleEnter()
		}

	case refreshMsg:
		m.sync()
		return m, m.waitForUpdate()

	case exchangeDoneMsg:
		m.inFlight = false
		m.sync()
		switch {
		case msg.err == nil:
			m.err = nil
		case errors.Is(msg.err, exchange.ErrBusy):
		case errors.Is(msg.err, exchange.ErrNotReady):
			m.notice = PlaceholderNotReady
		default:
			m.err = msg.err
		}
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("Copy failed: %v", msg.err)
		} else {
			m.notice = "Copied last response to clipboard"
		}
		return m, nil

	case spinner.TickMsg:
		if m.loading() {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	if _, ok := msg.(tea.KeyMsg); ok {
		before := m.textarea.Value()
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
		if after := m.textarea.Value(); after != before {
			m.notice = ""
			if m.state.Ready() {
				m.controller.SetInput(after)
			}
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleEnter submits the input, or runs a chat command
func (m Model) handleEnter() (Model, tea.Cmd) {
	raw := m.textarea.Value()
	input := strings.TrimSpace(raw)

	if isExitCommand(input) {
		return m, tea.Quit
	}

	if addr, ok := strings.CutPrefix(input, "/address"); ok {
		return m.connect(strings.TrimSpace(addr))
	}

	if input == "/disconnect" {
		m.textarea.Reset()
		m.controller.SetAddress("")
		m.notice = "Wallet disconnected"
		m.sync()
		return m, nil
	}

	if !m.state.Ready() {
		// without a wallet the input only accepts an address
		if input != "" && !strings.HasPrefix(input, "0x") {
			m.notice = PlaceholderNotReady
			return m, nil
		}
		return m.connect(input)
	}

	if m.loading() || input == "" {
		return m, nil
	}

	m.textarea.Reset()
	m.inFlight = true
	m.err = nil
	m.notice = ""
	return m, tea.Batch(m.submit(raw), m.spinner.Tick)
}

// connect sets the wallet address from the input box
func (m Model) connect(addr string) (Model, tea.Cmd) {
	if addr == "" {
		return m, nil
	}
	if err := config.ValidateWalletAddress(addr); err != nil {
		m.notice = err.Error()
		return m, nil
	}
	m.textarea.Reset()
	m.controller.SetAddress(addr)
	m.notice = "Wallet connected: " + shortAddress(addr)
	m.sync()
	return m, nil
}

// minViewportHeight keeps the log usable on very short terminals
const minViewportHeight = 3

func (m Model) contentWidth() int {
	if w := m.width - 4; w > 20 {
		return w
	}
	return 20
}

// layout fits the viewport into the rows the rest of the screen leaves
// free. The banner, error detail, notice and spinner line come and go, so
// the surrounding sections are measured as rendered.
func (m *Model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}

	width := m.contentWidth()
	m.textarea.SetWidth(width - 4)

	used := lipgloss.Height(m.renderHeader(width)) +
		lipgloss.Height(m.renderInput(width)) +
		lipgloss.Height(m.renderStatusBar(width))
	for _, section := range m.renderBanner(width) {
		used += lipgloss.Height(section)
	}
	if m.notice != "" {
		used += lipgloss.Height(m.renderNotice(width))
	}

	// the messages area adds a border row above and below, and one
	// column of padding each side
	vpHeight := m.height - used - 2
	if vpHeight < minViewportHeight {
		vpHeight = minViewportHeight
	}
	vpWidth := width - 2

	if !m.ready {
		m.viewport = viewport.New(vpWidth, vpHeight)
		m.ready = true
		m.updateViewport()
		m.viewport.GotoBottom()
		return
	}

	if m.viewport.Width == vpWidth && m.viewport.Height == vpHeight {
		return
	}
	atBottom := m.viewport.AtBottom()
	widthChanged := m.viewport.Width != vpWidth
	m.viewport.Width = vpWidth
	m.viewport.Height = vpHeight
	if widthChanged {
		m.updateViewport()
	}
	if atBottom {
		m.viewport.GotoBottom()
	}
}

// sync mirrors the controller into the model
func (m *Model) sync() {
	m.state = m.controller.State()

	if m.state.Ready() {
		m.textarea.Placeholder = PlaceholderReady
	} else {
		m.textarea.Placeholder = PlaceholderNotReady
	}

	st := m.controller.Store()
	if v := st.Version(); v != m.version || m.messages == nil {
		m.messages = st.Snapshot()
		m.version = v
		m.updateViewport()
		m.viewport.GotoBottom()
	}
}

// lastAgentText reads the newest non-empty agent message straight from the
// log, so a copy during streaming gets the latest delta
func lastAgentText(st *store.MessageStore) string {
	for i := st.Len() - 1; i >= 0; i-- {
		msg, err := st.At(i)
		if err != nil {
			// the log shrank under us
			continue
		}
		if msg.Role == models.RoleAgent && strings.TrimSpace(msg.Text) != "" {
			return msg.Text
		}
	}
	return ""
}

// renderAgent renders agent markdown, reusing the last render of index
// while its text and width are unchanged
func (m Model) renderAgent(index int, text string, width int) string {
	if r, ok := m.cache[index]; ok && r.text == text && r.width == width {
		return r.out
	}
	out := render.AgentText(text, m.renderOpts.WithWidth(width))
	m.cache[index] = renderedMessage{text: text, width: width, out: out}
	return out
}

// updateViewport refreshes the viewport content with styled messages
func (m *Model) updateViewport() {
	if !m.ready {
		return
	}

	var content strings.Builder
	bubbleWidth := m.viewport.Width - 6
	if bubbleWidth < 10 {
		bubbleWidth = 10
	}

	for i, msg := range m.messages {
		if i > 0 {
			content.WriteString("\n")
		}

		if msg.Role == models.RoleUser {
			label := m.styles.UserLabel.Render("● You")
			bubble := m.styles.UserBubble.Width(bubbleWidth).Render(msg.Text)
			content.WriteString(label + "\n" + bubble)
		} else {
			label := m.styles.AgentLabel.Render("🦭 Walrus")

			var body string
			switch {
			case msg.Text != "":
				body = m.renderAgent(i, msg.Text, bubbleWidth-4)
			case m.state.Loading && i == m.state.AgentIndex:
				body = m.styles.Pending.Render("…")
			default:
				body = m.styles.Pending.Render("(no streamed content)")
			}

			bubble := m.styles.AgentBubble.Width(bubbleWidth).Render(body)
			content.WriteString(label + "\n" + bubble)
		}
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return m.styles.Loading.Render("  Initializing...")
	}

	width := m.contentWidth()

	var messagesContent string
	if len(m.messages) == 0 {
		messagesContent = m.renderWelcome()
	} else {
		messagesContent = m.viewport.View()
	}

	sections := []string{
		m.renderHeader(width),
		m.styles.MessagesArea.
			Width(width).
			Height(m.viewport.Height).
			Render(messagesContent),
	}
	sections = append(sections, m.renderBanner(width)...)
	sections = append(sections, m.renderInput(width))
	if m.notice != "" {
		sections = append(sections, m.renderNotice(width))
	}
	sections = append(sections, m.renderStatusBar(width))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader(width int) string {
	parts := []string{
		m.styles.Title.Render("🦭 Walrus on Base"),
		m.styles.Hint.Render("  •  "),
		m.styles.Subtitle.Render(m.backend),
		m.styles.Hint.Render("  •  "),
	}
	if m.state.Ready() {
		parts = append(parts, m.styles.Subtitle.Render(shortAddress(m.state.Address)))
	} else {
		parts = append(parts, m.styles.Hint.Render("wallet not connected"))
	}
	return m.styles.Header.Width(width).Render(lipgloss.JoinHorizontal(lipgloss.Center, parts...))
}

// renderBanner renders the error banner and the detail of the failure,
// or nothing when the last exchange succeeded
func (m Model) renderBanner(width int) []string {
	if m.state.Error == "" {
		return nil
	}
	out := []string{m.styles.Banner.Width(width).Render("⚠ " + m.state.Error)}
	if m.err != nil {
		out = append(out, m.styles.Detail.Width(width).Render(m.err.Error()))
	}
	return out
}

func (m Model) renderNotice(width int) string {
	return m.styles.Notice.Width(width).Render(m.notice)
}

func (m Model) renderInput(width int) string {
	var content string
	switch {
	case m.loading():
		content = lipgloss.JoinVertical(
			lipgloss.Left,
			m.styles.InputLabel.Render("You"),
			m.textarea.View(),
			m.spinner.View()+m.styles.Loading.Render(" Sending..."),
		)
	case m.state.Ready():
		content = lipgloss.JoinVertical(
			lipgloss.Left,
			m.styles.InputLabel.Render("You"),
			m.textarea.View(),
		)
	default:
		content = lipgloss.JoinVertical(
			lipgloss.Left,
			m.styles.InputDisabled.Render("Wallet address"),
			m.textarea.View(),
		)
	}
	return m.styles.InputPanel.Width(width).Render(content)
}

// renderWelcome renders the empty-log screen
func (m Model) renderWelcome() string {
	width := m.viewport.Width - 4
	height := m.viewport.Height

	subtitle := "Type a message below to talk to the agent"
	if !m.state.Ready() {
		subtitle = "Enter your wallet address below (or pass --address) to start chatting"
	}

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		"",
		m.styles.WelcomeIcon.Width(width).Render("🦭"),
		"",
		m.styles.WelcomeTitle.Width(width).Render("Welcome to Walrus"),
		"",
		m.styles.Welcome.Width(width).Render(subtitle),
		"",
	)

	topPadding := (height - lipgloss.Height(content)) / 2
	if topPadding < 0 {
		topPadding = 0
	}

	return strings.Repeat("\n", topPadding) + content
}

// renderStatusBar renders the bottom status bar with shortcuts
func (m Model) renderStatusBar(width int) string {
	send := "Send"
	if m.loading() {
		send = "Sending..."
	} else if !m.state.Ready() {
		send = "Connect"
	}

	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", send},
		{"Ctrl+Y", "Copy"},
		{"Esc", "Quit"},
		{"↑↓", "Scroll"},
	}

	var items []string
	for _, s := range shortcuts {
		items = append(items, m.styles.StatusKey.Render(s.key)+m.styles.StatusDesc.Render(" "+s.desc))
	}

	return m.styles.StatusBar.Width(width).Align(lipgloss.Center).Render(strings.Join(items, "  │  "))
}

func isExitCommand(input string) bool {
	switch input {
	case "exit", "quit", "/exit", "/quit":
		return true
	}
	return false
}

func shortAddress(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}

// RunChat starts the chat TUI and blocks until the user quits
func RunChat(ctx context.Context, controller *exchange.Controller, opts ChatOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := NewChatModel(ctx, controller, opts)
	defer m.Close()

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
