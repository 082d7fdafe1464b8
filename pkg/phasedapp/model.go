package phasedapp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	textinput "github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/BrianJOC/nspawn-vm-prep/phases"
)

type phaseStatus int

const (
	statusPending phaseStatus = iota
	statusRunning
	statusSuccess
	statusSkipped
	statusFailed
)

func (s phaseStatus) String() string {
	switch s {
	case statusPending:
		return "pending"
	case statusRunning:
		return "running"
	case statusSuccess:
		return "success"
	case statusSkipped:
		return "skipped"
	case statusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

type focusArea int

const (
	focusPhases focusArea = iota
	focusPrompt
)

const maxLogLines = 50

type phaseState struct {
	meta   phases.PhaseMetadata
	status phaseStatus
	note   string
	err    error
	logs   []string
}

type model struct {
	title        string
	manager      *phases.Manager
	phaseCtx     *phases.Context
	observer     *phaseObserver
	inputHandler *bubbleInputHandler
	runCtx       context.Context
	report       ReportFunc
	cleanup      CleanupFunc
	onFinish     func(*phases.Context, error)

	phases  map[string]*phaseState
	order   []string
	running string

	spinner spinner.Model

	prompt       textinput.Model
	activePrompt *inputRequestMsg
	prompting    bool
	selectIndex  int

	savedInputs  map[string]map[string]any
	secretValues map[string]struct{}

	selectedPhase  int
	focus          focusArea
	helpVisible    bool
	pipelineActive bool
	actionsVisible bool

	statusMsg  string
	done       error
	finished   bool
	reportText string

	width  int
	height int

	initialStartIndex int
}

func newModel(cfg Config, startIndex int, runCtx context.Context, onFinish func(*phases.Context, error)) (*model, error) {
	if len(cfg.Phases) == 0 {
		return nil, ErrNoPhases
	}

	inputHandler := newBubbleInputHandler()
	observer := newPhaseObserver()

	managerOpts := append([]phases.ManagerOption{}, cfg.ManagerOptions...)
	managerOpts = append(managerOpts,
		phases.WithObserver(observer),
		phases.WithInputHandler(inputHandler),
	)
	manager := phases.NewManager(managerOpts...)
	if err := manager.Register(cfg.Phases...); err != nil {
		return nil, err
	}

	metas := manager.Phases()
	states := make(map[string]*phaseState, len(metas))
	order := make([]string, 0, len(metas))
	for _, meta := range metas {
		states[meta.ID] = &phaseState{meta: meta, status: statusPending}
		order = append(order, meta.ID)
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	ti := textinput.New()
	ti.Placeholder = "enter value"
	ti.Blur()

	if runCtx == nil {
		runCtx = context.Background()
	}
	if onFinish == nil {
		onFinish = func(*phases.Context, error) {}
	}

	return &model{
		title:             cfg.Title,
		manager:           manager,
		phaseCtx:          phases.NewContext(),
		observer:          observer,
		inputHandler:      inputHandler,
		runCtx:            runCtx,
		report:            cfg.Report,
		cleanup:           cfg.Cleanup,
		onFinish:          onFinish,
		phases:            states,
		order:             order,
		spinner:           sp,
		prompt:            ti,
		focus:             focusPhases,
		savedInputs:       make(map[string]map[string]any),
		secretValues:      make(map[string]struct{}),
		statusMsg:         "Awaiting phase events…",
		initialStartIndex: startIndex,
	}, nil
}

func (m *model) Init() tea.Cmd {
	if m.initialStartIndex >= len(m.order) {
		// Nothing to run; wait for the caller to quit.
		return nil
	}
	return m.startPipelineFrom(m.initialStartIndex)
}

func (m *model) startPipelineFrom(start int) tea.Cmd {
	start = m.clampStartIndex(start)
	m.pipelineActive = true
	m.actionsVisible = false
	m.finished = false
	m.reportText = ""
	return tea.Batch(
		runManagerCmd(m.runCtx, m.manager, m.phaseCtx, start),
		waitPhaseEventCmd(m.observer),
		waitInputRequestCmd(m.inputHandler),
		m.spinner.Tick,
	)
}

func (m *model) clampStartIndex(idx int) int {
	switch {
	case len(m.order) == 0 || idx < 0:
		return 0
	case idx >= len(m.order):
		return len(m.order) - 1
	default:
		return idx
	}
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		shrunk := (m.width > 0 && msg.Width < m.width) || (m.height > 0 && msg.Height < m.height)
		m.width, m.height = msg.Width, msg.Height
		if shrunk {
			return m, tea.ClearScreen
		}
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case spinner.TickMsg:
		if !m.pipelineActive {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case phaseStartedMsg:
		m.handlePhaseStarted(msg)
		return m, waitPhaseEventCmd(m.observer)

	case phaseCompletedMsg:
		m.handlePhaseCompleted(msg)
		return m, waitPhaseEventCmd(m.observer)

	case phaseLogMsg:
		if state, ok := m.phases[m.running]; ok {
			m.appendLog(state, msg.line)
		}
		return m, nil

	case inputRequestMsg:
		m.preparePrompt(msg)
		return m, nil

	case phasesFinishedMsg:
		return m, m.handleFinished(msg.err)
	}

	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.actionsVisible {
		return m.handleActionKeys(msg)
	}
	if m.handleSelectPromptNavigation(msg) || m.handlePhaseNavigation(msg) {
		return nil
	}
	switch msg.Type {
	case tea.KeyCtrlC:
		return tea.Quit
	case tea.KeyCtrlR:
		return m.restartPipeline()
	case tea.KeyEnter:
		if m.prompting && m.focus == focusPrompt {
			return m.submitPrompt()
		}
		if !m.prompting && m.focus == focusPhases {
			m.actionsVisible = true
			m.helpVisible = false
		}
		return nil
	case tea.KeyEsc:
		return m.handleEscape()
	case tea.KeyTab, tea.KeyShiftTab:
		if m.prompting {
			m.toggleFocus()
		}
		return nil
	case tea.KeyRunes:
		if !(m.prompting && m.focus == focusPrompt) && len(msg.Runes) == 1 {
			switch msg.Runes[0] {
			case 'r', 'R':
				return m.restartPipeline()
			case '?', 'h', 'H':
				m.helpVisible = !m.helpVisible
				return nil
			case 'q', 'Q':
				if !m.pipelineActive {
					return tea.Quit
				}
				m.setStatus("Pipeline running; Ctrl+C to abort")
				return nil
			}
		}
	}

	if m.prompting && m.focus == focusPrompt && !m.isSelectPrompt() {
		var cmd tea.Cmd
		m.prompt, cmd = m.prompt.Update(msg)
		return cmd
	}
	return nil
}

func (m *model) handlePhaseStarted(msg phaseStartedMsg) {
	m.running = msg.meta.ID
	if state, ok := m.phases[msg.meta.ID]; ok {
		state.status = statusRunning
		state.err = nil
		state.note = ""
		m.appendLog(state, "started")
	}
	m.setStatusf("Running %s", msg.meta.Title)
}

func (m *model) handlePhaseCompleted(msg phaseCompletedMsg) {
	state, ok := m.phases[msg.meta.ID]
	if !ok {
		return
	}
	var skipped phases.SkippedError
	switch {
	case msg.err == nil:
		state.status = statusSuccess
		m.appendLog(state, "completed")
		m.setStatusf("%s completed", msg.meta.Title)
	case errors.As(msg.err, &skipped):
		state.status = statusSkipped
		state.note = skipped.Reason
		m.appendLog(state, "skipped: "+skipped.Reason)
		m.setStatusf("%s skipped", msg.meta.Title)
	default:
		state.status = statusFailed
		state.err = msg.err
		m.appendLog(state, fmt.Sprintf("failed: %v", msg.err))
		m.setStatusf("%s failed: %v", msg.meta.Title, msg.err)
	}
}

func (m *model) handleFinished(err error) tea.Cmd {
	m.pipelineActive = false
	m.running = ""
	m.done = err
	m.finished = true
	m.onFinish(m.phaseCtx, err)
	if m.report != nil {
		m.reportText = m.redactSecrets(m.report(m.phaseCtx, err))
	}
	if m.runCtx.Err() != nil {
		return tea.Quit
	}
	if err != nil {
		m.setStatus(err.Error())
	} else {
		m.setStatus("All phases completed; q to quit")
	}
	return nil
}

// promptOptions returns the choices of a select-style prompt. Booleans are
// offered as yes/no.
func promptOptions(def phases.InputDefinition) []phases.InputOption {
	if def.Kind == phases.InputKindBool {
		return []phases.InputOption{
			{Value: "y", Label: "yes"},
			{Value: "n", Label: "no"},
		}
	}
	return def.Options
}

// defaultAnswer renders def.Default the way an operator would type it.
func defaultAnswer(def phases.InputDefinition) string {
	switch v := def.Default.(type) {
	case nil:
		return ""
	case bool:
		if v {
			return "y"
		}
		return "n"
	case int:
		return strconv.Itoa(v)
	case string:
		return strings.TrimSpace(v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func (m *model) preparePrompt(msg inputRequestMsg) {
	m.actionsVisible = false
	if msg.reason != "" && msg.input.Secret {
		msg.reason = "Previous entry was rejected; please provide a new value."
	}
	m.activePrompt = &msg
	m.prompting = true
	m.focus = focusPrompt
	m.helpVisible = false
	m.selectIndex = 0

	def := msg.input
	prev, _ := m.lookupInputString(msg.meta.ID, def.ID)
	fallback := defaultAnswer(def)

	m.prompt.EchoMode = textinput.EchoNormal
	if def.Secret {
		m.prompt.EchoMode = textinput.EchoPassword
		m.prompt.EchoCharacter = '•'
	}

	if m.isSelectPrompt() {
		if prev == "" {
			prev = fallback
		}
		if idx := m.optionIndex(prev); idx >= 0 {
			m.selectIndex = idx
		}
		m.prompt.Blur()
		m.setStatusf("%s: choose %s (arrows, j/k, numbers)", msg.meta.Title, def.ID)
		return
	}

	switch {
	case def.Secret:
		m.prompt.Placeholder = "enter value (blank keeps default)"
	case fallback != "":
		m.prompt.Placeholder = fallback
	default:
		m.prompt.Placeholder = def.ID
	}
	// Rejected answers are not refilled.
	if msg.reason != "" || def.Secret {
		prev = ""
	}
	m.prompt.SetValue(prev)
	m.prompt.CursorEnd()
	m.prompt.Focus()
	m.setStatusf("%s needs %s", msg.meta.Title, def.ID)
}

func (m *model) submitPrompt() tea.Cmd {
	if !m.prompting || m.activePrompt == nil {
		return nil
	}

	var value string
	if m.isSelectPrompt() {
		selected, ok := m.currentSelectionValue()
		if !ok {
			m.setStatus("No options available")
			return nil
		}
		value = selected
	} else {
		value = m.prompt.Value()
		if !m.activePrompt.input.Secret {
			value = strings.TrimSpace(value)
		}
		if value == "" && m.activePrompt.input.Required {
			m.setStatus("Input required")
			return nil
		}
	}

	m.recordInput(value)
	m.inputHandler.respond(value, nil)
	m.closePrompt()
	m.setStatus("Input submitted")
	return waitInputRequestCmd(m.inputHandler)
}

func (m *model) closePrompt() {
	m.prompting = false
	m.activePrompt = nil
	m.prompt.SetValue("")
	m.prompt.EchoMode = textinput.EchoNormal
	m.prompt.Blur()
	m.focus = focusPhases
}

func (m *model) recordInput(value string) {
	p := m.activePrompt
	if _, ok := m.savedInputs[p.meta.ID]; !ok {
		m.savedInputs[p.meta.ID] = make(map[string]any)
	}
	m.savedInputs[p.meta.ID][p.input.ID] = value
	if p.input.Secret {
		m.trackSecretValue(value)
	}
}

func (m *model) handleEscape() tea.Cmd {
	switch {
	case m.helpVisible:
		m.helpVisible = false
		return nil
	case m.prompting:
		if m.activePrompt != nil {
			m.inputHandler.respond(nil, ErrInputCancelled)
		}
		m.closePrompt()
		m.setStatus("Input cancelled")
		return waitInputRequestCmd(m.inputHandler)
	}
	return nil
}

func (m *model) toggleFocus() {
	if m.focus == focusPrompt {
		m.focus = focusPhases
	} else {
		m.focus = focusPrompt
	}
}

// restartPipeline reruns every phase on a fresh context, replaying the
// answers given so far.
func (m *model) restartPipeline() tea.Cmd {
	if m.pipelineActive {
		m.setStatus("Pipeline already running")
		return nil
	}

	m.phaseCtx = phases.NewContext()
	for phaseID, inputs := range m.savedInputs {
		for inputID, value := range inputs {
			phases.SetInput(m.phaseCtx, phaseID, inputID, value)
		}
	}
	m.resetFrom(0)
	m.selectedPhase = 0
	m.setStatus("Restarting pipeline")
	return m.startPipelineFrom(0)
}

// retrySelectedPhase resumes at the selected phase, keeping the context
// earlier phases published.
func (m *model) retrySelectedPhase() tea.Cmd {
	if m.pipelineActive {
		m.setStatus("Pipeline already running")
		return nil
	}
	state := m.currentPhaseState()
	if state == nil {
		return nil
	}
	start := m.clampStartIndex(m.selectedPhase)
	m.resetFrom(start)
	m.setStatusf("Retrying from %s", state.meta.Title)
	return m.startPipelineFrom(start)
}

func (m *model) resetFrom(start int) {
	for _, id := range m.order[start:] {
		if st, ok := m.phases[id]; ok {
			st.status = statusPending
			st.err = nil
			st.note = ""
			st.logs = nil
		}
	}
	m.done = nil
}

func (m *model) currentPhaseState() *phaseState {
	if len(m.order) == 0 {
		return nil
	}
	return m.phases[m.order[m.clampStartIndex(m.selectedPhase)]]
}

func (m *model) handleActionKeys(msg tea.KeyMsg) tea.Cmd {
	m.actionsVisible = false
	if msg.Type != tea.KeyRunes || len(msg.Runes) != 1 {
		return nil
	}
	switch msg.Runes[0] {
	case '2', 'r', 'R':
		if m.pipelineActive {
			m.setStatus("Cannot retry while pipeline is running")
			return nil
		}
		return m.retrySelectedPhase()
	case '3', 'c', 'C':
		m.copySelectedError()
	case '4', 'x', 'X':
		m.copyCleanup()
	}
	return nil
}

func (m *model) copySelectedError() {
	state := m.currentPhaseState()
	if state == nil || state.err == nil {
		m.setStatus("No error to copy")
		return
	}
	m.copy(m.redactSecrets(state.err.Error()), "Error")
}

func (m *model) cleanupText() string {
	if m.cleanup == nil || m.pipelineActive || m.done == nil {
		return ""
	}
	return m.cleanup(m.phaseCtx)
}

func (m *model) copyCleanup() {
	text := m.cleanupText()
	if text == "" {
		m.setStatus("Nothing to clean up")
		return
	}
	m.copy(text, "Cleanup recipe")
}

func (m *model) copy(text, what string) {
	if err := clipboard.WriteAll(text); err != nil {
		m.setStatusf("Failed to copy %s", strings.ToLower(what))
		return
	}
	m.setStatusf("%s copied to clipboard", what)
}

func (m *model) handlePhaseNavigation(msg tea.KeyMsg) bool {
	if m.prompting && m.focus != focusPhases {
		return false
	}
	switch {
	case msg.Type == tea.KeyUp, msg.Type == tea.KeyRunes && string(msg.Runes) == "k":
		m.selectedPhase = wrap(m.selectedPhase-1, len(m.order))
		return true
	case msg.Type == tea.KeyDown, msg.Type == tea.KeyRunes && string(msg.Runes) == "j":
		m.selectedPhase = wrap(m.selectedPhase+1, len(m.order))
		return true
	}
	return false
}

func (m *model) handleSelectPromptNavigation(msg tea.KeyMsg) bool {
	if !m.prompting || m.focus != focusPrompt || !m.isSelectPrompt() {
		return false
	}
	options := promptOptions(m.activePrompt.input)
	switch {
	case msg.Type == tea.KeyUp, msg.Type == tea.KeyRunes && string(msg.Runes) == "k":
		m.selectIndex = wrap(m.selectIndex-1, len(options))
		return true
	case msg.Type == tea.KeyDown, msg.Type == tea.KeyRunes && string(msg.Runes) == "j":
		m.selectIndex = wrap(m.selectIndex+1, len(options))
		return true
	case msg.Type == tea.KeyRunes && len(msg.Runes) == 1:
		r := msg.Runes[0]
		if r >= '1' && r <= '9' && int(r-'1') < len(options) {
			m.selectIndex = int(r - '1')
			return true
		}
		if m.activePrompt.input.Kind == phases.InputKindBool {
			switch r {
			case 'y', 'Y':
				m.selectIndex = 0
				return true
			case 'n', 'N':
				m.selectIndex = 1
				return true
			}
		}
	}
	return false
}

func wrap(idx, n int) int {
	if n == 0 {
		return 0
	}
	idx %= n
	if idx < 0 {
		idx += n
	}
	return idx
}

func (m *model) isSelectPrompt() bool {
	if !m.prompting || m.activePrompt == nil {
		return false
	}
	kind := m.activePrompt.input.Kind
	return kind == phases.InputKindSelect || kind == phases.InputKindBool
}

func (m *model) currentSelectionValue() (string, bool) {
	if !m.isSelectPrompt() {
		return "", false
	}
	options := promptOptions(m.activePrompt.input)
	if len(options) == 0 {
		return "", false
	}
	return options[m.clampIndex(m.selectIndex, len(options))].Value, true
}

func (m *model) clampIndex(idx, n int) int {
	switch {
	case idx < 0:
		return 0
	case idx >= n:
		return n - 1
	default:
		return idx
	}
}

func (m *model) optionIndex(value string) int {
	if value == "" || m.activePrompt == nil {
		return -1
	}
	for idx, opt := range promptOptions(m.activePrompt.input) {
		if strings.EqualFold(opt.Value, value) || strings.EqualFold(opt.Label, value) {
			return idx
		}
	}
	return -1
}

func (m *model) lookupInputString(phaseID, inputID string) (string, bool) {
	if inputs, ok := m.savedInputs[phaseID]; ok {
		if val, ok := inputs[inputID]; ok {
			return fmt.Sprint(val), true
		}
	}
	return phases.InputString(m.phaseCtx, phaseID, inputID)
}

func completedCount(states map[string]*phaseState) int {
	count := 0
	for _, st := range states {
		if st.status == statusSuccess || st.status == statusSkipped {
			count++
		}
	}
	return count
}

func (m *model) appendLog(state *phaseState, line string) {
	if state == nil {
		return
	}
	line = m.redactSecrets(line)
	state.logs = append(state.logs, fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), line))
	if len(state.logs) > maxLogLines {
		state.logs = state.logs[len(state.logs)-maxLogLines:]
	}
}

func (m *model) trackSecretValue(value string) {
	if value = strings.TrimSpace(value); value != "" {
		m.secretValues[value] = struct{}{}
	}
}

func (m *model) redactSecrets(text string) string {
	for secret := range m.secretValues {
		text = strings.ReplaceAll(text, secret, "[secret]")
	}
	return text
}

func (m *model) setStatus(msg string) {
	m.statusMsg = m.redactSecrets(msg)
}

func (m *model) setStatusf(format string, args ...any) {
	m.setStatus(fmt.Sprintf(format, args...))
}
