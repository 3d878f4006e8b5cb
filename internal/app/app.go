// Package app is the line-oriented chat surface: it reads user input,
// routes it through the session manager, and renders streamed model
// output and tool activity.
package app

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"gitchat/internal/agent"
	"gitchat/internal/client"
	"gitchat/internal/config"
	"gitchat/internal/logging"
	"gitchat/internal/session"
	"gitchat/internal/store"
)

// SystemPrompt is the default system prompt for the agent.
const SystemPrompt = `You are Gitchat, an AI assistant that works on a GitHub repository through the GitHub API. You help users by:
- Reading and understanding the repository's code
- Editing files and pushing the edits as commits
- Searching the repository for files and content
- Checking CI build status after pushing

You have access to the following tools:
- list_files: List files and directories at a path
- read_file: Read the full content of a file
- view_file: View a numbered line range of a large file
- grep_search: Find lines containing a text query
- search_code: Search the whole repository for code
- write_file: Stage a full-file write
- patch_file: Stage a single search/replace edit
- patch_file_multi: Stage several edits to one file at once
- push_to_github: Commit and push everything staged
- get_build_status: Check CI runs for the latest commit

WORKFLOW GUIDELINES:
1. **State your plan before editing** - say which files you will change and why
2. **Edits are staged, not pushed** - nothing reaches the repository until push_to_github
3. **Prefer patch_file over write_file** for small changes; the search text must match the file exactly, whitespace included
4. **Never repeat a call you already made this turn** - reuse what it returned
5. **Always answer after using tools** - summarize what you found or changed, never end on a silent tool call
6. **Use markdown formatting** for readability (code blocks, lists)

Examples of GOOD responses:
- "The bug is in auth/login.go line 42: [explanation]. I patched it and pushed commit abc1234."
- "I read the three handlers. Here is how routing works: [summary]."`

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	toolStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	infoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// App drives the REPL for one terminal session.
type App struct {
	cfg     *config.Config
	manager *session.Manager
	out     io.Writer
	in      *bufio.Scanner

	renderer *glamour.TermRenderer

	mu      sync.Mutex
	current string
	answer  strings.Builder
}

// New creates the app. The manager must be constructed with this app as
// its sink (see Wire).
func New(cfg *config.Config) *App {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		logging.Warn("markdown renderer unavailable", "error", err)
	}
	return &App{
		cfg:      cfg,
		out:      os.Stdout,
		in:       bufio.NewScanner(os.Stdin),
		renderer: renderer,
	}
}

// Wire attaches the session manager. Separate from New because the
// manager needs the app as its sink.
func (a *App) Wire(m *session.Manager) {
	a.manager = m
}

// Run is the REPL loop. It returns when the user quits or input ends.
func (a *App) Run() error {
	fmt.Fprintln(a.out, infoStyle.Render(fmt.Sprintf("gitchat — %s on %s", a.cfg.GitHub.Repo, a.cfg.GitHub.Branch)))
	fmt.Fprintln(a.out, toolStyle.Render("Type a message, or /help for commands."))

	id, err := a.manager.NewConversation()
	if err != nil {
		return err
	}
	a.setCurrent(id)

	for {
		fmt.Fprint(a.out, promptStyle.Render("> "))
		if !a.in.Scan() {
			return a.in.Err()
		}
		line := strings.TrimSpace(a.in.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := a.command(line)
			if err != nil {
				fmt.Fprintln(a.out, errorStyle.Render(err.Error()))
			}
			if quit {
				return nil
			}
			continue
		}

		a.send(line, nil)
	}
}

func (a *App) command(line string) (quit bool, err error) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		a.printHelp()
	case "/new":
		id, err := a.manager.NewConversation()
		if err != nil {
			return false, err
		}
		a.setCurrent(id)
		fmt.Fprintln(a.out, infoStyle.Render("Started a new chat."))
	case "/list":
		return false, a.listConversations()
	case "/switch":
		if len(fields) < 2 {
			return false, fmt.Errorf("usage: /switch <number>")
		}
		return false, a.switchConversation(fields[1])
	case "/stop":
		a.manager.Stop(a.getCurrent())
	case "/delete":
		id := a.getCurrent()
		if err := a.manager.Delete(id); err != nil {
			return false, err
		}
		next, err := a.manager.NewConversation()
		if err != nil {
			return false, err
		}
		a.setCurrent(next)
		fmt.Fprintln(a.out, infoStyle.Render("Deleted. Started a new chat."))
	case "/attach":
		if len(fields) < 3 {
			return false, fmt.Errorf("usage: /attach <image-path> <message>")
		}
		att, err := loadAttachment(fields[1])
		if err != nil {
			return false, err
		}
		a.send(strings.Join(fields[2:], " "), att)
	case "/model":
		if len(fields) < 2 {
			a.listModels()
			return false, nil
		}
		return false, a.setModel(fields[1])
	default:
		return false, fmt.Errorf("unknown command %s, try /help", fields[0])
	}
	return false, nil
}

func (a *App) printHelp() {
	help := `/new               start a new chat
/list              list chats
/switch <number>   switch to a chat from /list
/stop              cancel the current chat's running turn
/delete            delete the current chat
/attach <path> <message>   send a message with an image
/model [id]        show available models, or bind the chat to one
/quit              exit`
	fmt.Fprintln(a.out, toolStyle.Render(help))
}

func (a *App) listConversations() error {
	convs, err := a.manager.List()
	if err != nil {
		return err
	}
	current := a.getCurrent()
	for i, c := range convs {
		marker := "  "
		if c.ID == current {
			marker = "* "
		}
		fmt.Fprintf(a.out, "%s%d. %s (%s)\n", marker, i+1, c.Title, c.UpdatedAt)
	}
	return nil
}

func (a *App) switchConversation(arg string) error {
	convs, err := a.manager.List()
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(convs) {
		return fmt.Errorf("no chat numbered %s, see /list", arg)
	}
	conv := convs[n-1]
	a.setCurrent(conv.ID)
	fmt.Fprintln(a.out, infoStyle.Render("Switched to: "+conv.Title))

	msgs, err := a.manager.Messages(conv.ID)
	if err != nil {
		return err
	}
	for _, msg := range msgs {
		switch msg.Role {
		case store.RoleUser:
			fmt.Fprintln(a.out, promptStyle.Render("> ")+msg.Text)
		case store.RoleAgent:
			a.renderMarkdown(msg.Text)
		}
	}
	return nil
}

func (a *App) listModels() {
	for _, m := range client.AvailableModels {
		fmt.Fprintf(a.out, "  %-26s %s (%s)\n", m.ID, m.Description, m.Provider)
	}
}

func (a *App) setModel(id string) error {
	if err := a.manager.SetModel(a.getCurrent(), id); err != nil {
		return err
	}
	fmt.Fprintln(a.out, infoStyle.Render("Model set to "+id))
	return nil
}

// send dispatches input and returns immediately; output arrives through
// the sink callbacks. Input during a running turn is queued by the
// manager and joins the next turn.
func (a *App) send(text string, att *session.Attachment) {
	id := a.getCurrent()
	wasProcessing := a.manager.Processing(id)

	a.mu.Lock()
	a.answer.Reset()
	a.mu.Unlock()

	if err := a.manager.Send(id, text, att); err != nil {
		fmt.Fprintln(a.out, errorStyle.Render(err.Error()))
		return
	}
	if wasProcessing {
		fmt.Fprintln(a.out, toolStyle.Render("(queued, the current turn is still running)"))
	}
}

// StreamText implements session.Sink.
func (a *App) StreamText(conversationID, chunk string) {
	if conversationID != a.getCurrent() {
		return
	}
	a.mu.Lock()
	a.answer.WriteString(chunk)
	a.mu.Unlock()
}

// ToolActivity implements session.Sink.
func (a *App) ToolActivity(conversationID, text string) {
	if conversationID != a.getCurrent() {
		return
	}
	fmt.Fprintln(a.out, toolStyle.Render("⚙ "+text))
}

// TurnEnded implements session.Sink.
func (a *App) TurnEnded(conversationID string, result *agent.TurnResult, err error) {
	if conversationID != a.getCurrent() {
		return
	}
	if err != nil {
		fmt.Fprintln(a.out, errorStyle.Render("Turn failed: "+err.Error()))
		return
	}
	if result == nil {
		return
	}

	switch result.Outcome {
	case agent.OutcomeDone:
		a.mu.Lock()
		text := a.answer.String()
		a.mu.Unlock()
		if text == "" {
			text = result.Answer
		}
		a.renderMarkdown(text)
	case agent.OutcomeAborted:
		fmt.Fprintln(a.out, toolStyle.Render("(stopped)"))
	case agent.OutcomeDepthExceeded:
		fmt.Fprintln(a.out, errorStyle.Render(result.Answer))
	}
}

func (a *App) renderMarkdown(text string) {
	if a.renderer != nil {
		if out, err := a.renderer.Render(text); err == nil {
			fmt.Fprint(a.out, out)
			return
		}
	}
	fmt.Fprintln(a.out, text)
}

func (a *App) getCurrent() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

func (a *App) setCurrent(id string) {
	a.mu.Lock()
	a.current = id
	a.mu.Unlock()
}

// loadAttachment reads an image file and sniffs its mime type.
func loadAttachment(path string) (*session.Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", path, err)
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return nil, fmt.Errorf("%s is not an image (%s)", path, mime)
	}
	return &session.Attachment{MIME: mime, Data: data}, nil
}
