// ABOUTME: Terminal output for the interactive session
// ABOUTME: Turns controller snapshots into incremental, colorized transcript output

package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/2389/coven-chat/internal/backend"
	"github.com/2389/coven-chat/internal/controller"
	"github.com/2389/coven-chat/internal/model"
	"github.com/2389/coven-chat/internal/submission"
)

var (
	dim       = color.New(color.FgHiBlack).SprintFunc()
	userLabel = color.New(color.FgBlue, color.Bold).SprintFunc()
	botLabel  = color.New(color.FgGreen, color.Bold).SprintFunc()
	fileLabel = color.New(color.FgYellow).SprintFunc()
	errLabel  = color.New(color.FgRed, color.Bold).SprintFunc()
	header    = color.New(color.FgCyan, color.Bold).SprintFunc()
)

// terminal serializes writes from the input loop and the renderer.
type terminal struct {
	mu sync.Mutex
	w  io.Writer
}

func (t *terminal) Printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, format, args...)
}

func (t *terminal) Println(args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.w, args...)
}

func (t *terminal) Error(err error) {
	t.Println(errLabel("[error]"), err)
}

var stageText = map[submission.State]string{
	submission.UploadingAttachments: "uploading attachments...",
	submission.SendingText:          "sending...",
	submission.Reloading:            "refreshing...",
}

// renderer prints what changed between consecutive snapshots.
type renderer struct {
	out      *terminal
	activeID string
	shown    []model.Message
	stage    submission.State
	loadErr  string
}

func newRenderer(out *terminal) *renderer {
	return &renderer{out: out}
}

func (r *renderer) run(views <-chan controller.View) {
	for v := range views {
		r.render(v)
	}
}

func (r *renderer) render(v controller.View) {
	if v.ActiveID != r.activeID {
		r.activeID = v.ActiveID
		r.shown = nil
		r.loadErr = ""
		if v.ActiveID == "" {
			r.out.Println(dim("No conversation selected. Use /new or /use <n>."))
		} else {
			r.out.Println(header("== " + titleOf(v.Conversations, v.ActiveID) + " =="))
		}
	}

	if v.Stage != r.stage {
		r.stage = v.Stage
		if text, ok := stageText[v.Stage]; ok {
			r.out.Println(dim(text))
		}
	}

	loadErr := ""
	if v.LoadError != nil {
		loadErr = v.LoadError.Error()
	}
	if loadErr != r.loadErr {
		r.loadErr = loadErr
		if loadErr != "" {
			r.out.Println(errLabel("[history unavailable]"), loadErr, dim("(/reload to retry)"))
		}
	}

	if sameMessages(r.shown, v.Messages) {
		return
	}
	start := 0
	if isPrefix(r.shown, v.Messages) {
		start = len(r.shown)
	} else if len(r.shown) > 0 {
		r.out.Println(dim("(history reloaded)"))
	}
	for _, m := range v.Messages[start:] {
		r.printMessage(m)
	}
	r.shown = v.Messages
}

func (r *renderer) printMessage(m model.Message) {
	label := userLabel("you")
	if m.Role == model.RoleAssistant {
		label = botLabel("bot")
	}
	when := dim(m.Timestamp.Format("15:04"))

	if len(m.Attachments) > 0 {
		for _, a := range m.Attachments {
			r.out.Printf("%s %s %s %s\n", when, label, fileLabel("[file]"), a.Name)
		}
		return
	}
	r.out.Printf("%s %s %s\n", when, label, m.Content)
}

func titleOf(convs []model.Conversation, id string) string {
	for _, c := range convs {
		if c.ID == id {
			return c.Title
		}
	}
	return backend.ShortID(id)
}

// Synthesized ids and timestamps change on every load, so messages are
// compared by role and content only.
func sameMessage(a, b model.Message) bool {
	return a.Role == b.Role && a.Content == b.Content
}

func sameMessages(a, b []model.Message) bool {
	return len(a) == len(b) && isPrefix(a, b)
}

func isPrefix(prefix, all []model.Message) bool {
	if len(prefix) > len(all) {
		return false
	}
	for i := range prefix {
		if !sameMessage(prefix[i], all[i]) {
			return false
		}
	}
	return true
}

func printConversations(out *terminal, convs []model.Conversation) {
	if len(convs) == 0 {
		out.Println(dim("No conversations. Use /new to start one."))
		return
	}
	for i, c := range convs {
		marker := " "
		if c.Active {
			marker = header("*")
		}
		out.Printf("%s %2d  %s  %s\n", marker, i+1, c.Title, dim(backend.StripPrefix(c.ID)))
	}
}

func printPending(out *terminal, pending []model.PendingAttachment) {
	if len(pending) == 0 {
		out.Println(dim("No files attached."))
		return
	}
	for i, p := range pending {
		out.Printf("  %2d  %s  %s\n", i+1, p.Name, dim(humanSize(p.Size)+" "+p.MimeType))
	}
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func printHelp(out *terminal) {
	lines := []string{
		"Commands:",
		"  /new             Start a new conversation",
		"  /list            List conversations",
		"  /use <n|id>      Switch to a conversation",
		"  /delete <n|id>   Delete a conversation",
		"  /attach <path>   Attach a file to the next message",
		"  /detach <n>      Remove an attached file",
		"  /files           Show attached files",
		"  /send            Send the saved draft",
		"  /reload          Refresh the current conversation",
		"  /help            Show this help",
		"  /quit            Exit",
		"Any other line is sent as a message together with the attached files.",
	}
	out.Println(strings.Join(lines, "\n"))
}
