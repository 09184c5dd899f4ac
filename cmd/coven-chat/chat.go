// ABOUTME: Interactive chat session driving the conversation controller
// ABOUTME: Reads slash commands and messages from stdin, sends in the background

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/2389/coven-chat/internal/backend"
	"github.com/2389/coven-chat/internal/controller"
	"github.com/2389/coven-chat/internal/model"
	"github.com/2389/coven-chat/internal/submission"
)

// session is one interactive run.
type session struct {
	ctl   *controller.Controller
	out   *terminal
	lines <-chan string
	sends sync.WaitGroup
}

func runChat(ctx context.Context, a *app) error {
	out := &terminal{w: os.Stdout}
	s := &session{
		out:   out,
		lines: readLines(os.Stdin),
	}
	s.ctl = controller.New(controller.Options{
		Email:     a.email,
		Backend:   a.client,
		Confirmer: controller.ConfirmFunc(s.confirm),
		Logger:    a.logger,
	})
	defer s.ctl.Close()

	views := s.ctl.Subscribe(ctx)
	go newRenderer(out).run(views)

	out.Println(color.New(color.FgHiMagenta, color.Bold).Sprint("coven-chat"),
		dim("as "+a.email+" on "+a.cfg.Backend.BaseURL))
	out.Println(dim("Type a message and press Enter. /help for commands."))

	if err := s.ctl.Bootstrap(ctx); err != nil {
		return fmt.Errorf("starting session: %w", err)
	}

	for {
		out.Printf("> ")

		var line string
		select {
		case <-ctx.Done():
			s.sends.Wait()
			return nil
		case l, ok := <-s.lines:
			if !ok {
				s.sends.Wait()
				return nil
			}
			line = l
		}

		if quit := s.handle(ctx, line); quit {
			s.sends.Wait()
			return nil
		}
	}
}

// readLines feeds stdin lines to a channel that is closed at EOF. The input
// loop and the delete confirmation both read from it.
func readLines(r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			ch <- scanner.Text()
		}
	}()
	return ch
}

func (s *session) confirm(ctx context.Context, prompt string) bool {
	s.out.Printf("%s [y/N] ", prompt)
	select {
	case <-ctx.Done():
		return false
	case line, ok := <-s.lines:
		if !ok {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	}
}

// handle runs one input line and reports whether the session should end.
func (s *session) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, "/") {
		s.send(ctx, line)
		return false
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	var err error
	switch cmd {
	case "/quit", "/exit", "/q":
		return true
	case "/help":
		printHelp(s.out)
	case "/new":
		err = s.ctl.CreateNew(ctx)
	case "/list":
		printConversations(s.out, s.ctl.Conversations())
	case "/use":
		id, ok := s.resolveConversation(arg)
		if !ok {
			s.out.Println(dim("No such conversation: " + arg))
			break
		}
		err = s.ctl.Select(ctx, id)
	case "/delete":
		id, ok := s.resolveConversation(arg)
		if !ok {
			s.out.Println(dim("No such conversation: " + arg))
			break
		}
		err = s.ctl.Delete(ctx, id)
	case "/attach":
		err = s.attach(arg)
	case "/detach":
		id, ok := s.resolvePending(arg)
		if !ok || !s.ctl.RemoveAttachment(id) {
			s.out.Println(dim("No such attachment: " + arg))
		}
	case "/files":
		printPending(s.out, s.ctl.View().Pending)
	case "/send":
		s.send(ctx, s.ctl.View().Input)
	case "/reload":
		id := s.ctl.View().ActiveID
		if id == "" {
			s.out.Println(dim("No conversation selected."))
			break
		}
		s.ctl.Reload(ctx, id)
	default:
		s.out.Println(dim("Unknown command " + cmd + ", /help lists commands."))
	}

	if err != nil {
		s.out.Error(err)
	}
	return false
}

// send submits in the background so the session stays usable (switching
// conversations included) while uploads and the reload are in flight.
func (s *session) send(ctx context.Context, text string) {
	if s.ctl.Busy() {
		s.ctl.SetInput(text)
		s.out.Println(dim("Still sending the previous message. Draft kept, use /send when it is done."))
		return
	}

	s.sends.Add(1)
	go func() {
		defer s.sends.Done()
		err := s.ctl.Send(ctx, text)
		switch {
		case err == nil:
		case errors.Is(err, submission.ErrBusy):
			s.out.Println(dim("Still sending the previous message. Draft kept, use /send when it is done."))
		case ctx.Err() != nil:
		default:
			s.out.Error(err)
			s.out.Println(dim("Your message and attachments were kept, use /send to retry."))
		}
	}()
}

func (s *session) attach(path string) error {
	if path == "" {
		return errors.New("usage: /attach <path>")
	}
	p, err := model.PendingFromPath(path)
	if err != nil {
		return err
	}
	if err := s.ctl.AttachFile(p); err != nil {
		if errors.Is(err, submission.ErrNoConversation) {
			return errors.New("select or create a conversation before attaching files")
		}
		return err
	}
	s.out.Println(dim(fmt.Sprintf("Attached %s (%s)", p.Name, humanSize(p.Size))))
	return nil
}

// resolveConversation accepts a 1-based list position or a conversation id
// with or without its namespace prefix.
func (s *session) resolveConversation(arg string) (string, bool) {
	convs := s.ctl.Conversations()
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(convs) {
			return "", false
		}
		return convs[n-1].ID, true
	}
	id := backend.WithPrefix(arg)
	for _, c := range convs {
		if c.ID == id {
			return id, true
		}
	}
	return "", false
}

func (s *session) resolvePending(arg string) (string, bool) {
	pending := s.ctl.View().Pending
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(pending) {
			return "", false
		}
		return pending[n-1].ID, true
	}
	for _, p := range pending {
		if p.ID == arg || p.Name == arg {
			return p.ID, true
		}
	}
	return "", false
}
