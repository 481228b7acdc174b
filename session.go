package core

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// ExitSentinel is the literal input that ends a session.
const ExitSentinel = "exit"

// Session drives the interactive loop: identify the user, replay their
// history, then read questions until the exit sentinel.
type Session struct {
	Agent  *Agent
	Store  MessageStore
	In     io.Reader
	Out    io.Writer
	Logger *slog.Logger

	// SystemPrompt is the base instruction text; DefaultSystemPrompt when empty.
	SystemPrompt string

	// MaxLoginAttempts bounds identification retries; defaults to 3.
	MaxLoginAttempts int

	scanner *bufio.Scanner
}

// Run executes the session until the user types the exit sentinel or an
// unrecoverable error occurs. Model-backend failures are reported to the
// user and the loop continues; nothing already persisted is lost.
func (s *Session) Run(ctx context.Context) error {
	if s.Logger == nil {
		s.Logger = slog.Default()
	}
	s.scanner = bufio.NewScanner(s.In)

	user, err := s.identify(ctx)
	if err != nil {
		return err
	}

	base := s.SystemPrompt
	if base == "" {
		base = DefaultSystemPrompt
	}
	prompt := DefaultComposer().Compose(base, PromptContext{Now: time.Now(), UserName: user.Name})
	if err := s.Agent.Resume(ctx, user, prompt); err != nil {
		return err
	}

	s.Agent.OnToolDone = func(result ToolResult) {
		s.announceTool(result)
	}

	question, ok := s.ask("You are using the Weather CLI app, what can I do for you?")
	for ok && question != ExitSentinel {
		answer, err := s.Agent.Chat(ctx, question)
		if err != nil {
			// Turn-level failure: the persisted history is intact, the user
			// can re-issue the question.
			fmt.Fprintf(s.Out, "Something went wrong: %v\n", err)
			s.Logger.Error("chat turn failed", "user", user.Email, "error", err)
		} else {
			fmt.Fprintln(s.Out, "Assistant: "+answer)
		}
		question, ok = s.ask("What else would you ask me?")
	}
	return nil
}

// identify resolves a returning user by email, allowing MaxLoginAttempts
// tries before giving up. No message is persisted until this succeeds.
func (s *Session) identify(ctx context.Context) (User, error) {
	attempts := s.MaxLoginAttempts
	if attempts == 0 {
		attempts = 3
	}
	for i := 0; i < attempts; i++ {
		email, ok := s.ask("What is your email address?")
		if !ok {
			return User{}, ErrMaxLoginAttempts
		}
		user, err := s.Store.FindUserByEmail(ctx, email)
		if err == nil {
			fmt.Fprintln(s.Out, "Nice to see you again, "+user.Name)
			return user, nil
		}
		if !errors.Is(err, ErrUserNotFound) {
			return User{}, err
		}
		fmt.Fprintln(s.Out, "No user with such mail found, try again.")
	}
	return User{}, ErrMaxLoginAttempts
}

// ask prints a prompt and reads one line. ok is false once input is closed.
func (s *Session) ask(prompt string) (string, bool) {
	fmt.Fprintln(s.Out, prompt)
	if !s.scanner.Scan() {
		return "", false
	}
	return s.scanner.Text(), true
}

// announceTool mirrors resolved coordinates back to the user, the one piece
// of tool output shown outside the assistant's answer.
func (s *Session) announceTool(result ToolResult) {
	if result.ToolName != "get_coordinates" {
		return
	}
	if _, failed := result.Result["error"]; failed {
		return
	}
	fmt.Fprintf(s.Out, "The latitude and longitude for %s are: %s and %s respectively.\n",
		result.Args["place"], result.Result["latitude"], result.Result["longitude"])
}
