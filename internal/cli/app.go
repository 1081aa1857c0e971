// Package cli is the interactive terminal front end of the quiz.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"trivia-quiz/internal/account"
	"trivia-quiz/internal/quiz"
	"trivia-quiz/internal/session"
)

type Sessions interface {
	Start(ctx context.Context, cfg quiz.Config) error
	Resume(ctx context.Context) error
	SelectAnswer(index int, option string) (bool, error)
	Next() error
	Previous() error
	Finish() (quiz.Result, error)
	Suspend() error
	Reset()
	View(ctx context.Context) session.View
	Snapshot() (session.Snapshot, bool)
	HasSavedSession(ctx context.Context) bool
	Subscribe() (<-chan quiz.Result, func())
}

type Accounts interface {
	Register(ctx context.Context, req account.RegisterRequest) (account.User, error)
	Login(ctx context.Context, req account.LoginRequest) (account.User, error)
	Current(ctx context.Context) (account.User, bool, error)
}

type HistoryReader interface {
	List(ctx context.Context) ([]quiz.Result, error)
}

type Deps struct {
	Sessions Sessions
	Accounts Accounts
	History  HistoryReader
}

var errQuit = errors.New("quit")

type app struct {
	deps  Deps
	out   io.Writer
	lines <-chan string
}

// Run drives one terminal session until the player quits, input ends or
// ctx is cancelled. An attempt in progress at that point is saved for
// resuming.
func Run(ctx context.Context, in io.Reader, out io.Writer, deps Deps) error {
	a := &app{deps: deps, out: out, lines: readLines(in)}

	err := a.run(ctx)
	if errors.Is(err, errQuit) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func readLines(in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}

func (a *app) run(ctx context.Context) error {
	user, err := a.ensureUser(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome, %s!\n", user.Username)

	for {
		if err := a.begin(ctx); err != nil {
			return err
		}

		result, err := a.play(ctx)
		if err != nil {
			return err
		}
		a.printResult(ctx, result)

		again, err := a.prompt(ctx, "Play again? [y/N]: ")
		if err != nil {
			return err
		}
		if !isYes(again) {
			return nil
		}
	}
}

func (a *app) ensureUser(ctx context.Context) (account.User, error) {
	user, ok, err := a.deps.Accounts.Current(ctx)
	if err != nil {
		return account.User{}, err
	}
	if ok {
		return user, nil
	}

	for {
		choice, err := a.prompt(ctx, "[l]ogin, [r]egister or [q]uit: ")
		if err != nil {
			return account.User{}, err
		}

		switch strings.ToLower(strings.TrimSpace(choice)) {
		case "l", "login":
			user, err = a.login(ctx)
		case "r", "register":
			if err = a.register(ctx); err == nil {
				fmt.Fprintln(a.out, "Registered. Please log in.")
				user, err = a.login(ctx)
			}
		case "q", "quit":
			return account.User{}, errQuit
		default:
			continue
		}

		if err == nil {
			return user, nil
		}
		if !isUserError(err) {
			return account.User{}, err
		}
		fmt.Fprintf(a.out, "%s\n", err)
	}
}

func (a *app) login(ctx context.Context) (account.User, error) {
	email, err := a.prompt(ctx, "Email: ")
	if err != nil {
		return account.User{}, err
	}
	password, err := a.prompt(ctx, "Password: ")
	if err != nil {
		return account.User{}, err
	}
	return a.deps.Accounts.Login(ctx, account.LoginRequest{Email: email, Password: password})
}

func (a *app) register(ctx context.Context) error {
	var req account.RegisterRequest
	fields := []struct {
		label string
		dst   *string
	}{
		{"Email: ", &req.Email},
		{"Username: ", &req.Username},
		{"Password: ", &req.Password},
		{"Confirm password: ", &req.ConfirmPassword},
	}
	for _, field := range fields {
		value, err := a.prompt(ctx, field.label)
		if err != nil {
			return err
		}
		*field.dst = value
	}

	_, err := a.deps.Accounts.Register(ctx, req)
	return err
}

// begin resumes a saved attempt if the player wants it, otherwise starts a
// new one, retrying on provider failures.
func (a *app) begin(ctx context.Context) error {
	if a.deps.Sessions.HasSavedSession(ctx) {
		answer, err := a.prompt(ctx, "You have an unfinished quiz. Resume it? [Y/n]: ")
		if err != nil {
			return err
		}
		if strings.TrimSpace(answer) == "" || isYes(answer) {
			if err := a.deps.Sessions.Resume(ctx); err == nil {
				return nil
			}
			fmt.Fprintln(a.out, "The saved quiz could not be restored. Starting a new one.")
		} else {
			a.deps.Sessions.Reset()
		}
	}

	for {
		cfg, err := a.configure(ctx)
		if err != nil {
			return err
		}

		fmt.Fprintln(a.out, "Loading questions...")
		err = a.deps.Sessions.Start(ctx, cfg)
		if err == nil {
			return nil
		}
		if errors.Is(err, session.ErrNotSaved) {
			fmt.Fprintln(a.out, "Warning: progress for this quiz cannot be saved.")
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fmt.Fprintln(a.out, quiz.UserMessage(err))
	}
}

func (a *app) configure(ctx context.Context) (quiz.Config, error) {
	cfg := quiz.Config{Amount: quiz.DefaultAmount}

	amount, err := a.prompt(ctx, fmt.Sprintf("Number of questions [%d]: ", quiz.DefaultAmount))
	if err != nil {
		return quiz.Config{}, err
	}
	if parsed, convErr := strconv.Atoi(strings.TrimSpace(amount)); convErr == nil && parsed > 0 {
		cfg.Amount = parsed
	}

	difficulty, err := a.prompt(ctx, "Difficulty (easy, medium, hard or blank for any): ")
	if err != nil {
		return quiz.Config{}, err
	}
	switch d := strings.ToLower(strings.TrimSpace(difficulty)); d {
	case "easy", "medium", "hard":
		cfg.Difficulty = d
	}
	return cfg, nil
}

// play runs the question loop until the attempt finishes.
func (a *app) play(ctx context.Context) (quiz.Result, error) {
	results, cancel := a.deps.Sessions.Subscribe()
	defer cancel()

	for {
		view := a.deps.Sessions.View(ctx)
		if view.State == session.StateFinished && view.LastResult != nil {
			return *view.LastResult, nil
		}
		a.printQuestion(view)

		var line string
		select {
		case <-ctx.Done():
			a.suspend()
			return quiz.Result{}, ctx.Err()
		case result := <-results:
			if result.TimeUp {
				fmt.Fprintln(a.out, "\nTime is up!")
			}
			return result, nil
		case next, ok := <-a.lines:
			if !ok {
				a.suspend()
				return quiz.Result{}, errQuit
			}
			line = next
		}

		if err := a.handleCommand(view, line); err != nil {
			if errors.Is(err, errQuit) {
				a.suspend()
			}
			if !errors.Is(err, session.ErrInvalidState) {
				return quiz.Result{}, err
			}
		}
	}
}

func (a *app) handleCommand(view session.View, line string) error {
	command := strings.ToLower(strings.TrimSpace(line))
	switch command {
	case "n", "next":
		return a.deps.Sessions.Next()
	case "p", "prev", "previous":
		return a.deps.Sessions.Previous()
	case "f", "finish":
		_, err := a.deps.Sessions.Finish()
		return err
	case "q", "quit":
		return errQuit
	case "":
		return nil
	}

	snap, ok := a.deps.Sessions.Snapshot()
	if !ok || view.Question == nil {
		return session.ErrInvalidState
	}
	option, ok := snap.Questions[view.CurrentIndex].OptionByLetter(command)
	if !ok {
		fmt.Fprintf(a.out, "\nInvalid input. Enter a letter A-%s, n, p, f or q.\n", quiz.OptionLetter(len(view.Question.Options)-1))
		return nil
	}

	accepted, err := a.deps.Sessions.SelectAnswer(view.CurrentIndex, option)
	if err != nil {
		return err
	}
	if !accepted {
		fmt.Fprintln(a.out, "\nYou already answered this question.")
		return nil
	}
	if !view.IsLast {
		return a.deps.Sessions.Next()
	}
	fmt.Fprintln(a.out, "\nLast answer recorded, finishing...")
	return nil
}

func (a *app) suspend() {
	if err := a.deps.Sessions.Suspend(); err != nil {
		fmt.Fprintf(a.out, "\nCould not save progress: %v\n", err)
		return
	}
	fmt.Fprintln(a.out, "\nProgress saved. Run again to resume.")
}

func (a *app) printQuestion(view session.View) {
	if view.Question == nil {
		return
	}

	fmt.Fprintln(a.out)
	fmt.Fprintf(a.out, "Q%d/%d  [%s %s]  answered %d\n", view.CurrentIndex+1, view.Total, view.TimeFormatted, view.TimerStatus, view.AnsweredCount)
	fmt.Fprintf(a.out, "%s\n\n", view.Question.Prompt)
	for idx, option := range view.Question.Options {
		marker := " "
		if option == view.SelectedOption {
			marker = "*"
		}
		fmt.Fprintf(a.out, "%s %s. %s\n", marker, quiz.OptionLetter(idx), option)
	}
	fmt.Fprint(a.out, "\nAnswer (letter), n/p to move, f to finish, q to save and quit: ")
}

func (a *app) printResult(ctx context.Context, result quiz.Result) {
	fmt.Fprintln(a.out)
	fmt.Fprintf(a.out, "Final score: %d/%d (%d%%)\n", result.Correct, result.Total, result.ScorePercent)
	fmt.Fprintf(a.out, "Incorrect: %d  Unanswered: %d  Time: %s\n", result.Incorrect, result.Unanswered, session.FormatTime(result.TimeSpentSeconds))

	if a.deps.History == nil {
		return
	}
	results, err := a.deps.History.List(ctx)
	if err != nil {
		return
	}
	stats := quiz.ComputeStats(results)
	fmt.Fprintf(a.out, "Quizzes: %d  Average: %d%%  Best: %d%%\n", stats.TotalQuizzes, stats.AverageScore, stats.BestScore)
	if badges := quiz.Badges(stats); len(badges) > 0 {
		fmt.Fprintf(a.out, "Badges: %s\n", strings.Join(badges, ", "))
	}
}

func (a *app) prompt(ctx context.Context, label string) (string, error) {
	fmt.Fprint(a.out, label)
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-a.lines:
		if !ok {
			return "", errQuit
		}
		return strings.TrimSpace(line), nil
	}
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

func isUserError(err error) bool {
	for _, target := range []error{
		account.ErrMissingFields,
		account.ErrInvalidEmail,
		account.ErrPasswordTooShort,
		account.ErrPasswordMismatch,
		account.ErrEmailTaken,
		account.ErrUsernameTaken,
		account.ErrEmailNotRegistered,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
