package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/ashureev/consolebot/internal/chat"
)

const busyNotice = "Waleed is still replying..."

// repl dispatches prompt lines to a session.
type repl struct {
	session *chat.Session
	notify  func(string)
	wg      sync.WaitGroup
	exited  bool // set by /exit
}

// serve handles lines from in until EOF or ctx is done. Round trips started
// by serve may still be running when it returns; see wait.
func (r *repl) serve(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-errc:
					return err
				default:
					return nil
				}
			}
			if !r.handle(ctx, line) {
				return nil
			}
		}
	}
}

// handle processes one prompt line and reports whether to keep reading.
// A message is begun before handle returns, so lines pasted together are
// accepted or rejected in order; only the round trip runs in the background.
func (r *repl) handle(ctx context.Context, line string) bool {
	cmd, arg := parseCommand(line)
	switch cmd {
	case cmdExit:
		r.exited = true
		return false
	case cmdClear:
		r.session.Clear()
	case cmdCopy:
		id, err := copyTarget(r.session.Snapshot(), arg)
		if err != nil {
			r.notify(err.Error())
			return true
		}
		_ = r.session.Copy(id)
	case cmdUnknown:
		r.notify("Unknown command " + arg + " (try /clear, /copy [n], /exit)")
	default:
		pending, err := r.session.Begin(arg)
		switch {
		case errors.Is(err, chat.ErrBusy):
			r.notify(busyNotice)
		case err != nil:
			// blank line, redraw the prompt
			r.notify("")
		default:
			r.wg.Add(1)
			go func() {
				defer r.wg.Done()
				_ = pending.Run(ctx)
			}()
		}
	}
	return true
}

// wait blocks until every round trip started by handle has finished.
func (r *repl) wait() {
	r.wg.Wait()
}
