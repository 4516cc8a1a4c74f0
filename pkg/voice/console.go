package voice

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// ConsoleRoom is a Room backed by a terminal. It stands in for a real
// audio room during local development: typed lines are utterances,
// spoken replies are printed. Typing "exit" or closing stdin ends the
// session. Input is read on a background goroutine so Receive can
// honor context cancellation while stdin blocks.
type ConsoleRoom struct {
	lines chan string
	errs  chan error
	out   io.Writer
}

// NewConsoleRoom creates a terminal-backed room over the given streams.
func NewConsoleRoom(in io.Reader, out io.Writer) *ConsoleRoom {
	r := &ConsoleRoom{
		lines: make(chan string),
		errs:  make(chan error, 1),
		out:   out,
	}
	go r.readLoop(in)
	return r
}

func (r *ConsoleRoom) readLoop(in io.Reader) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		r.lines <- line
	}

	if err := scanner.Err(); err != nil {
		r.errs <- err
		return
	}
	r.errs <- ErrRoomClosed
}

// Receive blocks on the next typed line. An "exit" line or EOF closes
// the room; a cancelled context returns immediately even while the
// read blocks.
func (r *ConsoleRoom) Receive(ctx context.Context) (string, error) {
	fmt.Fprint(r.out, "you> ")

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case err := <-r.errs:
		return "", err
	case line := <-r.lines:
		if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
			return "", ErrRoomClosed
		}
		return line, nil
	}
}

// Speak prints the assistant's reply.
func (r *ConsoleRoom) Speak(ctx context.Context, text string) error {
	_, err := fmt.Fprintf(r.out, "jarvis> %s\n", text)
	return err
}
