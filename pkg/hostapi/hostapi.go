// Package hostapi is the plain-text call surface the host uses to reach the
// marker service.
//
// A call is a single line: the command followed by its arguments, separated by
// "|". Every call is answered with one JSON array line.
package hostapi

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/overlaykit/markers/internal/dispatcher"
)

// CmdTimestamp is answered by the host API itself.
const CmdTimestamp = ":TIMESTAMP:"

// ErrNoHandler is reported for commands nothing is registered for.
var ErrNoHandler = errors.New("no handler registered")

// Host answers calls by routing them through a dispatcher.
type Host struct {
	version    string
	dispatcher *dispatcher.Dispatcher
	now        func() time.Time
}

// New creates a host bound to d.
func New(d *dispatcher.Dispatcher, version string) *Host {
	if version == "" {
		version = "No version set"
	}
	return &Host{version: version, dispatcher: d, now: time.Now}
}

// Version returns the version string reported on startup.
func (h *Host) Version() string {
	return h.version
}

// Call parses one input line and returns its response line.
func (h *Host) Call(input string) string {
	input = strings.TrimRight(input, "\r\n")
	parts := strings.Split(input, "|")
	return h.CallArgs(parts[0], parts[1:])
}

// CallArgs dispatches an already split call.
func (h *Host) CallArgs(command string, args []string) string {
	command = strings.TrimSpace(command)

	if command == CmdTimestamp {
		return formatResponse(command, fmt.Sprintf("%d", h.now().UTC().UnixNano()), nil)
	}

	if h.dispatcher == nil || !h.dispatcher.HasHandler(command) {
		return formatResponse(command, nil, ErrNoHandler)
	}

	result, err := h.dispatcher.Dispatch(dispatcher.Event{
		Command:   command,
		Args:      args,
		Timestamp: h.now(),
	})
	return formatResponse(command, result, err)
}

// Serve answers every line read from r on w until r is exhausted or ctx is done.
// Blank lines are skipped.
func (h *Host) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	bw := bufio.NewWriter(w)
	defer bw.Flush()

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if _, err := bw.WriteString(h.Call(line) + "\n"); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
		if err := bw.Flush(); err != nil {
			return fmt.Errorf("flush response: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read calls: %w", err)
	}
	return nil
}

// formatResponse renders a dispatcher result as a JSON array for the host:
// ["ok", cmd], ["ok", cmd, result] or ["error", cmd, message].
func formatResponse(command string, result any, err error) string {
	cmd, _ := json.Marshal(command)
	if err != nil {
		msg, _ := json.Marshal(err.Error())
		return fmt.Sprintf(`["error", %s, %s]`, cmd, msg)
	}
	if result == nil {
		return fmt.Sprintf(`["ok", %s]`, cmd)
	}
	data, mErr := json.Marshal(result)
	if mErr != nil {
		msg, _ := json.Marshal(fmt.Sprintf("encode result: %v", mErr))
		return fmt.Sprintf(`["error", %s, %s]`, cmd, msg)
	}
	return fmt.Sprintf(`["ok", %s, %s]`, cmd, data)
}
