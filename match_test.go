package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"othello-arbiter/config"
	"othello-arbiter/engine"
	"othello-arbiter/engine/session"
	"othello-arbiter/sgf"
	"othello-arbiter/ui"
)

func testOptions(t *testing.T, ports chan<- int) matchOptions {
	t.Helper()
	cfg := config.DefaultConfig
	cfg.Record.Dir = t.TempDir()
	opts, err := matchOptionsFrom(&cfg)
	require.NoError(t, err)
	opts.Port = 0
	opts.Attempts = 1
	opts.Launch = false
	opts.OnListen = func(port int) { ports <- port }
	return opts
}

// scriptedPeer connects to port and plays steps: each step sends its line,
// if any, then reads the given number of lines. It returns everything read.
func scriptedPeer(t *testing.T, port int, steps []peerStep) <-chan []string {
	t.Helper()
	got := make(chan []string, 1)
	go func() {
		var received []string
		defer func() { got <- received }()

		conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err != nil {
			return
		}
		defer conn.Close()
		conn.SetDeadline(time.Now().Add(5 * time.Second))
		r := bufio.NewReader(conn)
		for _, step := range steps {
			if step.send != "" {
				fmt.Fprintf(conn, "%s\n", step.send)
			}
			for i := 0; i < step.read; i++ {
				line, err := r.ReadString('\n')
				if err != nil {
					return
				}
				received = append(received, strings.TrimSpace(line))
			}
		}
		// Drain until the arbiter hangs up.
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			received = append(received, strings.TrimSpace(line))
		}
	}()
	return got
}

type peerStep struct {
	send string
	read int
}

func TestRunMatchOverTCP(t *testing.T) {
	ports := make(chan int, 1)
	opts := testOptions(t, ports)

	pr, pw := io.Pipe()
	console := ui.NewConsole(pr, io.Discard)

	type outcome struct {
		res session.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := runMatch(context.Background(), opts, console, zap.NewNop().Sugar(), console)
		done <- outcome{res, err}
	}()

	port := <-ports
	got := scriptedPeer(t, port, []peerStep{
		{send: "OPEN reversi", read: 1},
		{read: 1},                  // our D3
		{send: "MOVE C3", read: 1}, // ACK
	})

	// The console answers the two local prompts.
	go func() {
		fmt.Fprintln(pw, "d3")
		fmt.Fprintln(pw, "x")
	}()

	var out outcome
	select {
	case out = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("match did not finish")
	}
	require.NoError(t, out.err)
	assert.Equal(t, session.ReasonLocalQuit, out.res.Reason)
	assert.Equal(t, "reversi", out.res.PeerName)

	assert.Equal(t, []string{
		"START WHITE user 6000000",
		"MOVE D3",
		"ACK 6000000",
		"END",
		"BYE",
	}, <-got)

	games, err := sgf.ListGames(opts.RecordDir)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "Void", games[0].Result)
	assert.Equal(t, "user", games[0].PlayerBlack)
	assert.Equal(t, "reversi", games[0].PlayerWhite)
	assert.Equal(t, 2, games[0].MoveCount)
}

func TestRunMatchCancelledWhileWaiting(t *testing.T) {
	ports := make(chan int, 1)
	opts := testOptions(t, ports)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := runMatch(ctx, opts, ui.NewConsole(strings.NewReader(""), io.Discard), zap.NewNop().Sugar())
		done <- err
	}()
	<-ports
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("runMatch did not return")
	}
}

func TestRunMatchPeerExitsEarly(t *testing.T) {
	ports := make(chan int, 1)
	opts := testOptions(t, ports)
	opts.Launch = true
	opts.PeerPath = "sh"
	opts.PeerArgs = []string{"-c", "exit 0"}

	_, err := runMatch(context.Background(), opts, ui.NewConsole(strings.NewReader(""), io.Discard), zap.NewNop().Sugar())
	assert.ErrorIs(t, err, errPeerExited)
}

func TestMatchOptionsFrom(t *testing.T) {
	cfg := config.DefaultConfig
	cfg.Match.LocalColor = "white"
	cfg.Record.Enabled = false

	opts, err := matchOptionsFrom(&cfg)
	require.NoError(t, err)
	assert.Equal(t, 3000, opts.Port)
	assert.Equal(t, "./target/release/reversi", opts.PeerPath)
	assert.Empty(t, opts.RecordDir)
	assert.Equal(t, "WHITE", strings.ToUpper(opts.Match.LocalColor.String()))

	cfg.Record.Enabled = true
	cfg.Record.Dir = "/tmp/records"
	opts, err = matchOptionsFrom(&cfg)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/records", opts.RecordDir)
}

func TestObservers(t *testing.T) {
	c := ui.NewConsole(strings.NewReader(""), io.Discard)
	assert.Len(t, observers(c, nil), 1)
	var _ engine.Observer = c
}

func TestNewLogger(t *testing.T) {
	cfg := config.DefaultConfig
	cfg.Log.File = filepath.Join(t.TempDir(), "arbiter.log")
	cfg.Log.Level = "debug"

	log, err := newLogger(&cfg)
	require.NoError(t, err)
	log.Debugw("hello", "k", "v")
	log.Sync()

	data, err := os.ReadFile(cfg.Log.File)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"k":"v"`)

	cfg.Log.Level = "loud"
	_, err = newLogger(&cfg)
	assert.Error(t, err)
}
