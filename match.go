package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"othello-arbiter/config"
	"othello-arbiter/engine"
	"othello-arbiter/engine/peer"
	"othello-arbiter/engine/session"
	"othello-arbiter/sgf"
)

// peerGrace is how long a launched peer gets to exit after the match.
const peerGrace = 2 * time.Second

var errPeerExited = errors.New("peer engine exited before connecting")

// matchOptions is everything runMatch needs for one session.
type matchOptions struct {
	Match     engine.MatchConfig
	Host      string
	Port      int
	Attempts  int
	PeerPath  string
	PeerArgs  []string
	Launch    bool
	RecordDir string // empty disables the game record

	// OnListen, if set, is called with the bound port before waiting for the peer.
	OnListen func(port int)
}

func matchOptionsFrom(cfg *config.Config) (matchOptions, error) {
	m, err := cfg.MatchSettings()
	if err != nil {
		return matchOptions{}, err
	}
	opts := matchOptions{
		Match:    m,
		Host:     cfg.Match.Host,
		Port:     cfg.Match.Port,
		Attempts: cfg.Match.PortAttempts,
		PeerPath: cfg.Peer.Path,
		PeerArgs: cfg.Peer.Args,
		Launch:   cfg.Peer.Launch,
	}
	if cfg.Record.Enabled {
		opts.RecordDir = cfg.RecordDir()
	}
	return opts, nil
}

// runMatch listens for the peer, optionally launches it, and plays one
// session with local as the local side.
func runMatch(ctx context.Context, opts matchOptions, local engine.Participant, log *zap.SugaredLogger, observers ...engine.Observer) (session.Result, error) {
	id := uuid.New().String()
	log = log.With("session", id)

	ln, port, err := peer.Listen(opts.Host, opts.Port, opts.Attempts, log)
	if err != nil {
		return session.Result{}, err
	}
	defer ln.Close()
	if opts.OnListen != nil {
		opts.OnListen(port)
	}

	acceptCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if opts.Launch {
		proc, err := peer.Launch(opts.PeerPath, opts.PeerArgs, opts.Host, port, log)
		if err != nil {
			return session.Result{}, err
		}
		defer func() {
			if err := proc.Close(peerGrace); err != nil {
				log.Debugw("peer engine exit", "error", err)
			}
		}()
		go func() {
			select {
			case <-proc.Done():
				cancel()
			case <-acceptCtx.Done():
			}
		}()
	}

	nc, err := peer.Accept(acceptCtx, ln)
	if err != nil {
		if ctx.Err() == nil && acceptCtx.Err() != nil {
			err = errPeerExited
		}
		return session.Result{}, fmt.Errorf("accept peer: %w", err)
	}
	ln.Close()
	log.Infow("peer connected", "remote", nc.RemoteAddr().String())

	sessOpts := []session.Option{session.WithLogger(log)}
	for _, o := range observers {
		sessOpts = append(sessOpts, session.WithObserver(o))
	}
	if opts.RecordDir != "" {
		rec, err := sgf.NewGameRecord(opts.RecordDir, id)
		if err != nil {
			log.Warnw("game record disabled", "error", err)
		} else {
			defer rec.Close()
			log.Infow("recording game", "file", rec.FilePath)
			sessOpts = append(sessOpts, session.WithRecorder(rec))
		}
	}

	s := session.New(opts.Match, peer.NewConn(nc, log), local, sessOpts...)
	return s.Run(ctx)
}
