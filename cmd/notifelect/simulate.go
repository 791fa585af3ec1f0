package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/janbjorge/notifelect/pkg/notifelect"
	"github.com/janbjorge/notifelect/pkg/pgconn"
)

// runSimulate spawns N in-process Coordinators against the same database,
// each after a random startup jitter, and logs winner transitions. It is
// operator tooling for manually reproducing multi-peer election scenarios
// without standing up N separate OS processes.
func runSimulate(args []string) error {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	var f connFlags
	f.register(fs)
	namespace := fs.String("namespace", "simulate", "election namespace shared by all simulated peers")
	interval := fs.Duration("interval", notifelect.DefaultElectionInterval, "election interval")
	timeout := fs.Duration("timeout", notifelect.DefaultElectionTimeout, "election timeout")
	jitter := fs.Duration("jitter", 2*time.Second, "max random startup delay per peer")

	countArg, rest, err := extractPeerCount(fs, args)
	if err != nil {
		return err
	}
	if err := fs.Parse(rest); err != nil {
		return err
	}
	n, err := strconv.Atoi(countArg)
	if err != nil || n < 1 {
		return fmt.Errorf("simulate: invalid peer count %q", countArg)
	}

	cfg, err := f.config()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("simulate: received shutdown signal")
		cancel()
	}()

	builder := notifelect.NewQueryBuilder(f.prefix)
	start := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(peer int) {
			defer wg.Done()
			runSimulatedPeer(ctx, peer, cfg, builder, notifelect.Settings{
				Namespace:        notifelect.Namespace(*namespace),
				ElectionInterval: *interval,
				ElectionTimeout:  *timeout,
			}, *jitter, start)
		}(i)
	}
	wg.Wait()
	return nil
}

func runSimulatedPeer(
	ctx context.Context,
	peer int,
	cfg pgconn.Config,
	builder notifelect.QueryBuilder,
	settings notifelect.Settings,
	maxJitter time.Duration,
	start time.Time,
) {
	if maxJitter > 0 {
		select {
		case <-time.After(time.Duration(rand.Int63n(int64(maxJitter)))):
		case <-ctx.Done():
			return
		}
	}

	conn, err := pgconn.Connect(ctx, cfg)
	if err != nil {
		log.Printf("peer %d: connect failed: %v", peer, err)
		return
	}
	defer func() { _ = conn.Close(context.Background()) }()

	queries := notifelect.NewQueries(conn, builder)
	coordinator := notifelect.NewCoordinator(queries, settings)

	outcome, err := coordinator.Start(ctx)
	if err != nil {
		log.Printf("peer %d: start failed: %v", peer, err)
		return
	}
	defer func() {
		if err := coordinator.Stop(context.Background()); err != nil {
			log.Printf("peer %d: stop: %v", peer, err)
		}
	}()

	log.Printf("peer %d: joined as process %s at t=%s", peer, coordinator.ProcessID(), elapsedSince(start))

	last := outcome.Winner()
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if current := outcome.Winner(); current != last {
				log.Printf("peer %d: winner=%v at t=%s", peer, current, elapsedSince(start))
				last = current
			}
		}
	}
}

// extractPeerCount pulls the first non-flag argument out of args (the peer
// count) and returns it along with the remaining arguments suitable for
// flag.FlagSet.Parse, so `simulate 5 --namespace x` and
// `simulate --namespace x 5` both work despite the stdlib flag package's
// usual flags-before-positionals rule.
func extractPeerCount(fs *flag.FlagSet, args []string) (count string, rest []string, err error) {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if len(a) == 0 || a[0] != '-' {
			rest = append(append([]string{}, args[:i]...), args[i+1:]...)
			return a, rest, nil
		}
		// A defined flag written without "=" takes the next argument as its value.
		if name := strings.TrimLeft(a, "-"); !strings.Contains(name, "=") && fs.Lookup(name) != nil {
			i++
		}
	}
	return "", nil, fmt.Errorf("simulate: missing peer count, usage: notifelect simulate N [flags]")
}
