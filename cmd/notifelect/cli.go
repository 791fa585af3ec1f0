package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/janbjorge/notifelect/pkg/notifelect"
	"github.com/janbjorge/notifelect/pkg/pgconn"
)

func parsePort(s string) (int, error) {
	return strconv.Atoi(s)
}

func runInstall(args []string) error {
	var f connFlags
	fs := flag.NewFlagSet("install", flag.ExitOnError)
	f.register(fs)
	dryRun := fs.Bool("dry-run", false, "print the SQL without applying it")
	if err := fs.Parse(args); err != nil {
		return err
	}

	builder := notifelect.NewQueryBuilder(f.prefix)
	fmt.Println(builder.InstallSQL())
	if *dryRun {
		return nil
	}

	cfg, err := f.config()
	if err != nil {
		return err
	}
	conn, err := pgconn.Connect(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer conn.Close(context.Background())

	queries := notifelect.NewQueries(conn, builder)
	return queries.Install(context.Background())
}

func runUninstall(args []string) error {
	var f connFlags
	fs := flag.NewFlagSet("uninstall", flag.ExitOnError)
	f.register(fs)
	dryRun := fs.Bool("dry-run", false, "print the SQL without applying it")
	if err := fs.Parse(args); err != nil {
		return err
	}

	builder := notifelect.NewQueryBuilder(f.prefix)
	fmt.Println(builder.UninstallSQL())
	if *dryRun {
		return nil
	}

	cfg, err := f.config()
	if err != nil {
		return err
	}
	conn, err := pgconn.Connect(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer conn.Close(context.Background())

	queries := notifelect.NewQueries(conn, builder)
	return queries.Uninstall(context.Background())
}

func runListen(args []string) error {
	var f connFlags
	fs := flag.NewFlagSet("listen", flag.ExitOnError)
	f.register(fs)
	channel := fs.String("channel", "", "NOTIFY channel to listen on for debug purposes (defaults to the computed channel name)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	builder := notifelect.NewQueryBuilder(f.prefix)
	ch := *channel
	if ch == "" {
		ch = string(builder.Channel)
	}

	cfg, err := f.config()
	if err != nil {
		return err
	}
	ctx := context.Background()
	conn, err := pgconn.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	if err := conn.Subscribe(ctx, ch, func(payload string) {
		msg, err := notifelect.Decode([]byte(payload))
		if err != nil {
			log.Printf("malformed payload on %s: %v", ch, err)
			return
		}
		fmt.Printf("%+v\n", msg)
	}); err != nil {
		return err
	}

	log.Printf("listening on %s (ctrl-c to exit)", ch)
	select {} // runs forever
}

// elapsedSince is a small helper used by the simulate subcommand's logging.
func elapsedSince(t time.Time) time.Duration {
	return time.Since(t).Round(time.Millisecond)
}
