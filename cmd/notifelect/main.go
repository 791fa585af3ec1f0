// Command notifelect installs, uninstalls, and debugs the shared PostgreSQL
// sequence and NOTIFY channel the notifelect election core consumes. It is
// an external collaborator of the core — the actual election coordinator
// lives in pkg/notifelect.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage())
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "install":
		err = runInstall(os.Args[2:])
	case "uninstall":
		err = runUninstall(os.Args[2:])
	case "listen":
		err = runListen(os.Args[2:])
	case "simulate":
		err = runSimulate(os.Args[2:])
	default:
		fmt.Fprintln(os.Stderr, usage())
		os.Exit(2)
	}

	if err != nil {
		log.Fatalf("notifelect: %v", err)
	}
}

func usage() string {
	return "usage: notifelect <install|uninstall|listen|simulate> [flags]"
}
