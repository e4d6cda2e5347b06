// Command crashkeep-demo is a minimal instrumented program.
//
// On every launch it installs crash capture and prints the reports harvested
// from the previous run. Given a crash mode it then dies on purpose so that
// the next launch has something to harvest:
//
//	crashkeep-demo panic            # unrecovered panic on the main goroutine
//	crashkeep-demo goroutine-panic  # unrecovered panic on a worker goroutine
//	crashkeep-demo abort            # SIGABRT sent to itself
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"syscall"
	"time"

	"github.com/blackwell-systems/crashkeep/internal/config"
	"github.com/blackwell-systems/crashkeep/internal/crash"
	"github.com/blackwell-systems/crashkeep/internal/crashstore"
	"github.com/blackwell-systems/crashkeep/internal/panics"
)

func main() {
	defer panics.Recover()

	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "crashkeep-demo: %v\n", err)
		os.Exit(1)
	}

	logger := log.New(io.Discard, "", 0)
	if cfg.Log.Verbose {
		logger = log.New(os.Stderr, "crashkeep-demo: ", 0)
	}

	store := crashstore.New(config.CacheRoot(cfg.Cache.Root), crashstore.SystemClock{}, crashstore.WithLogger(logger))
	m := crash.New(store, crash.WithLogger(logger))
	m.Install(printReports)
	m.Wait()

	mode := ""
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}

	switch mode {
	case "":
		if dir, err := store.Dir(crashstore.Signal); err == nil {
			fmt.Printf("Crash capture installed; reports go under %s\n", dir)
		}
	case "panic":
		panic(errors.New("crashkeep-demo: requested panic"))
	case "goroutine-panic":
		panics.Go(func() {
			var counts map[string]int
			counts["boom"]++
		})
		waitForCrash()
	case "abort":
		p, err := os.FindProcess(os.Getpid())
		if err == nil {
			err = p.Signal(syscall.SIGABRT)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "crashkeep-demo: %v\n", err)
			os.Exit(1)
		}
		waitForCrash()
	default:
		fmt.Fprintf(os.Stderr, "usage: crashkeep-demo [panic|goroutine-panic|abort]\n")
		os.Exit(2)
	}
}

// printReports prints every report harvested from the previous run.
func printReports(reports []string) {
	fmt.Printf("Harvested %d crash report(s) from the previous run:\n", len(reports))
	for i, r := range reports {
		fmt.Printf("\n--- report %d ---\n%s\n", i+1, r)
	}
	fmt.Println()
}

func waitForCrash() {
	time.Sleep(10 * time.Second)
	fmt.Fprintln(os.Stderr, "crashkeep-demo: the requested crash did not terminate the process")
	os.Exit(1)
}
