package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SyntropyNet/syntropy-ping/internal/config"
	"github.com/SyntropyNet/syntropy-ping/internal/env"
	"github.com/SyntropyNet/syntropy-ping/internal/exporter"
	"github.com/SyntropyNet/syntropy-ping/internal/logger"
	"github.com/SyntropyNet/syntropy-ping/internal/report"
	"github.com/SyntropyNet/syntropy-ping/internal/resolve"
	"github.com/SyntropyNet/syntropy-ping/pkg/pingdata"
	"github.com/SyntropyNet/syntropy-ping/pkg/pinger"
)

const fullAppName = "SyntropyPing. "

// Exit codes follow ping
const (
	exitOK      = 0
	exitNoReply = 1
	exitError   = 2
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [options] host\n", env.AppName)
	flag.PrintDefaults()
}

func seconds(sec float64) time.Duration {
	return time.Duration(sec * float64(time.Second))
}

func main() {
	exitCode := exitOK
	defer func() { os.Exit(exitCode) }()

	config.Init()
	defer config.Close()

	count := flag.Uint("c", config.GetCount(), "Stop after sending `count` requests (0 - until interrupted)")
	timeout := flag.Float64("W", config.GetTimeout().Seconds(), "Time to wait for a reply, in `seconds`")
	interval := flag.Float64("i", config.GetInterval().Seconds(), "Wait `seconds` between sending requests")
	ttl := flag.Uint("t", config.GetTTL(), "Set IP time to live (IPv6 hop limit)")
	size := flag.Uint("s", config.GetSize(), "Number of data `bytes` to be sent")
	only4 := flag.Bool("4", false, "Use IPv4 only")
	only6 := flag.Bool("6", false, "Use IPv6 only")
	unprivileged := flag.Bool("u", !config.GetPrivileged(), "Use unprivileged datagram ICMP sockets")
	jsonOutput := flag.Bool("json", false, "Print JSON messages instead of text")
	showVersionAndExit := flag.Bool("version", false, "Show version and exit")
	flag.Usage = usage

	flag.Parse()
	if *showVersionAndExit {
		fmt.Printf("%s (%s):\t%s\n", fullAppName, os.Args[0], config.GetVersion())
		return
	}

	if flag.NArg() != 1 || (*only4 && *only6) || *interval <= 0 || *timeout <= 0 {
		usage()
		exitCode = exitError
		return
	}
	host := flag.Arg(0)

	family := resolve.FamilyAuto
	if *only4 {
		family = resolve.FamilyIPv4
	} else if *only6 {
		family = resolve.FamilyIPv6
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logWriters := []io.Writer{os.Stderr}
	var ws *report.WSWriter
	if url := config.GetReportURL(); url != "" {
		var err error
		ws, err = report.Dial(ctx, url, config.GetReportToken())
		if err != nil {
			logger.Warning().Println(fullAppName, "Reporting disabled:", err)
		} else {
			defer ws.Close()
			logWriters = append(logWriters, logger.NewRemoteWriter(ws))
		}
	}
	logger.SetupGlobalLoger(config.GetDebugLevel(), logWriters...)

	var resolverOpts []resolve.Option
	if ns := config.GetNameserver(); ns != "" {
		resolverOpts = append(resolverOpts, resolve.WithNameserver(ns))
	}
	addr, err := resolve.New(resolverOpts...).Resolve(ctx, host, family)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", env.AppName, host, err)
		exitCode = exitError
		return
	}

	cfg := pinger.Config{
		Count:      *count,
		Timeout:    seconds(*timeout),
		Interval:   seconds(*interval),
		TTL:        int(*ttl),
		Size:       int(*size),
		Privileged: !*unprivileged,
	}
	p, err := pinger.New(addr, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", env.AppName, err)
		exitCode = exitError
		return
	}

	var summarizer interface {
		Summary(sum pingdata.Summary) error
	}
	if *jsonOutput {
		reporter := report.New(os.Stdout, host, addr)
		p.AddClient(reporter)
		summarizer = reporter
	} else {
		printer := newTextPrinter(os.Stdout, host, addr)
		p.AddClient(printer)
		printer.Header(p.Config().Size)
		summarizer = printer
	}

	var wsReporter *report.Reporter
	if ws != nil {
		wsReporter = report.New(ws, host, addr)
		p.AddClient(wsReporter)
	}

	if port := config.GetExporterPort(); port != 0 {
		collector := exporter.NewCollector(addr.String(), p.Statistics())
		p.AddClient(collector)
		metrics, err := exporter.New(port, collector)
		if err != nil {
			logger.Error().Println(fullAppName, "Exporter:", err)
		} else {
			metrics.Run(ctx)
		}
	}

	logger.Info().Println(fullAppName, os.Args[0], config.GetVersion(), "pinging", host, addr)

	sum, err := p.Run(ctx)
	if sum.Transmitted > 0 {
		summarizer.Summary(sum)
		if wsReporter != nil {
			wsReporter.Summary(sum)
		}
	}

	var fatal *pinger.FatalError
	switch {
	case errors.As(err, &fatal):
		fmt.Fprintf(os.Stderr, "%s: %s\n", env.AppName, fatal)
		exitCode = exitError
	case err != nil:
		fmt.Fprintf(os.Stderr, "%s: %s\n", env.AppName, err)
		exitCode = exitError
	case sum.Received == 0:
		exitCode = exitNoReply
	}
}
