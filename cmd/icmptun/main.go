/*
 * NETCAP - Traffic Analysis Framework
 * Copyright (c) 2017-2020 Philipp Mieden <dreadl0ck [at] protonmail [dot] ch>
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES
 * WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF
 * MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR
 * ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES
 * WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN
 * ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF
 * OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/dreadl0ck/icmptun/agents/proxy"
	"github.com/dreadl0ck/icmptun/agents/sniffer"
	"github.com/dreadl0ck/icmptun/internal/tunnel"
	"golang.org/x/sys/unix"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage:")
	fmt.Fprintln(os.Stderr, "  icmptun icmp-tcp <meta_interface> <clear_interface> <config.json>")
	fmt.Fprintln(os.Stderr, "  icmptun sniff <interface> [<bpf-filter>] [-audit <dir>] [-csv] [-reassemble] [-vv]")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, unix.SIGTERM)
	defer stop()

	if err := handleArgs(ctx, os.Args); err != nil {
		log.Fatalf("icmptun: %v", err)
	}
}

func handleArgs(ctx context.Context, args []string) error {
	switch args[1] {
	case "icmp-tcp":
		return runIcmpTCP(ctx, args)
	case "sniff":
		return runSniff(ctx, args)
	default:
		usage()
		return fmt.Errorf("unknown agent %q", args[1])
	}
}

func runIcmpTCP(ctx context.Context, args []string) error {
	if len(args) < 5 {
		usage()
		return fmt.Errorf("icmp-tcp requires <meta_interface> <clear_interface> <config.json>")
	}
	metaIface, clearIface, configPath := args[2], args[3], args[4]

	raw, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	tun, err := tunnel.LoadConfig(raw)
	if err != nil {
		return err
	}

	return proxy.OpenWith(ctx, tun, metaIface, clearIface)
}

func runSniff(ctx context.Context, args []string) error {
	if len(args) < 3 {
		usage()
		return fmt.Errorf("sniff requires <interface>")
	}
	opts := sniffer.Options{Iface: args[2]}

	rest := args[3:]
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case "-audit":
			i++
			if i >= len(rest) {
				usage()
				return fmt.Errorf("-audit requires a directory")
			}
			opts.AuditDir = rest[i]
		case "-csv":
			opts.AuditCSV = true
		case "-reassemble":
			opts.Reassemble = true
		case "-vv":
			opts.Verbose = true
		default:
			if opts.Filter != "" {
				usage()
				return fmt.Errorf("unexpected argument %q", rest[i])
			}
			opts.Filter = rest[i]
		}
	}

	return sniffer.Run(ctx, opts)
}
