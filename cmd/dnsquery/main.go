package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"sort"
	"time"

	"github.com/mstock/relaydns/internal/dns"
	"github.com/mstock/relaydns/internal/resolver"
)

func main() {
	var (
		upstream = flag.String("server", "8.8.8.8:53", "DNS server HOST[:PORT]")
		name     = flag.String("name", "example.com", "Query name")
		id       = flag.Uint("id", uint(resolver.DefaultQueryID), "Transaction ID")
		timeout  = flag.Duration("timeout", 2*time.Second, "Timeout")
		quiet    = flag.Bool("quiet", false, "Suppress output (exit status indicates success)")
	)
	flag.Parse()

	answers, raw, err := resolver.Resolve(*name, *upstream,
		resolver.WithQueryID(uint16(*id)),
		resolver.WithTimeout(*timeout),
	)
	if err != nil {
		if !*quiet {
			fmt.Fprintf(os.Stderr, "dnsquery error: %v\n", err)
		}
		os.Exit(1)
	}
	if *quiet {
		return
	}

	msg, err := dns.ParseMessage(raw)
	if err != nil {
		fmt.Printf("received %d bytes (unparseable)\n", len(raw))
		return
	}

	fmt.Printf("id=%d rcode=%d answers=%d authorities=%d additionals=%d\n",
		msg.Header.ID,
		msg.Header.Flags.RCode(),
		len(msg.Answers),
		len(msg.Authorities),
		len(msg.Additionals),
	)

	rows := make([]string, 0, len(answers))
	for _, rr := range answers {
		rows = append(rows, formatRecord(rr))
	}
	sort.Strings(rows)
	for _, s := range rows {
		fmt.Println(s)
	}
}

func formatRecord(rr dns.Record) string {
	m := rr.Meta()
	name := m.Name
	if name == "" {
		name = "."
	}
	switch r := rr.(type) {
	case *dns.ARecord:
		return fmt.Sprintf("%s %d IN A %s", name, m.TTL, r.Addr.String())
	case *dns.CNAMERecord:
		return fmt.Sprintf("%s %d IN CNAME %s", name, m.TTL, r.Target)
	case *dns.OpaqueRecord:
		if m.Type == dns.TypeAAAA && len(r.Data) == 16 {
			return fmt.Sprintf("%s %d IN AAAA %s", name, m.TTL, net.IP(r.Data).String())
		}
		return fmt.Sprintf("%s %d IN %s (%d bytes)", name, m.TTL, m.Type, len(r.Data))
	}
	return fmt.Sprintf("%s %d IN %s (unparsed)", name, m.TTL, m.Type)
}
