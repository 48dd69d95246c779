package address

import (
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/miekg/dns"

	"github.com/OpenListTeam/nanosockets/status"
)

// MaxHostNameLength is the size of the buffer a reverse lookup result must
// fit, terminator included.
const MaxHostNameLength = 64

// Resolver maps hostnames to IPs and back. Lookups are synchronous and
// single-shot; nothing is cached.
type Resolver interface {
	// ResolveHostname returns the first address name resolves to.
	ResolveHostname(ctx context.Context, name string) (IP, error)
	// ReverseHostname returns the first name registered for ip.
	ReverseHostname(ctx context.Context, ip IP) (string, error)
}

// DefaultResolver uses the operating system's resolver configuration.
var DefaultResolver Resolver = &SystemResolver{}

// ResolveHostname resolves name with DefaultResolver.
func ResolveHostname(ctx context.Context, name string) (IP, error) {
	return DefaultResolver.ResolveHostname(ctx, name)
}

// ReverseHostname looks ip up with DefaultResolver.
func ReverseHostname(ctx context.Context, ip IP) (string, error) {
	return DefaultResolver.ReverseHostname(ctx, ip)
}

// SetHostName resolves name with r and stores the result, keeping the
// port. A nil r means DefaultResolver.
func (a *Address) SetHostName(ctx context.Context, r Resolver, name string) error {
	if r == nil {
		r = DefaultResolver
	}
	ip, err := r.ResolveHostname(ctx, name)
	if err != nil {
		return err
	}
	a.IP = ip
	return nil
}

// GetHostName returns the name registered for a's IP.
func (a Address) GetHostName(ctx context.Context, r Resolver) (string, error) {
	if a.IP == nil {
		return "", status.New(status.InvalidAddress, "reverse", nil)
	}
	if r == nil {
		r = DefaultResolver
	}
	return r.ReverseHostname(ctx, a.IP)
}

// SystemResolver wraps a *net.Resolver; nil means net.DefaultResolver.
type SystemResolver struct {
	Resolver *net.Resolver
}

func (r *SystemResolver) resolver() *net.Resolver {
	if r.Resolver != nil {
		return r.Resolver
	}
	return net.DefaultResolver
}

func (r *SystemResolver) ResolveHostname(ctx context.Context, name string) (IP, error) {
	op := "resolve " + strconv.Quote(name)

	// 字面量地址无需查询
	if ip, err := Parse(name); err == nil {
		return ip, nil
	}

	addrs, err := r.resolver().LookupNetIP(ctx, "ip", name)
	if err != nil {
		return nil, status.New(status.ResolutionFailed, op, err)
	}
	if len(addrs) == 0 {
		return nil, status.New(status.ResolutionFailed, op, nil)
	}
	return From16(addrs[0].As16()), nil
}

func (r *SystemResolver) ReverseHostname(ctx context.Context, ip IP) (string, error) {
	if ip == nil {
		return "", status.New(status.InvalidAddress, "reverse", nil)
	}
	op := "reverse " + ip.String()

	names, err := r.resolver().LookupAddr(ctx, ip.String())
	if err != nil {
		return "", status.New(status.ResolutionFailed, op, err)
	}
	if len(names) == 0 {
		return "", status.New(status.ResolutionFailed, op, nil)
	}
	return checkHostName(op, names[0])
}

// DNSResolver queries one nameserver directly instead of going through the
// system configuration.
type DNSResolver struct {
	// Server is host:port; a bare host gets port 53.
	Server  string
	Timeout time.Duration

	client *dns.Client
}

// NewDNSResolver returns a resolver for server. A zero timeout means 5s.
func NewDNSResolver(server string, timeout time.Duration) *DNSResolver {
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, "53")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &DNSResolver{
		Server:  server,
		Timeout: timeout,
		client:  &dns.Client{Net: "udp", Timeout: timeout},
	}
}

func (r *DNSResolver) exchange(ctx context.Context, name string, qtype uint16) (*dns.Msg, error) {
	client := r.client
	if client == nil {
		client = &dns.Client{Net: "udp", Timeout: r.Timeout}
	}

	mq := new(dns.Msg)
	mq.SetQuestion(name, qtype)
	mq.RecursionDesired = true

	mr, _, err := client.ExchangeContext(ctx, mq, r.Server)
	if err != nil {
		return nil, err
	}
	if mr.Rcode != dns.RcodeSuccess {
		return nil, errors.New(dns.RcodeToString[mr.Rcode])
	}
	return mr, nil
}

func (r *DNSResolver) ResolveHostname(ctx context.Context, name string) (IP, error) {
	op := "resolve " + strconv.Quote(name)

	if ip, err := Parse(name); err == nil {
		return ip, nil
	}

	var lastErr error
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		mr, err := r.exchange(ctx, dns.Fqdn(name), qtype)
		if err != nil {
			lastErr = err
			continue
		}
		for _, rr := range mr.Answer {
			switch v := rr.(type) {
			case *dns.A:
				if ip := FromNetIP(v.A); ip != nil {
					return ip, nil
				}
			case *dns.AAAA:
				if ip := FromNetIP(v.AAAA); ip != nil {
					return ip, nil
				}
			}
		}
	}
	return nil, status.New(status.ResolutionFailed, op, lastErr)
}

func (r *DNSResolver) ReverseHostname(ctx context.Context, ip IP) (string, error) {
	if ip == nil {
		return "", status.New(status.InvalidAddress, "reverse", nil)
	}
	op := "reverse " + ip.String()

	arpa, err := dns.ReverseAddr(ip.String())
	if err != nil {
		return "", status.New(status.ResolutionFailed, op, err)
	}
	mr, err := r.exchange(ctx, arpa, dns.TypePTR)
	if err != nil {
		return "", status.New(status.ResolutionFailed, op, err)
	}
	for _, rr := range mr.Answer {
		if ptr, ok := rr.(*dns.PTR); ok {
			return checkHostName(op, ptr.Ptr)
		}
	}
	return "", status.New(status.ResolutionFailed, op, nil)
}

func checkHostName(op, name string) (string, error) {
	name = strings.TrimSuffix(name, ".")
	if name == "" {
		return "", status.New(status.ResolutionFailed, op, nil)
	}
	if len(name) >= MaxHostNameLength {
		return "", status.New(status.BufferTooSmall, op, nil)
	}
	return name, nil
}
