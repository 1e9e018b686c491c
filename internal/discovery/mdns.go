package discovery

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/grandcat/zeroconf"

	"github.com/muurk/nanohttp/internal/version"
)

const (
	// ServiceType is the mDNS service type nanohttp servers advertise
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for discovery
	DefaultScanTimeout = 5 * time.Second

	// serverKey is the TXT key that marks a nanohttp server among other
	// _http._tcp services
	serverKey  = "server"
	versionKey = "version"
)

// Advertisement is a running mDNS announcement
type Advertisement struct {
	server *zeroconf.Server
}

// Advertise announces a server listening on port under the given instance
// name. Extra TXT entries are added as given ("key=value").
func Advertise(name string, port int, txt ...string) (*Advertisement, error) {
	records := append([]string{
		serverKey + "=" + version.Product,
		versionKey + "=" + version.Version,
		"path=/",
	}, txt...)

	server, err := zeroconf.Register(name, ServiceType, ServiceDomain, port, records, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to register mDNS service")
	}
	return &Advertisement{server: server}, nil
}

// Shutdown withdraws the announcement
func (a *Advertisement) Shutdown() {
	a.server.Shutdown()
}

// Scanner browses for nanohttp servers
type Scanner struct {
	// Timeout is the maximum time to wait for answers
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// Scan collects every nanohttp server that answers before the timeout
func (s *Scanner) Scan(ctx context.Context) ([]*Instance, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	collected := make(chan []*Instance, 1)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create mDNS resolver")
	}

	// the resolver closes entries once ctx is done
	go func() {
		var found []*Instance
		for entry := range entries {
			if instance := parseServiceEntry(entry); instance != nil {
				found = append(found, instance)
			}
		}
		collected <- found
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, errors.Wrap(err, "failed to browse for mDNS services")
	}

	<-ctx.Done()
	select {
	case found := <-collected:
		return found, nil
	case <-time.After(time.Second):
		return nil, errors.New("mDNS resolver did not finish")
	}
}

// WaitFor returns the first server whose instance name matches
func (s *Scanner) WaitFor(ctx context.Context, name string) (*Instance, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	match := make(chan *Instance, 1)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create mDNS resolver")
	}

	go func() {
		for entry := range entries {
			instance := parseServiceEntry(entry)
			if instance != nil && instance.Name == name {
				select {
				case match <- instance:
				default:
				}
				cancel()
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, errors.Wrap(err, "failed to browse for mDNS services")
	}

	select {
	case instance := <-match:
		return instance, nil
	case <-ctx.Done():
		select {
		case instance := <-match:
			return instance, nil
		default:
		}
		return nil, errors.Newf("server %q not found within timeout", name)
	}
}

// parseServiceEntry converts a zeroconf service entry to an Instance.
// Returns nil for services that are not nanohttp servers.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Instance {
	metadata := make(map[string]string, len(entry.Text))
	for _, txt := range entry.Text {
		key, value, _ := strings.Cut(txt, "=")
		metadata[key] = value
	}
	if metadata[serverKey] != version.Product {
		return nil
	}

	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" || entry.Port == 0 {
		return nil
	}

	return &Instance{
		Name:         entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         entry.Port,
		Version:      metadata[versionKey],
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}
