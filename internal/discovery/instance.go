package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Instance is a nanohttp server found on the local network
type Instance struct {
	// Name is the mDNS instance name (e.g., "nanohttpd on build-box")
	Name string

	// Hostname is the mDNS hostname (e.g., "build-box.local.")
	Hostname string

	// IP is the first advertised address, IPv4 preferred
	IP string

	Port int

	// Version is the server version from the TXT record
	Version string

	// Metadata holds every TXT record entry
	Metadata map[string]string

	DiscoveredAt time.Time
}

func (i *Instance) String() string {
	return fmt.Sprintf("%s (%s) at %s", i.Name, i.Hostname, net.JoinHostPort(i.IP, strconv.Itoa(i.Port)))
}

// BaseURL returns the HTTP base URL of the instance
func (i *Instance) BaseURL() string {
	return "http://" + net.JoinHostPort(i.IP, strconv.Itoa(i.Port))
}

// GetMetadata retrieves a TXT value by key, or returns empty string if not found
func (i *Instance) GetMetadata(key string) string {
	if i.Metadata == nil {
		return ""
	}
	return i.Metadata[key]
}
