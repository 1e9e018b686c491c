package discovery

import (
	"net"
	"testing"

	"github.com/grandcat/zeroconf"
	"github.com/stretchr/testify/require"
)

func TestParseServiceEntry(t *testing.T) {
	tests := []struct {
		name        string
		entry       *zeroconf.ServiceEntry
		wantNil     bool
		wantIP      string
		wantPort    int
		wantVersion string
	}{
		{
			name: "nanohttp server with IPv4",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "nanohttpd on box"},
				HostName:      "box.local.",
				Port:          8080,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.4.16")},
				Text:          []string{"server=nanohttp", "version=v1.2.0", "path=/"},
			},
			wantIP:      "192.168.4.16",
			wantPort:    8080,
			wantVersion: "v1.2.0",
		},
		{
			name: "IPv6 only",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "v6"},
				HostName:      "v6.local.",
				Port:          80,
				AddrIPv6:      []net.IP{net.ParseIP("fe80::1")},
				Text:          []string{"server=nanohttp"},
			},
			wantIP:   "fe80::1",
			wantPort: 80,
		},
		{
			name: "prefers IPv4",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "both"},
				HostName:      "both.local.",
				Port:          80,
				AddrIPv4:      []net.IP{net.ParseIP("10.0.0.5")},
				AddrIPv6:      []net.IP{net.ParseIP("fe80::2")},
				Text:          []string{"server=nanohttp"},
			},
			wantIP:   "10.0.0.5",
			wantPort: 80,
		},
		{
			name: "other web server",
			entry: &zeroconf.ServiceEntry{
				HostName: "printer.local.",
				Port:     80,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.1")},
				Text:     []string{"path=/"},
			},
			wantNil: true,
		},
		{
			name: "no address",
			entry: &zeroconf.ServiceEntry{
				HostName: "box.local.",
				Port:     80,
				Text:     []string{"server=nanohttp"},
			},
			wantNil: true,
		},
		{
			name: "no port",
			entry: &zeroconf.ServiceEntry{
				HostName: "box.local.",
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.1")},
				Text:     []string{"server=nanohttp"},
			},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			instance := parseServiceEntry(tt.entry)
			if tt.wantNil {
				require.Nil(t, instance)
				return
			}
			require.NotNil(t, instance)
			require.Equal(t, tt.entry.Instance, instance.Name)
			require.Equal(t, tt.entry.HostName, instance.Hostname)
			require.Equal(t, tt.wantIP, instance.IP)
			require.Equal(t, tt.wantPort, instance.Port)
			require.Equal(t, tt.wantVersion, instance.Version)
			require.False(t, instance.DiscoveredAt.IsZero())
		})
	}
}

func TestParseServiceEntryMetadata(t *testing.T) {
	instance := parseServiceEntry(&zeroconf.ServiceEntry{
		HostName: "box.local.",
		Port:     80,
		AddrIPv4: []net.IP{net.ParseIP("10.0.0.1")},
		Text:     []string{"server=nanohttp", "flag", "a=b=c"},
	})
	require.NotNil(t, instance)
	require.Equal(t, "", instance.GetMetadata("flag"))
	require.Equal(t, "b=c", instance.GetMetadata("a"))
	require.Equal(t, "", instance.GetMetadata("missing"))
}

func TestInstance(t *testing.T) {
	instance := &Instance{Name: "demo", Hostname: "box.local.", IP: "10.0.0.5", Port: 8080}
	require.Equal(t, "demo (box.local.) at 10.0.0.5:8080", instance.String())
	require.Equal(t, "http://10.0.0.5:8080", instance.BaseURL())

	v6 := &Instance{IP: "fe80::1", Port: 80}
	require.Equal(t, "http://[fe80::1]:80", v6.BaseURL())

	require.Equal(t, "", (&Instance{}).GetMetadata("x"))
}

func TestNewScanner(t *testing.T) {
	require.Equal(t, DefaultScanTimeout, NewScanner().Timeout)
}
