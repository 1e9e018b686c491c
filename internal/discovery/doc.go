// Package discovery announces nanohttp servers over multicast DNS and finds
// them again.
//
// Servers register as "_http._tcp" services with a "server=nanohttp" TXT
// entry, which the Scanner uses to tell them apart from other web servers on
// the network.
//
// # Usage Example
//
//	ad, err := discovery.Advertise("nanohttpd on build-box", 8080)
//	if err != nil {
//	    return err
//	}
//	defer ad.Shutdown()
//
//	instances, err := discovery.NewScanner().Scan(ctx)
//
// # Network Requirements
//
// Multicast must be available on the interface and UDP port 5353 open.
package discovery
