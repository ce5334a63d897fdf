package server

import (
	"fmt"
	"os"

	"github.com/hashicorp/mdns"

	"github.com/matzehuels/spacetime/pkg/buildinfo"
)

// ServiceType is the DNS-SD service type the server advertises.
const ServiceType = "_spacetime._tcp"

// Advertise announces the server on the local network via mDNS until the
// returned server is shut down.
func Advertise(port int) (*mdns.Server, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("get hostname: %w", err)
	}

	service, err := mdns.NewMDNSService(host, ServiceType, "", "", port, nil, buildinfo.TXTRecords())
	if err != nil {
		return nil, fmt.Errorf("create mDNS service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("start mDNS server: %w", err)
	}
	return server, nil
}
