// Package discovery advertises the HTTP API on the local network over mDNS.
package discovery

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"

	"github.com/grandcat/zeroconf"

	"github.com/jmylchreest/radiotoggle/internal/errors"
)

const (
	// ServiceType is the DNS-SD service type the daemon registers
	ServiceType = "_radiotoggle._tcp"

	// ServiceDomain is the mDNS domain
	ServiceDomain = "local."
)

// Advertiser holds a live mDNS registration.
type Advertiser struct {
	server *zeroconf.Server
	logger *slog.Logger
}

// Service describes what gets advertised.
type Service struct {
	// Instance defaults to "radiotoggled on <hostname>"
	Instance string
	Port     int
	Version  string
	Path     string
	// Auth is true when protected routes require an API key
	Auth bool
}

// TXT returns the DNS-SD text records for s.
func (s Service) TXT() []string {
	path := s.Path
	if path == "" {
		path = "/api/v1"
	}
	txt := []string{"path=" + path, "auth=" + strconv.FormatBool(s.Auth)}
	if s.Version != "" {
		txt = append(txt, "version="+s.Version)
	}
	return txt
}

func (s Service) instance() string {
	if s.Instance != "" {
		return s.Instance
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "radiotoggled"
	}
	return "radiotoggled on " + host
}

// Advertise registers svc on every multicast interface.
func Advertise(svc Service, logger *slog.Logger) (*Advertiser, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if svc.Port <= 0 || svc.Port > 65535 {
		return nil, errors.InvalidInputf("invalid port %d", svc.Port)
	}

	instance := svc.instance()
	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, svc.Port, svc.TXT(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}
	logger.Info("Advertising HTTP API", "instance", instance, "service", ServiceType, "port", svc.Port)
	return &Advertiser{server: server, logger: logger}, nil
}

// Shutdown withdraws the registration.
func (a *Advertiser) Shutdown() {
	if a == nil || a.server == nil {
		return
	}
	a.server.Shutdown()
	a.logger.Debug("mDNS advertisement withdrawn")
}

// PortFromAddress extracts the TCP port from a listen address such as
// ":8080" or "0.0.0.0:8080".
func PortFromAddress(addr string) (int, error) {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, errors.InvalidInputf("listen address %q: %v", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return 0, errors.InvalidInputf("listen address %q has no usable port", addr)
	}
	return port, nil
}
