package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Dynamic specifies SOCKS-style application-level forwarding: ssh acts as a
// SOCKS server on a local port (`-D`).
type Dynamic struct {
	BindAddress string `yaml:"bind_address,omitempty" json:"bind_address,omitempty"`
	Port        int    `yaml:"port" json:"port"`
}

// Address renders the -D argument: "[bind_address:]port", with the bracketed
// bind prefix omitted entirely when no bind address is configured.
func (d Dynamic) Address() string {
	if d.BindAddress != "" {
		return fmt.Sprintf("[%s:]%d", d.BindAddress, d.Port)
	}
	return strconv.Itoa(d.Port)
}

// Local specifies forwarding of a local TCP port or Unix socket to a remote
// host:port or socket (`-L`). Exactly one of the field combinations accepted
// by Validate must be fully populated.
type Local struct {
	Port         int    `yaml:"port,omitempty" json:"port,omitempty"`
	LocalSocket  string `yaml:"local_socket,omitempty" json:"local_socket,omitempty"`
	Host         string `yaml:"host,omitempty" json:"host,omitempty"`
	RemoteSocket string `yaml:"remote_socket,omitempty" json:"remote_socket,omitempty"`
	HostPort     int    `yaml:"host_port,omitempty" json:"host_port,omitempty"`
	BindAddress  string `yaml:"bind_address,omitempty" json:"bind_address,omitempty"`
}

// localField identifies one settable field of a Local spec.
type localField int

const (
	fieldPort localField = iota
	fieldLocalSocket
	fieldHost
	fieldRemoteSocket
	fieldHostPort
	fieldBindAddress
)

// combinations lists the accepted sets of populated fields, mirroring the
// forms of the ssh -L argument:
//
//	local_socket:remote_socket
//	local_socket:host:host_port
//	port:host:host_port
//	port:remote_socket
//	[bind_address:]port:host:host_port
//	[bind_address:]port:remote_socket
var combinations = [][]localField{
	{fieldLocalSocket, fieldRemoteSocket},
	{fieldLocalSocket, fieldHost, fieldHostPort},
	{fieldPort, fieldHost, fieldHostPort},
	{fieldPort, fieldRemoteSocket},
	{fieldBindAddress, fieldPort, fieldHost, fieldHostPort},
	{fieldBindAddress, fieldPort, fieldRemoteSocket},
}

func (l Local) populated() map[localField]bool {
	set := map[localField]bool{}
	if l.Port != 0 {
		set[fieldPort] = true
	}
	if l.LocalSocket != "" {
		set[fieldLocalSocket] = true
	}
	if l.Host != "" {
		set[fieldHost] = true
	}
	if l.RemoteSocket != "" {
		set[fieldRemoteSocket] = true
	}
	if l.HostPort != 0 {
		set[fieldHostPort] = true
	}
	if l.BindAddress != "" {
		set[fieldBindAddress] = true
	}
	return set
}

// match returns the combination whose field set equals the populated fields,
// or nil when the populated fields form no accepted combination.
func (l Local) match() []localField {
	set := l.populated()
	for _, combo := range combinations {
		if len(combo) != len(set) {
			continue
		}
		ok := true
		for _, f := range combo {
			if !set[f] {
				ok = false
				break
			}
		}
		if ok {
			return combo
		}
	}
	return nil
}

// Validate checks that the populated fields form exactly one accepted
// forwarding combination and that any ports are in range.
func (l Local) Validate() error {
	if l.Port != 0 {
		if err := ValidatePort(l.Port); err != nil {
			return fmt.Errorf("invalid local port: %w", err)
		}
	}
	if l.HostPort != 0 {
		if err := ValidatePort(l.HostPort); err != nil {
			return fmt.Errorf("invalid host port: %w", err)
		}
	}
	if l.match() == nil {
		return fmt.Errorf("invalid combination of local forwarding fields")
	}
	return nil
}

// Address renders the -L argument for the matched combination, joining the
// populated segments with colons. The bind address renders as a "[addr:]"
// prefix rather than a separate segment.
func (l Local) Address() string {
	combo := l.match()
	if combo == nil {
		return ""
	}
	var bind string
	var segments []string
	for _, f := range combo {
		switch f {
		case fieldBindAddress:
			bind = fmt.Sprintf("[%s:]", l.BindAddress)
		case fieldPort:
			segments = append(segments, strconv.Itoa(l.Port))
		case fieldLocalSocket:
			segments = append(segments, l.LocalSocket)
		case fieldHost:
			segments = append(segments, l.Host)
		case fieldRemoteSocket:
			segments = append(segments, l.RemoteSocket)
		case fieldHostPort:
			segments = append(segments, strconv.Itoa(l.HostPort))
		}
	}
	return bind + strings.Join(segments, ":")
}

// Tunnel is one named forwarding configuration. Exactly one of Dynamic or
// Local must be set; config load enforces this.
type Tunnel struct {
	Name     string   `yaml:"name" json:"name"`
	Group    string   `yaml:"group,omitempty" json:"group,omitempty"`
	Hostname string   `yaml:"hostname" json:"hostname"`
	Dynamic  *Dynamic `yaml:"dynamic,omitempty" json:"dynamic,omitempty"`
	Local    *Local   `yaml:"local,omitempty" json:"local,omitempty"`
}

// ForwardArg returns the ssh forwarding flag and its address argument.
func (t Tunnel) ForwardArg() (flag, address string) {
	if t.Dynamic != nil {
		return "-D", t.Dynamic.Address()
	}
	if t.Local != nil {
		return "-L", t.Local.Address()
	}
	return "", ""
}

// TunnelGroup is a named selection of tunnels. It has no OS-level meaning;
// grouping exists purely so batches can be selected by one flag.
type TunnelGroup struct {
	Name    string   `yaml:"name" json:"name"`
	Tunnels []Tunnel `yaml:"tunnels,omitempty" json:"tunnels,omitempty"`
}

const (
	MinPort = 1
	MaxPort = 65535
)

// ValidatePort checks if port is in valid range (1-65535).
func ValidatePort(port int) error {
	if port < MinPort || port > MaxPort {
		return fmt.Errorf("port %d out of range (must be %d-%d)", port, MinPort, MaxPort)
	}
	return nil
}
