package announce

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"

	"github.com/spoofmac/spoofmac/pkg/mac"
)

var ErrNoIPv4 = errors.New("interface has no IPv4 address")

var broadcast = net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

type packetWriter interface {
	WritePacketData(data []byte) error
	Close()
}

// Announcer broadcasts gratuitous ARP frames so switches and neighbours
// learn a changed hardware address without waiting for cache expiry.
type Announcer struct {
	w     packetWriter
	iface string
}

// Open opens a pcap handle for writing frames on iface.
func Open(iface string) (*Announcer, error) {
	handle, err := pcap.OpenLive(iface, 1600, false, pcap.BlockForever)
	if err != nil {
		return nil, fmt.Errorf("open pcap on %s: %w", iface, err)
	}
	return &Announcer{w: handle, iface: iface}, nil
}

// Close closes the pcap handle.
func (a *Announcer) Close() {
	if a.w != nil {
		a.w.Close()
	}
}

// Announce sends count gratuitous ARP announcements claiming ip for hw,
// interval apart.
func (a *Announcer) Announce(ctx context.Context, hw mac.Addr, ip string, count int, interval time.Duration) error {
	frame, err := BuildGratuitousARP(hw, ip)
	if err != nil {
		return err
	}

	for i := range count {
		if i > 0 {
			if err := wait(ctx, interval); err != nil {
				return err
			}
		}
		if err := a.w.WritePacketData(frame); err != nil {
			return fmt.Errorf("send ARP announcement on %s: %w", a.iface, err)
		}
	}
	return nil
}

// BuildGratuitousARP serializes an ARP announcement: a broadcast request
// whose sender and target protocol addresses are both ip.
func BuildGratuitousARP(hw mac.Addr, ip string) ([]byte, error) {
	addr := net.ParseIP(ip).To4()
	if addr == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoIPv4, ip)
	}
	src := hw.HardwareAddr()

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{
		ComputeChecksums: true,
		FixLengths:       true,
	}

	err := gopacket.SerializeLayers(buf, opts,
		&layers.Ethernet{
			SrcMAC:       src,
			DstMAC:       broadcast,
			EthernetType: layers.EthernetTypeARP,
		},
		&layers.ARP{
			AddrType:          layers.LinkTypeEthernet,
			Protocol:          layers.EthernetTypeIPv4,
			HwAddressSize:     6,
			ProtAddressSize:   4,
			Operation:         layers.ARPRequest,
			SourceHwAddress:   []byte(src),
			SourceProtAddress: []byte(addr),
			DstHwAddress:      make([]byte, 6),
			DstProtAddress:    []byte(addr),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("serialize ARP announcement: %w", err)
	}

	return buf.Bytes(), nil
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
