package config

import (
	"encoding/binary"
	"fmt"
	"net/netip"
)

// ValidateCIDR checks that s is an IPv4 prefix in canonical form.
func ValidateCIDR(s string) error {
	prefix, err := netip.ParsePrefix(s)
	if err != nil {
		return fmt.Errorf("invalid CIDR %q: %w", s, err)
	}
	if !prefix.Addr().Is4() {
		return fmt.Errorf("only IPv4 CIDRs are supported, got %s", s)
	}
	if prefix.Masked() != prefix {
		return fmt.Errorf("CIDR %s has host bits set, did you mean %s", s, prefix.Masked())
	}
	return nil
}

// CIDRsOverlap reports whether two prefixes share any address.
func CIDRsOverlap(a, b string) (bool, error) {
	pa, err := netip.ParsePrefix(a)
	if err != nil {
		return false, fmt.Errorf("invalid CIDR %q: %w", a, err)
	}
	pb, err := netip.ParsePrefix(b)
	if err != nil {
		return false, fmt.Errorf("invalid CIDR %q: %w", b, err)
	}
	return pa.Masked().Overlaps(pb.Masked()), nil
}

// CIDRContains reports whether inner lies entirely inside outer.
func CIDRContains(outer, inner string) (bool, error) {
	po, err := netip.ParsePrefix(outer)
	if err != nil {
		return false, fmt.Errorf("invalid CIDR %q: %w", outer, err)
	}
	pi, err := netip.ParsePrefix(inner)
	if err != nil {
		return false, fmt.Errorf("invalid CIDR %q: %w", inner, err)
	}
	return po.Bits() <= pi.Bits() && po.Masked().Contains(pi.Masked().Addr()), nil
}

// CIDRSubnet returns subnet netnum of prefix after extending its mask by
// newbits, following Terraform's cidrsubnet. EKS subnets left empty are
// derived with it.
func CIDRSubnet(prefix string, newbits, netnum int) (string, error) {
	p, err := ipv4Prefix(prefix)
	if err != nil {
		return "", err
	}
	bits := p.Bits() + newbits
	if newbits < 0 || bits > 32 {
		return "", fmt.Errorf("prefix extension of %d bits is too large for %s", newbits, prefix)
	}
	if netnum < 0 || netnum >= 1<<newbits {
		return "", fmt.Errorf("subnet number %d exceeds max subnets %d", netnum, 1<<newbits)
	}
	return netip.PrefixFrom(offsetAddr(p.Addr(), uint64(netnum)<<(32-bits)), bits).String(), nil
}

// CIDRHost returns host hostnum of prefix, counting from the end when
// hostnum is negative (Terraform's cidrhost). The AKS DNS service address
// is derived with it.
func CIDRHost(prefix string, hostnum int) (string, error) {
	p, err := ipv4Prefix(prefix)
	if err != nil {
		return "", err
	}
	size := uint64(1) << (32 - p.Bits())
	offset := uint64(hostnum)
	if hostnum < 0 {
		offset = size - uint64(-hostnum)
	}
	if hostnum < 0 && uint64(-hostnum) > size || hostnum >= 0 && offset >= size {
		return "", fmt.Errorf("host number %d exceeds max hosts %d", hostnum, size)
	}
	return offsetAddr(p.Addr(), offset).String(), nil
}

func ipv4Prefix(s string) (netip.Prefix, error) {
	p, err := netip.ParsePrefix(s)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("invalid CIDR prefix: %w", err)
	}
	if !p.Addr().Is4() {
		return netip.Prefix{}, fmt.Errorf("only IPv4 addresses are supported, got %s", s)
	}
	return p.Masked(), nil
}

// offsetAddr adds offset to an IPv4 address, wrapping at 2^32.
func offsetAddr(addr netip.Addr, offset uint64) netip.Addr {
	b := addr.As4()
	// #nosec G115
	binary.BigEndian.PutUint32(b[:], binary.BigEndian.Uint32(b[:])+uint32(offset))
	return netip.AddrFrom4(b)
}
