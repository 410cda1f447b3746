// MIT License
//
// Copyright (c) 2024 sigstate-core
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// go/src/core/hbs/params/variants.go
package params

import (
	"fmt"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/sigstate-core/go/src/core/hbs/types"
)

// Family identifies a stateful hash-based signature scheme family.
type Family int

const (
	FamilyXMSS Family = iota
	FamilyXMSSMT
	FamilyHSS
)

// String returns the family label.
func (f Family) String() string {
	switch f {
	case FamilyXMSS:
		return "XMSS"
	case FamilyXMSSMT:
		return "XMSSMT"
	case FamilyHSS:
		return "HSS"
	default:
		return "unknown"
	}
}

// Variant is one member of the closed set of supported scheme
// configurations. Variants are compared structurally, never by
// identity; two Variant values with the same fields are the same
// variant.
type Variant struct {
	Name       string
	Family     Family
	FullHeight uint32 // log2 of the total leaf count
	Layers     uint32 // 1 for single-tree schemes
	WotsW      uint32 // Winternitz parameter
	Oid        uint32
}

// The supported variants. All bind SHAKE256 with a 32-byte output.
var (
	XMSS10 = Variant{Name: "XMSS-SHAKE_10_256", Family: FamilyXMSS, FullHeight: 10, Layers: 1, WotsW: 16, Oid: 0x01}
	XMSS16 = Variant{Name: "XMSS-SHAKE_16_256", Family: FamilyXMSS, FullHeight: 16, Layers: 1, WotsW: 16, Oid: 0x02}
	XMSS20 = Variant{Name: "XMSS-SHAKE_20_256", Family: FamilyXMSS, FullHeight: 20, Layers: 1, WotsW: 16, Oid: 0x03}

	XMSSMT20x2  = Variant{Name: "XMSSMT-SHAKE_20/2_256", Family: FamilyXMSSMT, FullHeight: 20, Layers: 2, WotsW: 16, Oid: 0x11}
	XMSSMT20x4  = Variant{Name: "XMSSMT-SHAKE_20/4_256", Family: FamilyXMSSMT, FullHeight: 20, Layers: 4, WotsW: 16, Oid: 0x12}
	XMSSMT40x2  = Variant{Name: "XMSSMT-SHAKE_40/2_256", Family: FamilyXMSSMT, FullHeight: 40, Layers: 2, WotsW: 16, Oid: 0x13}
	XMSSMT40x4  = Variant{Name: "XMSSMT-SHAKE_40/4_256", Family: FamilyXMSSMT, FullHeight: 40, Layers: 4, WotsW: 16, Oid: 0x14}
	XMSSMT40x8  = Variant{Name: "XMSSMT-SHAKE_40/8_256", Family: FamilyXMSSMT, FullHeight: 40, Layers: 8, WotsW: 16, Oid: 0x15}
	XMSSMT60x3  = Variant{Name: "XMSSMT-SHAKE_60/3_256", Family: FamilyXMSSMT, FullHeight: 60, Layers: 3, WotsW: 16, Oid: 0x16}
	XMSSMT60x6  = Variant{Name: "XMSSMT-SHAKE_60/6_256", Family: FamilyXMSSMT, FullHeight: 60, Layers: 6, WotsW: 16, Oid: 0x17}
	XMSSMT60x12 = Variant{Name: "XMSSMT-SHAKE_60/12_256", Family: FamilyXMSSMT, FullHeight: 60, Layers: 12, WotsW: 16, Oid: 0x18}

	HSS10W4   = Variant{Name: "HSS-SHAKE_10_W4", Family: FamilyHSS, FullHeight: 10, Layers: 1, WotsW: 4, Oid: 0x21}
	HSS10W16  = Variant{Name: "HSS-SHAKE_10_W16", Family: FamilyHSS, FullHeight: 10, Layers: 1, WotsW: 16, Oid: 0x22}
	HSS15W16  = Variant{Name: "HSS-SHAKE_15_W16", Family: FamilyHSS, FullHeight: 15, Layers: 1, WotsW: 16, Oid: 0x23}
	HSS15W256 = Variant{Name: "HSS-SHAKE_15_W256", Family: FamilyHSS, FullHeight: 15, Layers: 1, WotsW: 256, Oid: 0x24}
	HSS20W16  = Variant{Name: "HSS-SHAKE_20_W16", Family: FamilyHSS, FullHeight: 20, Layers: 1, WotsW: 16, Oid: 0x25}
	HSS25W16  = Variant{Name: "HSS-SHAKE_25_W16", Family: FamilyHSS, FullHeight: 25, Layers: 1, WotsW: 16, Oid: 0x26}
)

// registry holds the closed variant set in declaration order so CLI
// listings stay stable.
var registry = func() *orderedmap.OrderedMap[string, Variant] {
	m := orderedmap.NewOrderedMap[string, Variant]()
	for _, v := range []Variant{
		XMSS10, XMSS16, XMSS20,
		XMSSMT20x2, XMSSMT20x4, XMSSMT40x2, XMSSMT40x4, XMSSMT40x8,
		XMSSMT60x3, XMSSMT60x6, XMSSMT60x12,
		HSS10W4, HSS10W16, HSS15W16, HSS15W256, HSS20W16, HSS25W16,
	} {
		m.Set(v.Name, v)
	}
	return m
}()

// ByName looks a variant up by its registered name.
func ByName(name string) (Variant, bool) {
	return registry.Get(name)
}

// ByOid looks a variant up by its numeric identifier.
func ByOid(oid uint32) (Variant, bool) {
	for el := registry.Front(); el != nil; el = el.Next() {
		if el.Value.Oid == oid {
			return el.Value, true
		}
	}
	return Variant{}, false
}

// Names returns all registered variant names in declaration order.
func Names() []string {
	return registry.Keys()
}

// registered reports whether v matches a registry entry structurally.
func registered(v Variant) bool {
	got, ok := registry.Get(v.Name)
	return ok && got == v
}

// HSS returns the HSS variant for the given tree height and Winternitz
// parameter. Pairings outside the supported menu fail with
// ErrInvalidParameter; in particular w=256 is only offered up to height
// 15, where the longer hash chains stay affordable.
func HSS(height, w uint32) (Variant, error) {
	for el := registry.Front(); el != nil; el = el.Next() {
		v := el.Value
		if v.Family == FamilyHSS && v.FullHeight == height && v.WotsW == w {
			return v, nil
		}
	}
	return Variant{}, fmt.Errorf("%w: no HSS variant with height %d and w %d", types.ErrInvalidParameter, height, w)
}
