package protocol

import (
	"math/big"
	"math/bits"
)

// Uint128 is an unsigned 128-bit integer stored as two 64-bit halves.
type Uint128 struct {
	Hi uint64
	Lo uint64
}

// MaxUint128 is 2^128 - 1.
var MaxUint128 = Uint128{Hi: ^uint64(0), Lo: ^uint64(0)}

func U128(v uint64) Uint128 {
	return Uint128{Lo: v}
}

func (u Uint128) IsZero() bool {
	return u.Hi == 0 && u.Lo == 0
}

func (u Uint128) Or(v Uint128) Uint128 {
	return Uint128{Hi: u.Hi | v.Hi, Lo: u.Lo | v.Lo}
}

func (u Uint128) Lsh(n uint) Uint128 {
	switch {
	case n == 0:
		return u
	case n >= 128:
		return Uint128{}
	case n >= 64:
		return Uint128{Hi: u.Lo << (n - 64)}
	default:
		return Uint128{Hi: u.Hi<<n | u.Lo>>(64-n), Lo: u.Lo << n}
	}
}

func (u Uint128) Rsh(n uint) Uint128 {
	switch {
	case n == 0:
		return u
	case n >= 128:
		return Uint128{}
	case n >= 64:
		return Uint128{Lo: u.Hi >> (n - 64)}
	default:
		return Uint128{Hi: u.Hi >> n, Lo: u.Lo>>n | u.Hi<<(64-n)}
	}
}

// BitLen returns the minimum number of bits needed to represent u.
func (u Uint128) BitLen() int {
	if u.Hi != 0 {
		return 64 + bits.Len64(u.Hi)
	}
	return bits.Len64(u.Lo)
}

func (u Uint128) Big() *big.Int {
	hi := new(big.Int).SetUint64(u.Hi)
	hi.Lsh(hi, 64)
	return hi.Or(hi, new(big.Int).SetUint64(u.Lo))
}

// U128FromBig converts b to a Uint128; ok is false when b is negative or
// wider than 128 bits.
func U128FromBig(b *big.Int) (Uint128, bool) {
	if b.Sign() < 0 || b.BitLen() > 128 {
		return Uint128{}, false
	}
	lo := new(big.Int).And(b, new(big.Int).SetUint64(^uint64(0)))
	hi := new(big.Int).Rsh(b, 64)
	return Uint128{Hi: hi.Uint64(), Lo: lo.Uint64()}, true
}

func (u Uint128) String() string {
	if u.Hi == 0 {
		return new(big.Int).SetUint64(u.Lo).String()
	}
	return u.Big().String()
}
