package bfv

import (
	"math"
	"math/big"
)

func posInf() float64 { return math.Inf(1) }

func negInf() float64 { return math.Inf(-1) }

func big0() *big.Int { return big.NewInt(0) }

func absBig(x *big.Int) *big.Int { return new(big.Int).Abs(x) }

func bitLenBig(x *big.Int) int { return x.BitLen() }
