package tree

import (
	"hash"

	"github.com/zeebo/blake3"
)

func newHasher() hash.Hash {
	return blake3.New()
}
