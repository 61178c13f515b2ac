package service

import (
	"crypto/rand"
	"errors"
)

const (
	// CodeLength is the length of generated short codes.
	CodeLength = 8

	alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// ErrCodeSpaceExhausted is returned when no free code was found.
var ErrCodeSpaceExhausted = errors.New("could not generate a free code")

// CodeGenerator produces random base62 codes.
type CodeGenerator struct {
	numChars int
	elements string
	read     func([]byte) (int, error)
}

func NewCodeGenerator(numChars int) *CodeGenerator {
	return &CodeGenerator{
		numChars: numChars,
		elements: alphabet,
		read:     rand.Read,
	}
}

// Generate returns a code of numChars base62 characters. Bytes above the last
// multiple of 62 are rejected so every character is equally likely.
func (g *CodeGenerator) Generate() (string, error) {
	const limit = 256 - 256%62

	out := make([]byte, 0, g.numChars)
	buf := make([]byte, g.numChars*2)
	for len(out) < g.numChars {
		if _, err := g.read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, g.elements[int(b)%62])
			if len(out) == g.numChars {
				break
			}
		}
	}
	return string(out), nil
}
