// Package refcode derives short human-readable reference codes from record
// IDs. Customers quote these over the phone, so the alphabet avoids
// lookalike characters.
package refcode

import (
	"fmt"

	hashids "github.com/speps/go-hashids/v2"
)

const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

type Generator struct {
	h *hashids.HashID
}

func NewGenerator(salt string) (*Generator, error) {
	hd := hashids.NewData()
	hd.Salt = salt
	hd.MinLength = 6
	hd.Alphabet = alphabet

	h, err := hashids.NewWithData(hd)
	if err != nil {
		return nil, fmt.Errorf("init hashids: %w", err)
	}
	return &Generator{h: h}, nil
}

// BookingRef encodes a booking ID into a reference like BS-7K2MWQ.
func (g *Generator) BookingRef(bookingID int64) (string, error) {
	code, err := g.h.EncodeInt64([]int64{bookingID})
	if err != nil {
		return "", fmt.Errorf("encode booking ref: %w", err)
	}
	return "BS-" + code, nil
}
