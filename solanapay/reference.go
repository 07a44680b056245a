// Package solanapay implements the payment-request side of the Solana Pay
// convention: single-use reference keys, the solana: URI encoding, and QR
// rendering of encoded requests.
package solanapay

import (
	"fmt"

	solana "github.com/gagliardetto/solana-go"
)

// GenerateReference produces a fresh keypair-derived public key to embed in
// a payment request. The key never signs anything and carries no funds; it
// exists only so the matching transfer can be located by account lookup.
// One reference per payment attempt, never reused.
//
// The only failure mode is entropy-source unavailability, which is fatal to
// the calling flow: a request cannot be encoded without a reference.
func GenerateReference() (solana.PublicKey, error) {
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to generate reference keypair: %w", err)
	}
	return key.PublicKey(), nil
}
