// Copyright (C) 2023, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package txs

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
)

var (
	ErrNilTx            = errors.New("tx is nil")
	ErrInvalidSignature = errors.New("invalid signature")

	errWrongSigner = errors.New("signing key doesn't match the tx signer")
)

// UnsignedTx is a poll operation before it is signed.
type UnsignedTx interface {
	// Signer is the identity that has to sign the tx. It is also the
	// creator or voter the tx acts for.
	Signer() ids.ID
	SyntacticVerify() error
	Visit(visitor Visitor) error
}

// Tx is a signed poll operation.
type Tx struct {
	Unsigned  UnsignedTx                  `serialize:"true" json:"unsignedTx"`
	Signature [ed25519.SignatureSize]byte `serialize:"true" json:"signature"`

	id            ids.ID
	unsignedBytes []byte
	bytes         []byte
}

// NewSigned signs [unsigned] with [key] for the program at [programID]. The
// key must belong to the tx signer.
func NewSigned(programID ids.ID, unsigned UnsignedTx, key ed25519.PrivateKey) (*Tx, error) {
	if unsigned == nil {
		return nil, ErrNilTx
	}
	pub, ok := key.Public().(ed25519.PublicKey)
	if !ok || unsigned.Signer() != PublicKeyToID(pub) {
		return nil, errWrongSigner
	}

	tx := &Tx{Unsigned: unsigned}
	unsignedBytes, err := Codec.Marshal(Version, &tx.Unsigned)
	if err != nil {
		return nil, fmt.Errorf("couldn't marshal UnsignedTx: %w", err)
	}
	copy(tx.Signature[:], ed25519.Sign(key, signedMessage(programID, unsignedBytes)))
	return tx, tx.Initialize()
}

// Parse decodes a signed tx. The signature is not checked.
func Parse(txBytes []byte) (*Tx, error) {
	tx := &Tx{}
	if _, err := Codec.Unmarshal(txBytes, tx); err != nil {
		return nil, fmt.Errorf("couldn't parse tx: %w", err)
	}
	if tx.Unsigned == nil {
		return nil, ErrNilTx
	}
	return tx, tx.Initialize()
}

// Initialize caches the serialized forms and the ID of the tx.
func (tx *Tx) Initialize() error {
	unsignedBytes, err := Codec.Marshal(Version, &tx.Unsigned)
	if err != nil {
		return fmt.Errorf("couldn't marshal UnsignedTx: %w", err)
	}
	signedBytes, err := Codec.Marshal(Version, tx)
	if err != nil {
		return fmt.Errorf("couldn't marshal Tx: %w", err)
	}
	tx.unsignedBytes = unsignedBytes
	tx.bytes = signedBytes
	tx.id = ids.ID(hashing.ComputeHash256Array(signedBytes))
	return nil
}

func (tx *Tx) ID() ids.ID {
	return tx.id
}

func (tx *Tx) Bytes() []byte {
	return tx.bytes
}

func (tx *Tx) UnsignedBytes() []byte {
	return tx.unsignedBytes
}

// VerifySignature authenticates the signer of the tx for the program at
// [programID]. The poll logic trusts the creator and voter identities only
// after this passed.
func (tx *Tx) VerifySignature(programID ids.ID) error {
	if tx == nil || tx.Unsigned == nil {
		return ErrNilTx
	}
	signer := tx.Unsigned.Signer()
	if !ed25519.Verify(signer[:], signedMessage(programID, tx.unsignedBytes), tx.Signature[:]) {
		return fmt.Errorf("%w for signer %s", ErrInvalidSignature, signer)
	}
	return nil
}

// signedMessage prefixes the unsigned bytes with the program ID so a
// signature is only valid for one program.
func signedMessage(programID ids.ID, unsignedBytes []byte) []byte {
	msg := make([]byte, 0, ids.IDLen+len(unsignedBytes))
	msg = append(msg, programID[:]...)
	return append(msg, unsignedBytes...)
}

// PublicKeyToID turns an ed25519 public key into an identity.
func PublicKeyToID(pub ed25519.PublicKey) ids.ID {
	var id ids.ID
	copy(id[:], pub)
	return id
}
