package chain

import (
	"encoding/binary"
)

// Status is the outcome of an executed transaction.
type Status uint8

const (
	// StatusSuccess marks a transaction whose call returned nil.
	StatusSuccess Status = 1

	// StatusReverted marks a transaction whose call returned an error.
	StatusReverted Status = 0
)

// String implements fmt.Stringer.
func (s Status) String() string {
	if s == StatusSuccess {
		return "success"
	}
	return "reverted"
}

// Event is a log entry emitted by a contract during a call.
type Event struct {
	Address Address           // emitting contract
	Name    string            // event name, e.g. "Transfer"
	Args    map[string]string // rendered arguments
	Block   uint64            // block the event was emitted in
}

// Receipt records one executed transaction.
type Receipt struct {
	TxHash    Hash
	From      Address
	To        Address
	Method    string
	Nonce     uint64
	Block     uint64
	Timestamp uint64
	Status    Status
	Error     string // revert reason when Status is StatusReverted
	Events    []Event
}

// Succeeded reports whether the transaction did not revert.
func (r *Receipt) Succeeded() bool { return r.Status == StatusSuccess }

// EventsNamed returns the receipt's events with the given name.
func (r *Receipt) EventsNamed(name string) []Event {
	var out []Event
	for _, ev := range r.Events {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

// Deployment records where a named contract was deployed.
type Deployment struct {
	Name      string
	Address   Address
	Deployer  Address
	Block     uint64
	Timestamp uint64
	TxHash    Hash
}

// txHash derives a transaction hash from chain id, sender, nonce and method.
func txHash(chainID uint64, from Address, nonce uint64, to Address, method string) Hash {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], chainID)
	binary.BigEndian.PutUint64(buf[8:], nonce)
	return Keccak256(buf[:8], from[:], buf[8:], to[:], []byte(method))
}

// createAddress derives a contract address from the deployer and its nonce.
func createAddress(deployer Address, nonce uint64) Address {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], nonce)
	h := Keccak256(deployer[:], n[:])
	return BytesToAddress(h[:])
}
