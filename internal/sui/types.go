// Package sui is a minimal Sui JSON-RPC client: it builds Move calls on the
// node, signs them locally with an ed25519 key, and executes them.
//
// Only what the bot needs is modelled. A submitted call either returns its
// effects (the objects it created, partitioned by ownership) or an error.
package sui

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

// Response is a JSON-RPC 2.0 response. Result stays raw until the caller
// knows its shape.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is the error member of a JSON-RPC response.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// TransactionBlockBytes is the result of unsafe_moveCall.
type TransactionBlockBytes struct {
	TxBytes string `json:"txBytes"`
}

// TransactionBlockResponse is the result of sui_executeTransactionBlock.
type TransactionBlockResponse struct {
	Digest  string              `json:"digest"`
	Effects *TransactionEffects `json:"effects,omitempty"`
}

// TransactionEffects is the subset of effects the bot reads.
type TransactionEffects struct {
	Status  ExecutionStatus  `json:"status"`
	Created []OwnedObjectRef `json:"created,omitempty"`
}

// ExecutionStatus reports whether the transaction's Move code succeeded.
type ExecutionStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// OwnedObjectRef is one entry of effects.created.
type OwnedObjectRef struct {
	Owner     Owner     `json:"owner"`
	Reference ObjectRef `json:"reference"`
}

// ObjectRef identifies an object version.
type ObjectRef struct {
	ObjectID string      `json:"objectId"`
	Version  json.Number `json:"version,omitempty"`
	Digest   string      `json:"digest,omitempty"`
}

// OwnerKind classifies object ownership.
type OwnerKind int

const (
	OwnerOther OwnerKind = iota
	OwnerAddress
	OwnerShared
	OwnerObject
	OwnerImmutable
)

func (k OwnerKind) String() string {
	switch k {
	case OwnerAddress:
		return "address"
	case OwnerShared:
		return "shared"
	case OwnerObject:
		return "object"
	case OwnerImmutable:
		return "immutable"
	default:
		return "other"
	}
}

// Owner is the ownership of a created object. On the wire it is either the
// string "Immutable" or a single-key object such as {"AddressOwner":"0x.."}
// or {"Shared":{"initial_shared_version":3}}.
type Owner struct {
	Kind    OwnerKind
	Address string // set for OwnerAddress and OwnerObject
}

func (o *Owner) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "Immutable" {
			*o = Owner{Kind: OwnerImmutable}
		} else {
			*o = Owner{Kind: OwnerOther}
		}
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode owner: %w", err)
	}
	switch {
	case raw["AddressOwner"] != nil:
		var addr string
		if err := json.Unmarshal(raw["AddressOwner"], &addr); err != nil {
			return fmt.Errorf("decode owner address: %w", err)
		}
		*o = Owner{Kind: OwnerAddress, Address: addr}
	case raw["ObjectOwner"] != nil:
		var addr string
		if err := json.Unmarshal(raw["ObjectOwner"], &addr); err != nil {
			return fmt.Errorf("decode owner object: %w", err)
		}
		*o = Owner{Kind: OwnerObject, Address: addr}
	case raw["Shared"] != nil:
		*o = Owner{Kind: OwnerShared}
	default:
		*o = Owner{Kind: OwnerOther}
	}
	return nil
}

func (o Owner) MarshalJSON() ([]byte, error) {
	switch o.Kind {
	case OwnerAddress:
		return json.Marshal(map[string]string{"AddressOwner": o.Address})
	case OwnerObject:
		return json.Marshal(map[string]string{"ObjectOwner": o.Address})
	case OwnerShared:
		return json.Marshal(map[string]map[string]int{"Shared": {"initial_shared_version": 0}})
	case OwnerImmutable:
		return json.Marshal("Immutable")
	default:
		return []byte("null"), nil
	}
}

// CreatedObject is the ownership/id pair the workflow cares about.
type CreatedObject struct {
	Owner    Owner
	ObjectID string
}

// Effects is what a successful Submit returns.
type Effects struct {
	Digest  string
	Created []CreatedObject
}
