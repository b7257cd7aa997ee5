package sui

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrObjectNotFound means a required created object is missing.
	ErrObjectNotFound = errors.New("created object not found")
	// ErrAmbiguousObjects means more than one object matched a role.
	ErrAmbiguousObjects = errors.New("multiple created objects match")
)

// PartitionCreated picks the object owned by owner and the shared object out
// of a transaction's created list. Exactly one of each must be present.
func PartitionCreated(created []CreatedObject, owner string) (ownedID, sharedID string, err error) {
	var owned, shared []string
	for _, obj := range created {
		switch {
		case obj.Owner.Kind == OwnerAddress && sameAddress(obj.Owner.Address, owner):
			owned = append(owned, obj.ObjectID)
		case obj.Owner.Kind == OwnerShared:
			shared = append(shared, obj.ObjectID)
		}
	}

	if ownedID, err = single(owned, "owned by "+owner); err != nil {
		return "", "", err
	}
	if sharedID, err = single(shared, "shared"); err != nil {
		return "", "", err
	}
	return ownedID, sharedID, nil
}

func single(ids []string, role string) (string, error) {
	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrObjectNotFound, role)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("%w: %d objects %s", ErrAmbiguousObjects, len(ids), role)
	}
}

// NormalizeAddress lower-cases an address and left-pads it to 32 bytes.
func NormalizeAddress(addr string) string {
	a := strings.ToLower(strings.TrimPrefix(strings.TrimPrefix(addr, "0x"), "0X"))
	if len(a) < 64 {
		a = strings.Repeat("0", 64-len(a)) + a
	}
	return "0x" + a
}

func sameAddress(a, b string) bool {
	return NormalizeAddress(a) == NormalizeAddress(b)
}
