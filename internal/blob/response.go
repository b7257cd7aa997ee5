package blob

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrInvalidResponse means the publisher body matched neither accepted shape.
	ErrInvalidResponse = errors.New("invalid response structure from publisher")
	// ErrMissingBlobID means the shape matched but carried no blob id.
	ErrMissingBlobID = errors.New("missing blob id in response")
)

// Response kinds reported by a publisher.
const (
	KindNewlyCreated     = "newlyCreated"
	KindAlreadyCertified = "alreadyCertified"
)

// Response is the publisher reply to a blob PUT. Exactly one of the two
// fields is expected to be set.
//
//	{"newlyCreated": {"blobObject": {"blobId": "..."}}}
//	{"alreadyCertified": {"blobId": "..."}}
type Response struct {
	NewlyCreated     *NewlyCreated     `json:"newlyCreated,omitempty"`
	AlreadyCertified *AlreadyCertified `json:"alreadyCertified,omitempty"`
}

// NewlyCreated is returned when the publisher stored a fresh blob.
type NewlyCreated struct {
	BlobObject *BlobObject `json:"blobObject"`
	Cost       uint64      `json:"cost,omitempty"`
}

// BlobObject is the on-chain object backing a stored blob.
type BlobObject struct {
	ID          string `json:"id,omitempty"`
	BlobID      string `json:"blobId"`
	Size        uint64 `json:"size,omitempty"`
	StoredEpoch uint64 `json:"storedEpoch,omitempty"`
}

// AlreadyCertified is returned when identical content is already stored.
type AlreadyCertified struct {
	BlobID   string `json:"blobId"`
	EndEpoch uint64 `json:"endEpoch,omitempty"`
}

// ParseResponse extracts the blob id and the response kind from a publisher
// body. A "newlyCreated" object without a blobObject falls through to the
// "alreadyCertified" check.
func ParseResponse(body []byte) (blobID, kind string, err error) {
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	switch {
	case resp.NewlyCreated != nil && resp.NewlyCreated.BlobObject != nil:
		blobID, kind = resp.NewlyCreated.BlobObject.BlobID, KindNewlyCreated
	case resp.AlreadyCertified != nil:
		blobID, kind = resp.AlreadyCertified.BlobID, KindAlreadyCertified
	default:
		return "", "", ErrInvalidResponse
	}

	if blobID == "" {
		return "", kind, ErrMissingBlobID
	}
	return blobID, kind, nil
}
