package interfaces

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ContentID is the 32-byte SHA-256 hash identifying an attachment. Its hex
// form is the opaque proof-reference string the ledger stores; the ledger
// never dereferences it.
type ContentID [32]byte

// ComputeID calculates the content ID for data.
func ComputeID(data []byte) ContentID {
	return ContentID(sha256.Sum256(data))
}

// NewContentIDFromHex parses a 64-character hex content ID, with or without
// the 0x prefix.
func NewContentIDFromHex(source string) (ContentID, error) {
	clean := strings.TrimPrefix(source, "0x")
	if len(clean) != 64 {
		return ContentID{}, errors.New("invalid content ID length: hex string must be 64 characters")
	}

	raw, err := hex.DecodeString(clean)
	if err != nil {
		return ContentID{}, fmt.Errorf("invalid hex format: %w", err)
	}

	var id ContentID
	copy(id[:], raw)
	return id, nil
}

// String returns the hex representation.
func (id ContentID) String() string {
	return hex.EncodeToString(id[:])
}

// Bytes returns the raw 32-byte hash.
func (id ContentID) Bytes() []byte {
	return id[:]
}

// Equal compares two content IDs.
func (id ContentID) Equal(other ContentID) bool {
	return bytes.Equal(id[:], other[:])
}

// ContentType indicates the storage namespace for an attachment.
type ContentType int

const (
	// TranscriptType for grade proof attachments.
	TranscriptType ContentType = iota
	// AttendanceType for attendance proof attachments.
	AttendanceType
)

// String returns the namespace name.
func (ct ContentType) String() string {
	switch ct {
	case TranscriptType:
		return "transcript"
	case AttendanceType:
		return "attendance"
	default:
		return "unknown"
	}
}

var (
	// ErrContentNotFound is returned when requested content is not present
	// in the storage backend.
	ErrContentNotFound = errors.New("content not found")

	// ErrBackendUnavailable is returned when a storage backend cannot be
	// reached.
	ErrBackendUnavailable = errors.New("storage backend unavailable")

	// ErrInvalidLocationURI is returned for a malformed or unsupported
	// storage location URI.
	ErrInvalidLocationURI = errors.New("invalid storage location URI")
)

// StorageBackend provides content-addressed attachment storage. The ledger
// core never uses this directly; the HTTP layer stores uploads here and
// hands the resulting proof reference to the ledger as an opaque string.
type StorageBackend interface {
	// Fetch retrieves data by content ID and type.
	Fetch(ctx context.Context, id ContentID, contentType ContentType) ([]byte, error)

	// Store saves data and returns its content ID.
	Store(ctx context.Context, data []byte, contentType ContentType) (ContentID, error)

	// Available checks whether the backend is accessible.
	Available(ctx context.Context) bool

	// Name returns an identifier for logging.
	Name() string

	// LocationURI returns the URI identifying this backend.
	LocationURI() string
}

// StorageBackendFactory creates storage backends from location URIs.
type StorageBackendFactory interface {
	// StorageBackendFor creates a backend from a URI.
	// Supported schemes: file://, ipfs://, s3://, vault://
	StorageBackendFor(locationURI string) (StorageBackend, error)

	// CreateMultiBackend aggregates several backends for redundancy.
	CreateMultiBackend(locationURIs []string) (StorageBackend, error)
}
