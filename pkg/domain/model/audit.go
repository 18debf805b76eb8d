package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/types"
)

// GenesisHash is the previous-hash value of the first entry in every chain
const GenesisHash = "genesis"

// Audit actions recorded by the engine
const (
	ActionCreate         = "create"
	ActionScoringStarted = "scoring.started"
	ActionScored         = "scored"
	ActionCompleted      = "completed"
	ActionFailed         = "failed"
)

// Subject identifies the entity an audit entry refers to
type Subject struct {
	Kind types.SubjectKind
	ID   int64
}

// Validate checks if the subject is valid
func (s Subject) Validate() error {
	if !s.Kind.IsValid() {
		return goerr.Wrap(ErrValidation, "invalid subject kind", goerr.V("kind", s.Kind))
	}
	if s.ID <= 0 {
		return goerr.Wrap(ErrValidation, "subject ID must be positive", goerr.V("id", s.ID))
	}
	return nil
}

// String returns the canonical "kind:id" form used in hashing and storage keys
func (s Subject) String() string {
	return fmt.Sprintf("%s:%d", s.Kind, s.ID)
}

// ParseSubject parses a "kind:id" string into a Subject
func ParseSubject(s string) (Subject, error) {
	kindStr, idStr, ok := strings.Cut(s, ":")
	if !ok {
		return Subject{}, goerr.Wrap(ErrValidation, "subject must be in kind:id form", goerr.V("subject", s))
	}

	kind, err := types.ParseSubjectKind(kindStr)
	if err != nil {
		return Subject{}, goerr.Wrap(ErrValidation, "invalid subject kind", goerr.V("subject", s))
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return Subject{}, goerr.Wrap(ErrValidation, "invalid subject ID", goerr.V("subject", s))
	}

	sub := Subject{Kind: kind, ID: id}
	if err := sub.Validate(); err != nil {
		return Subject{}, err
	}
	return sub, nil
}

// NewEntryID generates a unique identifier for an audit entry
func NewEntryID() string {
	return uuid.New().String()
}

// AuditLogEntry is one immutable record in a per-subject hash chain. Entries
// are appended with strictly increasing sequence numbers and are never
// updated or deleted.
type AuditLogEntry struct {
	EntryID     string
	Subject     Subject
	Sequence    int64
	Actor       string
	Action      string
	Payload     json.RawMessage
	PayloadHash string
	PrevHash    string
	EntryHash   string
	Timestamp   time.Time
}

// Clone returns a deep copy of the entry
func (e *AuditLogEntry) Clone() *AuditLogEntry {
	cloned := *e
	cloned.Payload = make(json.RawMessage, len(e.Payload))
	copy(cloned.Payload, e.Payload)
	return &cloned
}

// ComputeHash derives the chain hash for this entry from the serialized
// payload, the previous entry's hash, the subject and the sequence number.
func (e *AuditLogEntry) ComputeHash() string {
	h := sha256.New()
	h.Write(e.Payload)
	h.Write([]byte(e.PrevHash))
	h.Write([]byte(e.Subject.String()))
	h.Write([]byte(strconv.FormatInt(e.Sequence, 10)))
	return "sha256:" + hex.EncodeToString(h.Sum(nil))
}

// HashPayload returns the content hash of a serialized payload
func HashPayload(payload []byte) string {
	sum := sha256.Sum256(payload)
	return "sha256:" + hex.EncodeToString(sum[:])
}

// ChainVerification is the outcome of verifying a subject's hash chain
type ChainVerification struct {
	Subject           Subject
	Entries           int
	OK                bool
	OffendingSequence *int64
	Reason            string
}
