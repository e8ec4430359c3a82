package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UUIDGenerator produces human-scannable identifiers backed by random UUIDs.
// Claim numbers carry the submission date so support staff can eyeball the
// age of a claim without a lookup.
type UUIDGenerator struct{}

// NewUUIDGenerator creates a new identifier generator
func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

// ClaimNumber returns an identifier like CLM-20250601-1A2B3C4D.
func (g *UUIDGenerator) ClaimNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("CLM-%s-%s", time.Now().UTC().Format("20060102"), suffix)
}

// TransactionRef returns an identifier like PREM-1a2b3c4d-....
func (g *UUIDGenerator) TransactionRef(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}

// SystemClock reads the wall clock. Services take a Clock so tests can
// freeze time.
type SystemClock struct{}

// Now returns the current UTC time
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
