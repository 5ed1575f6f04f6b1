package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// MappingID derives a stable identifier for a column mapping from the
// coordinates that define it. Repeated runs over the same inputs produce
// the same IDs, so reports and catalog rows stay comparable across runs.
func MappingID(process, component string, ordinal int, targetTable, targetColumn string) string {
	return shortHash(fmt.Sprintf("%s\x00%s\x00%d\x00%s\x00%s", process, component, ordinal, targetTable, targetColumn))
}

// GapID derives a stable identifier for a gap from its type and the
// entities it references.
func GapID(kind GapType, sourceProcess, targetProcess, table, column string) string {
	return shortHash(fmt.Sprintf("%s\x00%s\x00%s\x00%s\x00%s", kind, sourceProcess, targetProcess, table, column))
}

func shortHash(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:8])
}
