package shoveler

import (
	"github.com/dbarchive/myisam-shoveler/parser"
)

// VerifyIndexPrefix runs cheap sanity checks on the fixed 32-byte index
// prefix before committing to a full decode. It cannot prove the table is
// well formed, only discard files that clearly are not.
func VerifyIndexPrefix(prefix []byte) bool {
	if len(prefix) < 32 {
		// Shorter than the fixed header, cannot be an index file
		log.Infoln("Index prefix not large enough for the 32 byte header, skipping.")
		return false
	}
	basePos := parser.BigEndian(prefix[12:14])
	if basePos < 32 {
		// The base info region cannot overlap the fixed header
		log.Warningln("Index base position", basePos, "points inside the fixed header, skipping.")
		return false
	}
	return true
}
