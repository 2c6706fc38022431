package shoveler

import (
	"encoding/base64"
	"encoding/json"
)

// Message is the JSON envelope wrapping one table record on the bus.
type Message struct {
	Table           string `json:"table"`
	Source          string `json:"source"`
	ShovelerVersion string `json:"version"`
	Position        int64  `json:"position"`
	Data            string `json:"data"`
}

// PackageRecord wraps a raw record into its bus envelope. The record bytes
// are base64 encoded; position is the data-file offset of the record's head
// block; the source name comes from the table-name mapping.
func PackageRecord(record []byte, table string, position int64) []byte {
	msg := Message{}
	// Base64 encode the record
	msg.Data = base64.StdEncoding.EncodeToString(record)

	msg.Table = table
	msg.Source = mapTable(table)
	msg.Position = position

	msg.ShovelerVersion = Version

	b, err := json.Marshal(msg)
	if err != nil {
		log.Errorln("Failed to Marshal the msg to json:", err)
	}
	return b
}
