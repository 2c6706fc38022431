package shoveler

import (
	"github.com/spf13/viper"
)

var (
	mapAll   string
	tableMap map[string]string
)

// configureMap sets the table-name mapping configuration
func configureMap() {
	// First, check for the map-all override
	mapAll = viper.GetString("map.all")

	// Per-table mappings
	tableMap = viper.GetStringMapString("map")
}

// mapTable returns the reported dataset name for a table
func mapTable(table string) string {
	if mapAll != "" {
		return mapAll
	}
	if mapped, ok := tableMap[table]; ok && mapped != "" {
		return mapped
	}
	return table
}
