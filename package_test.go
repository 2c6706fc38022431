package shoveler

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackageRecord(t *testing.T) {
	viper.Set("map.all", "")
	viper.Set("map", map[string]string{})
	configureMap()

	record := []byte{0x01, 0x02, 0xfe, 0xff}
	b := PackageRecord(record, "users", 0x2a)

	msg := Message{}
	require.NoError(t, json.Unmarshal(b, &msg))
	assert.Equal(t, "users", msg.Table)
	assert.Equal(t, "users", msg.Source)
	assert.Equal(t, int64(0x2a), msg.Position)

	decoded, err := base64.StdEncoding.DecodeString(msg.Data)
	require.NoError(t, err)
	assert.Equal(t, record, decoded)
}

func TestMapTableOverrides(t *testing.T) {
	viper.Set("map.all", "")
	viper.Set("map", map[string]string{"users": "prod-users"})
	configureMap()
	assert.Equal(t, "prod-users", mapTable("users"))
	assert.Equal(t, "orders", mapTable("orders"))

	viper.Set("map.all", "everything")
	configureMap()
	assert.Equal(t, "everything", mapTable("users"))

	// Reset for other tests
	viper.Set("map.all", "")
	viper.Set("map", map[string]string{})
	configureMap()
}
