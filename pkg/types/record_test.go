// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecordFillsEveryKey(t *testing.T) {
	r := NewRecord(map[FieldKey]string{FieldCompanyName: "  山田製作所 \n"}, "")

	assert.Equal(t, "山田製作所", r.Get(FieldCompanyName))
	assert.True(t, r.Has(FieldCompanyName))
	assert.False(t, r.Has(FieldMemo))
	assert.Equal(t, ClassificationUnknown, r.Classification())
	assert.Len(t, r.Map(), len(AllFieldKeys()))
}

func TestRecordMapIsCopy(t *testing.T) {
	r := NewRecord(map[FieldKey]string{FieldQuantity: "100"}, ClassificationNew)
	m := r.Map()
	m[FieldQuantity] = "0"
	assert.Equal(t, "100", r.Get(FieldQuantity))
}

func TestParseFieldKey(t *testing.T) {
	k, err := ParseFieldKey(" print_data ")
	require.NoError(t, err)
	assert.Equal(t, FieldPrintData, k)

	_, err = ParseFieldKey("製造番号")
	assert.Error(t, err)
}

func TestRecordView(t *testing.T) {
	r := NewRecord(map[FieldKey]string{FieldManufacturingNumber: "M-1"}, ClassificationRepeat)
	data, err := json.Marshal(r.View())
	require.NoError(t, err)

	var got struct {
		Fields         map[string]string `json:"fields"`
		Classification string            `json:"classification"`
	}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "M-1", got.Fields["manufacturing_number"])
	assert.Equal(t, "", got.Fields["memo"])
	assert.Equal(t, "REPEAT", got.Classification)
}

func TestConfigDefaults(t *testing.T) {
	var c Config
	c.Defaults()
	assert.Equal(t, "standard", c.Profile)
	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, "output.xlsx", c.Server.DownloadName)
	assert.Equal(t, LogBackendSheets, c.Log.Backend)
	assert.Equal(t, "printlist", c.Log.Sheets.Worksheet)
	assert.Equal(t, 3, c.Script.MaxRetries)

	c = Config{Server: ServerConfig{Addr: ":9000"}}
	c.Defaults()
	assert.Equal(t, ":9000", c.Server.Addr)
}
