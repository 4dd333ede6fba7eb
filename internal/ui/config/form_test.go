package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/casewatch/internal/model"
)

func TestValidators(t *testing.T) {
	assert.NoError(t, validateURL("http://localhost:8000/api"))
	assert.Error(t, validateURL(""))
	assert.Error(t, validateURL("localhost:8000"))

	v := validatePositiveInt("Interval")
	assert.NoError(t, v("30"))
	assert.Error(t, v("0"))
	assert.Error(t, v("abc"))

	assert.Error(t, validateRequired("Path")("  "))
}

func TestFieldsRoundTrip(t *testing.T) {
	cfg := &model.AppConfig{}
	cfg.API.BaseURL = "http://hr.local/api"
	cfg.Poll.IntervalSec = 30
	cfg.Storage.Backend = model.StorageSQLite

	f := FieldsFromConfig(cfg)
	f.BaseURL = "http://other/api/"
	f.IntervalSec = " 45 "
	f.Backend = model.StorageRedis
	f.Events = true
	f.Apply(cfg)

	assert.Equal(t, "http://other/api", cfg.API.BaseURL)
	assert.Equal(t, 45, cfg.Poll.IntervalSec)
	assert.Equal(t, model.StorageRedis, cfg.Storage.Backend)
	assert.True(t, cfg.Events.Enabled)
}
