package deps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/itinerant/pkg/steps/ai/settings"
)

func TestFromSettings_RequiresMapsAndSearchKeys(t *testing.T) {
	s := settings.NewStepSettings()
	_, err := FromSettings(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mapping client")

	s.API.APIKeys[settings.APIKeyName(settings.KeyGoogleMaps)] = "maps"
	_, err = FromSettings(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "web search client")
}

func TestFromSettings_BuildsEveryClient(t *testing.T) {
	s := settings.NewStepSettings()
	s.API.APIKeys[settings.APIKeyName(settings.KeyGoogleMaps)] = "maps"
	s.API.APIKeys[settings.APIKeyName(settings.KeyTavily)] = "tavily"

	d, err := FromSettings(s)
	require.NoError(t, err)
	assert.NotNil(t, d.Maps())
	assert.NotNil(t, d.WebSearch())
	assert.NotNil(t, d.Weather())
	assert.NotNil(t, d.Locator())
	assert.NotNil(t, d.AddressValidator())
}

func TestNew_MissingClientsStayNil(t *testing.T) {
	d := New()
	assert.Nil(t, d.Maps())
	assert.Nil(t, d.WebSearch())
}

func TestAvailable_SkipsClientsWithoutCredentials(t *testing.T) {
	s := settings.NewStepSettings()
	s.API.APIKeys[settings.APIKeyName(settings.KeyTavily)] = "tavily"

	d := Available(s)
	assert.Nil(t, d.Maps())
	assert.NotNil(t, d.WebSearch())
	assert.NotNil(t, d.Weather())

	assert.Nil(t, Available(nil).WebSearch())
}
