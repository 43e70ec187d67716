package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegionSlug(t *testing.T) {
	assert.Equal(t, "australia", RegionSlug("Australia"))
	assert.Equal(t, "new_zealand", RegionSlug(" New Zealand "))
}
