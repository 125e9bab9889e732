package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractDBName(t *testing.T) {
	assert.Equal(t, "trials", extractDBName("mongodb://localhost:27017/trials"))
	assert.Equal(t, "courtsim", extractDBName("mongodb://localhost:27017/"))
	assert.Equal(t, "courtsim", extractDBName("mongodb://localhost:27017"))
	assert.Equal(t, "courtsim", extractDBName("://bad uri"))
}
