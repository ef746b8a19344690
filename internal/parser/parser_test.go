package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBasicFields(t *testing.T) {
	r := Parse("T123T456U789")
	assert.Equal(t, "123", r.RoutingNumber)
	assert.Equal(t, "456", r.AccountNumber)
	assert.Equal(t, "789", r.CheckNumber)
}

func TestParseAuxiliaryOnUsBeforeRouting(t *testing.T) {
	r := Parse("U12U T34T 56")
	assert.Equal(t, "34", r.RoutingNumber)
	assert.Equal(t, "56", r.AccountNumber)
	assert.Equal(t, "12", r.CheckNumber)
}

func TestParseLegacyRemapMatchesLiteralForm(t *testing.T) {
	literal := Parse("U12U T34T 56")
	remapped := Parse("C12C A34A 56")
	assert.Equal(t, literal.RoutingNumber, remapped.RoutingNumber)
	assert.Equal(t, literal.AccountNumber, remapped.AccountNumber)
	assert.Equal(t, literal.CheckNumber, remapped.CheckNumber)
}

func TestParseStripsLeadingZerosFromCheckNumberOnly(t *testing.T) {
	r := Parse("T012T034U056")
	assert.Equal(t, "012", r.RoutingNumber)
	assert.Equal(t, "034", r.AccountNumber)
	assert.Equal(t, "56", r.CheckNumber)
}

func TestParseEmpty(t *testing.T) {
	r := Parse("")
	assert.Empty(t, r.RoutingNumber)
	assert.Empty(t, r.AccountNumber)
	assert.Empty(t, r.CheckNumber)
}
