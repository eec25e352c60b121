package anchor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSellDiscriminatorBytes(t *testing.T) {
	// The on-chain pump.fun sell discriminator
	expected := []byte{51, 230, 133, 164, 1, 127, 131, 173}
	assert.Equal(t, expected, SellDiscriminator.Bytes())
}

func TestBuyDiscriminatorBytes(t *testing.T) {
	expected := []byte{102, 6, 61, 18, 1, 218, 235, 234}
	assert.Equal(t, expected, BuyDiscriminator.Bytes())
}

func TestComputeDiscriminatorIsDeterministic(t *testing.T) {
	first := ComputeInstructionDiscriminator("sell")
	second := ComputeInstructionDiscriminator("sell")
	assert.True(t, first.Equals(second))
	assert.Equal(t, SellDiscriminator, first)
}

func TestDiscriminatorFromBytes(t *testing.T) {
	data := []byte{51, 230, 133, 164, 1, 127, 131, 173, 0xff, 0xff}
	d, err := DiscriminatorFromBytes(data)
	require.NoError(t, err)
	assert.True(t, d.Equals(SellDiscriminator))

	_, err = DiscriminatorFromBytes([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestValidateDiscriminator(t *testing.T) {
	payload := append(SellDiscriminator.Bytes(), make([]byte, 16)...)
	require.NoError(t, ValidateDiscriminator(payload, SellDiscriminator))

	err := ValidateDiscriminator(payload, BuyDiscriminator)
	assert.Error(t, err)
}
