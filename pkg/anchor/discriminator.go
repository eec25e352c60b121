package anchor

import (
	"crypto/sha256"
	"fmt"
)

// Discriminator represents an 8-byte instruction discriminator
type Discriminator [8]byte

// String returns hex representation of discriminator
func (d Discriminator) String() string {
	return fmt.Sprintf("%02x%02x%02x%02x%02x%02x%02x%02x",
		d[0], d[1], d[2], d[3], d[4], d[5], d[6], d[7])
}

// Bytes returns discriminator as byte slice
func (d Discriminator) Bytes() []byte {
	return d[:]
}

// Equals compares two discriminators
func (d Discriminator) Equals(other Discriminator) bool {
	return d == other
}

// ComputeDiscriminator computes the 8-byte Anchor discriminator as
// sha256(namespace:name)[0:8]
func ComputeDiscriminator(namespace, name string) Discriminator {
	input := fmt.Sprintf("%s:%s", namespace, name)
	hash := sha256.Sum256([]byte(input))

	var discriminator Discriminator
	copy(discriminator[:], hash[:8])
	return discriminator
}

// ComputeInstructionDiscriminator computes discriminator for instruction
func ComputeInstructionDiscriminator(name string) Discriminator {
	return ComputeDiscriminator("global", name)
}

// Predefined pump.fun instruction discriminators
var (
	BuyDiscriminator  = ComputeInstructionDiscriminator("buy")
	SellDiscriminator = ComputeInstructionDiscriminator("sell")
)

// DiscriminatorFromBytes creates discriminator from byte slice
func DiscriminatorFromBytes(data []byte) (Discriminator, error) {
	if len(data) < 8 {
		return Discriminator{}, fmt.Errorf("data too short for discriminator: need 8 bytes, got %d", len(data))
	}

	var discriminator Discriminator
	copy(discriminator[:], data[:8])
	return discriminator, nil
}

// ValidateDiscriminator validates that data starts with expected discriminator
func ValidateDiscriminator(data []byte, expected Discriminator) error {
	actual, err := DiscriminatorFromBytes(data)
	if err != nil {
		return fmt.Errorf("failed to extract discriminator: %w", err)
	}

	if !actual.Equals(expected) {
		return fmt.Errorf("discriminator mismatch: expected %s, got %s",
			expected.String(), actual.String())
	}

	return nil
}
