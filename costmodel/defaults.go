package costmodel

// Constraint costs of the pre-built primitives, measured on the
// reference proving backend. These seed a fresh database and back the
// substring fallback for lookups that miss the calibrated table.
var defaultCosts = []struct {
	Op   string
	Cost int
}{
	{"sha256", 38_799},
	{"keccak256", 55_000},
	{"pedersen_hash", 28_742},
	{"ecdsa_secp256k1", 5_000},
}

const (
	seedConfidence = 0.83
	maxConfidence  = 0.99
)
