package config

type ValidationPolicy string

var (
	// PolicyStrict requires every form field.
	PolicyStrict ValidationPolicy = "strict"
	// PolicyPermissive only requires the payee UPI ID.
	PolicyPermissive ValidationPolicy = "permissive"

	AllowedPolicies              = []ValidationPolicy{PolicyStrict, PolicyPermissive}
	AllowedErrorCorrectionLevels = []string{"L", "M", "Q", "H"}
	AllowedLogFormats            = []string{"text", "json"}
	AllowedGinModes              = []string{"debug", "release", "test"}
)

const (
	Currency = "INR"

	MaxNameLength = 100
	MaxNoteLength = 200
)
