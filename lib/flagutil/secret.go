package flagutil

import (
	"flag"
	"strings"
)

var secretFlagsList = flag.String("flagsSecrets", "", "Comma-separated list of flags, which must be hidden in logs and at /metrics page, "+
	"additionally to the automatically detected flags with `key`, `pass`, `secret` and `token` substrings in their names")

// ApplySecretFlags marks the flags listed in `-flagsSecrets` as secret.
//
// This function must be called after flag.Parse and before the flag values are logged.
func ApplySecretFlags() {
	for _, flagName := range strings.Split(*secretFlagsList, ",") {
		flagName = strings.TrimSpace(flagName)
		if flagName != "" {
			RegisterSecretFlag(flagName)
		}
	}
}

var secretFlags = make(map[string]bool)

// RegisterSecretFlag registers flagName as secret.
//
// Secret flag values are replaced with "secret" in logs and at /metrics page.
// The function cannot be called from concurrent goroutines.
func RegisterSecretFlag(flagName string) {
	secretFlags[strings.ToLower(flagName)] = true
}

// IsSecretFlag returns true if the flag with the given lowercased name holds a secret value.
func IsSecretFlag(s string) bool {
	if strings.Contains(s, "pass") || strings.Contains(s, "key") || strings.Contains(s, "secret") || strings.Contains(s, "token") {
		return true
	}
	return secretFlags[s]
}
