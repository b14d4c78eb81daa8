package secrets

import (
	"fmt"
	"os"
	"strings"
)

// Source describes how to load a secret value.
type Source struct {
	// Name is used in error messages to give more context about the secret.
	Name string
	// Value is an inline secret value provided via configuration or flags.
	Value string
	// File points to a file containing the secret value. When set it takes
	// precedence over Value.
	File string
}

// Load returns the resolved secret value from the provided source. When File is
// set it takes precedence over Value. The returned secret is always trimmed. An
// error is returned when neither File nor Value contain a usable secret.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	file := strings.TrimSpace(src.File)
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		src.Value = string(data)
		src.File = file
	}

	secret := strings.TrimSpace(src.Value)
	if secret == "" {
		if src.File != "" {
			return "", fmt.Errorf("%s file %q is empty", name, src.File)
		}
		return "", fmt.Errorf("%s is not configured", name)
	}

	return secret, nil
}

// Safety is the test identity every outgoing message is redirected to.
// Name also keys the browser profile so test and production sessions never mix.
type Safety struct {
	Number string
	Name   string
}

// LoadSafety reads a safety identity. A file holds the number on the first line
// and the profile name on the second; inline values fill whatever the file omits.
func LoadSafety(file, number, name string) (*Safety, error) {
	safety := &Safety{
		Number: strings.TrimSpace(number),
		Name:   strings.TrimSpace(name),
	}

	if strings.TrimSpace(file) != "" {
		raw, err := Load(Source{Name: "safety identity", File: file})
		if err != nil {
			return nil, err
		}

		lines := strings.Split(raw, "\n")
		if len(lines) != 2 {
			return nil, fmt.Errorf("safety file %q must contain a number and a name on separate lines", file)
		}

		safety.Number = strings.TrimSpace(lines[0])
		safety.Name = strings.TrimSpace(lines[1])
	}

	if safety.Name == "" {
		return nil, fmt.Errorf("safety name is not configured")
	}

	return safety, nil
}
