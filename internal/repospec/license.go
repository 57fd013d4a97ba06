package repospec

import (
	"sort"
	"strings"
)

// License pairs the display name with the identifier the hosting API expects.
type License struct {
	Name string `json:"name" yaml:"name"`
	ID   string `json:"id" yaml:"id"`
}

var licenses = []License{
	{Name: "MIT License", ID: "mit"},
	{Name: "Apache License 2.0", ID: "apache-2.0"},
	{Name: "GNU General Public License v3.0", ID: "gpl-3.0"},
	{Name: "BSD 3-Clause License", ID: "bsd-3-clause"},
}

// Licenses returns the supported licenses sorted by display name.
func Licenses() []License {
	out := make([]License, len(licenses))
	copy(out, licenses)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LicenseID accepts a display name or an identifier (case-insensitive).
// An empty input means no license.
func LicenseID(nameOrID string) (string, error) {
	v := strings.TrimSpace(nameOrID)
	if v == "" {
		return "", nil
	}
	for _, l := range licenses {
		if strings.EqualFold(v, l.ID) || strings.EqualFold(v, l.Name) {
			return l.ID, nil
		}
	}
	return "", &ValidationError{Field: FieldLicense, Value: nameOrID, Err: ErrUnknownLicense}
}
