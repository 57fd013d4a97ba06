package repospec

// CreationSpec is everything needed to create a repository.
type CreationSpec struct {
	Name        Name
	Description string
	Private     bool
	License     string
	// AutoInit is always true: files can only be added to a repository
	// that already has an initial commit.
	AutoInit bool
	// Author is informational only. It is logged and recorded in history
	// but never sent to the remote.
	Author string
}

// SpecInput is the raw, unvalidated form of a CreationSpec.
type SpecInput struct {
	Name        string
	Description string
	Private     bool
	License     string
	Author      string
}

// NewCreationSpec validates every field locally.
func NewCreationSpec(in SpecInput) (*CreationSpec, error) {
	name, err := ValidateName(in.Name)
	if err != nil {
		return nil, err
	}

	desc, err := CleanDescription(in.Description)
	if err != nil {
		return nil, err
	}

	license, err := LicenseID(in.License)
	if err != nil {
		return nil, err
	}

	return &CreationSpec{
		Name:        name,
		Description: desc,
		Private:     in.Private,
		License:     license,
		AutoInit:    true,
		Author:      in.Author,
	}, nil
}

// Visibility is used in log lines and the CLI summary.
func (s *CreationSpec) Visibility() string {
	if s.Private {
		return "private"
	}
	return "public"
}
