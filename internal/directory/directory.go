// Package directory resolves employee ids to display profiles. It only
// annotates logs and tickets; it never decides what a user may ask.
package directory

import (
	"fmt"
	"strings"
)

// Unknown is the display name for ids the directory cannot resolve.
const Unknown = "unknown"

// InvalidIDMessage is shown when an id does not look like an employee id.
const InvalidIDMessage = "Invalid Employee ID format. Please use format: EMP123456"

const (
	employeePrefix   = "EMP"
	minEmployeeIDLen = 6
)

// Profile describes an employee.
type Profile struct {
	Name       string `json:"name"`
	Department string `json:"department"`
	Grade      string `json:"grade"`
}

var genericEmployee = Profile{Name: "Employee", Department: "General", Grade: "L3"}

// Directory looks up employee profiles.
type Directory struct {
	profiles map[string]Profile
}

// New returns a Directory over profiles keyed by upper-case employee id.
func New(profiles map[string]Profile) *Directory {
	normalized := make(map[string]Profile, len(profiles))
	for id, p := range profiles {
		normalized[Normalize(id)] = p
	}
	return &Directory{profiles: normalized}
}

// NewDemo returns the built-in demo directory.
func NewDemo() *Directory {
	return New(map[string]Profile{
		"EMP001234": {Name: "John Doe", Department: "Engineering", Grade: "L5"},
		"EMP005678": {Name: "Jane Smith", Department: "HR", Grade: "L4"},
		"EMP009999": {Name: "Admin User", Department: "IT", Grade: "L6"},
	})
}

// Normalize upper-cases and trims an id.
func Normalize(userID string) string {
	return strings.ToUpper(strings.TrimSpace(userID))
}

// Lookup returns the profile for userID. Any well-formed employee id that is
// not listed resolves to a generic employee.
func (d *Directory) Lookup(userID string) (Profile, bool) {
	id := Normalize(userID)
	if p, ok := d.profiles[id]; ok {
		return p, true
	}
	if strings.HasPrefix(id, employeePrefix) && len(id) >= minEmployeeIDLen {
		return genericEmployee, true
	}
	return Profile{}, false
}

// DisplayName returns the profile name or Unknown.
func (d *Directory) DisplayName(userID string) string {
	if p, ok := d.Lookup(userID); ok {
		return p.Name
	}
	return Unknown
}

// Validation is the outcome of checking a login id.
type Validation struct {
	Valid    bool     `json:"valid"`
	UserInfo *Profile `json:"user_info"`
	Message  string   `json:"message"`
}

// Validate checks userID and builds the greeting shown at login.
func (d *Directory) Validate(userID string) Validation {
	id := Normalize(userID)
	if p, ok := d.profiles[id]; ok {
		return Validation{Valid: true, UserInfo: &p, Message: fmt.Sprintf("Welcome, %s!", p.Name)}
	}
	if p, ok := d.Lookup(id); ok {
		return Validation{Valid: true, UserInfo: &p, Message: fmt.Sprintf("Welcome, Employee %s!", id)}
	}
	return Validation{Valid: false, Message: InvalidIDMessage}
}
