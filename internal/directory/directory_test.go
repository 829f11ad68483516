package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectory_Lookup(t *testing.T) {
	d := NewDemo()

	tests := []struct {
		name     string
		userID   string
		wantName string
		wantOK   bool
	}{
		{"known profile", "EMP001234", "John Doe", true},
		{"lower case and padded", "  emp005678 ", "Jane Smith", true},
		{"generic employee", "EMP42", "", false},
		{"generic employee long enough", "EMP777", "Employee", true},
		{"not an employee id", "CONTRACTOR1", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := d.Lookup(tt.userID)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantName, p.Name)
		})
	}
}

func TestDirectory_DisplayName(t *testing.T) {
	d := NewDemo()

	assert.Equal(t, "Admin User", d.DisplayName("EMP009999"))
	assert.Equal(t, "Employee", d.DisplayName("EMP123456"))
	assert.Equal(t, Unknown, d.DisplayName("anonymous"))
}

func TestDirectory_Validate(t *testing.T) {
	d := NewDemo()

	v := d.Validate("emp001234")
	assert.True(t, v.Valid)
	require.NotNil(t, v.UserInfo)
	assert.Equal(t, "Engineering", v.UserInfo.Department)
	assert.Equal(t, "Welcome, John Doe!", v.Message)

	v = d.Validate("EMP123456")
	assert.True(t, v.Valid)
	require.NotNil(t, v.UserInfo)
	assert.Equal(t, "L3", v.UserInfo.Grade)
	assert.Equal(t, "Welcome, Employee EMP123456!", v.Message)

	v = d.Validate("bob")
	assert.False(t, v.Valid)
	assert.Nil(t, v.UserInfo)
	assert.Equal(t, InvalidIDMessage, v.Message)
}
