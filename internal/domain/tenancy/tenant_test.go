package tenancy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTenant(t *testing.T) {
	t.Run("creates an inactive tenant for provisioning", func(t *testing.T) {
		tenant, err := NewTenant("Acme Corp", "acme", false)

		require.NoError(t, err)
		assert.Equal(t, "Acme Corp", tenant.Name)
		assert.Equal(t, "acme", tenant.Slug)
		assert.False(t, tenant.Active)
	})

	t.Run("rejects an empty name", func(t *testing.T) {
		_, err := NewTenant("", "acme", true)
		assert.Error(t, err)
	})

	t.Run("rejects an invalid slug", func(t *testing.T) {
		_, err := NewTenant("Acme Corp", "Acme Corp", true)
		assert.Error(t, err)
	})
}

func TestTenant_Lifecycle(t *testing.T) {
	tenant, err := NewTenant("Acme Corp", "acme", false)
	require.NoError(t, err)

	tenant.Activate()
	assert.True(t, tenant.Active)

	tenant.Deactivate()
	assert.False(t, tenant.Active)

	tenant.SetStripeCustomerID("cus_test123")
	assert.Equal(t, "cus_test123", tenant.StripeCustomerID)
}

func TestValidateSlug(t *testing.T) {
	valid := []string{"acme", "acme-2", "a1-b2-c3", "7"}
	for _, slug := range valid {
		assert.NoError(t, ValidateSlug(slug), slug)
	}

	invalid := []string{"", "Acme", "acme corp", "acme_corp", "café"}
	for _, slug := range invalid {
		assert.Error(t, ValidateSlug(slug), slug)
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Acme Corp", "acme-corp"},
		{"ada", "ada"},
		{"Ada Lovelace & Co.", "ada-lovelace-co"},
		{"  spaced   out  ", "spaced-out"},
		{"---", ""},
		{"CRM_2024!", "crm-2024"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestTenantURL(t *testing.T) {
	tenant := &Tenant{Slug: "acme"}

	assert.Equal(t, "https://acme.nexora.test/dashboard", TenantURL("https", "nexora.test", tenant, "/dashboard"))
	assert.Equal(t, "https://acme.nexora.test/", TenantURL("https", "nexora.test", tenant, ""))
}

func TestNewProvisionedUser(t *testing.T) {
	t.Run("defaults the name to the email local part", func(t *testing.T) {
		user, err := NewProvisionedUser("Ada@Example.com")

		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", user.Email)
		assert.Equal(t, "ada", user.Name)
		assert.False(t, user.HasUsablePassword())
	})

	t.Run("rejects a malformed email", func(t *testing.T) {
		_, err := NewProvisionedUser("not-an-email")
		assert.Error(t, err)
	})
}

func TestEmailLocalPart(t *testing.T) {
	assert.Equal(t, "ada", EmailLocalPart("ada@example.com"))
	assert.Equal(t, "plain", EmailLocalPart("plain"))
}

func TestUser_HasUsablePassword(t *testing.T) {
	user, err := NewUser("Ada", "ada@example.com", "hashed")
	require.NoError(t, err)
	assert.True(t, user.HasUsablePassword())

	empty := ""
	user.PasswordHash = &empty
	assert.False(t, user.HasUsablePassword())
}
