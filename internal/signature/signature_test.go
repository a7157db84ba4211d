package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateWithoutStorage(t *testing.T) {
	v, err := NewValidator("", "")
	require.NoError(t, err)

	assert.NoError(t, v.Validate("https://cdn.example.com/signatures/abc.png"))
	assert.NoError(t, v.Validate("http://localhost:54321/storage/v1/object/signatures/abc.png"))

	for _, ref := range []string{"not-a-url", "", "ftp://files.example.com/a.png", "/relative/path.png", "https://"} {
		assert.ErrorIs(t, v.Validate(ref), ErrInvalidReference, "ref %q", ref)
	}
}

func TestValidateAgainstStorage(t *testing.T) {
	v, err := NewValidator("https://project.supabase.co", "signatures")
	require.NoError(t, err)

	valid := []string{
		"https://project.supabase.co/storage/v1/object/public/signatures/job-1/sig.png",
		"https://project.supabase.co/storage/v1/object/sign/signatures/job-1/sig.png?token=abc",
		"https://project.supabase.co/storage/v1/object/signatures/job-1.png",
	}
	for _, ref := range valid {
		assert.NoError(t, v.Validate(ref), "ref %q", ref)
	}

	invalid := []string{
		"https://evil.example.com/storage/v1/object/public/signatures/sig.png",
		"https://project.supabase.co/rest/v1/jobs",
		"https://project.supabase.co/storage/v1/object/public/avatars/me.png",
		"https://project.supabase.co/storage/v1/object/public/signatures/",
		"https://project.supabase.co/storage/v1/object/public/signatures/../../../../rest/v1/jobs",
		"https://project.supabase.co/storage/v1/object/public/signatures/%2e%2e/avatars/me.png",
		"https://project.supabase.co/storage/v1/object/public/signatures/./job-1/sig.png",
		"https://project.supabase.co/storage/v1/object//signatures/job-1.png",
	}
	for _, ref := range invalid {
		assert.ErrorIs(t, v.Validate(ref), ErrInvalidReference, "ref %q", ref)
	}
}

func TestNewValidatorRejectsBadStorageURL(t *testing.T) {
	_, err := NewValidator("not a url", "signatures")
	assert.Error(t, err)
}
