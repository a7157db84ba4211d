// Package signature validates references to captured client signatures.
package signature

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// objectPathPrefix is where the storage API serves stored objects.
const objectPathPrefix = "/storage/v1/object/"

var ErrInvalidReference = errors.New("signature reference is not a valid URL")

// Validator checks that a signature URL points at a stored artifact.
type Validator struct {
	storage *url.URL
	bucket  string
}

// NewValidator creates a validator. When storageURL is empty any absolute
// http(s) URL is accepted; otherwise the reference must be an object of the
// given bucket served by that storage host.
func NewValidator(storageURL, bucket string) (*Validator, error) {
	v := &Validator{bucket: strings.Trim(bucket, "/")}
	if storageURL == "" {
		return v, nil
	}
	u, err := url.Parse(storageURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid signature storage URL %q", storageURL)
	}
	v.storage = u
	return v, nil
}

// Validate returns ErrInvalidReference (wrapped with the reason) if ref is not acceptable.
func (v *Validator) Validate(ref string) error {
	u, err := url.ParseRequestURI(strings.TrimSpace(ref))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidReference, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidReference, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidReference)
	}
	if v.storage == nil {
		return nil
	}

	if !strings.EqualFold(u.Host, v.storage.Host) {
		return fmt.Errorf("%w: host %q is not the signature storage", ErrInvalidReference, u.Host)
	}
	// Dot segments or doubled slashes could resolve outside the bucket.
	if path.Clean(u.Path) != u.Path {
		return fmt.Errorf("%w: object path is not canonical", ErrInvalidReference)
	}
	if !strings.HasPrefix(u.Path, objectPathPrefix) {
		return fmt.Errorf("%w: not a storage object path", ErrInvalidReference)
	}
	if v.bucket != "" && !containsBucket(strings.TrimPrefix(u.Path, objectPathPrefix), v.bucket) {
		return fmt.Errorf("%w: object is not in bucket %q", ErrInvalidReference, v.bucket)
	}
	return nil
}

// containsBucket accepts "<bucket>/..." as well as "public/<bucket>/..." and
// "sign/<bucket>/..." object paths.
func containsBucket(objectPath, bucket string) bool {
	parts := strings.SplitN(objectPath, "/", 3)
	if len(parts) >= 2 && parts[0] == bucket && parts[1] != "" {
		return true
	}
	if len(parts) == 3 && (parts[0] == "public" || parts[0] == "sign" || parts[0] == "authenticated") {
		return parts[1] == bucket && parts[2] != ""
	}
	return false
}
