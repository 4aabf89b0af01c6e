package tasks

import (
	"strings"

	"github.com/desertthunder/mfx/internal/models"
)

// ManifestDetails are the display fields derived from an organization.
type ManifestDetails struct {
	Organization *models.Organization
	Upstream     *models.Upstream // nil when no manifest is imported
	Link         string           // Upstream consumer page
	Name         string           // Upstream name, or its uuid
}

// HasManifest reports whether the organization has an imported manifest.
func (d ManifestDetails) HasManifest() bool {
	return d.Upstream != nil
}

// BuildManifestLink returns the upstream consumer page: the web URL with an https:// scheme
// unless it already starts with http, a trailing slash, then the uuid.
func BuildManifestLink(up models.Upstream) string {
	base := up.WebURL
	if !strings.HasPrefix(base, "http") {
		base = "https://" + base
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + up.UUID
}

// DeriveDetails computes [ManifestDetails] for org.
func DeriveDetails(org *models.Organization) ManifestDetails {
	details := ManifestDetails{Organization: org}

	up := org.Upstream()
	if up == nil {
		return details
	}

	details.Upstream = up
	details.Name = up.Name
	if details.Name == "" {
		details.Name = up.UUID
	}
	if up.WebURL != "" && up.UUID != "" {
		details.Link = BuildManifestLink(*up)
	}
	return details
}

// RefreshDisabled reports whether a manifest refresh cannot be started, and why.
func RefreshDisabled(pending bool, details ManifestDetails, disconnected bool) (bool, string) {
	switch {
	case pending:
		return true, "a manifest task is running"
	case details.Upstream == nil:
		return true, "no manifest is imported"
	case details.Upstream.IDCert == nil:
		return true, "the upstream has no identity certificate"
	case details.Upstream.IDCert.Cert == "":
		return true, "the upstream identity certificate is empty"
	case disconnected:
		return true, "content is in disconnected mode"
	default:
		return false, ""
	}
}
