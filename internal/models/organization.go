package models

// IDCert is the identity certificate of an upstream consumer.
type IDCert struct {
	Cert string `json:"cert"`
}

// Upstream is the upstream subscription consumer a manifest was exported from.
type Upstream struct {
	UUID   string  `json:"uuid"`
	Name   string  `json:"name"`
	WebURL string  `json:"webUrl"`
	APIURL string  `json:"apiUrl,omitempty"`
	IDCert *IDCert `json:"idCert,omitempty"`
}

// OwnerDetails holds the candlepin owner details of an organization.
type OwnerDetails struct {
	UpstreamConsumer *Upstream `json:"upstreamConsumer"`
}

// Organization is the aggregate resource mutated by manifest tasks.
type Organization struct {
	ID                  int          `json:"id"`
	Name                string       `json:"name"`
	Label               string       `json:"label"`
	RedhatRepositoryURL string       `json:"redhat_repository_url"`
	OwnerDetails        OwnerDetails `json:"owner_details"`
}

// Upstream returns the organization's upstream consumer, or nil when no manifest is imported.
func (o *Organization) Upstream() *Upstream {
	if o == nil {
		return nil
	}
	return o.OwnerDetails.UpstreamConsumer
}
