// Package petfinder defines the upstream API payloads and the flattened
// record persisted by the collection pipeline.
package petfinder

import "time"

// SearchResponse is the body of the paginated animal list endpoint.
type SearchResponse struct {
	Animals    []Animal   `json:"animals"`
	Pagination Pagination `json:"pagination"`
}

// Pagination describes the page window of a search response.
type Pagination struct {
	CountPerPage int `json:"count_per_page"`
	TotalCount   int `json:"total_count"`
	CurrentPage  int `json:"current_page"`
	TotalPages   int `json:"total_pages"`
}

// Animal is one nested animal entry as returned by the API.
type Animal struct {
	ID                  int64       `json:"id"`
	OrganizationID      string      `json:"organization_id"`
	URL                 string      `json:"url"`
	Type                string      `json:"type"`
	Species             string      `json:"species"`
	Age                 string      `json:"age"`
	Gender              string      `json:"gender"`
	Size                string      `json:"size"`
	Coat                string      `json:"coat"`
	Name                string      `json:"name"`
	Description         string      `json:"description"`
	Status              string      `json:"status"`
	StatusChangedAt     string      `json:"status_changed_at"`
	PublishedAt         string      `json:"published_at"`
	Distance            *float64    `json:"distance"`
	Breeds              Breeds      `json:"breeds"`
	Colors              Colors      `json:"colors"`
	Attributes          Attributes  `json:"attributes"`
	Environment         Environment `json:"environment"`
	Contact             Contact     `json:"contact"`
	Photos              []Photo     `json:"photos"`
	PrimaryPhotoCropped *Photo      `json:"primary_photo_cropped"`
	Tags                []string    `json:"tags"`
}

// Breeds holds the breed mix of an animal.
type Breeds struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
	Mixed     *bool  `json:"mixed"`
	Unknown   *bool  `json:"unknown"`
}

// Colors holds up to three reported coat colors.
type Colors struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
	Tertiary  string `json:"tertiary"`
}

// Attributes holds the medical/behavioural flags.
type Attributes struct {
	SpayedNeutered *bool `json:"spayed_neutered"`
	HouseTrained   *bool `json:"house_trained"`
	Declawed       *bool `json:"declawed"`
	SpecialNeeds   *bool `json:"special_needs"`
	ShotsCurrent   *bool `json:"shots_current"`
}

// Environment holds compatibility flags; null means unknown.
type Environment struct {
	Children *bool `json:"children"`
	Dogs     *bool `json:"dogs"`
	Cats     *bool `json:"cats"`
}

// Contact holds the listing organization's contact details.
type Contact struct {
	Email   string  `json:"email"`
	Phone   string  `json:"phone"`
	Address Address `json:"address"`
}

// Address is the contact's postal address.
type Address struct {
	Address1 string `json:"address1"`
	Address2 string `json:"address2"`
	City     string `json:"city"`
	State    string `json:"state"`
	Postcode string `json:"postcode"`
	Country  string `json:"country"`
}

// Photo holds the size variants of one photo.
type Photo struct {
	Small  string `json:"small"`
	Medium string `json:"medium"`
	Large  string `json:"large"`
	Full   string `json:"full"`
}

// Record is one flattened animal entry: the scalar fields extracted from
// the nested payload plus the querying location and collection timestamp.
// The csv tags are the storage column names; they double as the dedup and
// grouping schema of the combined artifact.
type Record struct {
	ID              int64    `csv:"id"`
	OrgID           string   `csv:"org_id"`
	URL             string   `csv:"url"`
	Type            string   `csv:"type"`
	Species         string   `csv:"species"`
	Age             string   `csv:"age"`
	Gender          string   `csv:"gender"`
	Size            string   `csv:"size"`
	Coat            string   `csv:"coat"`
	Name            string   `csv:"name"`
	Description     string   `csv:"description"`
	Status          string   `csv:"status"`
	StatusChangedAt string   `csv:"status_changed_at"`
	PublishedAt     string   `csv:"published_at"`
	Distance        *float64 `csv:"distance"`

	BreedsPrimary   string `csv:"breeds_primary"`
	BreedsSecondary string `csv:"breeds_secondary"`
	BreedsMixed     *bool  `csv:"breeds_mixed"`
	BreedsUnknown   *bool  `csv:"breeds_unknown"`

	ColorsPrimary   string `csv:"colors_primary"`
	ColorsSecondary string `csv:"colors_secondary"`
	ColorsTertiary  string `csv:"colors_tertiary"`

	SpayedNeutered *bool `csv:"spayed_neutered"`
	HouseTrained   *bool `csv:"house_trained"`
	Declawed       *bool `csv:"declawed"`
	SpecialNeeds   *bool `csv:"special_needs"`
	ShotsCurrent   *bool `csv:"shots_current"`

	EnvChildren *bool `csv:"env_children"`
	EnvDogs     *bool `csv:"env_dogs"`
	EnvCats     *bool `csv:"env_cats"`

	ContactEmail    string `csv:"contact_email"`
	ContactPhone    string `csv:"contact_phone"`
	ContactAddress1 string `csv:"contact_address1"`
	ContactAddress2 string `csv:"contact_address2"`
	ContactCity     string `csv:"contact_city"`
	ContactState    string `csv:"contact_state"`
	ContactPostcode string `csv:"contact_postcode"`
	ContactCountry  string `csv:"contact_country"`

	PhotoCount          int    `csv:"photo_count"`
	Photo               string `csv:"photo"`
	PrimaryPhotoCropped string `csv:"primary_photo_cropped"`

	Tags string `csv:"tags"`

	// Collection-injected fields: the querying location and the instant
	// the record was fetched.
	StateQ   string    `csv:"stateQ"`
	Accessed time.Time `csv:"accessed"`
}

// CombinedRecord is a Record plus the derived grouping field added by the
// merge stage, mapping ZIP stand-ins back to their state code.
type CombinedRecord struct {
	Record
	StateQGrouped string `csv:"stateQ_grouped"`
}
