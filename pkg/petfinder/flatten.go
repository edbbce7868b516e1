package petfinder

import (
	"strings"
	"time"
)

// Flatten extracts the scalar fields of a nested animal entry into a
// Record, tagging it with the querying location and the collection instant.
func Flatten(a Animal, location string, now time.Time) Record {
	rec := Record{
		ID:              a.ID,
		OrgID:           a.OrganizationID,
		URL:             a.URL,
		Type:            a.Type,
		Species:         a.Species,
		Age:             a.Age,
		Gender:          a.Gender,
		Size:            a.Size,
		Coat:            a.Coat,
		Name:            a.Name,
		Description:     a.Description,
		Status:          a.Status,
		StatusChangedAt: a.StatusChangedAt,
		PublishedAt:     a.PublishedAt,
		Distance:        a.Distance,

		BreedsPrimary:   a.Breeds.Primary,
		BreedsSecondary: a.Breeds.Secondary,
		BreedsMixed:     a.Breeds.Mixed,
		BreedsUnknown:   a.Breeds.Unknown,

		ColorsPrimary:   a.Colors.Primary,
		ColorsSecondary: a.Colors.Secondary,
		ColorsTertiary:  a.Colors.Tertiary,

		SpayedNeutered: a.Attributes.SpayedNeutered,
		HouseTrained:   a.Attributes.HouseTrained,
		Declawed:       a.Attributes.Declawed,
		SpecialNeeds:   a.Attributes.SpecialNeeds,
		ShotsCurrent:   a.Attributes.ShotsCurrent,

		EnvChildren: a.Environment.Children,
		EnvDogs:     a.Environment.Dogs,
		EnvCats:     a.Environment.Cats,

		ContactEmail:    a.Contact.Email,
		ContactPhone:    a.Contact.Phone,
		ContactAddress1: a.Contact.Address.Address1,
		ContactAddress2: a.Contact.Address.Address2,
		ContactCity:     a.Contact.Address.City,
		ContactState:    a.Contact.Address.State,
		ContactPostcode: a.Contact.Address.Postcode,
		ContactCountry:  a.Contact.Address.Country,

		PhotoCount: len(a.Photos),
		Tags:       strings.Join(a.Tags, "|"),

		StateQ:   location,
		Accessed: now.UTC(),
	}

	if len(a.Photos) > 0 {
		rec.Photo = a.Photos[0].Full
	}
	if a.PrimaryPhotoCropped != nil {
		rec.PrimaryPhotoCropped = a.PrimaryPhotoCropped.Full
	}

	return rec
}

// ColorCombination joins the non-empty coat colors of a record with " | ",
// the input format the color classifier expects.
func (r Record) ColorCombination() string {
	colors := make([]string, 0, 3)
	for _, c := range []string{r.ColorsPrimary, r.ColorsSecondary, r.ColorsTertiary} {
		if c != "" {
			colors = append(colors, c)
		}
	}
	return strings.Join(colors, " | ")
}
