package domain

import (
	"strings"
)

type Type string

const (
	TypeIndividual   Type = "individual"
	TypeOrganization Type = "organization"
)

func ParseType(raw string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(raw))); t {
	case TypeIndividual, TypeOrganization:
		return t, nil
	default:
		return "", ErrInvalidType
	}
}

const (
	CivilityMr  = "M."
	CivilityMrs = "Mme"
)

// PersonalInfo is the contact and billing block typed on the last step.
type PersonalInfo struct {
	Civility         string `json:"civility"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	OrganizationName string `json:"organization_name,omitempty"`
	TaxID            string `json:"tax_id,omitempty"`
	Address          string `json:"address,omitempty"`
	City             string `json:"city,omitempty"`
	PostalCode       string `json:"postal_code,omitempty"`
	ParticipantCount int    `json:"participant_count"`
}

func DefaultPersonalInfo() PersonalInfo {
	return PersonalInfo{Civility: CivilityMr, ParticipantCount: 1}
}

// PersonalInfoPatch carries the fields a client changed. Nil means untouched.
type PersonalInfoPatch struct {
	Civility         *string `json:"civility"`
	FirstName        *string `json:"first_name"`
	LastName         *string `json:"last_name"`
	Email            *string `json:"email"`
	Phone            *string `json:"phone"`
	OrganizationName *string `json:"organization_name"`
	TaxID            *string `json:"tax_id"`
	Address          *string `json:"address"`
	City             *string `json:"city"`
	PostalCode       *string `json:"postal_code"`
	ParticipantCount *int    `json:"participant_count"`
}

// Apply returns p with patch applied.
func (p PersonalInfo) Apply(patch PersonalInfoPatch) (PersonalInfo, error) {
	if patch.Civility != nil {
		switch c := strings.TrimSpace(*patch.Civility); c {
		case CivilityMr, CivilityMrs:
			p.Civility = c
		default:
			return p, ErrInvalidCivility
		}
	}
	if patch.ParticipantCount != nil {
		if *patch.ParticipantCount < 1 {
			return p, ErrInvalidParticipantCount
		}
		p.ParticipantCount = *patch.ParticipantCount
	}

	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&p.FirstName, patch.FirstName)
	set(&p.LastName, patch.LastName)
	set(&p.Email, patch.Email)
	set(&p.Phone, patch.Phone)
	set(&p.OrganizationName, patch.OrganizationName)
	set(&p.TaxID, patch.TaxID)
	set(&p.Address, patch.Address)
	set(&p.City, patch.City)
	set(&p.PostalCode, patch.PostalCode)
	return p, nil
}

// MissingFields lists the required fields that are still blank for t.
func (p PersonalInfo) MissingFields(t Type) []string {
	missing := make([]string, 0)
	check := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	check("first_name", p.FirstName)
	check("last_name", p.LastName)
	check("email", p.Email)
	check("phone", p.Phone)
	if t == TypeOrganization {
		check("organization_name", p.OrganizationName)
		check("tax_id", p.TaxID)
	}
	return missing
}

func (p PersonalInfo) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
}
